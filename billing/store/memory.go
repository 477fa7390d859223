// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hearth/schedule-engine/billing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	tenancies map[billing.TenancyID]billing.Tenancy
	members   map[billing.TenancyID][]billing.MemberBillingTerms
	entries   map[billing.TenancyID][]billing.ScheduleEntry
	runs      map[string]billing.BillingRun
	audits    map[billing.TenancyID][]billing.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		tenancies: make(map[billing.TenancyID]billing.Tenancy),
		members:   make(map[billing.TenancyID][]billing.MemberBillingTerms),
		entries:   make(map[billing.TenancyID][]billing.ScheduleEntry),
		runs:      make(map[string]billing.BillingRun),
		audits:    make(map[billing.TenancyID][]billing.AuditEntry),
	}
}

// -----------------------------------------------------------------------------
// Tenancies
// -----------------------------------------------------------------------------

func (m *Memory) SaveTenancy(_ context.Context, t billing.Tenancy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenancies[t.ID] = t
	return nil
}

func (m *Memory) GetTenancy(_ context.Context, id billing.TenancyID) (*billing.Tenancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getTenancyLocked(id)
}

func (m *Memory) getTenancyLocked(id billing.TenancyID) (*billing.Tenancy, error) {
	t, ok := m.tenancies[id]
	if !ok {
		return nil, billing.ErrTenancyNotFound
	}
	return &t, nil
}

func (m *Memory) ListTenancies(_ context.Context) ([]billing.Tenancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listTenanciesLocked(func(billing.Tenancy) bool { return true }), nil
}

func (m *Memory) ListRollingTenancies(_ context.Context) ([]billing.Tenancy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listTenanciesLocked(func(t billing.Tenancy) bool { return t.Terms.RollingMonthly }), nil
}

func (m *Memory) listTenanciesLocked(keep func(billing.Tenancy) bool) []billing.Tenancy {
	var result []billing.Tenancy
	for _, t := range m.tenancies {
		if keep(t) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// -----------------------------------------------------------------------------
// Members
// -----------------------------------------------------------------------------

func (m *Memory) SaveMember(_ context.Context, tenancyID billing.TenancyID, member billing.MemberBillingTerms) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveMemberLocked(tenancyID, member)
}

func (m *Memory) saveMemberLocked(tenancyID billing.TenancyID, member billing.MemberBillingTerms) error {
	members := m.members[tenancyID]
	for i, existing := range members {
		if existing.MemberID == member.MemberID {
			members[i] = member
			return nil
		}
	}
	m.members[tenancyID] = append(members, member)
	return nil
}

func (m *Memory) MembersOf(_ context.Context, tenancyID billing.TenancyID) ([]billing.MemberBillingTerms, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]billing.MemberBillingTerms, len(m.members[tenancyID]))
	copy(result, m.members[tenancyID])
	return result, nil
}

// -----------------------------------------------------------------------------
// Schedule entries
// -----------------------------------------------------------------------------

// AppendEntries inserts atomically; ordering by due date is maintained at
// insertion time so reads never sort.
func (m *Memory) AppendEntries(_ context.Context, entries []billing.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendEntriesLocked(entries)
}

func (m *Memory) appendEntriesLocked(entries []billing.ScheduleEntry) error {
	for _, e := range entries {
		list := m.entries[e.TenancyID]

		// Binary search for insertion point; equal due dates keep append order.
		i := sort.Search(len(list), func(i int) bool {
			return list[i].DueDate.After(e.DueDate)
		})

		list = append(list, billing.ScheduleEntry{})
		copy(list[i+1:], list[i:])
		list[i] = e
		m.entries[e.TenancyID] = list
	}
	return nil
}

func (m *Memory) EntriesFor(_ context.Context, tenancyID billing.TenancyID) ([]billing.ScheduleEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterEntriesLocked(tenancyID, func(billing.ScheduleEntry) bool { return true }), nil
}

func (m *Memory) EntriesForMember(_ context.Context, tenancyID billing.TenancyID, memberID billing.MemberID) ([]billing.ScheduleEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterEntriesLocked(tenancyID, func(e billing.ScheduleEntry) bool { return e.MemberID == memberID }), nil
}

func (m *Memory) EntriesByType(_ context.Context, tenancyID billing.TenancyID, pt billing.PaymentType) ([]billing.ScheduleEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterEntriesLocked(tenancyID, func(e billing.ScheduleEntry) bool { return e.PaymentType == pt }), nil
}

func (m *Memory) filterEntriesLocked(tenancyID billing.TenancyID, keep func(billing.ScheduleEntry) bool) []billing.ScheduleEntry {
	var result []billing.ScheduleEntry
	for _, e := range m.entries[tenancyID] {
		if keep(e) {
			result = append(result, e)
		}
	}
	return result
}

func (m *Memory) GetEntry(_ context.Context, id billing.EntryID) (*billing.ScheduleEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, list := range m.entries {
		for _, e := range list {
			if e.ID == id {
				found := e
				return &found, nil
			}
		}
	}
	return nil, billing.ErrEntryNotFound
}

func (m *Memory) UpdateEntryAmount(_ context.Context, id billing.EntryID, amount billing.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateEntryAmountLocked(id, amount)
}

func (m *Memory) updateEntryAmountLocked(id billing.EntryID, amount billing.Money) error {
	for tenancyID, list := range m.entries {
		for i, e := range list {
			if e.ID == id {
				list[i].AmountDue = amount
				m.entries[tenancyID] = list
				return nil
			}
		}
	}
	return billing.ErrEntryNotFound
}

// -----------------------------------------------------------------------------
// Billing runs
// -----------------------------------------------------------------------------

func (m *Memory) SaveRun(_ context.Context, run billing.BillingRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.Period] = run
	return nil
}

func (m *Memory) RunForPeriod(_ context.Context, period string) (*billing.BillingRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[period]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

// -----------------------------------------------------------------------------
// Audit log
// -----------------------------------------------------------------------------

func (m *Memory) AppendAudit(_ context.Context, e billing.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[e.TenancyID] = append(m.audits[e.TenancyID], e)
	return nil
}

func (m *Memory) AuditFor(_ context.Context, tenancyID billing.TenancyID) ([]billing.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]billing.AuditEntry, len(m.audits[tenancyID]))
	copy(result, m.audits[tenancyID])
	return result, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction, simulated with a snapshot and
// rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(billing.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	view := &txMemoryView{parent: tm.Memory}
	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		tenancies: make(map[billing.TenancyID]billing.Tenancy, len(tm.tenancies)),
		members:   make(map[billing.TenancyID][]billing.MemberBillingTerms, len(tm.members)),
		entries:   make(map[billing.TenancyID][]billing.ScheduleEntry, len(tm.entries)),
		runs:      make(map[string]billing.BillingRun, len(tm.runs)),
		audits:    make(map[billing.TenancyID][]billing.AuditEntry, len(tm.audits)),
	}
	for k, v := range tm.tenancies {
		s.tenancies[k] = v
	}
	for k, v := range tm.members {
		s.members[k] = append([]billing.MemberBillingTerms{}, v...)
	}
	for k, v := range tm.entries {
		s.entries[k] = append([]billing.ScheduleEntry{}, v...)
	}
	for k, v := range tm.runs {
		s.runs[k] = v
	}
	for k, v := range tm.audits {
		s.audits[k] = append([]billing.AuditEntry{}, v...)
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.tenancies = s.tenancies
	tm.members = s.members
	tm.entries = s.entries
	tm.runs = s.runs
	tm.audits = s.audits
}

type memorySnapshot struct {
	tenancies map[billing.TenancyID]billing.Tenancy
	members   map[billing.TenancyID][]billing.MemberBillingTerms
	entries   map[billing.TenancyID][]billing.ScheduleEntry
	runs      map[string]billing.BillingRun
	audits    map[billing.TenancyID][]billing.AuditEntry
}

// txMemoryView runs against the parent's maps while the parent holds its
// own lock for the duration of WithTx.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) SaveTenancy(_ context.Context, t billing.Tenancy) error {
	tv.parent.tenancies[t.ID] = t
	return nil
}

func (tv *txMemoryView) GetTenancy(_ context.Context, id billing.TenancyID) (*billing.Tenancy, error) {
	return tv.parent.getTenancyLocked(id)
}

func (tv *txMemoryView) ListTenancies(_ context.Context) ([]billing.Tenancy, error) {
	return tv.parent.listTenanciesLocked(func(billing.Tenancy) bool { return true }), nil
}

func (tv *txMemoryView) ListRollingTenancies(_ context.Context) ([]billing.Tenancy, error) {
	return tv.parent.listTenanciesLocked(func(t billing.Tenancy) bool { return t.Terms.RollingMonthly }), nil
}

func (tv *txMemoryView) SaveMember(_ context.Context, tenancyID billing.TenancyID, m billing.MemberBillingTerms) error {
	return tv.parent.saveMemberLocked(tenancyID, m)
}

func (tv *txMemoryView) MembersOf(_ context.Context, tenancyID billing.TenancyID) ([]billing.MemberBillingTerms, error) {
	result := make([]billing.MemberBillingTerms, len(tv.parent.members[tenancyID]))
	copy(result, tv.parent.members[tenancyID])
	return result, nil
}

func (tv *txMemoryView) AppendEntries(_ context.Context, entries []billing.ScheduleEntry) error {
	return tv.parent.appendEntriesLocked(entries)
}

func (tv *txMemoryView) EntriesFor(_ context.Context, tenancyID billing.TenancyID) ([]billing.ScheduleEntry, error) {
	return tv.parent.filterEntriesLocked(tenancyID, func(billing.ScheduleEntry) bool { return true }), nil
}

func (tv *txMemoryView) EntriesForMember(_ context.Context, tenancyID billing.TenancyID, memberID billing.MemberID) ([]billing.ScheduleEntry, error) {
	return tv.parent.filterEntriesLocked(tenancyID, func(e billing.ScheduleEntry) bool { return e.MemberID == memberID }), nil
}

func (tv *txMemoryView) EntriesByType(_ context.Context, tenancyID billing.TenancyID, pt billing.PaymentType) ([]billing.ScheduleEntry, error) {
	return tv.parent.filterEntriesLocked(tenancyID, func(e billing.ScheduleEntry) bool { return e.PaymentType == pt }), nil
}

func (tv *txMemoryView) GetEntry(_ context.Context, id billing.EntryID) (*billing.ScheduleEntry, error) {
	for _, list := range tv.parent.entries {
		for _, e := range list {
			if e.ID == id {
				found := e
				return &found, nil
			}
		}
	}
	return nil, billing.ErrEntryNotFound
}

func (tv *txMemoryView) UpdateEntryAmount(_ context.Context, id billing.EntryID, amount billing.Money) error {
	return tv.parent.updateEntryAmountLocked(id, amount)
}

func (tv *txMemoryView) SaveRun(_ context.Context, run billing.BillingRun) error {
	tv.parent.runs[run.Period] = run
	return nil
}

func (tv *txMemoryView) RunForPeriod(_ context.Context, period string) (*billing.BillingRun, error) {
	run, ok := tv.parent.runs[period]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (tv *txMemoryView) AppendAudit(_ context.Context, e billing.AuditEntry) error {
	tv.parent.audits[e.TenancyID] = append(tv.parent.audits[e.TenancyID], e)
	return nil
}

func (tv *txMemoryView) AuditFor(_ context.Context, tenancyID billing.TenancyID) ([]billing.AuditEntry, error) {
	result := make([]billing.AuditEntry, len(tv.parent.audits[tenancyID]))
	copy(result, tv.parent.audits[tenancyID])
	return result, nil
}
