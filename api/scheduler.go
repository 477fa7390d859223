/*
scheduler.go - Monthly rolling continuation job

PURPOSE:
  Rolling tenancies have no end date, so their schedules cannot be
  generated up front in one shot. This job runs on the 1st of each
  month and appends the new month's rent entry for every rolling
  tenancy, due the 1st, skipping any tenancy-member whose ledger
  already covers the month.

IDEMPOTENCY:
  Every execution is recorded as a BillingRun keyed by period
  ("2025-10"). A completed run for the period makes re-runs no-ops,
  and the per-member coverage check catches partial re-runs after a
  failure mid-way.

SCHEDULING:
  Backed by robfig/cron. The default spec fires at 02:00 on the 1st of
  each month; RunNow and RunPeriod exist for the admin endpoint and for
  tests.

USAGE:
  job := NewRollingBillingJob(store)
  job.Start("0 2 1 * *")
  // ... later
  job.Stop()

SEE ALSO:
  - handlers.go: RunRollingJob endpoint (manual trigger)
  - lettings/rolling.go: First-period policy this job continues from
*/
package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hearth/schedule-engine/billing"
)

// DefaultRollingCronSpec fires at 02:00 on the 1st of every month.
const DefaultRollingCronSpec = "0 2 1 * *"

// RollingBillingJob appends each new month's rent for rolling tenancies.
type RollingBillingJob struct {
	Store billing.TxStore
	Calc  billing.RentCalculator

	cron *cron.Cron
}

// NewRollingBillingJob creates the job over the given store.
func NewRollingBillingJob(store billing.TxStore) *RollingBillingJob {
	return &RollingBillingJob{Store: store}
}

// Start schedules the job on the given cron spec (DefaultRollingCronSpec
// when empty) and begins firing in the background.
func (j *RollingBillingJob) Start(spec string) error {
	if spec == "" {
		spec = DefaultRollingCronSpec
	}
	j.cron = cron.New()
	_, err := j.cron.AddFunc(spec, func() {
		if _, err := j.RunNow(context.Background()); err != nil {
			log.Printf("[RollingJob] run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	j.cron.Start()
	log.Printf("[RollingJob] Started with spec %q", spec)
	return nil
}

// Stop halts the cron scheduler, waiting for an in-flight run.
func (j *RollingBillingJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		log.Println("[RollingJob] Stopped")
	}
}

// RunNow executes the continuation for the current calendar month.
func (j *RollingBillingJob) RunNow(ctx context.Context) (*billing.BillingRun, error) {
	today := billing.Today()
	return j.runMonth(ctx, today.Year(), today.Month())
}

// RunPeriod executes the continuation for an explicit "2006-01" period.
func (j *RollingBillingJob) RunPeriod(ctx context.Context, period string) (*billing.BillingRun, error) {
	parsed, err := time.Parse("2006-01", period)
	if err != nil {
		return nil, &billing.InvalidTermsError{Reason: fmt.Sprintf("invalid period %q, want YYYY-MM", period)}
	}
	return j.runMonth(ctx, parsed.Year(), parsed.Month())
}

func (j *RollingBillingJob) runMonth(ctx context.Context, year int, month time.Month) (*billing.BillingRun, error) {
	period := billing.RunPeriod(year, month)

	// A completed run makes the period a no-op.
	existing, err := j.Store.RunForPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == billing.RunCompleted {
		return existing, nil
	}

	run := billing.BillingRun{
		ID:        fmt.Sprintf("run-%d", time.Now().UnixNano()),
		Period:    period,
		StartedAt: time.Now().UTC(),
		Status:    billing.RunStarted,
	}
	if err := j.Store.SaveRun(ctx, run); err != nil {
		return nil, err
	}

	created, err := j.continueTenancies(ctx, year, month)
	completed := time.Now().UTC()
	run.CompletedAt = &completed
	run.EntriesCreated = created
	if err != nil {
		run.Status = billing.RunFailed
		run.Details = err.Error()
		if saveErr := j.Store.SaveRun(ctx, run); saveErr != nil {
			log.Printf("[RollingJob] failed to record failed run: %v", saveErr)
		}
		return nil, err
	}

	run.Status = billing.RunCompleted
	run.Details = fmt.Sprintf("%d entries appended", created)
	if err := j.Store.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	log.Printf("[RollingJob] %s completed: %d entries", period, created)
	return &run, nil
}

// continueTenancies walks every rolling tenancy and appends the month's
// rent where the ledger does not already cover it. Each tenancy commits
// in its own transaction so one bad tenancy cannot poison the rest of
// the run's writes.
func (j *RollingBillingJob) continueTenancies(ctx context.Context, year int, month time.Month) (int, error) {
	tenancies, err := j.Store.ListRollingTenancies(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, t := range tenancies {
		if !t.Terms.ManageRent {
			continue
		}
		n, err := j.continueTenancy(ctx, t, year, month)
		if err != nil {
			return total, fmt.Errorf("tenancy %s: %w", t.ID, err)
		}
		total += n
	}
	return total, nil
}

func (j *RollingBillingJob) continueTenancy(ctx context.Context, t billing.Tenancy, year int, month time.Month) (int, error) {
	monthPeriod := billing.MonthPeriod(year, month)
	if t.Terms.StartDate.After(monthPeriod.End) {
		return 0, nil
	}

	created := 0
	err := j.Store.WithTx(ctx, func(s billing.Store) error {
		members, err := s.MembersOf(ctx, t.ID)
		if err != nil {
			return err
		}

		var batch []billing.ScheduleEntry
		for _, m := range members {
			existing, err := s.EntriesForMember(ctx, t.ID, m.MemberID)
			if err != nil {
				return err
			}
			if coversMonth(existing, monthPeriod) {
				continue
			}

			// Clamped in case the tenancy started mid-month and the
			// first-period entry did not reach this far.
			covered, ok := j.Calc.MonthCoverage(year, month, t.Terms.StartDate, monthPeriod.End)
			if !ok {
				continue
			}
			amount := j.Calc.AmountForDays(covered.Days(), m.RentPerWeek, billing.DaysInMonth(year, month))
			if !amount.IsPositive() {
				continue
			}

			description := monthPeriod.Start.MonthLabel()
			if covered.Days() < billing.DaysInMonth(year, month) {
				description += " (partial)"
			}
			batch = append(batch, billing.ScheduleEntry{
				TenancyID:   t.ID,
				MemberID:    m.MemberID,
				PaymentType: billing.PaymentRent,
				DueDate:     billing.Later(monthPeriod.Start, t.Terms.StartDate),
				AmountDue:   amount,
				Description: "Rent - " + description,
			}.WithCoverage(covered))
		}

		if len(batch) == 0 {
			return nil
		}
		stamped, err := billing.NewLedger(s).Append(ctx, batch)
		if err != nil {
			return err
		}
		created = len(stamped)
		return s.AppendAudit(ctx, billing.AuditEntry{
			ID:        fmt.Sprintf("aud-%d", time.Now().UnixNano()),
			Timestamp: time.Now().UTC(),
			Actor:     "system",
			Action:    billing.AuditRollingContinued,
			TenancyID: t.ID,
			Payload: map[string]any{
				"period":  billing.RunPeriod(year, month),
				"entries": created,
			},
		})
	})
	return created, err
}

// coversMonth reports whether any rent entry's coverage touches the month.
func coversMonth(entries []billing.ScheduleEntry, month billing.Period) bool {
	for _, e := range entries {
		if e.PaymentType != billing.PaymentRent {
			continue
		}
		if covered, ok := e.Coverage(); ok && covered.Overlaps(month) {
			return true
		}
	}
	return false
}
