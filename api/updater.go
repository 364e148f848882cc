/*
updater.go - Scheduled benchmark rate update

PURPOSE:
  Variable loans track prime plus a per-loan spread. This job fetches
  the latest published prime observation and publishes one rate period
  per loan at the observation's effective date. Re-running for the same
  observation is harmless: rate periods upsert on (loan, effective
  date), so the timeline never grows duplicates.

SCHEDULING:
  Runs under robfig/cron with a standard 5-field spec (default: daily at
  06:00). The manual admin endpoint shares RunOnce, so an operator can
  trigger the same code path on demand.

SEE ALSO:
  - benchmark/prime.go: The Valet client
  - handlers.go: TriggerPrimeUpdate endpoint
*/
package api

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/loan-engine/benchmark"
	"github.com/warp/loan-engine/loan"
)

// DefaultPrimeCron runs the update every morning after the Bank of
// Canada publishes.
const DefaultPrimeCron = "0 6 * * *"

// PrimeUpdater applies the latest benchmark observation to every loan.
type PrimeUpdater struct {
	Store  loan.Store
	Client *benchmark.Client
	Log    *logrus.Logger

	cronSpec string
	cron     *cron.Cron
}

// PrimeUpdateOutcome reports what one run did.
type PrimeUpdateOutcome struct {
	EffectiveDate loan.CalendarDate
	PrimePct      decimal.Decimal
	UpdatedLoans  int
}

// NewPrimeUpdater creates an updater. An empty cronSpec selects the
// default daily schedule.
func NewPrimeUpdater(store loan.Store, client *benchmark.Client, log *logrus.Logger, cronSpec string) *PrimeUpdater {
	if cronSpec == "" {
		cronSpec = DefaultPrimeCron
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PrimeUpdater{
		Store:    store,
		Client:   client,
		Log:      log,
		cronSpec: cronSpec,
	}
}

// Start schedules the recurring update.
func (u *PrimeUpdater) Start() error {
	u.cron = cron.New()
	_, err := u.cron.AddFunc(u.cronSpec, func() {
		if _, err := u.RunOnce(context.Background()); err != nil {
			u.Log.WithError(err).Error("scheduled prime update failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid prime cron spec %q: %w", u.cronSpec, err)
	}
	u.cron.Start()
	u.Log.WithField("cron", u.cronSpec).Info("prime updater started")
	return nil
}

// Stop halts the schedule and waits for a running update to finish.
func (u *PrimeUpdater) Stop() {
	if u.cron != nil {
		<-u.cron.Stop().Done()
		u.Log.Info("prime updater stopped")
	}
}

// RunOnce fetches the latest prime and upserts a rate period for every
// loan at the observation date, using each loan's spread.
func (u *PrimeUpdater) RunOnce(ctx context.Context) (*PrimeUpdateOutcome, error) {
	obs, err := u.Client.LatestPrime(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch prime: %w", err)
	}

	loans, err := u.Store.ListLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	updated := 0
	for _, rec := range loans {
		rate := obs.LoanRate(rec.PrimeSpread)
		err := u.Store.UpsertRatePeriod(ctx, loan.RatePeriodRecord{
			LoanID: rec.ID,
			RatePeriod: loan.RatePeriod{
				EffectiveDate: obs.EffectiveDate,
				AnnualRate:    rate,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("upsert rate for loan %s: %w", rec.ID, err)
		}
		updated++
	}

	u.Log.WithFields(logrus.Fields{
		"effective_date": obs.EffectiveDate.String(),
		"prime_pct":      obs.PrimePct.String(),
		"updated_loans":  updated,
	}).Info("prime rates updated")

	return &PrimeUpdateOutcome{
		EffectiveDate: obs.EffectiveDate,
		PrimePct:      obs.PrimePct,
		UpdatedLoans:  updated,
	}, nil
}
