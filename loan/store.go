/*
store.go - Persistence interface for loans and their rows

PURPOSE:
  Defines the boundary between the pure engine and whatever holds the
  records. The engine itself never reads or writes storage; callers load
  rows, hand them to the math, and persist whatever they choose to keep.

OWNERSHIP CONTRACT:
  Loaded slices belong to the caller. Implementations must return fresh
  copies, never internal state, so that the engine's never-mutate-inputs
  guarantee cannot be violated by aliasing.

RATE PERIOD UPSERTS:
  Rate periods are keyed by (loan, effective date). The benchmark
  updater re-publishes the latest prime observation on every run, so a
  second write for the same date replaces the first instead of stacking
  a duplicate.

IMPLEMENTATIONS:
  - loan/store/memory.go: In-memory, for tests and dev
  - store/sqlite/sqlite.go: Production SQLite
*/
package loan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORDS - Persistence row shapes
// =============================================================================

// LoanRecord is a persisted loan with its terms.
type LoanRecord struct {
	ID   string
	Name string
	LoanParams

	// PrimeSpread is added to the benchmark prime rate when the updater
	// publishes a new rate period for this loan (decimal fraction,
	// typically negative, e.g. -0.0025).
	PrimeSpread decimal.Decimal

	CreatedAt time.Time
}

// RatePeriodRecord is a persisted rate period row.
type RatePeriodRecord struct {
	LoanID string
	RatePeriod
}

// PaymentEventRecord is a persisted payment event row.
type PaymentEventRecord struct {
	ID     string
	LoanID string
	PaymentEvent
}

// ScheduledPaymentRecord is a persisted plan row.
type ScheduledPaymentRecord struct {
	LoanID string
	ScheduledPayment
}

// =============================================================================
// STORE - Persistence interface
// =============================================================================

// Store handles persistence of loans and their associated rows. All list
// methods return rows ordered by date and owned by the caller.
type Store interface {
	// Loans
	SaveLoan(ctx context.Context, rec LoanRecord) error
	GetLoan(ctx context.Context, id string) (*LoanRecord, error)
	ListLoans(ctx context.Context) ([]LoanRecord, error)
	DeleteLoan(ctx context.Context, id string) error

	// Rate periods, upserted on (loan, effective date).
	UpsertRatePeriod(ctx context.Context, rec RatePeriodRecord) error
	ListRatePeriods(ctx context.Context, loanID string) ([]RatePeriodRecord, error)

	// Payment events
	AppendPaymentEvent(ctx context.Context, rec PaymentEventRecord) error
	ListPaymentEvents(ctx context.Context, loanID string) ([]PaymentEventRecord, error)
	DeletePaymentEvent(ctx context.Context, loanID, eventID string) error

	// Scheduled payments (the static plan, replaced wholesale on create)
	ReplaceScheduledPayments(ctx context.Context, loanID string, rows []ScheduledPaymentRecord) error
	ListScheduledPayments(ctx context.Context, loanID string) ([]ScheduledPaymentRecord, error)
}

// RatePeriodsOf strips store rows down to the engine's input type.
func RatePeriodsOf(recs []RatePeriodRecord) []RatePeriod {
	out := make([]RatePeriod, len(recs))
	for i, r := range recs {
		out[i] = r.RatePeriod
	}
	return out
}

// PaymentEventsOf strips store rows down to the engine's input type.
func PaymentEventsOf(recs []PaymentEventRecord) []PaymentEvent {
	out := make([]PaymentEvent, len(recs))
	for i, r := range recs {
		out[i] = r.PaymentEvent
	}
	return out
}

// ScheduledPaymentsOf strips store rows down to the engine's input type.
func ScheduledPaymentsOf(recs []ScheduledPaymentRecord) []ScheduledPayment {
	out := make([]ScheduledPayment, len(recs))
	for i, r := range recs {
		out[i] = r.ScheduledPayment
	}
	return out
}
