/*
Package loan provides the loan-math core engine.

PURPOSE:
  This package contains the pure types and algorithms for tracking a
  personal loan: day-accurate simple-interest accrual under a
  piecewise-variable rate, schedule construction (forecast and actual),
  scheduled-payment generation, and payment-status classification.

KEY CONCEPTS IN THIS FILE (types.go):
  - CalendarDate: A calendar day with no time component (date.go)
  - RatePeriod: An (effective date, annual rate) timeline entry
  - PaymentEvent: Money actually received, with an event kind
  - ScheduledPayment: An immutable plan row (due date, expected amount)
  - ScheduleRow: One replayed event in a built schedule
  - LoanParams: The caller-supplied loan terms

DESIGN PRINCIPLES:
  1. Purity: every exported computation is a synchronous function over
     immutable inputs; the package holds no state and does no I/O
  2. Precision: uses decimal.Decimal to avoid floating-point cent drift;
     rounding happens only at presentation boundaries
  3. Graceful degradation: malformed inputs are filtered, not raised;
     business validation belongs to the boundary (errors.go)

USAGE:
  periods := loan.NormalizeRatePeriods(rows, params.StartDate)
  result := loan.BuildForecastSchedule(loan.ForecastInput{
      Params:      params,
      RatePeriods: periods,
  })

SEE ALSO:
  - accrual.go: interest accrual across rate boundaries
  - schedule.go: the shared replay loop and both builder variants
  - status.go: grace-window status classification
*/
package loan

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DAY COUNT BASIS
// =============================================================================

// DayCountBasis is the divisor converting an annual rate into a daily rate.
type DayCountBasis int

const (
	Basis360 DayCountBasis = 360
	Basis365 DayCountBasis = 365
)

func (b DayCountBasis) Valid() bool {
	return b == Basis360 || b == Basis365
}

func (b DayCountBasis) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(b))
}

// =============================================================================
// RATE PERIOD
// =============================================================================

// RatePeriod marks the start of a half-open interval during which one
// fixed annual rate applies. AnnualRate is a decimal fraction (0.0675),
// never a percentage.
type RatePeriod struct {
	EffectiveDate CalendarDate
	AnnualRate    decimal.Decimal
}

// =============================================================================
// PAYMENT EVENTS
// =============================================================================

// EventKind classifies a payment event.
type EventKind string

const (
	// EventMonthly is a regular plan payment (interest-first allocation).
	EventMonthly EventKind = "monthly"
	// EventExtra is an additional payment, principal-only by default.
	EventExtra EventKind = "extra"
	// EventManual is an ad-hoc payment, treated like a monthly payment
	// for allocation purposes.
	EventManual EventKind = "manual"
)

// PaymentEvent is money actually received.
type PaymentEvent struct {
	Date   CalendarDate
	Kind   EventKind
	Amount decimal.Decimal
	Note   string
}

// AllocationPolicy controls how an extra payment splits between interest
// and principal. Monthly and manual events always allocate interest-first.
type AllocationPolicy string

const (
	AllocatePrincipalOnly AllocationPolicy = "principal_only"
	AllocateInterestFirst AllocationPolicy = "interest_first"
)

// =============================================================================
// SCHEDULED PAYMENTS (the static plan)
// =============================================================================

// ScheduledPayment is one immutable plan row, independent of what was
// actually paid.
type ScheduledPayment struct {
	DueDate        CalendarDate
	ExpectedAmount decimal.Decimal
}

// =============================================================================
// SCHEDULE OUTPUT
// =============================================================================

// ScheduleRow is one replayed event in a built schedule. Rows are created
// by the schedule builders and never mutated afterwards.
type ScheduleRow struct {
	Date            CalendarDate
	Type            EventKind
	Payment         decimal.Decimal
	InterestAccrued decimal.Decimal
	ToInterest      decimal.Decimal
	ToPrincipal     decimal.Decimal
	BalanceAfter    decimal.Decimal
	Note            string
}

// ScheduleResult bundles the rows with the summary totals.
//
// TotalInterest is the interest accrued across all processed spans, not
// just the interest actually paid. PayoffDate is the date of the last
// processed row, nil when no rows were produced.
type ScheduleResult struct {
	Rows          []ScheduleRow
	TotalPaid     decimal.Decimal
	TotalInterest decimal.Decimal
	EndingBalance decimal.Decimal
	PayoffDate    *CalendarDate
}

// =============================================================================
// LOAN PARAMETERS
// =============================================================================

// LoanParams are the caller-supplied loan terms. The engine never persists
// or mutates them.
type LoanParams struct {
	Principal           decimal.Decimal
	StartDate           CalendarDate
	AmortMonths         int
	DayCountBasis       DayCountBasis
	FixedMonthlyPayment decimal.Decimal
}
