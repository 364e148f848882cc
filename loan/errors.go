/*
errors.go - Validation errors for the loan boundary

PURPOSE:
  The engine itself degrades gracefully (malformed rows are filtered,
  empty rate lists fall back to zero-rate), but business inputs taken
  from users must be rejected loudly before they reach the math. These
  sentinels are what the HTTP boundary reports.

USAGE:
  if err := params.Validate(); err != nil {
      if errors.Is(err, loan.ErrZeroAmortization) { ... }
  }
*/
package loan

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNonPositivePrincipal is returned for a principal <= 0.
	ErrNonPositivePrincipal = errors.New("principal must be positive")

	// ErrMissingStartDate is returned when the loan start date is unset.
	ErrMissingStartDate = errors.New("start date is required")

	// ErrZeroAmortization is returned for amortization months <= 0.
	// Guarded explicitly: a zero term would divide by zero in the
	// monthly-payment formula.
	ErrZeroAmortization = errors.New("amortization months must be positive")

	// ErrInvalidDayCount is returned for a day-count basis other than
	// 360 or 365.
	ErrInvalidDayCount = errors.New("day-count basis must be 360 or 365")

	// ErrNonPositivePayment is returned for a fixed monthly payment <= 0.
	ErrNonPositivePayment = errors.New("monthly payment must be positive")

	// ErrLoanNotFound is returned by stores when a loan id is unknown.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrEventNotFound is returned by stores when a payment event id is
	// unknown.
	ErrEventNotFound = errors.New("payment event not found")
)

// Validate reports the first usage error in the loan terms. The accrual
// engine never re-checks these; callers validate once at the boundary.
func (p LoanParams) Validate() error {
	if !p.Principal.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrNonPositivePrincipal, p.Principal)
	}
	if p.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if p.AmortMonths <= 0 {
		return fmt.Errorf("%w: got %d", ErrZeroAmortization, p.AmortMonths)
	}
	if !p.DayCountBasis.Valid() {
		return fmt.Errorf("%w: got %d", ErrInvalidDayCount, int(p.DayCountBasis))
	}
	if !p.FixedMonthlyPayment.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrNonPositivePayment, p.FixedMonthlyPayment)
	}
	return nil
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNonPositivePrincipal) ||
		errors.Is(err, ErrMissingStartDate) ||
		errors.Is(err, ErrZeroAmortization) ||
		errors.Is(err, ErrInvalidDayCount) ||
		errors.Is(err, ErrNonPositivePayment)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLoanNotFound) || errors.Is(err, ErrEventNotFound)
}
