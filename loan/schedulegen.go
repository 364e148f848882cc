/*
schedulegen.go - Static payment plan generation

PURPOSE:
  Produces the immutable monthly plan: one due date per month for the
  amortization term, each carrying the same expected amount. Pure date
  stepping, no interest logic.

SEE ALSO:
  - schedule.go: replays the plan (plus extras) against a balance
  - status.go: classifies the plan rows against actual payments
*/
package loan

import (
	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// GenerateScheduledPayments produces exactly amortMonths rows, due on
// start + i months for i = 1..amortMonths. Month stepping clamps to
// shorter months, so a loan starting Jan 31 is due Feb 28, Mar 31, ...
func GenerateScheduledPayments(start CalendarDate, amortMonths int, expected decimal.Decimal) []ScheduledPayment {
	if amortMonths <= 0 {
		return nil
	}
	rows := make([]ScheduledPayment, 0, amortMonths)
	for i := 1; i <= amortMonths; i++ {
		rows = append(rows, ScheduledPayment{
			DueDate:        start.AddMonths(i),
			ExpectedAmount: expected,
		})
	}
	return rows
}

// CalcMonthlyPayment returns the fixed payment that amortizes principal
// over nMonths at the given annual rate (decimal fraction), using the
// standard annuity formula with monthly compounding of the rate:
//
//	payment = P*r / (1 - (1+r)^-n)   where r = annualRate/12
//
// A zero rate degenerates to P/n. Returns zero for nMonths <= 0; the
// boundary validates the term before asking for a payment.
func CalcMonthlyPayment(principal, annualRate decimal.Decimal, nMonths int) decimal.Decimal {
	if nMonths <= 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(nMonths))
	r := annualRate.Div(twelve)
	if r.IsZero() {
		return principal.Div(n)
	}

	// P*r / (1 - (1+r)^-n) rearranged to avoid a negative exponent:
	// P*r*(1+r)^n / ((1+r)^n - 1)
	growth := decimal.NewFromInt(1).Add(r).Pow(n)
	return principal.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
}
