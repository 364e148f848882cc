/*
accrual.go - Simple-interest accrual across rate boundaries

PURPOSE:
  Computes day-accurate simple interest on a constant balance over an
  arbitrary date span, splitting the span at every rate-period boundary
  that falls strictly inside it.

CONTRACT:
  The balance is constant across the entire span. Balance changes happen
  only at event boundaries, so the schedule builders call this once per
  event with the span since the previous event. Interest never compounds
  within a call.

SEGMENT MATH:
  For each segment [segStart, segEnd):
    interest += balance * (annualRate / dayCountBasis) * days

  Segment boundaries are exact calendar days and no segment has negative
  length.
*/
package loan

import (
	"github.com/shopspring/decimal"
)

// AccrueInterest returns the simple interest accrued on balance over
// [from, to), under the normalized rate timeline and day-count basis.
// Returns zero when balance <= 0 or to <= from.
func AccrueInterest(balance decimal.Decimal, from, to CalendarDate, periods []RatePeriod, basis DayCountBasis) decimal.Decimal {
	if !balance.IsPositive() {
		return decimal.Zero
	}
	if to.BeforeOrEqual(from) || len(periods) == 0 {
		return decimal.Zero
	}

	basisDec := basis.Decimal()
	interest := decimal.Zero

	i := activeRateIndex(periods, from)
	cursor := from

	for cursor.Before(to) {
		rate := periods[i].AnnualRate

		// Segment ends at the next rate boundary, or at 'to' if the
		// boundary is not strictly inside the remaining span.
		segmentEnd := to
		hasNext := i+1 < len(periods)
		if hasNext && periods[i+1].EffectiveDate.Before(to) {
			segmentEnd = periods[i+1].EffectiveDate
		}

		if days := DaysBetween(cursor, segmentEnd); days > 0 {
			daily := rate.Div(basisDec)
			interest = interest.Add(balance.Mul(daily).Mul(decimal.NewFromInt(int64(days))))
		}

		cursor = segmentEnd
		if hasNext && cursor.Equal(periods[i+1].EffectiveDate) {
			i++
			continue
		}
		break
	}

	return interest
}
