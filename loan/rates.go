/*
rates.go - Rate-period timeline normalization

PURPOSE:
  Persistence hands the engine an unordered bag of (effective date,
  annual rate) rows. Every downstream computation assumes a sorted,
  start-clamped timeline, and this file is the single place that
  guarantee is established.

GUARANTEES AFTER NormalizeRatePeriods:
  1. Non-empty (zero-rate fallback when nothing survives filtering)
  2. Ascending by effective date, no two entries on the same date
  3. First entry is at or before the loan start date

THE ZERO-RATE FALLBACK:
  An empty rate list yields a single zero-rate entry at the loan start.
  This is a documented compatibility quirk, not an error: the engine is
  a reporting calculator and must keep producing schedules while the
  boundary flags the missing rate to the user.
*/
package loan

import (
	"sort"

	"github.com/shopspring/decimal"
)

// NormalizeRatePeriods turns raw rate rows into the sorted, start-clamped
// timeline the accrual engine requires. The input slice is not modified.
func NormalizeRatePeriods(rows []RatePeriod, start CalendarDate) []RatePeriod {
	cleaned := make([]RatePeriod, 0, len(rows))
	for _, r := range rows {
		if r.EffectiveDate.IsZero() {
			continue
		}
		cleaned = append(cleaned, r)
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].EffectiveDate.Before(cleaned[j].EffectiveDate)
	})

	// Collapse duplicate dates, last entry wins. Duplicates arrive when a
	// benchmark update re-publishes a rate for an existing effective date.
	deduped := cleaned[:0:0]
	for _, r := range cleaned {
		if n := len(deduped); n > 0 && deduped[n-1].EffectiveDate.Equal(r.EffectiveDate) {
			deduped[n-1] = r
			continue
		}
		deduped = append(deduped, r)
	}

	if len(deduped) == 0 {
		return []RatePeriod{{EffectiveDate: start, AnnualRate: decimal.Zero}}
	}

	// The earliest known rate is assumed to have been in effect since
	// before records began.
	if deduped[0].EffectiveDate.After(start) {
		deduped = append([]RatePeriod{{
			EffectiveDate: start,
			AnnualRate:    deduped[0].AnnualRate,
		}}, deduped...)
	}

	return deduped
}

// activeRateIndex returns the index of the last period whose effective
// date is <= at. Binary search over the sorted timeline; returns 0 when
// every period starts after 'at' (callers pass normalized timelines, so
// in practice the first period always covers the span start).
func activeRateIndex(periods []RatePeriod, at CalendarDate) int {
	// First index whose effective date is strictly after 'at'.
	i := sort.Search(len(periods), func(i int) bool {
		return periods[i].EffectiveDate.After(at)
	})
	if i == 0 {
		return 0
	}
	return i - 1
}
