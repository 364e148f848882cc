/*
status.go - Payment-status classification and monthly summaries

PURPOSE:
  Buckets each planned due date into paid / partial / missed / upcoming
  by summing the actual payments that landed inside the due date's grace
  window. This is a classification over a fixed historical record; it
  mutates nothing.

THE GRACE WINDOW:
  For due date i the window is half-open:

      [due_i, min(due_{i+1}, due_i + graceDays))

  A payment on the window start counts; a payment on the window end does
  not. When the next due date arrives before the grace period ends, the
  window is cut short at the next due date, and "missed" still only fires
  once that shortened window has fully elapsed. A payment recorded one
  day after the next due date is therefore excluded from the earlier
  window. This boundary behavior is load-bearing for historical
  classifications and must not be "fixed".
*/
package loan

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultGraceDays is the window length used when the caller passes a
// non-positive grace.
const DefaultGraceDays = 15

// PaymentStatus is the classification of one scheduled payment.
type PaymentStatus string

const (
	StatusPaid     PaymentStatus = "paid"
	StatusPartial  PaymentStatus = "partial"
	StatusMissed   PaymentStatus = "missed"
	StatusUpcoming PaymentStatus = "upcoming"
)

// ScheduledPaymentStatus is one classified plan row, carrying the window
// it was evaluated against for display.
type ScheduledPaymentStatus struct {
	ScheduledPayment
	WindowFrom   CalendarDate
	WindowTo     CalendarDate
	PaidInWindow decimal.Decimal
	Status       PaymentStatus
}

// ClassifyScheduledPayments classifies every scheduled payment against
// the actual payment events as of 'today'. Inputs are not modified.
//
// Classification priority:
//  1. paid:     window sum >= expected (and expected > 0)
//  2. partial:  0 < window sum < expected
//  3. missed:   window sum == 0 and the window has fully elapsed
//  4. upcoming: everything else
func ClassifyScheduledPayments(scheduled []ScheduledPayment, events []PaymentEvent, today CalendarDate, graceDays int) []ScheduledPaymentStatus {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}

	sched := make([]ScheduledPayment, len(scheduled))
	copy(sched, scheduled)
	sort.SliceStable(sched, func(i, j int) bool {
		return sched[i].DueDate.Before(sched[j].DueDate)
	})

	results := make([]ScheduledPaymentStatus, 0, len(sched))

	for i, cur := range sched {
		windowStart := cur.DueDate
		windowEnd := windowStart.AddDays(graceDays)
		if i+1 < len(sched) {
			windowEnd = MinDate(sched[i+1].DueDate, windowEnd)
		}

		sum := decimal.Zero
		for _, ev := range events {
			if ev.Date.IsZero() || !ev.Amount.IsPositive() {
				continue
			}
			if ev.Date.Before(windowStart) || ev.Date.AfterOrEqual(windowEnd) {
				continue
			}
			sum = sum.Add(ev.Amount)
		}

		status := StatusUpcoming
		switch {
		case sum.GreaterThanOrEqual(cur.ExpectedAmount) && cur.ExpectedAmount.IsPositive():
			status = StatusPaid
		case sum.IsPositive() && sum.LessThan(cur.ExpectedAmount):
			status = StatusPartial
		case sum.IsZero() && windowEnd.BeforeOrEqual(today):
			status = StatusMissed
		}

		results = append(results, ScheduledPaymentStatus{
			ScheduledPayment: cur,
			WindowFrom:       windowStart,
			WindowTo:         windowEnd,
			PaidInWindow:     sum,
			Status:           status,
		})
	}

	return results
}

// =============================================================================
// MONTHLY OWING SUMMARY
// =============================================================================

// MonthlySummary reports what a single calendar month asked for and what
// it received.
type MonthlySummary struct {
	Year           int
	Month          time.Month
	TotalScheduled decimal.Decimal
	TotalPaid      decimal.Decimal
	Scheduled      []ScheduledPayment
	Payments       []PaymentEvent
}

// SummarizeMonth totals the plan rows due inside the given month against
// the payments received inside it.
func SummarizeMonth(scheduled []ScheduledPayment, events []PaymentEvent, year int, month time.Month) MonthlySummary {
	summary := MonthlySummary{
		Year:           year,
		Month:          month,
		TotalScheduled: decimal.Zero,
		TotalPaid:      decimal.Zero,
	}

	for _, s := range scheduled {
		if s.DueDate.Year() == year && s.DueDate.Month() == month {
			summary.TotalScheduled = summary.TotalScheduled.Add(s.ExpectedAmount)
			summary.Scheduled = append(summary.Scheduled, s)
		}
	}
	for _, e := range events {
		if !e.Amount.IsPositive() {
			continue
		}
		if e.Date.Year() == year && e.Date.Month() == month {
			summary.TotalPaid = summary.TotalPaid.Add(e.Amount)
			summary.Payments = append(summary.Payments, e)
		}
	}

	return summary
}
