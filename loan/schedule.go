/*
schedule.go - Schedule construction (forecast and actual variants)

PURPOSE:
  Answers the two core questions precisely:
    "what actually happened so far"        -> BuildActualSchedule
    "what happens if the plan is followed" -> BuildForecastSchedule

  Both variants share one replay loop: walk the events chronologically,
  charge interest for the span since the previous event, cap the payment
  so the balance can never go negative, allocate it between interest and
  principal, and stop the moment the balance hits zero.

VARIANTS:
  Forecast: synthesizes the monthly plan events and merges caller-supplied
  extra payments. On a shared date the extra applies first, so a same-day
  extra reduces the principal the monthly payment sees.

  Actual: replays only the recorded payment events. Nothing is
  synthesized; months with no recorded payment simply accrue interest
  into the next span.

CAPPING RULES (per event):
  monthly/manual:         cap at interestAccrued + balance
  extra, principal-only:  cap at balance
  extra, interest-first:  cap at interestAccrued + balance

INVARIANTS:
  - toInterest + toPrincipal == payment for every row
  - balance never goes negative; once zero, no further rows
  - totalPaid == sum of row payments
  - inputs are never mutated; identical inputs produce identical results
*/
package loan

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BUILDER INPUTS
// =============================================================================

// ForecastInput drives the forecast-from-plan variant.
type ForecastInput struct {
	Params LoanParams

	// RatePeriods must be normalized (NormalizeRatePeriods).
	RatePeriods []RatePeriod

	// ExtraPayments are hypothetical extra events; only date and amount
	// are consulted, the kind is forced to extra.
	ExtraPayments []PaymentEvent

	// ExtraAllocation defaults to principal-only.
	ExtraAllocation AllocationPolicy
}

// ActualInput drives the reconstruction-from-events variant. AmortMonths
// and FixedMonthlyPayment in Params are ignored; only the recorded events
// move money.
type ActualInput struct {
	Params      LoanParams
	RatePeriods []RatePeriod
	Events      []PaymentEvent

	// ExtraAllocation defaults to principal-only.
	ExtraAllocation AllocationPolicy
}

// =============================================================================
// FORECAST VARIANT
// =============================================================================

// BuildForecastSchedule synthesizes the monthly plan events, merges the
// extra payments, and replays the combined list.
func BuildForecastSchedule(in ForecastInput) ScheduleResult {
	events := make([]PaymentEvent, 0, in.Params.AmortMonths+len(in.ExtraPayments))

	for i := 1; i <= in.Params.AmortMonths; i++ {
		events = append(events, PaymentEvent{
			Date:   in.Params.StartDate.AddMonths(i),
			Kind:   EventMonthly,
			Amount: in.Params.FixedMonthlyPayment,
		})
	}

	for _, p := range in.ExtraPayments {
		if p.Date.IsZero() || !p.Amount.IsPositive() {
			continue
		}
		events = append(events, PaymentEvent{
			Date:   p.Date,
			Kind:   EventExtra,
			Amount: p.Amount,
			Note:   p.Note,
		})
	}

	// Chronological, extras applied before the monthly payment when they
	// land on the same date.
	sort.SliceStable(events, func(i, j int) bool {
		if c := events[i].Date.Compare(events[j].Date); c != 0 {
			return c < 0
		}
		return events[i].Kind == EventExtra && events[j].Kind != EventExtra
	})

	return replay(in.Params, in.RatePeriods, events, in.ExtraAllocation)
}

// =============================================================================
// ACTUAL VARIANT
// =============================================================================

// BuildActualSchedule replays the recorded payment events in date order.
func BuildActualSchedule(in ActualInput) ScheduleResult {
	events := make([]PaymentEvent, 0, len(in.Events))
	for _, e := range in.Events {
		if e.Date.IsZero() || !e.Amount.IsPositive() {
			continue
		}
		events = append(events, e)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	return replay(in.Params, in.RatePeriods, events, in.ExtraAllocation)
}

// =============================================================================
// SHARED REPLAY LOOP
// =============================================================================

func replay(params LoanParams, periods []RatePeriod, events []PaymentEvent, extraAlloc AllocationPolicy) ScheduleResult {
	if extraAlloc == "" {
		extraAlloc = AllocatePrincipalOnly
	}

	balance := params.Principal
	lastDate := params.StartDate

	totalPaid := decimal.Zero
	totalInterest := decimal.Zero
	var rows []ScheduleRow

	for _, ev := range events {
		if !balance.IsPositive() {
			break
		}

		interest := AccrueInterest(balance, lastDate, ev.Date, periods, params.DayCountBasis)
		totalInterest = totalInterest.Add(interest)

		principalOnly := ev.Kind == EventExtra && extraAlloc == AllocatePrincipalOnly

		// Cap the payment so it can never push the balance negative.
		payment := ev.Amount
		if principalOnly {
			if payment.GreaterThan(balance) {
				payment = balance
			}
		} else if max := interest.Add(balance); payment.GreaterThan(max) {
			payment = max
		}

		var toInterest, toPrincipal decimal.Decimal
		if principalOnly {
			toPrincipal = payment
		} else {
			toInterest = decimal.Min(payment, interest)
			toPrincipal = payment.Sub(toInterest)
		}

		balance = balance.Sub(toPrincipal)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		totalPaid = totalPaid.Add(payment)

		rows = append(rows, ScheduleRow{
			Date:            ev.Date,
			Type:            ev.Kind,
			Payment:         payment,
			InterestAccrued: interest,
			ToInterest:      toInterest,
			ToPrincipal:     toPrincipal,
			BalanceAfter:    balance,
			Note:            ev.Note,
		})

		lastDate = ev.Date
	}

	result := ScheduleResult{
		Rows:          rows,
		TotalPaid:     totalPaid,
		TotalInterest: totalInterest,
		EndingBalance: balance,
	}
	if len(rows) > 0 {
		payoff := rows[len(rows)-1].Date
		result.PayoffDate = &payoff
	}
	return result
}
