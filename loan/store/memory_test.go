package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/loan/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testLoan(id string) loan.LoanRecord {
	return loan.LoanRecord{
		ID:   id,
		Name: "car loan",
		LoanParams: loan.LoanParams{
			Principal:           dec("20000"),
			StartDate:           loan.NewDate(2026, time.January, 15),
			AmortMonths:         60,
			DayCountBasis:       loan.Basis365,
			FixedMonthlyPayment: dec("393.67"),
		},
		PrimeSpread: dec("-0.0025"),
		CreatedAt:   time.Now().UTC(),
	}
}

func TestMemory_LoanRoundTrip(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveLoan(ctx, testLoan("l1")))

	got, err := m.GetLoan(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "car loan", got.Name)
	assert.True(t, got.Principal.Equal(dec("20000")))

	_, err = m.GetLoan(ctx, "nope")
	assert.ErrorIs(t, err, loan.ErrLoanNotFound)
}

func TestMemory_DeleteLoanRemovesDependents(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveLoan(ctx, testLoan("l1")))
	require.NoError(t, m.UpsertRatePeriod(ctx, loan.RatePeriodRecord{
		LoanID: "l1",
		RatePeriod: loan.RatePeriod{
			EffectiveDate: loan.NewDate(2026, time.January, 15),
			AnnualRate:    dec("0.0675"),
		},
	}))

	require.NoError(t, m.DeleteLoan(ctx, "l1"))
	assert.ErrorIs(t, m.DeleteLoan(ctx, "l1"), loan.ErrLoanNotFound)

	rates, err := m.ListRatePeriods(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestMemory_UpsertRatePeriod_ReplacesSameDate(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	jan15 := loan.NewDate(2026, time.January, 15)

	for _, r := range []string{"0.0675", "0.0700"} {
		require.NoError(t, m.UpsertRatePeriod(ctx, loan.RatePeriodRecord{
			LoanID:     "l1",
			RatePeriod: loan.RatePeriod{EffectiveDate: jan15, AnnualRate: dec(r)},
		}))
	}

	rates, err := m.ListRatePeriods(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, rates[0].AnnualRate.Equal(dec("0.0700")))
}

func TestMemory_RatePeriodsSortedByDate(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	for _, d := range []string{"2026-03-01", "2026-01-01", "2026-02-01"} {
		require.NoError(t, m.UpsertRatePeriod(ctx, loan.RatePeriodRecord{
			LoanID:     "l1",
			RatePeriod: loan.RatePeriod{EffectiveDate: loan.MustParseDate(d), AnnualRate: dec("0.06")},
		}))
	}

	rates, err := m.ListRatePeriods(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, rates, 3)
	assert.Equal(t, "2026-01-01", rates[0].EffectiveDate.String())
	assert.Equal(t, "2026-03-01", rates[2].EffectiveDate.String())
}

func TestMemory_PaymentEvents(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	for i, d := range []string{"2026-03-15", "2026-02-15"} {
		require.NoError(t, m.AppendPaymentEvent(ctx, loan.PaymentEventRecord{
			ID:     []string{"e1", "e2"}[i],
			LoanID: "l1",
			PaymentEvent: loan.PaymentEvent{
				Date:   loan.MustParseDate(d),
				Kind:   loan.EventMonthly,
				Amount: dec("400"),
			},
		}))
	}

	events, err := m.ListPaymentEvents(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "2026-02-15", events[0].Date.String(), "oldest first")

	require.NoError(t, m.DeletePaymentEvent(ctx, "l1", "e1"))
	assert.ErrorIs(t, m.DeletePaymentEvent(ctx, "l1", "e1"), loan.ErrEventNotFound)
}

func TestMemory_ReplaceScheduledPayments(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	first := []loan.ScheduledPaymentRecord{
		{LoanID: "l1", ScheduledPayment: loan.ScheduledPayment{
			DueDate: loan.MustParseDate("2026-02-15"), ExpectedAmount: dec("400")}},
	}
	require.NoError(t, m.ReplaceScheduledPayments(ctx, "l1", first))

	second := []loan.ScheduledPaymentRecord{
		{LoanID: "l1", ScheduledPayment: loan.ScheduledPayment{
			DueDate: loan.MustParseDate("2026-03-15"), ExpectedAmount: dec("450")}},
		{LoanID: "l1", ScheduledPayment: loan.ScheduledPayment{
			DueDate: loan.MustParseDate("2026-02-15"), ExpectedAmount: dec("450")}},
	}
	require.NoError(t, m.ReplaceScheduledPayments(ctx, "l1", second))

	rows, err := m.ListScheduledPayments(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, rows, 2, "replace is wholesale, not additive")
	assert.Equal(t, "2026-02-15", rows[0].DueDate.String())
	assert.True(t, rows[0].ExpectedAmount.Equal(dec("450")))
}

func TestMemory_ListReturnsCopies(t *testing.T) {
	// Mutating a returned slice must not corrupt the store.
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.UpsertRatePeriod(ctx, loan.RatePeriodRecord{
		LoanID: "l1",
		RatePeriod: loan.RatePeriod{
			EffectiveDate: loan.MustParseDate("2026-01-01"),
			AnnualRate:    dec("0.06"),
		},
	}))

	rates, err := m.ListRatePeriods(ctx, "l1")
	require.NoError(t, err)
	rates[0].AnnualRate = dec("0.99")

	again, err := m.ListRatePeriods(ctx, "l1")
	require.NoError(t, err)
	assert.True(t, again[0].AnnualRate.Equal(dec("0.06")))
}
