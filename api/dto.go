/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  engine's decimal types. Wire conventions (spec'd at the persistence and
  presentation boundaries):
  - dates are YYYY-MM-DD strings with no time component
  - monetary amounts are fixed two-decimal strings in one currency
  - annual rates are decimal fractions (0.0675), never percentages

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// LOANS
// =============================================================================

// LoanDTO represents a loan in API responses.
type LoanDTO struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Principal           string `json:"principal"`
	StartDate           string `json:"start_date"`
	AmortMonths         int    `json:"amort_months"`
	DayCountBasis       int    `json:"day_count_basis"`
	FixedMonthlyPayment string `json:"fixed_monthly_payment"`
	PrimeSpread         string `json:"prime_spread"`
	CreatedAt           string `json:"created_at"`
}

// CreateLoanRequest creates a loan, its initial rate period, and its
// scheduled plan in one call. monthly_payment is optional; when omitted
// the annuity payment is computed from the terms.
type CreateLoanRequest struct {
	Name           string `json:"name"`
	Principal      string `json:"principal"`
	StartDate      string `json:"start_date"`
	AmortMonths    int    `json:"amort_months"`
	DayCountBasis  int    `json:"day_count_basis"`
	AnnualRate     string `json:"annual_rate"`
	MonthlyPayment string `json:"monthly_payment,omitempty"`
	PrimeSpread    string `json:"prime_spread,omitempty"`
}

// =============================================================================
// PAYMENT EVENTS
// =============================================================================

// PaymentEventDTO represents a recorded payment in API responses.
type PaymentEventDTO struct {
	ID       string `json:"id"`
	PaidDate string `json:"paid_date"`
	Amount   string `json:"amount"`
	Kind     string `json:"kind"`
	Note     string `json:"note,omitempty"`
}

// RecordPaymentRequest records money actually received.
type RecordPaymentRequest struct {
	PaidDate string `json:"paid_date"`
	Amount   string `json:"amount"`
	Kind     string `json:"kind"`
	Note     string `json:"note,omitempty"`
}

// =============================================================================
// RATE PERIODS
// =============================================================================

// RatePeriodDTO is one entry of the normalized rate timeline.
type RatePeriodDTO struct {
	EffectiveDate string `json:"effective_date"`
	AnnualRate    string `json:"annual_rate"`
}

// AddRatePeriodRequest upserts a rate period for a loan.
type AddRatePeriodRequest struct {
	EffectiveDate string `json:"effective_date"`
	AnnualRate    string `json:"annual_rate"`
}

// =============================================================================
// SCHEDULES
// =============================================================================

// ScheduleRowDTO is one replayed event of a built schedule.
type ScheduleRowDTO struct {
	Date            string `json:"date"`
	Type            string `json:"type"`
	Payment         string `json:"payment"`
	InterestAccrued string `json:"interest_accrued"`
	ToInterest      string `json:"to_interest"`
	ToPrincipal     string `json:"to_principal"`
	Balance         string `json:"balance"`
	Note            string `json:"note,omitempty"`
}

// ScheduleDTO bundles rows with summary totals.
type ScheduleDTO struct {
	Rows          []ScheduleRowDTO `json:"rows"`
	TotalPaid     string           `json:"total_paid"`
	TotalInterest string           `json:"total_interest"`
	EndingBalance string           `json:"ending_balance"`
	PayoffDate    *string          `json:"payoff_date"`
}

// =============================================================================
// STATUSES AND SUMMARIES
// =============================================================================

// ScheduledStatusDTO is one classified plan row.
type ScheduledStatusDTO struct {
	DueDate        string `json:"due_date"`
	ExpectedAmount string `json:"expected_amount"`
	WindowFrom     string `json:"window_from"`
	WindowTo       string `json:"window_to"`
	PaidInWindow   string `json:"paid_in_window"`
	Status         string `json:"status"`
}

// MonthlySummaryDTO reports one calendar month's plan vs payments.
type MonthlySummaryDTO struct {
	Month          string              `json:"month"`
	TotalScheduled string              `json:"total_scheduled"`
	TotalPaid      string              `json:"total_paid"`
	Scheduled      []ScheduledRowDTO   `json:"scheduled"`
	Payments       []MonthlyPaymentRow `json:"payments"`
}

// ScheduledRowDTO is a bare plan row.
type ScheduledRowDTO struct {
	DueDate        string `json:"due_date"`
	ExpectedAmount string `json:"expected_amount"`
}

// MonthlyPaymentRow is one payment inside a monthly summary.
type MonthlyPaymentRow struct {
	PaidDate string `json:"paid_date"`
	Amount   string `json:"amount"`
	Kind     string `json:"kind"`
}

// PrimeUpdateResponse reports the outcome of a benchmark update run.
type PrimeUpdateResponse struct {
	EffectiveDate string `json:"effective_date"`
	PrimePct      string `json:"prime_pct"`
	UpdatedLoans  int    `json:"updated_loans"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toLoanDTO(rec loan.LoanRecord) LoanDTO {
	return LoanDTO{
		ID:                  rec.ID,
		Name:                rec.Name,
		Principal:           rec.Principal.StringFixed(2),
		StartDate:           rec.StartDate.String(),
		AmortMonths:         rec.AmortMonths,
		DayCountBasis:       int(rec.DayCountBasis),
		FixedMonthlyPayment: rec.FixedMonthlyPayment.StringFixed(2),
		PrimeSpread:         rec.PrimeSpread.String(),
		CreatedAt:           rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toPaymentEventDTO(rec loan.PaymentEventRecord) PaymentEventDTO {
	return PaymentEventDTO{
		ID:       rec.ID,
		PaidDate: rec.Date.String(),
		Amount:   rec.Amount.StringFixed(2),
		Kind:     string(rec.Kind),
		Note:     rec.Note,
	}
}

func toScheduleDTO(result loan.ScheduleResult) ScheduleDTO {
	rows := make([]ScheduleRowDTO, len(result.Rows))
	for i, r := range result.Rows {
		rows[i] = ScheduleRowDTO{
			Date:            r.Date.String(),
			Type:            string(r.Type),
			Payment:         r.Payment.StringFixed(2),
			InterestAccrued: r.InterestAccrued.StringFixed(2),
			ToInterest:      r.ToInterest.StringFixed(2),
			ToPrincipal:     r.ToPrincipal.StringFixed(2),
			Balance:         r.BalanceAfter.StringFixed(2),
			Note:            r.Note,
		}
	}

	dto := ScheduleDTO{
		Rows:          rows,
		TotalPaid:     result.TotalPaid.StringFixed(2),
		TotalInterest: result.TotalInterest.StringFixed(2),
		EndingBalance: result.EndingBalance.StringFixed(2),
	}
	if result.PayoffDate != nil {
		s := result.PayoffDate.String()
		dto.PayoffDate = &s
	}
	return dto
}

func toStatusDTOs(statuses []loan.ScheduledPaymentStatus) []ScheduledStatusDTO {
	out := make([]ScheduledStatusDTO, len(statuses))
	for i, s := range statuses {
		out[i] = ScheduledStatusDTO{
			DueDate:        s.DueDate.String(),
			ExpectedAmount: s.ExpectedAmount.StringFixed(2),
			WindowFrom:     s.WindowFrom.String(),
			WindowTo:       s.WindowTo.String(),
			PaidInWindow:   s.PaidInWindow.StringFixed(2),
			Status:         string(s.Status),
		}
	}
	return out
}
