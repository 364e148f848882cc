/*
handlers.go - HTTP API handlers for the loan engine

PURPOSE:
  Exposes the loan-math engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the pure engine.

ENDPOINTS:
  Loans:
    GET    /api/loans                       List all loans
    POST   /api/loans                       Create loan (+ initial rate, + plan)
    GET    /api/loans/{id}                  Loan details
    DELETE /api/loans/{id}                  Delete loan and its rows

  Payments:
    GET    /api/loans/{id}/payments         List recorded payment events
    POST   /api/loans/{id}/payments         Record a payment event
    DELETE /api/loans/{id}/payments/{pid}   Delete a payment event

  Rates:
    GET    /api/loans/{id}/rates            Normalized rate timeline
    POST   /api/loans/{id}/rates            Upsert a rate period

  Views:
    GET    /api/loans/{id}/schedule/forecast  Forecast-from-plan schedule
    GET    /api/loans/{id}/schedule/actual    Actual-events schedule
    GET    /api/loans/{id}/statuses           Grace-window status per due date
    GET    /api/loans/{id}/summary/{month}    Monthly owing summary (YYYY-MM)
    GET    /api/loans/{id}/export/{kind}      CSV download (forecast|actual|statuses)

  Admin:
    POST   /api/admin/update-prime            Run the benchmark rate update now

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (the engine itself stays permissive)
  3. Load rows from the store, run the pure engine
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Loan or payment event not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - updater.go: Benchmark rate update job
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/loan-engine/loan"
)

// defaultPrimeSpread matches what loans are created with when the client
// does not supply one.
var defaultPrimeSpread = decimal.RequireFromString("-0.0025")

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   loan.Store
	Log     *logrus.Logger
	Updater *PrimeUpdater // nil when the benchmark job is disabled
}

// NewHandler creates a new handler with the given store.
func NewHandler(store loan.Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Store: store, Log: log}
}

// =============================================================================
// LOAN HANDLERS
// =============================================================================

// ListLoans returns all loans.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Store.ListLoans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list loans", err)
		return
	}

	dtos := make([]LoanDTO, len(loans))
	for i, rec := range loans {
		dtos[i] = toLoanDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLoan returns a single loan.
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(*rec))
}

// CreateLoan creates a loan together with its initial rate period and its
// scheduled payment plan, mirroring the original creation form.
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Loan name is required", nil)
		return
	}
	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid principal", err)
		return
	}
	startDate, err := loan.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	annualRate, err := decimal.NewFromString(req.AnnualRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid annual_rate (use a decimal fraction, e.g. 0.0675)", err)
		return
	}

	spread := defaultPrimeSpread
	if req.PrimeSpread != "" {
		if spread, err = decimal.NewFromString(req.PrimeSpread); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid prime_spread", err)
			return
		}
	}

	// Monthly payment: caller override, or the annuity payment for the
	// terms, rounded to the cent.
	var monthly decimal.Decimal
	if req.MonthlyPayment != "" {
		if monthly, err = decimal.NewFromString(req.MonthlyPayment); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid monthly_payment", err)
			return
		}
	} else {
		monthly = loan.CalcMonthlyPayment(principal, annualRate, req.AmortMonths).Round(2)
	}

	params := loan.LoanParams{
		Principal:           principal,
		StartDate:           startDate,
		AmortMonths:         req.AmortMonths,
		DayCountBasis:       loan.DayCountBasis(req.DayCountBasis),
		FixedMonthlyPayment: monthly,
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan terms", err)
		return
	}

	rec := loan.LoanRecord{
		ID:          uuid.NewString(),
		Name:        req.Name,
		LoanParams:  params,
		PrimeSpread: spread,
		CreatedAt:   time.Now().UTC(),
	}

	ctx := r.Context()
	if err := h.Store.SaveLoan(ctx, rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create loan", err)
		return
	}
	if err := h.Store.UpsertRatePeriod(ctx, loan.RatePeriodRecord{
		LoanID: rec.ID,
		RatePeriod: loan.RatePeriod{
			EffectiveDate: startDate,
			AnnualRate:    annualRate,
		},
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store initial rate period", err)
		return
	}

	plan := loan.GenerateScheduledPayments(startDate, params.AmortMonths, monthly)
	planRecs := make([]loan.ScheduledPaymentRecord, len(plan))
	for i, p := range plan {
		planRecs[i] = loan.ScheduledPaymentRecord{LoanID: rec.ID, ScheduledPayment: p}
	}
	if err := h.Store.ReplaceScheduledPayments(ctx, rec.ID, planRecs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store payment plan", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"loan_id":   rec.ID,
		"principal": principal.StringFixed(2),
		"months":    params.AmortMonths,
	}).Info("loan created")

	writeJSON(w, http.StatusCreated, toLoanDTO(rec))
}

// DeleteLoan removes a loan and its dependent rows.
func (h *Handler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteLoan(r.Context(), id); err != nil {
		if loan.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Loan not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete loan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYMENT EVENT HANDLERS
// =============================================================================

// ListPayments returns the recorded payment events, oldest first.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	events, err := h.Store.ListPaymentEvents(r.Context(), rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}
	dtos := make([]PaymentEventDTO, len(events))
	for i, e := range events {
		dtos[i] = toPaymentEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordPayment records a payment event.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadLoan(w, r)
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	paidDate, err := loan.ParseDate(req.PaidDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paid_date format (use YYYY-MM-DD)", err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "Payment amount must be a positive decimal", err)
		return
	}

	kind := loan.EventKind(req.Kind)
	switch kind {
	case "":
		kind = loan.EventManual
	case loan.EventMonthly, loan.EventExtra, loan.EventManual:
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Unknown payment kind %q (use monthly, extra, or manual)", req.Kind), nil)
		return
	}

	event := loan.PaymentEventRecord{
		ID:     uuid.NewString(),
		LoanID: rec.ID,
		PaymentEvent: loan.PaymentEvent{
			Date:   paidDate,
			Kind:   kind,
			Amount: amount,
			Note:   req.Note,
		},
	}
	if err := h.Store.AppendPaymentEvent(r.Context(), event); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentEventDTO(event))
}

// DeletePayment removes a recorded payment event.
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")
	eventID := chi.URLParam(r, "pid")
	if err := h.Store.DeletePaymentEvent(r.Context(), loanID, eventID); err != nil {
		if loan.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Payment event not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete payment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RATE PERIOD HANDLERS
// =============================================================================

// ListRates returns the normalized rate timeline for a loan.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	rows, err := h.Store.ListRatePeriods(r.Context(), rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rate periods", err)
		return
	}

	periods := loan.NormalizeRatePeriods(loan.RatePeriodsOf(rows), rec.StartDate)
	dtos := make([]RatePeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = RatePeriodDTO{
			EffectiveDate: p.EffectiveDate.String(),
			AnnualRate:    p.AnnualRate.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddRatePeriod upserts a rate period for a loan.
func (h *Handler) AddRatePeriod(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadLoan(w, r)
	if !ok {
		return
	}

	var req AddRatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	effective, err := loan.ParseDate(req.EffectiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_date format (use YYYY-MM-DD)", err)
		return
	}
	rate, err := decimal.NewFromString(req.AnnualRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid annual_rate (use a decimal fraction)", err)
		return
	}

	row := loan.RatePeriodRecord{
		LoanID: rec.ID,
		RatePeriod: loan.RatePeriod{
			EffectiveDate: effective,
			AnnualRate:    rate,
		},
	}
	if err := h.Store.UpsertRatePeriod(r.Context(), row); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store rate period", err)
		return
	}

	writeJSON(w, http.StatusCreated, RatePeriodDTO{
		EffectiveDate: effective.String(),
		AnnualRate:    rate.String(),
	})
}

// =============================================================================
// SCHEDULE VIEWS
// =============================================================================

// GetForecastSchedule returns the forecast-from-plan schedule. Recorded
// extra payments are merged in unless ?extras=none.
func (h *Handler) GetForecastSchedule(w http.ResponseWriter, r *http.Request) {
	result, ok := h.buildForecast(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(*result))
}

// GetActualSchedule returns the reconstruction from recorded events.
func (h *Handler) GetActualSchedule(w http.ResponseWriter, r *http.Request) {
	result, ok := h.buildActual(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(*result))
}

// GetStatuses classifies each scheduled payment against actual events.
// Optional query params: grace_days (default 15), as_of (default today).
func (h *Handler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, ok := h.classifyStatuses(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStatusDTOs(statuses))
}

// GetMonthlySummary reports scheduled vs paid totals for one YYYY-MM month.
func (h *Handler) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.loadLoan(w, r)
	if !ok {
		return
	}

	monthParam := chi.URLParam(r, "month")
	monthStart, err := loan.ParseDate(monthParam + "-01")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	ctx := r.Context()
	schedRecs, err := h.Store.ListScheduledPayments(ctx, rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return
	}
	eventRecs, err := h.Store.ListPaymentEvents(ctx, rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payments", err)
		return
	}

	summary := loan.SummarizeMonth(
		loan.ScheduledPaymentsOf(schedRecs),
		loan.PaymentEventsOf(eventRecs),
		monthStart.Year(), monthStart.Month(),
	)

	dto := MonthlySummaryDTO{
		Month:          monthParam,
		TotalScheduled: summary.TotalScheduled.StringFixed(2),
		TotalPaid:      summary.TotalPaid.StringFixed(2),
		Scheduled:      make([]ScheduledRowDTO, len(summary.Scheduled)),
		Payments:       make([]MonthlyPaymentRow, len(summary.Payments)),
	}
	for i, s := range summary.Scheduled {
		dto.Scheduled[i] = ScheduledRowDTO{
			DueDate:        s.DueDate.String(),
			ExpectedAmount: s.ExpectedAmount.StringFixed(2),
		}
	}
	for i, p := range summary.Payments {
		dto.Payments[i] = MonthlyPaymentRow{
			PaidDate: p.Date.String(),
			Amount:   p.Amount.StringFixed(2),
			Kind:     string(p.Kind),
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// ADMIN
// =============================================================================

// TriggerPrimeUpdate runs the benchmark rate update immediately.
func (h *Handler) TriggerPrimeUpdate(w http.ResponseWriter, r *http.Request) {
	if h.Updater == nil {
		writeError(w, http.StatusServiceUnavailable, "Benchmark updater is not configured", nil)
		return
	}
	outcome, err := h.Updater.RunOnce(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Benchmark update failed", err)
		return
	}
	writeJSON(w, http.StatusOK, PrimeUpdateResponse{
		EffectiveDate: outcome.EffectiveDate.String(),
		PrimePct:      outcome.PrimePct.String(),
		UpdatedLoans:  outcome.UpdatedLoans,
	})
}

// =============================================================================
// SHARED LOADERS
// =============================================================================

// loadLoan resolves {id} and writes the error response itself on failure.
func (h *Handler) loadLoan(w http.ResponseWriter, r *http.Request) (*loan.LoanRecord, bool) {
	id := chi.URLParam(r, "id")
	rec, err := h.Store.GetLoan(r.Context(), id)
	if err != nil {
		if loan.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Loan not found", nil)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get loan", err)
		return nil, false
	}
	return rec, true
}

func (h *Handler) buildForecast(w http.ResponseWriter, r *http.Request) (*loan.ScheduleResult, bool) {
	rec, ok := h.loadLoan(w, r)
	if !ok {
		return nil, false
	}
	ctx := r.Context()

	rateRecs, err := h.Store.ListRatePeriods(ctx, rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rate periods", err)
		return nil, false
	}

	var extras []loan.PaymentEvent
	if r.URL.Query().Get("extras") != "none" {
		eventRecs, err := h.Store.ListPaymentEvents(ctx, rec.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load payments", err)
			return nil, false
		}
		for _, e := range eventRecs {
			if e.Kind == loan.EventExtra {
				extras = append(extras, e.PaymentEvent)
			}
		}
	}

	result := loan.BuildForecastSchedule(loan.ForecastInput{
		Params:        rec.LoanParams,
		RatePeriods:   loan.NormalizeRatePeriods(loan.RatePeriodsOf(rateRecs), rec.StartDate),
		ExtraPayments: extras,
	})
	return &result, true
}

func (h *Handler) buildActual(w http.ResponseWriter, r *http.Request) (*loan.ScheduleResult, bool) {
	rec, ok := h.loadLoan(w, r)
	if !ok {
		return nil, false
	}
	ctx := r.Context()

	rateRecs, err := h.Store.ListRatePeriods(ctx, rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load rate periods", err)
		return nil, false
	}
	eventRecs, err := h.Store.ListPaymentEvents(ctx, rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payments", err)
		return nil, false
	}

	result := loan.BuildActualSchedule(loan.ActualInput{
		Params:      rec.LoanParams,
		RatePeriods: loan.NormalizeRatePeriods(loan.RatePeriodsOf(rateRecs), rec.StartDate),
		Events:      loan.PaymentEventsOf(eventRecs),
	})
	return &result, true
}

func (h *Handler) classifyStatuses(w http.ResponseWriter, r *http.Request) ([]loan.ScheduledPaymentStatus, bool) {
	rec, ok := h.loadLoan(w, r)
	if !ok {
		return nil, false
	}
	ctx := r.Context()

	schedRecs, err := h.Store.ListScheduledPayments(ctx, rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return nil, false
	}
	eventRecs, err := h.Store.ListPaymentEvents(ctx, rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payments", err)
		return nil, false
	}

	graceDays := loan.DefaultGraceDays
	if g := r.URL.Query().Get("grace_days"); g != "" {
		if _, err := fmt.Sscanf(g, "%d", &graceDays); err != nil || graceDays <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid grace_days", err)
			return nil, false
		}
	}

	asOf := loan.Today()
	if s := r.URL.Query().Get("as_of"); s != "" {
		if asOf, err = loan.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
			return nil, false
		}
	}

	statuses := loan.ClassifyScheduledPayments(
		loan.ScheduledPaymentsOf(schedRecs),
		loan.PaymentEventsOf(eventRecs),
		asOf, graceDays,
	)
	return statuses, true
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
