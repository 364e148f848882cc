package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-engine/api"
	"github.com/warp/loan-engine/loan/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *api.Handler) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	h := api.NewHandler(store.NewMemory(), log)
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, h
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createTestLoan(t *testing.T, srv *httptest.Server) api.LoanDTO {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/loans", api.CreateLoanRequest{
		Name:           "car loan",
		Principal:      "20000",
		StartDate:      "2026-01-15",
		AmortMonths:    60,
		DayCountBasis:  365,
		AnnualRate:     "0.0675",
		MonthlyPayment: "400",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[api.LoanDTO](t, resp)
}

// =============================================================================
// LOAN LIFECYCLE
// =============================================================================

func TestCreateLoan_SeedsRateAndPlan(t *testing.T) {
	// GIVEN: A create request with explicit terms
	// WHEN: Creating the loan
	// THEN: The loan, its initial rate period, and its 60-row plan exist

	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "car loan", created.Name)
	assert.Equal(t, "20000.00", created.Principal)
	assert.Equal(t, "400.00", created.FixedMonthlyPayment)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/loans/"+created.ID+"/rates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rates := decode[[]api.RatePeriodDTO](t, resp)
	require.Len(t, rates, 1)
	assert.Equal(t, "2026-01-15", rates[0].EffectiveDate)
	assert.Equal(t, "0.0675", rates[0].AnnualRate)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/loans/"+created.ID+"/statuses?as_of=2026-01-16", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	statuses := decode[[]api.ScheduledStatusDTO](t, resp)
	assert.Len(t, statuses, 60)
	assert.Equal(t, "2026-02-15", statuses[0].DueDate)
}

func TestCreateLoan_ComputesAnnuityPaymentWhenOmitted(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/loans", api.CreateLoanRequest{
		Name:          "computed",
		Principal:     "20000",
		StartDate:     "2026-01-15",
		AmortMonths:   60,
		DayCountBasis: 365,
		AnnualRate:    "0.0675",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.LoanDTO](t, resp)

	monthly := decimal.RequireFromString(created.FixedMonthlyPayment)
	assert.True(t, monthly.GreaterThan(decimal.RequireFromString("390")))
	assert.True(t, monthly.LessThan(decimal.RequireFromString("400")))
}

func TestCreateLoan_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		req  api.CreateLoanRequest
	}{
		{"missing name", api.CreateLoanRequest{
			Principal: "20000", StartDate: "2026-01-15", AmortMonths: 60, DayCountBasis: 365, AnnualRate: "0.0675"}},
		{"bad principal", api.CreateLoanRequest{
			Name: "x", Principal: "twenty", StartDate: "2026-01-15", AmortMonths: 60, DayCountBasis: 365, AnnualRate: "0.0675"}},
		{"bad date", api.CreateLoanRequest{
			Name: "x", Principal: "20000", StartDate: "01/15/2026", AmortMonths: 60, DayCountBasis: 365, AnnualRate: "0.0675"}},
		{"zero term", api.CreateLoanRequest{
			Name: "x", Principal: "20000", StartDate: "2026-01-15", AmortMonths: 0, DayCountBasis: 365, AnnualRate: "0.0675"}},
		{"bad basis", api.CreateLoanRequest{
			Name: "x", Principal: "20000", StartDate: "2026-01-15", AmortMonths: 60, DayCountBasis: 364, AnnualRate: "0.0675"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/loans", tc.req)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestDeleteLoan(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/loans/"+created.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/loans/"+created.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetLoan_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/loans/unknown", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestRecordPayment_Lifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)
	base := srv.URL + "/api/loans/" + created.ID + "/payments"

	resp := doJSON(t, http.MethodPost, base, api.RecordPaymentRequest{
		PaidDate: "2026-02-15",
		Amount:   "400",
		Kind:     "monthly",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	event := decode[api.PaymentEventDTO](t, resp)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "400.00", event.Amount)

	// Kind defaults to manual when omitted.
	resp = doJSON(t, http.MethodPost, base, api.RecordPaymentRequest{
		PaidDate: "2026-02-20",
		Amount:   "50",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	manual := decode[api.PaymentEventDTO](t, resp)
	assert.Equal(t, "manual", manual.Kind)

	resp = doJSON(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := decode[[]api.PaymentEventDTO](t, resp)
	assert.Len(t, events, 2)

	resp = doJSON(t, http.MethodDelete, base+"/"+event.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, base+"/"+event.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordPayment_Validation(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)
	base := srv.URL + "/api/loans/" + created.ID + "/payments"

	for name, req := range map[string]api.RecordPaymentRequest{
		"bad date":        {PaidDate: "Feb 15", Amount: "400", Kind: "monthly"},
		"zero amount":     {PaidDate: "2026-02-15", Amount: "0", Kind: "monthly"},
		"negative amount": {PaidDate: "2026-02-15", Amount: "-10", Kind: "monthly"},
		"unknown kind":    {PaidDate: "2026-02-15", Amount: "400", Kind: "bonus"},
	} {
		t.Run(name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, base, req)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

// =============================================================================
// RATES
// =============================================================================

func TestAddRatePeriod_AppearsInTimeline(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)
	base := srv.URL + "/api/loans/" + created.ID + "/rates"

	resp := doJSON(t, http.MethodPost, base, api.AddRatePeriodRequest{
		EffectiveDate: "2026-06-01",
		AnnualRate:    "0.0700",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rates := decode[[]api.RatePeriodDTO](t, resp)
	require.Len(t, rates, 2)
	assert.Equal(t, "2026-01-15", rates[0].EffectiveDate)
	assert.Equal(t, "2026-06-01", rates[1].EffectiveDate)
}

// =============================================================================
// SCHEDULE VIEWS
// =============================================================================

func TestForecastSchedule(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/loans/"+created.ID+"/schedule/forecast", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sched := decode[api.ScheduleDTO](t, resp)

	require.NotEmpty(t, sched.Rows)
	assert.LessOrEqual(t, len(sched.Rows), 60)
	assert.Equal(t, "2026-02-15", sched.Rows[0].Date)
	assert.Equal(t, "monthly", sched.Rows[0].Type)
	assert.NotNil(t, sched.PayoffDate)
}

func TestForecastSchedule_ExtrasToggle(t *testing.T) {
	// GIVEN: A recorded extra payment
	// THEN: The default forecast merges it; ?extras=none leaves it out

	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)
	base := srv.URL + "/api/loans/" + created.ID

	resp := doJSON(t, http.MethodPost, base+"/payments", api.RecordPaymentRequest{
		PaidDate: "2026-03-01",
		Amount:   "2000",
		Kind:     "extra",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, base+"/schedule/forecast", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	merged := decode[api.ScheduleDTO](t, resp)

	resp = doJSON(t, http.MethodGet, base+"/schedule/forecast?extras=none", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	planOnly := decode[api.ScheduleDTO](t, resp)

	hasExtra := func(rows []api.ScheduleRowDTO) bool {
		for _, r := range rows {
			if r.Type == "extra" {
				return true
			}
		}
		return false
	}
	assert.True(t, hasExtra(merged.Rows))
	assert.False(t, hasExtra(planOnly.Rows))
	assert.True(t, decimal.RequireFromString(merged.TotalInterest).
		LessThan(decimal.RequireFromString(planOnly.TotalInterest)))
}

func TestActualSchedule(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)
	base := srv.URL + "/api/loans/" + created.ID

	resp := doJSON(t, http.MethodPost, base+"/payments", api.RecordPaymentRequest{
		PaidDate: "2026-02-15", Amount: "400", Kind: "monthly",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, base+"/schedule/actual", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sched := decode[api.ScheduleDTO](t, resp)

	require.Len(t, sched.Rows, 1)
	assert.Equal(t, "400.00", sched.Rows[0].Payment)
	assert.Equal(t, "400.00", sched.TotalPaid)
}

func TestStatuses_QueryParameters(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)
	base := srv.URL + "/api/loans/" + created.ID

	resp := doJSON(t, http.MethodPost, base+"/payments", api.RecordPaymentRequest{
		PaidDate: "2026-02-20", Amount: "400", Kind: "monthly",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, base+"/statuses?as_of=2026-03-20&grace_days=15", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	statuses := decode[[]api.ScheduledStatusDTO](t, resp)
	require.Len(t, statuses, 60)
	assert.Equal(t, "paid", statuses[0].Status)
	assert.Equal(t, "400.00", statuses[0].PaidInWindow)

	resp = doJSON(t, http.MethodGet, base+"/statuses?as_of=not-a-date", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, base+"/statuses?grace_days=-1", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMonthlySummary(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)
	base := srv.URL + "/api/loans/" + created.ID

	resp := doJSON(t, http.MethodPost, base+"/payments", api.RecordPaymentRequest{
		PaidDate: "2026-02-10", Amount: "300", Kind: "monthly",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, base+"/summary/2026-02", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[api.MonthlySummaryDTO](t, resp)

	assert.Equal(t, "2026-02", summary.Month)
	assert.Equal(t, "400.00", summary.TotalScheduled)
	assert.Equal(t, "300.00", summary.TotalPaid)
	require.Len(t, summary.Scheduled, 1)
	require.Len(t, summary.Payments, 1)

	resp = doJSON(t, http.MethodGet, base+"/summary/February", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// CSV EXPORT
// =============================================================================

func TestExportCSV(t *testing.T) {
	srv, _ := newTestServer(t)
	created := createTestLoan(t, srv)
	base := srv.URL + "/api/loans/" + created.ID

	for _, kind := range []string{"forecast", "actual", "statuses"} {
		t.Run(kind, func(t *testing.T) {
			resp := doJSON(t, http.MethodGet, fmt.Sprintf("%s/export/%s", base, kind), nil)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
			assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
		})
	}

	resp := doJSON(t, http.MethodGet, base+"/export/bogus", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestTriggerPrimeUpdate_WithoutUpdater(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/admin/update-prime", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
