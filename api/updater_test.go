package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/loan-engine/api"
	"github.com/warp/loan-engine/benchmark"
	"github.com/warp/loan-engine/loan/store"
)

const valetFixture = `{
	"observations": [
		{"d": "2026-07-10", "V80691311": {"v": "6.45"}},
		{"d": "2026-08-27", "V80691311": {"v": "6.70"}}
	]
}`

func newValetStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(valetFixture))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPrimeUpdater_RunOnce_PublishesRatePerLoan(t *testing.T) {
	// GIVEN: Two loans with different spreads and a stubbed Valet feed
	// WHEN: Running the update once
	// THEN: Each loan gets a rate period at the latest observation date,
	//       converted as prime/100 + spread

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	srv, h := newTestServer(t)
	first := createTestLoan(t, srv)

	valet := newValetStub(t)
	client := benchmark.NewClient(valet.URL, log)
	updater := api.NewPrimeUpdater(h.Store, client, log, "")
	h.Updater = updater

	outcome, err := updater.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2026-08-27", outcome.EffectiveDate.String())
	assert.True(t, outcome.PrimePct.Equal(decimal.RequireFromString("6.70")))
	assert.Equal(t, 1, outcome.UpdatedLoans)

	rates, err := h.Store.ListRatePeriods(context.Background(), first.ID)
	require.NoError(t, err)
	require.Len(t, rates, 2, "start rate plus the published prime rate")

	// Default spread -0.0025: 6.70/100 - 0.0025 = 0.0645
	latest := rates[len(rates)-1]
	assert.Equal(t, "2026-08-27", latest.EffectiveDate.String())
	assert.True(t, latest.AnnualRate.Equal(decimal.RequireFromString("0.0645")),
		"got %s", latest.AnnualRate)
}

func TestPrimeUpdater_RunOnce_IsIdempotent(t *testing.T) {
	// Re-running for the same observation upserts on (loan, effective
	// date) and must not grow the timeline.

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	srv, h := newTestServer(t)
	created := createTestLoan(t, srv)

	valet := newValetStub(t)
	updater := api.NewPrimeUpdater(h.Store, benchmark.NewClient(valet.URL, log), log, "")

	for i := 0; i < 2; i++ {
		_, err := updater.RunOnce(context.Background())
		require.NoError(t, err)
	}

	rates, err := h.Store.ListRatePeriods(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, rates, 2)
}

func TestTriggerPrimeUpdate_Endpoint(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	srv, h := newTestServer(t)
	createTestLoan(t, srv)

	valet := newValetStub(t)
	h.Updater = api.NewPrimeUpdater(h.Store, benchmark.NewClient(valet.URL, log), log, "")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/admin/update-prime", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[api.PrimeUpdateResponse](t, resp)

	assert.Equal(t, "2026-08-27", out.EffectiveDate)
	assert.Equal(t, "6.7", out.PrimePct)
	assert.Equal(t, 1, out.UpdatedLoans)
}

func TestPrimeUpdater_RunOnce_FeedFailure(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(broken.Close)

	updater := api.NewPrimeUpdater(store.NewMemory(), benchmark.NewClient(broken.URL, log), log, "")
	_, err := updater.RunOnce(context.Background())
	assert.Error(t, err)
}
