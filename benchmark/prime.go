/*
Package benchmark fetches the prime-rate benchmark that variable loans
track.

PURPOSE:
  Loans in this system carry a rate defined as "prime plus spread". The
  Bank of Canada publishes prime inside the Valet "chartered bank
  interest rates" observation group; this client pulls the latest
  observation so the updater can publish a new rate period per loan.

CONVERSION:
  Valet reports prime as a percentage (e.g. 6.45). A loan's annual rate
  is a decimal fraction:

      annualRate = primePct/100 + spread     (spread e.g. -0.0025)
*/
package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/loan-engine/loan"
)

// DefaultPrimeURL is the Valet observation group that includes the prime
// rate series.
const DefaultPrimeURL = "https://www.bankofcanada.ca/valet/observations/group/chartered_bank_interest/json"

// primeSeriesID identifies prime within the chartered-bank group.
const primeSeriesID = "V80691311"

var oneHundred = decimal.NewFromInt(100)

// Observation is the latest published prime rate.
type Observation struct {
	EffectiveDate loan.CalendarDate
	PrimePct      decimal.Decimal
}

// LoanRate converts this observation into a loan's annual rate given the
// loan's spread.
func (o Observation) LoanRate(spread decimal.Decimal) decimal.Decimal {
	return o.PrimePct.Div(oneHundred).Add(spread)
}

// Client retrieves prime-rate observations from the Valet API.
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a benchmark client. An empty url selects the
// Bank of Canada endpoint.
func NewClient(url string, log *logrus.Logger) *Client {
	if url == "" {
		url = DefaultPrimeURL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// valetPayload mirrors the slice of the Valet response we consume.
// Observations arrive oldest-first; series values are strings.
type valetPayload struct {
	Observations []map[string]json.RawMessage `json:"observations"`
}

// LatestPrime fetches the observation group and extracts the most recent
// prime observation.
func (c *Client) LatestPrime(ctx context.Context) (*Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("benchmark request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("valet response: %d bytes", len(body))

	return parseLatestPrime(body)
}

func parseLatestPrime(body []byte) (*Observation, error) {
	var payload valetPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse valet payload: %w", err)
	}
	if len(payload.Observations) == 0 {
		return nil, fmt.Errorf("no observations in valet payload")
	}

	last := payload.Observations[len(payload.Observations)-1]

	var dateStr string
	if raw, ok := last["d"]; ok {
		if err := json.Unmarshal(raw, &dateStr); err != nil {
			return nil, fmt.Errorf("bad observation date: %w", err)
		}
	}
	effective, err := loan.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("bad observation date: %w", err)
	}

	raw, ok := last[primeSeriesID]
	if !ok {
		return nil, fmt.Errorf("prime series %s missing from observation", primeSeriesID)
	}
	// The series value arrives as {"v": "6.45"} in group responses, or as
	// a bare string in series responses. Accept both.
	var pct decimal.Decimal
	var wrapped struct {
		V string `json:"v"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.V != "" {
		pct, err = decimal.NewFromString(wrapped.V)
		if err != nil {
			return nil, fmt.Errorf("bad prime value %q: %w", wrapped.V, err)
		}
	} else {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("bad prime value: %s", raw)
		}
		if pct, err = decimal.NewFromString(s); err != nil {
			return nil, fmt.Errorf("bad prime value %q: %w", s, err)
		}
	}

	return &Observation{EffectiveDate: effective, PrimePct: pct}, nil
}
