package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// DefaultBaseURL is the public Yahoo Finance API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches daily OHLCV bars from the Yahoo Finance chart API.
// Transient failures are retried with exponential backoff behind a circuit
// breaker, so a dead upstream fails fast instead of stalling a whole run.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(baseURL string, timeout time.Duration, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "yahoo-chart",
			Interval: 10 * time.Second,
			Timeout:  60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}),
	}
}

func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// DailyBars fetches daily bars for symbol covering [start, end] inclusive.
// The chart API treats period2 as exclusive for daily data, so one day is
// added to the requested end. Bars come back sorted by date ascending; a
// range the provider has no rows for yields an empty slice, not an error.
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	endpoint := fmt.Sprintf(
		"%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.baseURL,
		url.PathEscape(symbol),
		start.Unix(),
		end.AddDate(0, 0, 1).Unix(),
	)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var rawResp chartResponse
	if err := json.Unmarshal(body, &rawResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rawResp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s (%s)", rawResp.Chart.Error.Description, rawResp.Chart.Error.Code)
	}
	if len(rawResp.Chart.Result) == 0 {
		return []Bar{}, nil
	}

	result := rawResp.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return []Bar{}, nil
	}

	quote := result.Indicators.Quote[0]
	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, Bar{
			Date:   tradingDay(ts),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	return bars, nil
}

// get runs one GET through the circuit breaker, retrying retryable failures
// with exponential backoff until the retry window closes.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	raw, err := c.breaker.Execute(func() (interface{}, error) {
		var body []byte
		operation := func() error {
			var err error
			body, err = c.doOnce(ctx, endpoint)
			return err
		}
		if err := backoff.Retry(operation, backoff.WithContext(newBackOff(), ctx)); err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	return raw.([]byte), nil
}

func (c *Client) doOnce(ctx context.Context, endpoint string) ([]byte, error) {
	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	// Yahoo rejects requests without a browser-looking agent
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d: %s", resp.StatusCode, body)
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return nil, err
		}
		// Client errors won't get better on retry.
		return nil, backoff.Permanent(err)
	}

	return body, nil
}

// newBackOff starts at one second and gives up after thirty.
func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// tradingDay normalizes a provider timestamp to midnight UTC. Yahoo stamps
// daily bars with the session open in the exchange timezone, which is the
// previous or same UTC day depending on the market; the date component in
// UTC is what the row is keyed on.
func tradingDay(ts int64) time.Time {
	t := time.Unix(ts, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// at guards against quote arrays shorter than the timestamp array, which
// the API produces occasionally for thinly traded symbols.
func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
