// Package yahoo implements the price source adapter against the Yahoo
// Finance chart API. It is the only place that knows the provider's wire
// shape; everything it returns is the normalized portt contract.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	portt "github.com/portt/portt"
)

// DefaultBaseURL is the public Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches quotes and daily history. Transient failures (network
// errors, timeouts, 5xx, 429, empty payloads) are retried with exponential
// backoff up to MaxRetries; terminal failures are normalized to
// portt.ErrPriceUnavailable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     log.Logger

	sleep func(ctx context.Context, d time.Duration) error // injectable for tests
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host, typically a test server.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithRateLimit bounds outgoing requests per second.
func WithRateLimit(perSecond int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// WithMaxRetries bounds the retry attempts after the first call.
func WithMaxRetries(n int) Option { return func(c *Client) { c.maxRetries = n } }

// WithBackoff sets the initial backoff; it doubles per attempt.
func WithBackoff(d time.Duration) Option { return func(c *Client) { c.backoff = d } }

// WithLogger sets the structured logger.
func WithLogger(l log.Logger) Option { return func(c *Client) { c.logger = l } }

// New creates a client with sane defaults: 10s timeout, 3 retries, 500ms
// initial backoff, 5 req/s.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
		logger:     log.Logger{Level: log.InfoLevel},
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// chartResponse is the subset of the Yahoo v8 chart payload the adapter
// reads. Everything else is ignored on purpose: the provider's shape must
// not leak past this package.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
				RegularMarketTime  int64           `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*decimal.Decimal `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchQuote returns the current market price for a symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol portt.Symbol) (portt.PriceQuote, error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", c.baseURL, symbol)
	payload, err := c.getWithRetry(ctx, addr, symbol)
	if err != nil {
		return portt.PriceQuote{}, err
	}

	result := payload.Chart.Result[0]
	price := result.Meta.RegularMarketPrice
	if !price.IsPositive() {
		return portt.PriceQuote{}, fmt.Errorf("%w: %s: provider returned price %s", portt.ErrPriceUnavailable, symbol, price)
	}
	asOf := time.Now()
	if result.Meta.RegularMarketTime > 0 {
		asOf = time.Unix(result.Meta.RegularMarketTime, 0)
	}
	return portt.PriceQuote{Symbol: symbol, Price: price, AsOf: asOf, Source: portt.SourceLive}, nil
}

// FetchHistory returns up to window daily closes, ascending by timestamp.
// Days with no close (market holidays inside the range) are skipped, not
// interpolated.
func (c *Client) FetchHistory(ctx context.Context, symbol portt.Symbol, window int) (portt.History, error) {
	// Fetch ~3 months to cover a 20 trading day window with slack.
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?range=3mo&interval=1d", c.baseURL, symbol)
	payload, err := c.getWithRetry(ctx, addr, symbol)
	if err != nil {
		return nil, err
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s: provider returned no quote series", portt.ErrPriceUnavailable, symbol)
	}
	closes := result.Indicators.Quote[0].Close

	hist := make(portt.History, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		hist = append(hist, portt.PricePoint{Time: time.Unix(ts, 0), Price: *closes[i]})
	}
	if len(hist) == 0 {
		return nil, fmt.Errorf("%w: %s: provider returned an empty history", portt.ErrPriceUnavailable, symbol)
	}
	if len(hist) > window {
		hist = hist[len(hist)-window:]
	}
	return hist, nil
}

// getWithRetry performs the GET with rate limiting and bounded
// retry-with-backoff, and validates the payload down to a non-empty result.
func (c *Client) getWithRetry(ctx context.Context, addr string, symbol portt.Symbol) (*chartResponse, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug().
				Str("symbol", string(symbol)).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying provider call")
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		payload, err, transient := c.get(ctx, addr)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		if !transient {
			break
		}
		c.logger.Warn().
			Str("symbol", string(symbol)).
			Err(err).
			Msg("transient provider failure")
	}
	return nil, fmt.Errorf("%w: %s: %v", portt.ErrPriceUnavailable, symbol, lastErr)
}

// get performs one request. transient reports whether the failure is worth
// retrying.
func (c *Client) get(ctx context.Context, addr string) (payload *chartResponse, err error, transient bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err, false
	}
	req.Header.Set("User-Agent", "portt/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err(), false
		}
		return nil, err, true // network errors and timeouts are transient
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("provider status %s", resp.Status), true
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("provider status %s", resp.Status), false
	}

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("cannot decode provider payload: %v", err), true
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("provider error %s: %s", body.Chart.Error.Code, body.Chart.Error.Description), false
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("provider returned an empty result"), true
	}
	return &body, nil, false
}

var _ portt.QuoteProvider = (*Client)(nil)
