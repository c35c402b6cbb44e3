package portt

import (
	"context"
	"fmt"
	"time"
)

// PriceCache is a short-lived in-memory quote store wrapped around a
// QuoteProvider. It prevents redundant provider calls within one analytics
// pass and serves bounded-staleness fallbacks when the provider is down.
//
// One entry per symbol, overwritten only after a successful fetch: an
// aborted or failed fetch never clobbers a previous entry. The cache is not
// meant to be shared across snapshots; Reset clears it at the start of each
// user-initiated refresh.
type PriceCache struct {
	provider    QuoteProvider
	ttl         time.Duration
	staleWindow time.Duration
	now         func() time.Time

	quotes    map[Symbol]PriceQuote
	histories map[Symbol]historyEntry
}

// historyEntry remembers the window a series was fetched for. A provider may
// legitimately return fewer points than asked (young listings), so a hit is
// judged by the requested window, not the series length.
type historyEntry struct {
	window int
	points History
}

// NewPriceCache creates a cache over the given provider. ttl bounds how long
// a quote is served without refetching; staleWindow bounds how old a quote
// may be and still serve as a fallback when the provider fails.
func NewPriceCache(provider QuoteProvider, ttl, staleWindow time.Duration) *PriceCache {
	return &PriceCache{
		provider:    provider,
		ttl:         ttl,
		staleWindow: staleWindow,
		now:         time.Now,
		quotes:      make(map[Symbol]PriceQuote),
		histories:   make(map[Symbol]historyEntry),
	}
}

// Reset drops all cached entries. Call it at the start of a user-initiated
// refresh so no quote leaks across analytics passes.
func (c *PriceCache) Reset() {
	c.quotes = make(map[Symbol]PriceQuote)
	c.histories = make(map[Symbol]historyEntry)
}

// GetOrFetch returns a quote for the symbol, from cache when fresh,
// otherwise from the provider. When the provider fails after its retries,
// the last known quote within the staleness window is returned tagged
// stale-fallback; with no such quote the error wraps ErrPriceUnavailable.
func (c *PriceCache) GetOrFetch(ctx context.Context, symbol Symbol) (PriceQuote, error) {
	if cached, ok := c.quotes[symbol]; ok && c.now().Sub(cached.AsOf) <= c.ttl {
		cached.Source = SourceCached
		return cached, nil
	}

	quote, err := c.provider.FetchQuote(ctx, symbol)
	if err == nil {
		quote.Source = SourceLive
		c.quotes[symbol] = quote
		return quote, nil
	}

	if cached, ok := c.quotes[symbol]; ok && c.now().Sub(cached.AsOf) <= c.staleWindow {
		cached.Source = SourceStaleFallback
		return cached, nil
	}
	return PriceQuote{}, fmt.Errorf("%w: %s: %v", ErrPriceUnavailable, symbol, err)
}

// FetchQuote makes the cache itself a QuoteProvider so the metrics engine
// can consume it directly.
func (c *PriceCache) FetchQuote(ctx context.Context, symbol Symbol) (PriceQuote, error) {
	return c.GetOrFetch(ctx, symbol)
}

// FetchHistory returns the historical series for a symbol, fetching it at
// most once per pass. History has no stale fallback: a failed fetch is a
// volatility gap, not an error worth aborting for.
func (c *PriceCache) FetchHistory(ctx context.Context, symbol Symbol, window int) (History, error) {
	if e, ok := c.histories[symbol]; ok && (e.window >= window || len(e.points) >= window) {
		if len(e.points) > window {
			return e.points[len(e.points)-window:], nil
		}
		return e.points, nil
	}
	hist, err := c.provider.FetchHistory(ctx, symbol, window)
	if err != nil {
		return nil, err
	}
	c.histories[symbol] = historyEntry{window: window, points: hist}
	return hist, nil
}

var _ QuoteProvider = (*PriceCache)(nil)
