package portt

import (
	"context"
	"iter"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteSource tells how a quote was obtained.
type QuoteSource string

const (
	// SourceLive marks a quote freshly fetched from the provider.
	SourceLive QuoteSource = "live"
	// SourceCached marks a quote served from the cache within its TTL.
	SourceCached QuoteSource = "cached"
	// SourceStaleFallback marks a quote served past its TTL because the
	// provider was unavailable. Still within the staleness window.
	SourceStaleFallback QuoteSource = "stale-fallback"
)

// PriceQuote is one price observation for a symbol.
type PriceQuote struct {
	Symbol Symbol          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"as_of"`
	Source QuoteSource     `json:"source"`
}

// PricePoint is one point of a historical price series.
type PricePoint struct {
	Time  time.Time       `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// History is a finite price series ordered by ascending timestamp. Gaps
// (non-trading days) are not interpolated; consumers operate on the points
// that exist.
type History []PricePoint

// Points returns a restartable iterator over the series in ascending order.
func (h History) Points() iter.Seq[PricePoint] {
	return func(yield func(PricePoint) bool) {
		for _, p := range h {
			if !yield(p) {
				return
			}
		}
	}
}

// QuoteProvider is the normalized contract between the core and any price
// source. Implementations must not leak their own error shapes: a terminal
// failure to resolve a price is reported as ErrPriceUnavailable (wrapped),
// and transient failures are retried internally.
type QuoteProvider interface {
	// FetchQuote returns the current price for a symbol.
	FetchQuote(ctx context.Context, symbol Symbol) (PriceQuote, error)
	// FetchHistory returns up to window daily price points for a symbol,
	// ordered by ascending timestamp.
	FetchHistory(ctx context.Context, symbol Symbol, window int) (History, error)
}
