package portt

import (
	"context"
	"errors"
	"maps"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RiskLabel classifies a holding by its volatility.
type RiskLabel string

const (
	RiskLow    RiskLabel = "low"
	RiskMedium RiskLabel = "medium"
	RiskHigh   RiskLabel = "high"
	// RiskUnknown is reported when volatility cannot be computed (fewer
	// than two history points). It is never folded into RiskLow.
	RiskUnknown RiskLabel = "unknown"
)

// weight orders labels from stable to volatile, for risk sorting.
func (r RiskLabel) weight() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// RiskThresholds are the volatility boundaries of the risk classification.
// A holding is RiskHigh above High, RiskMedium above Medium, RiskLow
// otherwise. The values apply to the annualized volatility.
type RiskThresholds struct {
	Medium float64
	High   float64
}

// MetricsConfig is the fixed configuration of one metrics engine. The
// boundaries are part of configuration, not hidden constants; they are fixed
// for the lifetime of the engine.
type MetricsConfig struct {
	// Window is the number of trailing daily points used for volatility.
	Window int
	// Annualize scales the daily standard deviation to an annual figure.
	// The conventional factor is sqrt(252 trading days).
	Annualize float64
	// Thresholds classify the annualized volatility into risk labels.
	Thresholds RiskThresholds
}

// DefaultMetricsConfig returns the engine defaults: a 20-point window,
// sqrt(252) annualization, and the 0.20/0.45 boundaries.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Window:    20,
		Annualize: math.Sqrt(252),
		Thresholds: RiskThresholds{
			Medium: 0.20,
			High:   0.45,
		},
	}
}

// Classify maps an annualized volatility to a risk label.
func (t RiskThresholds) Classify(volatility float64) RiskLabel {
	switch {
	case volatility > t.High:
		return RiskHigh
	case volatility > t.Medium:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Holding is the computed view of one position in a snapshot.
type Holding struct {
	Position
	Quote       PriceQuote
	MarketValue decimal.Decimal
	Unrealized  decimal.Decimal

	// PercentReturn is (price - avg cost) / avg cost. HasReturn is false
	// when the average cost is zero (no prior buys): the return is N/A,
	// not infinity.
	PercentReturn decimal.Decimal
	HasReturn     bool

	// Volatility is the annualized standard deviation of day-over-day
	// percent price changes over the trailing window. HasVolatility is
	// false with fewer than two history points.
	Volatility    float64
	HasVolatility bool

	Risk RiskLabel
}

// Gap records a symbol whose price could not be resolved during a pass. The
// symbol is excluded from aggregate totals so they are never silently wrong.
type Gap struct {
	Symbol Symbol
	Reason string
}

// Snapshot is the ephemeral computed view of the portfolio at one instant.
// It is produced fresh on each analytics request and never persisted.
type Snapshot struct {
	Time     time.Time
	Holdings []Holding
	Gaps     []Gap

	// Totals sum only over holdings with a resolvable quote.
	TotalMarketValue decimal.Decimal
	TotalCostBasis   decimal.Decimal
	TotalUnrealized  decimal.Decimal
}

// Engine derives portfolio metrics from positions and a quote provider.
type Engine struct {
	cfg    MetricsConfig
	quotes QuoteProvider
	now    func() time.Time
}

// NewEngine creates a metrics engine over a quote provider, typically a
// PriceCache wrapping the live client.
func NewEngine(quotes QuoteProvider, cfg MetricsConfig) *Engine {
	if cfg.Window < 2 {
		cfg.Window = DefaultMetricsConfig().Window
	}
	if cfg.Annualize <= 0 {
		cfg.Annualize = DefaultMetricsConfig().Annualize
	}
	return &Engine{cfg: cfg, quotes: quotes, now: time.Now}
}

// Compute produces a snapshot for the given positions. Symbols whose price
// cannot be resolved end up in Snapshot.Gaps; the pass never aborts for a
// pricing failure. The only returned error is the context's, so an aborted
// refresh leaves previously computed state untouched.
func (e *Engine) Compute(ctx context.Context, positions map[Symbol]Position) (*Snapshot, error) {
	snap := &Snapshot{
		Time:             e.now(),
		TotalMarketValue: decimal.Zero,
		TotalCostBasis:   decimal.Zero,
		TotalUnrealized:  decimal.Zero,
	}

	symbols := slices.Collect(maps.Keys(positions))
	slices.Sort(symbols)

	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pos := positions[sym]

		quote, err := e.quotes.FetchQuote(ctx, sym)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !errors.Is(err, ErrPriceUnavailable) {
				// A provider that leaks another shape is still a gap.
				err = errors.Join(ErrPriceUnavailable, err)
			}
			snap.Gaps = append(snap.Gaps, Gap{Symbol: sym, Reason: err.Error()})
			continue
		}

		h := e.computeHolding(ctx, pos, quote)
		snap.Holdings = append(snap.Holdings, h)
		snap.TotalMarketValue = snap.TotalMarketValue.Add(h.MarketValue)
		snap.TotalCostBasis = snap.TotalCostBasis.Add(h.CostBasis())
		snap.TotalUnrealized = snap.TotalUnrealized.Add(h.Unrealized)
	}
	return snap, nil
}

// computeHolding derives the per-symbol metrics from a position and a
// resolved quote.
func (e *Engine) computeHolding(ctx context.Context, pos Position, quote PriceQuote) Holding {
	h := Holding{
		Position:    pos,
		Quote:       quote,
		MarketValue: pos.Quantity.Mul(quote.Price),
		Unrealized:  quote.Price.Sub(pos.AverageCost).Mul(pos.Quantity),
		Risk:        RiskUnknown,
	}
	if !pos.AverageCost.IsZero() {
		h.PercentReturn = quote.Price.Sub(pos.AverageCost).Div(pos.AverageCost)
		h.HasReturn = true
	}

	hist, err := e.quotes.FetchHistory(ctx, pos.Symbol, e.cfg.Window)
	if err == nil {
		if vol, ok := volatility(hist, e.cfg.Window, e.cfg.Annualize); ok {
			h.Volatility = vol
			h.HasVolatility = true
			h.Risk = e.cfg.Thresholds.Classify(vol)
		}
	}
	return h
}

// volatility computes the annualized standard deviation of day-over-day
// percent changes over the trailing window of the series. It needs at least
// two points; otherwise ok is false.
func volatility(hist History, window int, annualize float64) (vol float64, ok bool) {
	if len(hist) > window {
		hist = hist[len(hist)-window:]
	}
	if len(hist) < 2 {
		return 0, false
	}

	returns := make([]float64, 0, len(hist)-1)
	for i := 1; i < len(hist); i++ {
		prev := hist[i-1].Price
		if prev.IsZero() {
			continue
		}
		change := hist[i].Price.Sub(prev).Div(prev)
		returns = append(returns, change.InexactFloat64())
	}
	if len(returns) == 0 {
		return 0, false
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * annualize, true
}

// SortedByReturn returns the holdings ordered by percent return, best first.
// Holdings with no computable return sort last.
func (s *Snapshot) SortedByReturn() []Holding {
	out := slices.Clone(s.Holdings)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HasReturn != out[j].HasReturn {
			return out[i].HasReturn
		}
		return out[i].PercentReturn.GreaterThan(out[j].PercentReturn)
	})
	return out
}

// SortedByRisk returns the holdings ordered by risk weight. desc puts the
// most volatile first.
func (s *Snapshot) SortedByRisk(desc bool) []Holding {
	out := slices.Clone(s.Holdings)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].Risk.weight() > out[j].Risk.weight()
		}
		return out[i].Risk.weight() < out[j].Risk.weight()
	})
	return out
}

// Best returns up to n holdings with the highest percent return.
func (s *Snapshot) Best(n int) []Holding {
	sorted := s.SortedByReturn()
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// MeanReturn returns the arithmetic mean percent return across holdings
// with a computable return. ok is false when no holding qualifies.
func (s *Snapshot) MeanReturn() (mean decimal.Decimal, ok bool) {
	sum := decimal.Zero
	n := 0
	for _, h := range s.Holdings {
		if h.HasReturn {
			sum = sum.Add(h.PercentReturn)
			n++
		}
	}
	if n == 0 {
		return decimal.Zero, false
	}
	return sum.Div(decimal.NewFromInt(int64(n))), true
}

// Worst returns the holding with the lowest computable percent return, if
// any. Holdings whose return is N/A do not qualify.
func (s *Snapshot) Worst() (Holding, bool) {
	sorted := s.SortedByReturn()
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].HasReturn {
			return sorted[i], true
		}
	}
	return Holding{}, false
}
