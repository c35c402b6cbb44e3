package portt

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// Symbol is the canonical, provider-resolvable identifier of an asset.
// There is exactly one Symbol per user-entered alias: normalization is
// case-insensitive, trims whitespace, and applies the alias table.
type Symbol string

// defaultAliases maps well-known crypto roots to the quote symbol the market
// data provider understands.
var defaultAliases = map[string]Symbol{
	"BTC":  "BTC-USD",
	"ETH":  "ETH-USD",
	"XRP":  "XRP-USD",
	"LTC":  "LTC-USD",
	"ADA":  "ADA-USD",
	"SOL":  "SOL-USD",
	"DOGE": "DOGE-USD",
	"SHIB": "SHIB-USD",
}

// Normalizer maps raw user-entered tickers to canonical Symbols. It is a
// pure function over its alias table: Normalize never fails, unknown tickers
// pass through uppercased and trimmed.
type Normalizer struct {
	overrides map[string]Symbol
}

// NewNormalizer returns a Normalizer with the built-in crypto alias table
// and no user overrides.
func NewNormalizer() *Normalizer {
	return &Normalizer{overrides: make(map[string]Symbol)}
}

// Normalize returns the canonical Symbol for a raw ticker. User overrides
// take precedence over the built-in table; the pass-through rule applies
// last.
func (n *Normalizer) Normalize(raw string) Symbol {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if sym, ok := n.overrides[key]; ok {
		return sym
	}
	if sym, ok := defaultAliases[key]; ok {
		return sym
	}
	return Symbol(key)
}

// AddOverride declares a user alias. The raw form is normalized the same way
// Normalize treats its input, so "btc" and " BTC " declare the same alias.
func (n *Normalizer) AddOverride(raw string, canonical Symbol) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return
	}
	n.overrides[key] = canonical
}

// Overrides iterates the user-declared aliases in lexical order. The
// built-in table is not included; only overrides are durable state.
func (n *Normalizer) Overrides() iter.Seq2[string, Symbol] {
	return func(yield func(string, Symbol) bool) {
		keys := slices.Collect(maps.Keys(n.overrides))
		slices.Sort(keys)
		for _, k := range keys {
			if !yield(k, n.overrides[k]) {
				return
			}
		}
	}
}
