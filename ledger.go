package portt

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// Position is the derived net holding for one symbol: quantity and weighted
// average cost. It is never stored; it is recomputed from the ordered
// transaction sequence.
type Position struct {
	Symbol      Symbol
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
}

// CostBasis returns the total cost of the position (quantity times average cost).
func (p Position) CostBasis() decimal.Decimal {
	return p.Quantity.Mul(p.AverageCost)
}

// Ledger is the append-only transaction log from which positions are
// derived.
//
// Transactions are always kept in chronological order. The only mutation
// path is Apply, which is all-or-nothing: a transaction that fails
// validation leaves the ledger untouched.
type Ledger struct {
	transactions []Transaction
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{transactions: make([]Transaction, 0)}
}

// Apply validates a transaction against the current state and appends it.
// It returns the resulting position for the transaction's symbol.
//
// The transaction is checked at its chronological slot, not at the end of
// the log: the symbol's sequence is replayed with the new entry in place,
// and the net quantity must never go negative at any point. A backdated
// sell that precedes the buy funding it, or that would starve a later sell,
// fails with ErrInsufficientPosition and is not appended. A non-positive
// quantity or unit price fails with ErrInvalidTransaction.
func (l *Ledger) Apply(tx Transaction) (Position, error) {
	if err := tx.validate(); err != nil {
		return Position{}, err
	}

	candidate := append(slices.Clone(l.transactions), tx)
	sortChronological(candidate)

	pos := Position{Symbol: tx.Symbol, Quantity: decimal.Zero, AverageCost: decimal.Zero}
	for _, t := range candidate {
		if t.Symbol != tx.Symbol {
			continue
		}
		if t.Side == Sell && t.Quantity.GreaterThan(pos.Quantity) {
			return Position{}, fmt.Errorf("%w: cannot sell %s %s on %s, only %s held",
				ErrInsufficientPosition, t.Quantity, t.Symbol,
				t.Time.Format("2006-01-02"), pos.Quantity)
		}
		pos = pos.applied(t)
	}

	l.transactions = candidate
	return pos, nil
}

// sortChronological keeps a transaction slice in chronological order.
// Transactions at the same instant keep their original relative order.
func sortChronological(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Time.Before(txs[j].Time)
	})
}

// Len returns the number of recorded transactions.
func (l *Ledger) Len() int { return len(l.transactions) }

// Transactions iterates the transactions in chronological order.
func (l *Ledger) Transactions() iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, tx := range l.transactions {
			if !yield(tx) {
				return
			}
		}
	}
}

// Position replays the ledger and returns the current position for one
// symbol. A symbol with no transactions yields a zero position.
func (l *Ledger) Position(symbol Symbol) Position {
	pos := Position{Symbol: symbol, Quantity: decimal.Zero, AverageCost: decimal.Zero}
	for _, tx := range l.transactions {
		if tx.Symbol != symbol {
			continue
		}
		pos = pos.applied(tx)
	}
	return pos
}

// Positions replays the whole ledger and returns the current position per
// symbol. Symbols whose net quantity dropped to zero are omitted. Replaying
// twice from the same transactions yields identical results.
func (l *Ledger) Positions() map[Symbol]Position {
	positions := make(map[Symbol]Position)
	for _, tx := range l.transactions {
		pos, ok := positions[tx.Symbol]
		if !ok {
			pos = Position{Symbol: tx.Symbol, Quantity: decimal.Zero, AverageCost: decimal.Zero}
		}
		positions[tx.Symbol] = pos.applied(tx)
	}
	for sym, pos := range positions {
		if pos.Quantity.IsZero() {
			delete(positions, sym)
		}
	}
	return positions
}

// Symbols iterates the symbols currently held, in lexical order.
func (l *Ledger) Symbols() iter.Seq[Symbol] {
	return func(yield func(Symbol) bool) {
		positions := l.Positions()
		symbols := slices.Collect(maps.Keys(positions))
		slices.Sort(symbols)
		for _, sym := range symbols {
			if !yield(sym) {
				return
			}
		}
	}
}

// applied folds one transaction into the position. Buys recompute the
// weighted average cost; sells only reduce quantity. Apply guarantees the
// quantity is never negative when a transaction is folded, so the buy
// branch never divides by a zero newQty.
func (p Position) applied(tx Transaction) Position {
	switch tx.Side {
	case Buy:
		newQty := p.Quantity.Add(tx.Quantity)
		totalCost := p.Quantity.Mul(p.AverageCost).Add(tx.Quantity.Mul(tx.UnitPrice))
		p.AverageCost = totalCost.Div(newQty)
		p.Quantity = newQty
	case Sell:
		p.Quantity = p.Quantity.Sub(tx.Quantity)
		if p.Quantity.IsZero() {
			p.AverageCost = decimal.Zero
		}
	}
	return p
}
