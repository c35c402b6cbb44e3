package portt

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side identifies the direction of a transaction.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide parses a side from its string form, case-insensitively.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown transaction side: %q", s)
	}
}

// Transaction is one immutable entry of the holdings ledger. Once recorded
// it is never modified; corrections are new transactions.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	Symbol    Symbol          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Time      time.Time       `json:"time"`
	Memo      string          `json:"memo,omitempty"`
}

// NewBuy creates a buy transaction with a fresh identifier.
func NewBuy(at time.Time, symbol Symbol, quantity, unitPrice decimal.Decimal) Transaction {
	return Transaction{ID: uuid.New(), Symbol: symbol, Side: Buy, Quantity: quantity, UnitPrice: unitPrice, Time: at}
}

// NewSell creates a sell transaction with a fresh identifier.
func NewSell(at time.Time, symbol Symbol, quantity, unitPrice decimal.Decimal) Transaction {
	return Transaction{ID: uuid.New(), Symbol: symbol, Side: Sell, Quantity: quantity, UnitPrice: unitPrice, Time: at}
}

// Amount returns the total cash value of the transaction.
func (t Transaction) Amount() decimal.Decimal {
	return t.Quantity.Mul(t.UnitPrice)
}

// validate checks the fields that do not depend on ledger state.
func (t Transaction) validate() error {
	if t.Symbol == "" {
		return fmt.Errorf("%w: symbol is missing", ErrInvalidTransaction)
	}
	if t.Side != Buy && t.Side != Sell {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidTransaction, t.Side)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidTransaction, t.Quantity)
	}
	if !t.UnitPrice.IsPositive() {
		return fmt.Errorf("%w: unit price must be positive, got %s", ErrInvalidTransaction, t.UnitPrice)
	}
	if t.Time.IsZero() {
		return fmt.Errorf("%w: timestamp is missing", ErrInvalidTransaction)
	}
	return nil
}
