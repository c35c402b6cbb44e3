package portt

import (
	money "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DisplayCurrency is the currency code used for formatting amounts. The
// portfolio itself is single-currency; this only affects display.
const DisplayCurrency = money.USD

// FormatMoney renders a decimal amount in the display currency with the
// currency's conventional symbol, fraction and thousands separator.
func FormatMoney(amount decimal.Decimal) string {
	cur := money.GetCurrency(DisplayCurrency)
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), DisplayCurrency).Display()
}

// FormatSignedMoney is FormatMoney with an explicit sign for gains, and "-"
// for a zero amount.
func FormatSignedMoney(amount decimal.Decimal) string {
	if amount.IsZero() {
		return "-"
	}
	if amount.IsPositive() {
		return "+" + FormatMoney(amount)
	}
	return FormatMoney(amount)
}
