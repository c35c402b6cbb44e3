package portt

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLedger_AverageCost(t *testing.T) {
	// 10 @ 100 then 10 @ 200 must average to 150 over 20 units.
	ledger := NewLedger()
	if _, err := ledger.Apply(NewBuy(day("2026-01-05"), "AAPL", dec("10"), dec("100"))); err != nil {
		t.Fatal(err)
	}
	pos, err := ledger.Apply(NewBuy(day("2026-01-10"), "AAPL", dec("10"), dec("200")))
	if err != nil {
		t.Fatal(err)
	}

	if !pos.Quantity.Equal(dec("20")) {
		t.Errorf("quantity = %s, want 20", pos.Quantity)
	}
	if !pos.AverageCost.Equal(dec("150")) {
		t.Errorf("average cost = %s, want 150", pos.AverageCost)
	}
	if !pos.CostBasis().Equal(dec("3000")) {
		t.Errorf("cost basis = %s, want 3000", pos.CostBasis())
	}
}

func TestLedger_SellKeepsAverageCost(t *testing.T) {
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-01-05"), "ETH-USD", dec("4"), dec("2000")))
	pos := mustApply(t, ledger, NewSell(day("2026-01-06"), "ETH-USD", dec("1"), dec("3000")))

	if !pos.Quantity.Equal(dec("3")) {
		t.Errorf("quantity = %s, want 3", pos.Quantity)
	}
	// Selling never moves the average cost.
	if !pos.AverageCost.Equal(dec("2000")) {
		t.Errorf("average cost = %s, want 2000", pos.AverageCost)
	}
}

func TestLedger_OversellRejected(t *testing.T) {
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-01-05"), "AAPL", dec("5"), dec("150")))

	_, err := ledger.Apply(NewSell(day("2026-01-06"), "AAPL", dec("6"), dec("160")))
	if !errors.Is(err, ErrInsufficientPosition) {
		t.Fatalf("err = %v, want ErrInsufficientPosition", err)
	}
	// The failed sell must not have touched the ledger.
	if ledger.Len() != 1 {
		t.Errorf("ledger has %d transactions, want 1", ledger.Len())
	}
	if pos := ledger.Position("AAPL"); !pos.Quantity.Equal(dec("5")) {
		t.Errorf("position quantity = %s, want 5", pos.Quantity)
	}
}

func TestLedger_InvalidTransactionRejected(t *testing.T) {
	testCases := []struct {
		name string
		tx   Transaction
	}{
		{name: "zero quantity", tx: NewBuy(day("2026-01-05"), "AAPL", dec("0"), dec("100"))},
		{name: "negative quantity", tx: NewBuy(day("2026-01-05"), "AAPL", dec("-1"), dec("100"))},
		{name: "zero price", tx: NewBuy(day("2026-01-05"), "AAPL", dec("1"), dec("0"))},
		{name: "negative price", tx: NewBuy(day("2026-01-05"), "AAPL", dec("1"), dec("-5"))},
		{name: "empty symbol", tx: NewBuy(day("2026-01-05"), "", dec("1"), dec("100"))},
		{name: "zero time", tx: NewBuy(time.Time{}, "AAPL", dec("1"), dec("100"))},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := NewLedger()
			if _, err := ledger.Apply(tc.tx); !errors.Is(err, ErrInvalidTransaction) {
				t.Errorf("err = %v, want ErrInvalidTransaction", err)
			}
			if ledger.Len() != 0 {
				t.Errorf("rejected transaction was appended")
			}
		})
	}
}

func TestLedger_ChronologicalOrder(t *testing.T) {
	// Out-of-order inserts still iterate chronologically.
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-03-01"), "AAPL", dec("1"), dec("180")))
	mustApply(t, ledger, NewBuy(day("2026-01-01"), "AAPL", dec("1"), dec("170")))
	mustApply(t, ledger, NewBuy(day("2026-02-01"), "AAPL", dec("1"), dec("175")))

	var last time.Time
	for tx := range ledger.Transactions() {
		if tx.Time.Before(last) {
			t.Fatalf("transactions out of order: %s before %s", tx.Time, last)
		}
		last = tx.Time
	}
}

func TestLedger_BackdatedOversellRejected(t *testing.T) {
	// A sell dated before the buy that would fund it must be rejected:
	// at its chronological slot nothing is held yet.
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-02-01"), "AAPL", dec("5"), dec("100")))

	_, err := ledger.Apply(NewSell(day("2026-01-01"), "AAPL", dec("5"), dec("110")))
	if !errors.Is(err, ErrInsufficientPosition) {
		t.Fatalf("err = %v, want ErrInsufficientPosition", err)
	}
	if ledger.Len() != 1 {
		t.Errorf("ledger has %d transactions, want 1", ledger.Len())
	}
	// The log must still replay cleanly after the rejection.
	pos := ledger.Position("AAPL")
	if !pos.Quantity.Equal(dec("5")) || !pos.AverageCost.Equal(dec("100")) {
		t.Errorf("position = %+v, want 5 @ 100", pos)
	}
}

func TestLedger_BackdatedSellStarvingLaterSell(t *testing.T) {
	// The backdated sell is covered at its own slot, but inserting it
	// would push a later sell below zero. The whole insert is rejected.
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-02-01"), "AAPL", dec("5"), dec("100")))
	mustApply(t, ledger, NewSell(day("2026-03-01"), "AAPL", dec("3"), dec("120")))

	_, err := ledger.Apply(NewSell(day("2026-02-15"), "AAPL", dec("4"), dec("110")))
	if !errors.Is(err, ErrInsufficientPosition) {
		t.Fatalf("err = %v, want ErrInsufficientPosition", err)
	}
	if ledger.Len() != 2 {
		t.Errorf("ledger has %d transactions, want 2", ledger.Len())
	}
	if pos := ledger.Position("AAPL"); !pos.Quantity.Equal(dec("2")) {
		t.Errorf("position quantity = %s, want 2", pos.Quantity)
	}
}

func TestLedger_ValidBackdatedSell(t *testing.T) {
	// A backdated sell that stays covered throughout is fine, and the
	// average cost is not disturbed by the insertion order.
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-01-05"), "AAPL", dec("10"), dec("100")))
	mustApply(t, ledger, NewSell(day("2026-03-01"), "AAPL", dec("4"), dec("130")))

	pos, err := ledger.Apply(NewSell(day("2026-02-01"), "AAPL", dec("2"), dec("120")))
	if err != nil {
		t.Fatal(err)
	}
	if !pos.Quantity.Equal(dec("4")) {
		t.Errorf("quantity = %s, want 4", pos.Quantity)
	}
	if !pos.AverageCost.Equal(dec("100")) {
		t.Errorf("average cost = %s, want 100", pos.AverageCost)
	}
}

func TestLedger_BackdatedSellThenBuyKeepsCostBasis(t *testing.T) {
	// The replayed sequence must never pass through a negative quantity:
	// a buy folded onto a negative position would corrupt the weighted
	// average. With chronological validation the corrupting order cannot
	// be recorded, and the surviving sequence prices correctly.
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-01-05"), "AAPL", dec("10"), dec("100")))
	mustApply(t, ledger, NewSell(day("2026-02-01"), "AAPL", dec("4"), dec("120")))
	pos := mustApply(t, ledger, NewBuy(day("2026-03-01"), "AAPL", dec("10"), dec("200")))

	// (6*100 + 10*200) / 16 = 162.5
	if !pos.Quantity.Equal(dec("16")) {
		t.Errorf("quantity = %s, want 16", pos.Quantity)
	}
	if !pos.AverageCost.Equal(dec("162.5")) {
		t.Errorf("average cost = %s, want 162.5", pos.AverageCost)
	}
}

func TestLedger_PositionsDeterministic(t *testing.T) {
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-01-05"), "AAPL", dec("10"), dec("100")))
	mustApply(t, ledger, NewBuy(day("2026-01-06"), "BTC-USD", dec("0.5"), dec("60000")))
	mustApply(t, ledger, NewSell(day("2026-01-07"), "AAPL", dec("4"), dec("120")))

	first := ledger.Positions()
	second := ledger.Positions()
	if len(first) != len(second) {
		t.Fatalf("replay not deterministic: %d vs %d positions", len(first), len(second))
	}
	for sym, pos := range first {
		other := second[sym]
		if !pos.Quantity.Equal(other.Quantity) || !pos.AverageCost.Equal(other.AverageCost) {
			t.Errorf("replay diverges for %s: %+v vs %+v", sym, pos, other)
		}
	}
}

func TestLedger_ClosedPositionOmitted(t *testing.T) {
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-01-05"), "AAPL", dec("5"), dec("100")))
	mustApply(t, ledger, NewSell(day("2026-01-06"), "AAPL", dec("5"), dec("110")))
	mustApply(t, ledger, NewBuy(day("2026-01-07"), "MSFT", dec("1"), dec("400")))

	positions := ledger.Positions()
	if _, ok := positions["AAPL"]; ok {
		t.Error("closed position should be omitted")
	}
	if _, ok := positions["MSFT"]; !ok {
		t.Error("open position missing")
	}
}

func TestLedger_ReopenedPositionStartsFresh(t *testing.T) {
	// Closing a position resets its cost history; a later buy starts over.
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-01-05"), "AAPL", dec("5"), dec("100")))
	mustApply(t, ledger, NewSell(day("2026-01-06"), "AAPL", dec("5"), dec("110")))
	pos := mustApply(t, ledger, NewBuy(day("2026-01-07"), "AAPL", dec("2"), dec("130")))

	if !pos.AverageCost.Equal(dec("130")) {
		t.Errorf("average cost = %s, want 130 (fresh start)", pos.AverageCost)
	}
}

func mustApply(t *testing.T, l *Ledger, tx Transaction) Position {
	t.Helper()
	pos, err := l.Apply(tx)
	if err != nil {
		t.Fatalf("Apply(%s %s %s): %v", tx.Side, tx.Quantity, tx.Symbol, err)
	}
	return pos
}
