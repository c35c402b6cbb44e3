package portt

import (
	"bytes"
	"strings"
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-01-05"), "BTC-USD", dec("0.5"), dec("60000")))
	mustApply(t, ledger, NewBuy(day("2026-01-06"), "AAPL", dec("10"), dec("180")))
	mustApply(t, ledger, NewSell(day("2026-01-07"), "AAPL", dec("3"), dec("190")))
	norm := NewNormalizer()
	norm.AddOverride("gold", "GC=F")

	var buf bytes.Buffer
	if err := EncodeState(&buf, ledger, norm); err != nil {
		t.Fatal(err)
	}

	decoded, decodedNorm, rejected := DecodeState(&buf)
	if len(rejected) != 0 {
		t.Fatalf("unexpected rejections: %v", rejected)
	}
	if decoded.Len() != ledger.Len() {
		t.Fatalf("got %d transactions, want %d", decoded.Len(), ledger.Len())
	}

	// Positions derived from the decoded ledger match the originals.
	want := ledger.Positions()
	got := decoded.Positions()
	for sym, pos := range want {
		other, ok := got[sym]
		if !ok {
			t.Fatalf("position %s missing after round trip", sym)
		}
		if !pos.Quantity.Equal(other.Quantity) || !pos.AverageCost.Equal(other.AverageCost) {
			t.Errorf("position %s diverges: %+v vs %+v", sym, pos, other)
		}
	}

	if decodedNorm.Normalize("gold") != "GC=F" {
		t.Error("alias override lost in round trip")
	}
}

func TestDecodeState_RejectsBadLinesKeepsGood(t *testing.T) {
	input := strings.Join([]string{
		`{"record":"alias","alias":"GOLD","symbol":"GC=F"}`,
		`{"record":"tx","id":"7d, not json at all`,
		`{"record":"tx","id":"0b907894-7538-4b20-8a9c-5bb383002a2d","symbol":"AAPL","side":"buy","quantity":10,"unit_price":180,"time":"2026-01-05T00:00:00Z"}`,
		`{"record":"snapshot","value":42}`,
		`{"record":"tx","id":"41b2dd6a-5b93-4d82-b1eb-16863bc08b47","symbol":"AAPL","side":"sell","quantity":99,"unit_price":200,"time":"2026-01-06T00:00:00Z"}`,
		``,
	}, "\n")

	ledger, norm, rejected := DecodeState(strings.NewReader(input))

	// Broken JSON, unknown record type, oversell: three rejections.
	if len(rejected) != 3 {
		t.Fatalf("got %d rejections (%v), want 3", len(rejected), rejected)
	}
	if rejected[0].Line != 2 {
		t.Errorf("first rejection at line %d, want 2", rejected[0].Line)
	}

	// The valid records still loaded.
	if ledger.Len() != 1 {
		t.Errorf("got %d transactions, want 1", ledger.Len())
	}
	if pos := ledger.Position("AAPL"); !pos.Quantity.Equal(dec("10")) {
		t.Errorf("position quantity = %s, want 10", pos.Quantity)
	}
	if norm.Normalize("gold") != "GC=F" {
		t.Error("alias record not loaded")
	}
}

func TestEncodeState_AliasesBeforeTransactions(t *testing.T) {
	ledger := NewLedger()
	mustApply(t, ledger, NewBuy(day("2026-01-05"), "AAPL", dec("1"), dec("100")))
	norm := NewNormalizer()
	norm.AddOverride("a", "AAPL")

	var buf bytes.Buffer
	if err := EncodeState(&buf, ledger, norm); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"record":"alias"`) {
		t.Errorf("first line should be the alias record: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"record":"tx"`) {
		t.Errorf("second line should be the transaction record: %s", lines[1])
	}
}
