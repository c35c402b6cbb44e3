package portt

import (
	"testing"
)

func TestParseSide(t *testing.T) {
	testCases := []struct {
		in      string
		want    Side
		wantErr bool
	}{
		{in: "buy", want: Buy},
		{in: "BUY", want: Buy},
		{in: " Sell ", want: Sell},
		{in: "hold", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range testCases {
		got, err := ParseSide(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSide(%q): expected an error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSide(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseSide(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTransaction_Amount(t *testing.T) {
	tx := NewBuy(day("2026-01-05"), "AAPL", dec("2.5"), dec("180"))
	if !tx.Amount().Equal(dec("450")) {
		t.Errorf("amount = %s, want 450", tx.Amount())
	}
}

func TestTransaction_UniqueIDs(t *testing.T) {
	a := NewBuy(day("2026-01-05"), "AAPL", dec("1"), dec("100"))
	b := NewBuy(day("2026-01-05"), "AAPL", dec("1"), dec("100"))
	if a.ID == b.ID {
		t.Error("two transactions share an ID")
	}
}
