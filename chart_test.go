package portt

import (
	"bytes"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func assertPNG(t *testing.T, data []byte) {
	t.Helper()
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		t.Fatalf("output is not a PNG (%d bytes)", len(data))
	}
}

func TestRenderAllocationChart(t *testing.T) {
	snap := &Snapshot{Holdings: []Holding{
		{Position: Position{Symbol: "AAPL"}, MarketValue: dec("1200")},
		{Position: Position{Symbol: "BTC-USD"}, MarketValue: dec("3200")},
	}}
	png, err := RenderAllocationChart(snap)
	if err != nil {
		t.Fatal(err)
	}
	assertPNG(t, png)
}

func TestRenderAllocationChart_Empty(t *testing.T) {
	if _, err := RenderAllocationChart(&Snapshot{}); err == nil {
		t.Error("expected an error for an empty snapshot")
	}
}

func TestRenderPLChart(t *testing.T) {
	snap := &Snapshot{Holdings: []Holding{
		{Position: Position{Symbol: "AAPL"}, Unrealized: dec("200")},
		{Position: Position{Symbol: "BTC-USD"}, Unrealized: dec("-150")},
	}}
	png, err := RenderPLChart(snap)
	if err != nil {
		t.Fatal(err)
	}
	assertPNG(t, png)
}

func TestRenderPriceHistoryChart(t *testing.T) {
	series := map[Symbol]History{
		"AAPL":    histFrom("100", "101", "99", "102"),
		"BTC-USD": histFrom("60000", "61000", "59000", "62000"),
		"NEWCO":   histFrom("10"), // too short, skipped
	}
	png, err := RenderPriceHistoryChart(series)
	if err != nil {
		t.Fatal(err)
	}
	assertPNG(t, png)
}

func TestRenderPriceHistoryChart_NoData(t *testing.T) {
	if _, err := RenderPriceHistoryChart(map[Symbol]History{}); err == nil {
		t.Error("expected an error with no series")
	}
}

func TestRenderVolatilityChart(t *testing.T) {
	series := map[Symbol]History{
		"AAPL": histFrom("100", "101", "99", "102", "98", "103", "97", "104", "96"),
	}
	png, err := RenderVolatilityChart(series, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	assertPNG(t, png)
}

func TestRenderVolatilityChart_TooLittleHistory(t *testing.T) {
	series := map[Symbol]History{
		"NEWCO": histFrom("10", "11", "12"),
	}
	if _, err := RenderVolatilityChart(series, 5, 1); err == nil {
		t.Error("expected an error when no symbol has a full window")
	}
}
