package portt

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// RenderAllocationChart renders a PNG pie chart of market value per holding.
// Gapped symbols carry no market value and do not appear.
func RenderAllocationChart(snap *Snapshot) ([]byte, error) {
	if len(snap.Holdings) == 0 {
		return nil, fmt.Errorf("no priced holdings to chart")
	}

	values := make([]chart.Value, 0, len(snap.Holdings))
	for _, h := range snap.Holdings {
		v := h.MarketValue.InexactFloat64()
		if v <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: v,
			Label: fmt.Sprintf("%s %s", h.Symbol, FormatMoney(h.MarketValue)),
		})
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no positive market values to chart")
	}

	pie := chart.PieChart{
		Title:  "Asset Allocation",
		Width:  600,
		Height: 600,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPLChart renders a PNG bar chart of unrealized P&L per holding,
// green for gains and red for losses.
func RenderPLChart(snap *Snapshot) ([]byte, error) {
	if len(snap.Holdings) == 0 {
		return nil, fmt.Errorf("no priced holdings to chart")
	}

	bars := make([]chart.Value, 0, len(snap.Holdings))
	for _, h := range snap.Holdings {
		v := h.Unrealized.InexactFloat64()
		style := chart.Style{FillColor: drawing.ColorFromHex("16a34a")} // green-600
		if v < 0 {
			style = chart.Style{FillColor: drawing.ColorFromHex("dc2626")} // red-600
		}
		bars = append(bars, chart.Value{Value: v, Label: string(h.Symbol), Style: style})
	}

	graph := chart.BarChart{
		Title:  "Unrealized P&L",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPriceHistoryChart renders a PNG line chart of daily closes, one
// series per symbol. Symbols with fewer than two points are skipped.
func RenderPriceHistoryChart(series map[Symbol]History) ([]byte, error) {
	var lines []chart.Series
	for _, sym := range slices.Sorted(maps.Keys(series)) {
		hist := series[sym]
		if len(hist) < 2 {
			continue
		}
		times := make([]time.Time, 0, len(hist))
		prices := make([]float64, 0, len(hist))
		for p := range hist.Points() {
			times = append(times, p.Time)
			prices = append(prices, p.Price.InexactFloat64())
		}
		lines = append(lines, chart.TimeSeries{
			Name:    string(sym),
			XValues: times,
			YValues: prices,
		})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no price history to chart")
	}

	graph := chart.Chart{
		Title:  "Price History",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		Series: lines,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderVolatilityChart renders a PNG line chart of rolling annualized
// volatility, one series per symbol. Each point is the volatility of the
// trailing window ending on that day; symbols with too little history for a
// single window are skipped.
func RenderVolatilityChart(series map[Symbol]History, window int, annualize float64) ([]byte, error) {
	if window < 2 {
		return nil, fmt.Errorf("volatility window must be at least 2, got %d", window)
	}

	var lines []chart.Series
	for _, sym := range slices.Sorted(maps.Keys(series)) {
		hist := series[sym]
		if len(hist) < window+1 {
			continue
		}
		times := make([]time.Time, 0, len(hist)-window)
		vols := make([]float64, 0, len(hist)-window)
		for i := window; i < len(hist); i++ {
			vol, ok := volatility(hist[i-window:i+1], window+1, annualize)
			if !ok {
				continue
			}
			times = append(times, hist[i].Time)
			vols = append(vols, vol)
		}
		if len(times) < 2 {
			continue
		}
		lines = append(lines, chart.TimeSeries{
			Name:    string(sym),
			XValues: times,
			YValues: vols,
		})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("not enough history for a volatility chart")
	}

	graph := chart.Chart{
		Title:  "Rolling Volatility",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		Series: lines,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
