package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	portt "github.com/portt/portt"
)

// chartHistoryWindow is the number of daily points fetched for the
// history-based charts; the rolling volatility uses a 5-day window over it.
const (
	chartHistoryWindow  = 60
	chartRollingVolDays = 5
)

// chartCmd renders portfolio charts to PNG files.
type chartCmd struct {
	kind   string
	output string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "render a portfolio chart as PNG" }
func (*chartCmd) Usage() string {
	return `portt chart [-t allocation|pl|history|volatility] [-o <file.png>]

  Renders one of:
    allocation  pie chart of market value per holding
    pl          bar chart of unrealized gain or loss per holding
    history     line chart of daily closes per holding
    volatility  line chart of rolling annualized volatility per holding
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "t", "allocation", "Chart type: allocation, pl, history or volatility.")
	f.StringVar(&c.output, "o", "portfolio.png", "Destination PNG file.")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	ledger, _, err := OpenState(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	positions := ledger.Positions()
	if len(positions) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no open positions to chart.")
		return subcommands.ExitFailure
	}

	var png []byte
	switch c.kind {
	case "allocation", "pl":
		snap, err := NewEngine(cfg).Compute(ctx, positions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error computing portfolio metrics: %v\n", err)
			return subcommands.ExitFailure
		}
		if c.kind == "allocation" {
			png, err = portt.RenderAllocationChart(snap)
		} else {
			png, err = portt.RenderPLChart(snap)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering chart: %v\n", err)
			return subcommands.ExitFailure
		}
	case "history", "volatility":
		series := c.fetchSeries(ctx, cfg, positions)
		if c.kind == "history" {
			png, err = portt.RenderPriceHistoryChart(series)
		} else {
			png, err = portt.RenderVolatilityChart(series, chartRollingVolDays, cfg.Metrics.MetricsConfig().Annualize)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering chart: %v\n", err)
			return subcommands.ExitFailure
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown chart type %q (want allocation, pl, history or volatility).\n", c.kind)
		return subcommands.ExitUsageError
	}

	if err := os.WriteFile(c.output, png, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", c.output, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Wrote %s chart to %s.\n", c.kind, c.output)
	return subcommands.ExitSuccess
}

// fetchSeries collects daily history for every held symbol. A symbol whose
// history cannot be fetched is reported and left out, like a pricing gap.
func (c *chartCmd) fetchSeries(ctx context.Context, cfg portt.Config, positions map[portt.Symbol]portt.Position) map[portt.Symbol]portt.History {
	quotes := NewQuotes(cfg)
	series := make(map[portt.Symbol]portt.History, len(positions))
	for sym := range positions {
		hist, err := quotes.FetchHistory(ctx, sym, chartHistoryWindow)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: no history for %s: %v\n", sym, err)
			continue
		}
		series[sym] = hist
	}
	return series
}
