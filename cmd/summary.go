package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	portt "github.com/portt/portt"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display a portfolio performance summary" }
func (*summaryCmd) Usage() string {
	return `portt summary

  Displays every open position with its live market value, unrealized
  profit and loss, percent return and risk label, followed by portfolio
  totals. Symbols whose price cannot be resolved are listed separately
  and excluded from the totals.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
		fmt.Println("No open positions.")
		return subcommands.ExitSuccess
	}

	snap, err := NewEngine(cfg).Compute(ctx, positions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing portfolio metrics: %v\n", err)
		return subcommands.ExitFailure
	}

	printSnapshot(snap)
	return subcommands.ExitSuccess
}

func printSnapshot(snap *portt.Snapshot) {
	fmt.Printf("Portfolio as of %s\n\n", snap.Time.Format("2006-01-02 15:04:05"))
	fmt.Printf("%-10s %14s %12s %14s %14s %9s %7s %-8s\n",
		"SYMBOL", "QUANTITY", "PRICE", "VALUE", "P/L", "RETURN", "VOL", "RISK")
	for _, h := range snap.Holdings {
		fmt.Printf("%-10s %14s %12s %14s %14s %9s %7s %-8s %s\n",
			h.Symbol, h.Quantity, portt.FormatMoney(h.Quote.Price),
			portt.FormatMoney(h.MarketValue), portt.FormatSignedMoney(h.Unrealized),
			formatPercent(h.PercentReturn.InexactFloat64(), h.HasReturn),
			formatVolatility(h.Volatility, h.HasVolatility),
			h.Risk, quoteMarker(h.Quote.Source))
	}
	for _, gap := range snap.Gaps {
		fmt.Printf("%-10s %s\n", gap.Symbol, "price unavailable: "+gap.Reason)
	}
	fmt.Printf("\nTotal market value: %s\n", portt.FormatMoney(snap.TotalMarketValue))
	fmt.Printf("Total cost basis:   %s\n", portt.FormatMoney(snap.TotalCostBasis))
	fmt.Printf("Total unrealized:   %s\n", portt.FormatSignedMoney(snap.TotalUnrealized))
	if len(snap.Gaps) > 0 {
		fmt.Printf("(%d symbol(s) excluded from totals: price unavailable)\n", len(snap.Gaps))
	}
}

func formatPercent(v float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%+.2f%%", v*100)
}

func formatVolatility(v float64, ok bool) string {
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.3f", v)
}

// quoteMarker flags quotes that did not come from a live fetch.
func quoteMarker(src portt.QuoteSource) string {
	switch src {
	case portt.SourceStaleFallback:
		return "(stale)"
	case portt.SourceCached:
		return "(cached)"
	default:
		return ""
	}
}
