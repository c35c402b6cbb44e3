package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	portt "github.com/portt/portt"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	best int
	risk bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "rank holdings by return or by risk" }
func (*reportCmd) Usage() string {
	return `portt report [-best <n>] [-risk]

  Ranks the current holdings. By default the top performers by percent
  return are shown, along with the single worst performer. With -risk,
  holdings are ordered from highest to lowest risk instead.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.best, "best", 3, "Number of top performers to show.")
	f.BoolVar(&c.risk, "risk", false, "Order holdings by risk, highest first.")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	if c.risk {
		fmt.Println("Holdings by risk (highest first):")
		for _, h := range snap.SortedByRisk(true) {
			fmt.Printf("  %-10s %-8s vol %s\n",
				h.Symbol, h.Risk, formatVolatility(h.Volatility, h.HasVolatility))
		}
		return subcommands.ExitSuccess
	}

	fmt.Printf("Top %d performer(s):\n", c.best)
	for _, h := range snap.Best(c.best) {
		fmt.Printf("  %-10s %9s  %s unrealized\n",
			h.Symbol, formatPercent(h.PercentReturn.InexactFloat64(), h.HasReturn),
			portt.FormatSignedMoney(h.Unrealized))
	}
	if worst, ok := snap.Worst(); ok {
		fmt.Printf("Worst performer:\n  %-10s %9s  %s unrealized\n",
			worst.Symbol, formatPercent(worst.PercentReturn.InexactFloat64(), worst.HasReturn),
			portt.FormatSignedMoney(worst.Unrealized))
	}
	for _, gap := range snap.Gaps {
		fmt.Printf("Excluded %s: %s\n", gap.Symbol, gap.Reason)
	}
	return subcommands.ExitSuccess
}
