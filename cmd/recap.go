package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	portt "github.com/portt/portt"
)

// recapCmd summarizes the latest month's activity.
type recapCmd struct{}

func (*recapCmd) Name() string     { return "recap" }
func (*recapCmd) Synopsis() string { return "display a summary of the latest month's activity" }
func (*recapCmd) Usage() string {
	return `portt recap

  Shows the number of buys recorded in the most recent month with activity,
  the portfolio's total unrealized growth, and the mean percent return
  across holdings.
`
}

func (c *recapCmd) SetFlags(f *flag.FlagSet) {}

func (c *recapCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if ledger.Len() == 0 {
		fmt.Println("No transactions yet.")
		return subcommands.ExitSuccess
	}

	// The recap month is the most recent month with a buy.
	latestMonth := ""
	for tx := range ledger.Transactions() {
		if tx.Side != portt.Buy {
			continue
		}
		if month := tx.Time.Format("2006-01"); month > latestMonth {
			latestMonth = month
		}
	}
	if latestMonth == "" {
		fmt.Println("No buy transactions yet.")
		return subcommands.ExitSuccess
	}
	buys := 0
	for tx := range ledger.Transactions() {
		if tx.Side == portt.Buy && tx.Time.Format("2006-01") == latestMonth {
			buys++
		}
	}

	fmt.Printf("Monthly summary (%s)\n", latestMonth)
	fmt.Printf("Buys this month:    %d\n", buys)

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

	fmt.Printf("Unrealized growth:  %s\n", portt.FormatSignedMoney(snap.TotalUnrealized))
	if mean, ok := snap.MeanReturn(); ok {
		fmt.Printf("Mean return:        %s\n", formatPercent(mean.InexactFloat64(), true))
	} else {
		fmt.Printf("Mean return:        N/A\n")
	}
	for _, gap := range snap.Gaps {
		fmt.Printf("Excluded %s: %s\n", gap.Symbol, gap.Reason)
	}
	return subcommands.ExitSuccess
}
