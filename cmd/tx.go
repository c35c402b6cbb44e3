package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	portt "github.com/portt/portt"
)

// buyCmd records a purchase in the ledger.
type buyCmd struct {
	symbol   string
	quantity string
	price    string
	date     string
	memo     string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "record a buy transaction" }
func (*buyCmd) Usage() string {
	return `portt buy -s <symbol> -q <quantity> -p <unit_price> [-d <date>] [-memo <text>]

  Records a purchase. The symbol is normalized (crypto aliases like btc
  resolve to BTC-USD) and the position's average cost is recomputed.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Symbol to buy.")
	f.StringVar(&c.quantity, "q", "", "Quantity to buy.")
	f.StringVar(&c.price, "p", "", "Unit price paid.")
	f.StringVar(&c.date, "d", "", "Transaction date (YYYY-MM-DD or RFC3339). Defaults to now.")
	f.StringVar(&c.memo, "memo", "", "Optional free-form note.")
}

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return recordTransaction(portt.Buy, c.symbol, c.quantity, c.price, c.date, c.memo)
}

// sellCmd records a sale in the ledger.
type sellCmd struct {
	symbol   string
	quantity string
	price    string
	date     string
	memo     string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sell transaction" }
func (*sellCmd) Usage() string {
	return `portt sell -s <symbol> -q <quantity> -p <unit_price> [-d <date>] [-memo <text>]

  Records a sale. Selling more than the currently held quantity is rejected
  and leaves the ledger untouched.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Symbol to sell.")
	f.StringVar(&c.quantity, "q", "", "Quantity to sell.")
	f.StringVar(&c.price, "p", "", "Unit price received.")
	f.StringVar(&c.date, "d", "", "Transaction date (YYYY-MM-DD or RFC3339). Defaults to now.")
	f.StringVar(&c.memo, "memo", "", "Optional free-form note.")
}

func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return recordTransaction(portt.Sell, c.symbol, c.quantity, c.price, c.date, c.memo)
}

// recordTransaction is the shared buy/sell path: parse flags, apply to the
// ledger, persist on success.
func recordTransaction(side portt.Side, symbol, quantity, price, date, memo string) subcommands.ExitStatus {
	if symbol == "" || quantity == "" || price == "" {
		fmt.Fprintln(os.Stderr, "Error: -s, -q and -p are required.")
		return subcommands.ExitUsageError
	}
	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing quantity %q: %v\n", quantity, err)
		return subcommands.ExitUsageError
	}
	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing unit price %q: %v\n", price, err)
		return subcommands.ExitUsageError
	}
	at := time.Now()
	if date != "" {
		at, err = parseDate(date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	ledger, norm, err := OpenState(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var tx portt.Transaction
	if side == portt.Buy {
		tx = portt.NewBuy(at, norm.Normalize(symbol), qty, unitPrice)
	} else {
		tx = portt.NewSell(at, norm.Normalize(symbol), qty, unitPrice)
	}
	tx.Memo = memo

	pos, err := ledger.Apply(tx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := SaveState(cfg, ledger, norm); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Recorded %s %s %s @ %s. Position: %s @ %s avg cost.\n",
		side, qty, tx.Symbol, portt.FormatMoney(unitPrice),
		pos.Quantity, portt.FormatMoney(pos.AverageCost))
	return subcommands.ExitSuccess
}

// parseDate accepts a plain day or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q (want YYYY-MM-DD or RFC3339)", s)
	}
	return t, nil
}

// txCmd lists all transactions in the ledger.
type txCmd struct {
	symbol string
	head   int
	tail   int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list all transactions in the ledger" }
func (*txCmd) Usage() string {
	return `portt tx [-s <symbol>] [-head <n>] [-tail <n>]

  Lists transactions in chronological order, with options for filtering
  and limiting the output.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Show only transactions for this symbol.")
	f.IntVar(&c.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&c.tail, "tail", 0, "Show only the last N transactions.")
}

func (c *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.head > 0 && c.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	ledger, norm, err := OpenState(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var filter portt.Symbol
	if c.symbol != "" {
		filter = norm.Normalize(c.symbol)
	}

	var txs []portt.Transaction
	for tx := range ledger.Transactions() {
		if filter != "" && tx.Symbol != filter {
			continue
		}
		txs = append(txs, tx)
	}

	if c.head > 0 && len(txs) > c.head {
		txs = txs[:c.head]
	}
	if c.tail > 0 && len(txs) > c.tail {
		txs = txs[len(txs)-c.tail:]
	}

	for _, tx := range txs {
		memo := ""
		if tx.Memo != "" {
			memo = "  # " + tx.Memo
		}
		fmt.Printf("%s  %-4s %-10s %12s @ %s%s\n",
			tx.Time.Format(time.RFC3339), tx.Side, tx.Symbol,
			tx.Quantity, portt.FormatMoney(tx.UnitPrice), memo)
	}
	fmt.Printf("%d transaction(s).\n", len(txs))
	return subcommands.ExitSuccess
}
