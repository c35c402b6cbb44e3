package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	portt "github.com/portt/portt"
)

// aliasCmd manages user symbol overrides.
type aliasCmd struct {
	set string
}

func (*aliasCmd) Name() string     { return "alias" }
func (*aliasCmd) Synopsis() string { return "list or add symbol aliases" }
func (*aliasCmd) Usage() string {
	return `portt alias [-set <raw>=<canonical>]

  Without flags, lists the user-defined symbol overrides. With -set,
  records an override that takes precedence over the built-in crypto
  aliases, e.g. -set gold=GC=F.
`
}

func (c *aliasCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.set, "set", "", "Override to add, as raw=canonical.")
}

func (c *aliasCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	if c.set == "" {
		n := 0
		for raw, canonical := range norm.Overrides() {
			fmt.Printf("%-12s -> %s\n", raw, canonical)
			n++
		}
		if n == 0 {
			fmt.Println("No user-defined aliases.")
		}
		return subcommands.ExitSuccess
	}

	raw, canonical, ok := strings.Cut(c.set, "=")
	if !ok || strings.TrimSpace(raw) == "" || strings.TrimSpace(canonical) == "" {
		fmt.Fprintln(os.Stderr, "Error: -set wants raw=canonical, e.g. -set gold=GC=F.")
		return subcommands.ExitUsageError
	}
	norm.AddOverride(raw, portt.Symbol(strings.ToUpper(strings.TrimSpace(canonical))))

	if err := SaveState(cfg, ledger, norm); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Alias recorded: %s -> %s\n",
		strings.ToUpper(strings.TrimSpace(raw)), strings.ToUpper(strings.TrimSpace(canonical)))
	return subcommands.ExitSuccess
}
