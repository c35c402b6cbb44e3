// Package cmd implements the CLI application to manage a portfolio.
package cmd

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/google/subcommands"
	"github.com/phuslu/log"

	portt "github.com/portt/portt"
	"github.com/portt/portt/vault"
	"github.com/portt/portt/yahoo"
)

// Commands lists every subcommand. A main package registers each of them on
// a subcommands.Commander and executes the user-selected one.
var Commands = []subcommands.Command{
	&buyCmd{},
	&sellCmd{},
	&txCmd{},
	&summaryCmd{},
	&reportCmd{},
	&recapCmd{},
	&importCmd{},
	&exportCmd{},
	&aliasCmd{},
	&chartCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", defaultConfigFile(), "Path to the configuration file (TOML)")

func defaultConfigFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.portt.toml"
}

// LoadConfig reads the app configuration, falling back to defaults when the
// file does not exist.
func LoadConfig() (portt.Config, error) {
	return portt.LoadConfig(*configFile)
}

// NewLogger builds the console logger at the configured level.
func NewLogger(cfg portt.Config) log.Logger {
	return log.Logger{
		Level:  log.ParseLevel(cfg.Logging.Level),
		Writer: &log.ConsoleWriter{ColorOutput: true, Writer: os.Stderr},
	}
}

// OpenState loads the ledger and normalizer from the encrypted state blob.
// A missing blob is a fresh start, not an error. Rejected records are
// reported on stderr; the valid remainder still loads.
func OpenState(cfg portt.Config) (*portt.Ledger, *portt.Normalizer, error) {
	v := vault.New(cfg.State.Path, cfg.State.KeyFile)
	data, err := v.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return portt.NewLedger(), portt.NewNormalizer(), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open state %q: %w", cfg.State.Path, err)
	}
	ledger, norm, rejected := portt.DecodeState(bytes.NewReader(data))
	for _, rec := range rejected {
		fmt.Fprintf(os.Stderr, "Warning: skipping state record: %s\n", rec)
	}
	return ledger, norm, nil
}

// SaveState encodes and encrypts the ledger and normalizer back to disk.
func SaveState(cfg portt.Config, ledger *portt.Ledger, norm *portt.Normalizer) error {
	var buf bytes.Buffer
	if err := portt.EncodeState(&buf, ledger, norm); err != nil {
		return fmt.Errorf("cannot encode state: %w", err)
	}
	v := vault.New(cfg.State.Path, cfg.State.KeyFile)
	if err := v.Save(buf.Bytes()); err != nil {
		return fmt.Errorf("cannot save state %q: %w", cfg.State.Path, err)
	}
	return nil
}

// NewQuotes wires the provider client behind the price cache.
func NewQuotes(cfg portt.Config) *portt.PriceCache {
	client := yahoo.New(
		yahoo.WithBaseURL(cfg.Provider.BaseURL),
		yahoo.WithHTTPClient(&http.Client{Timeout: cfg.Provider.GetTimeout()}),
		yahoo.WithMaxRetries(cfg.Provider.MaxRetries),
		yahoo.WithRateLimit(cfg.Provider.RateLimit),
		yahoo.WithLogger(NewLogger(cfg)),
	)
	return portt.NewPriceCache(client, cfg.Cache.GetTTL(), cfg.Cache.GetStaleWindow())
}

// NewEngine wires the full pricing stack: provider client, price cache,
// metrics engine.
func NewEngine(cfg portt.Config) *portt.Engine {
	return portt.NewEngine(NewQuotes(cfg), cfg.Metrics.MetricsConfig())
}
