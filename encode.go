package portt

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// This file implements the durable state format: a JSONL stream where each
// line is a record discriminated by its "record" property. Only the
// transaction log and the alias overrides are durable; positions, quotes and
// snapshots are always recomputed.

const (
	recordTx    = "tx"
	recordAlias = "alias"
)

type txRecord struct {
	Record string `json:"record"`
	Transaction
}

type aliasRecord struct {
	Record string `json:"record"`
	Alias  string `json:"alias"`
	Symbol Symbol `json:"symbol"`
}

// EncodeState writes the ledger and the alias overrides to w in JSONL
// format. Aliases come first so a future decode can normalize symbols
// before replaying transactions.
func EncodeState(w io.Writer, ledger *Ledger, norm *Normalizer) error {
	enc := json.NewEncoder(w)
	for alias, sym := range norm.Overrides() {
		if err := enc.Encode(aliasRecord{Record: recordAlias, Alias: alias, Symbol: sym}); err != nil {
			return fmt.Errorf("cannot write alias record %q: %w", alias, err)
		}
	}
	for tx := range ledger.Transactions() {
		if err := enc.Encode(txRecord{Record: recordTx, Transaction: tx}); err != nil {
			return fmt.Errorf("cannot write transaction record %s: %w", tx.ID, err)
		}
	}
	return nil
}

// DecodeState reads a JSONL state stream and rebuilds the ledger and the
// alias overrides. Malformed records are rejected individually: each is
// reported in the returned rejection list with its line number and reason,
// and decoding continues. The rebuilt ledger replays every valid
// transaction through Apply, so the invariants hold after a crash recovery
// exactly as they did when the state was written.
func DecodeState(r io.Reader) (*Ledger, *Normalizer, []RecordError) {
	ledger := NewLedger()
	norm := NewNormalizer()
	var rejected []RecordError

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}

		var identifier struct {
			Record string `json:"record"`
		}
		if err := json.Unmarshal(raw, &identifier); err != nil {
			rejected = append(rejected, RecordError{Line: line, Reason: fmt.Sprintf("not a JSON record: %v", err)})
			continue
		}

		switch identifier.Record {
		case recordAlias:
			var rec aliasRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				rejected = append(rejected, RecordError{Line: line, Reason: fmt.Sprintf("bad alias record: %v", err)})
				continue
			}
			norm.AddOverride(rec.Alias, rec.Symbol)
		case recordTx:
			var rec txRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				rejected = append(rejected, RecordError{Line: line, Reason: fmt.Sprintf("bad transaction record: %v", err)})
				continue
			}
			if _, err := ledger.Apply(rec.Transaction); err != nil {
				rejected = append(rejected, RecordError{Line: line, Reason: err.Error()})
			}
		default:
			rejected = append(rejected, RecordError{Line: line, Reason: fmt.Sprintf("unknown record type %q", identifier.Record)})
		}
	}
	if err := scanner.Err(); err != nil {
		rejected = append(rejected, RecordError{Line: line, Reason: fmt.Sprintf("read error: %v", err)})
	}
	return ledger, norm, rejected
}

// RecordError reports one rejected record of a batch input (state stream or
// CSV import). A rejection never aborts the batch.
type RecordError struct {
	Line   int
	Reason string
}

func (e RecordError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}
