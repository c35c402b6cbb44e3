package portt

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// This file handles the CSV transaction interchange format. It stays human
// readable and round-trips through a spreadsheet: one header row, then one
// transaction per row.

// csvHeader is the canonical column order of the interchange format.
var csvHeader = []string{"time", "symbol", "side", "quantity", "unit_price", "memo"}

// ImportTransactions reads transaction rows from r and applies them to the
// ledger in file order. Symbols are normalized through norm. Malformed rows
// are rejected individually with a reported reason; a bad row never aborts
// the batch. It returns the number of applied transactions and the
// rejections.
func ImportTransactions(r io.Reader, ledger *Ledger, norm *Normalizer) (applied int, rejected []RecordError) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // row length is validated per row
	reader.TrimLeadingSpace = true

	line := 0
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			return applied, rejected
		}
		if err != nil {
			rejected = append(rejected, RecordError{Line: line, Reason: fmt.Sprintf("unreadable row: %v", err)})
			continue
		}
		if line == 1 && len(row) > 0 && row[0] == csvHeader[0] {
			continue // header row
		}

		tx, err := parseCSVRow(row, norm)
		if err != nil {
			rejected = append(rejected, RecordError{Line: line, Reason: err.Error()})
			continue
		}
		if _, err := ledger.Apply(tx); err != nil {
			rejected = append(rejected, RecordError{Line: line, Reason: err.Error()})
			continue
		}
		applied++
	}
}

func parseCSVRow(row []string, norm *Normalizer) (Transaction, error) {
	if len(row) < 5 {
		return Transaction{}, fmt.Errorf("want at least 5 columns (%v), got %d", csvHeader, len(row))
	}

	at, err := parseTimestamp(row[0])
	if err != nil {
		return Transaction{}, err
	}
	symbol := norm.Normalize(row[1])
	side, err := ParseSide(row[2])
	if err != nil {
		return Transaction{}, err
	}
	quantity, err := decimal.NewFromString(row[3])
	if err != nil {
		return Transaction{}, fmt.Errorf("bad quantity %q: %v", row[3], err)
	}
	unitPrice, err := decimal.NewFromString(row[4])
	if err != nil {
		return Transaction{}, fmt.Errorf("bad unit price %q: %v", row[4], err)
	}

	var tx Transaction
	switch side {
	case Buy:
		tx = NewBuy(at, symbol, quantity, unitPrice)
	case Sell:
		tx = NewSell(at, symbol, quantity, unitPrice)
	}
	if len(row) > 5 {
		tx.Memo = row[5]
	}
	return tx, nil
}

// parseTimestamp accepts RFC 3339 or a bare date, the two forms that show
// up in exports and hand-written files.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q: want RFC 3339 or YYYY-MM-DD", s)
}

// ExportTransactions writes the ledger's transactions to w in the CSV
// interchange format, in chronological order.
func ExportTransactions(w io.Writer, ledger *Ledger) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("cannot write CSV header: %w", err)
	}
	for tx := range ledger.Transactions() {
		row := []string{
			tx.Time.Format(time.RFC3339),
			string(tx.Symbol),
			string(tx.Side),
			tx.Quantity.String(),
			tx.UnitPrice.String(),
			tx.Memo,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("cannot write transaction %s: %w", tx.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
