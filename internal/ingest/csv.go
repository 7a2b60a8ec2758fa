// Package ingest implements the CSV glue around the core engine contract:
// reading and validating input rows into shard.Transaction values, and
// writing the final snapshot back out. None of this package's logic is part
// of the core dispatch contract — it is the header-to-footer adapter that
// sits in front of it.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/terminal-bench/txshard/internal/shard"
	"github.com/terminal-bench/txshard/pkg/money"
)

// ParseError reports a rejected input row. The pipeline driver logs it and
// continues; it is never fatal.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ingest: row %d: %s", e.Line, e.Reason)
}

var kindsByName = map[string]shard.Kind{
	"deposit":    shard.Deposit,
	"withdrawal": shard.Withdrawal,
	"dispute":    shard.Dispute,
	"resolve":    shard.Resolve,
	"chargeback": shard.Chargeback,
}

// Reader streams validated transactions from a header-led CSV stream with
// columns type,client,tx,amount.
type Reader struct {
	csv  *csv.Reader
	line int
}

var expectedHeader = []string{"type", "client", "tx", "amount"}

// NewReader wraps r, requiring and validating the header row against
// expectedHeader.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("ingest: empty input, missing header row")
		}
		return nil, fmt.Errorf("ingest: reading header: %w", err)
	}
	if !matchesHeader(header) {
		return nil, fmt.Errorf("ingest: unexpected header %v, want %v", header, expectedHeader)
	}
	return &Reader{csv: cr, line: 1}, nil
}

func matchesHeader(got []string) bool {
	if len(got) != len(expectedHeader) {
		return false
	}
	for i, want := range expectedHeader {
		if strings.ToLower(strings.TrimSpace(got[i])) != want {
			return false
		}
	}
	return true
}

// Next returns the next validated transaction. It returns io.EOF when the
// stream is exhausted, a *ParseError for a rejected row (skip and continue),
// or any other error for a genuine I/O failure (fatal to the pipeline).
func (r *Reader) Next() (shard.Transaction, error) {
	record, err := r.csv.Read()
	r.line++
	if err != nil {
		return shard.Transaction{}, err
	}
	return parseRecord(r.line, record)
}

func parseRecord(line int, record []string) (shard.Transaction, error) {
	if len(record) != 4 {
		return shard.Transaction{}, &ParseError{Line: line, Reason: fmt.Sprintf("expected 4 fields, got %d", len(record))}
	}

	typeField := strings.ToLower(strings.TrimSpace(record[0]))
	kind, ok := kindsByName[typeField]
	if !ok {
		return shard.Transaction{}, &ParseError{Line: line, Reason: fmt.Sprintf("unknown transaction type %q", record[0])}
	}

	client, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 16)
	if err != nil {
		return shard.Transaction{}, &ParseError{Line: line, Reason: fmt.Sprintf("invalid client id %q", record[1])}
	}

	txID, err := strconv.ParseUint(strings.TrimSpace(record[2]), 10, 32)
	if err != nil {
		return shard.Transaction{}, &ParseError{Line: line, Reason: fmt.Sprintf("invalid transaction id %q", record[2])}
	}

	tx := shard.Transaction{Kind: kind, Client: uint16(client), Tx: uint32(txID)}

	amountField := strings.TrimSpace(record[3])
	switch kind {
	case shard.Deposit, shard.Withdrawal:
		if amountField == "" {
			return shard.Transaction{}, &ParseError{Line: line, Reason: "amount is required for deposit/withdrawal"}
		}
		m, err := money.Parse(amountField)
		if err != nil {
			return shard.Transaction{}, &ParseError{Line: line, Reason: fmt.Sprintf("invalid amount %q: %v", amountField, err)}
		}
		if !m.IsPositive() {
			return shard.Transaction{}, &ParseError{Line: line, Reason: fmt.Sprintf("amount must be strictly positive, got %q", amountField)}
		}
		tx.Amount = m
		tx.HasAmount = true
	default:
		// amount is ignored for dispute/resolve/chargeback, present or not.
	}

	return tx, nil
}

// Writer emits the output CSV: client,available,held,total,locked.
type Writer struct {
	csv *csv.Writer
}

// NewWriter wraps w and writes the output header immediately.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return nil, err
	}
	return &Writer{csv: cw}, nil
}

// WriteRow emits one snapshot row.
func (w *Writer) WriteRow(row shard.SnapshotRow) error {
	return w.csv.Write([]string{
		strconv.FormatUint(uint64(row.Client), 10),
		row.Available,
		row.Held,
		row.Total,
		strconv.FormatBool(row.Locked),
	})
}

// Flush flushes any buffered output and returns the first write error, if any.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}
