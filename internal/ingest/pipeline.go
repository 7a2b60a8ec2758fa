package ingest

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/terminal-bench/txshard/internal/shard"
)

// Submitter is the slice of engine.Engine the pipeline driver needs.
type Submitter interface {
	Submit(ctx context.Context, tx shard.Transaction) error
	Finalize() error
	Snapshot() ([]shard.SnapshotRow, error)
}

// Run reads transactions from reader, submits each to eng, and on EOF calls
// eng.Finalize then drains eng.Snapshot through writer. A row-parse error is
// logged and skipped, never fatal; an I/O error from reader is remembered
// and returned only after finalize/drain has still run to completion — a
// pipeline that fails mid-stream still drains already-enqueued work.
func Run(ctx context.Context, reader *Reader, writer *Writer, eng Submitter) error {
	var rejected int
	var ioErr error

loop:
	for {
		tx, err := reader.Next()
		switch {
		case err == nil:
			if subErr := eng.Submit(ctx, tx); subErr != nil {
				log.Printf("ingest: submit failed for tx=%d client=%d: %v", tx.Tx, tx.Client, subErr)
			}
		case errors.Is(err, io.EOF):
			break loop
		default:
			var perr *ParseError
			if errors.As(err, &perr) {
				rejected++
				log.Printf("ingest: rejected row: %v", perr)
				continue
			}
			ioErr = err
			break loop
		}
	}

	if err := eng.Finalize(); err != nil {
		return err
	}

	rows, err := eng.Snapshot()
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.WriteRow(row); err != nil {
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if rejected > 0 {
		log.Printf("ingest: skipped %d malformed row(s)", rejected)
	}
	return ioErr
}
