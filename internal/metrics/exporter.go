// Package metrics exports run-level aggregates to InfluxDB: total available,
// held, and locked-account counts, summed across every client in a finalized
// snapshot. It is write-only and best-effort, matching the rest of the
// optional sinks: an unreachable InfluxDB must never fail or block a run.
package metrics

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/shopspring/decimal"

	"github.com/terminal-bench/txshard/internal/shard"
)

// Exporter writes one aggregate point per finalized run.
type Exporter struct {
	client influxdb2.Client
	writer api.WriteAPIBlocking
	bucket string
}

// Connect builds an Exporter against url, authenticating with token and
// scoped to org/bucket.
func Connect(url, token, org, bucket string) *Exporter {
	client := influxdb2.NewClient(url, token)
	return &Exporter{
		client: client,
		writer: client.WriteAPIBlocking(org, bucket),
		bucket: bucket,
	}
}

// aggregate sums available and held balances with decimal.Decimal, which
// carries arbitrary precision and avoids the overflow/rounding pitfalls of
// summing scaled int64 money.Money values across an unbounded client count.
type aggregate struct {
	totalAvailable decimal.Decimal
	totalHeld      decimal.Decimal
	lockedCount    int
	clientCount    int
}

func summarize(rows []shard.SnapshotRow) (aggregate, error) {
	agg := aggregate{totalAvailable: decimal.Zero, totalHeld: decimal.Zero}
	for _, row := range rows {
		available, err := decimal.NewFromString(row.Available)
		if err != nil {
			return aggregate{}, fmt.Errorf("metrics: parsing available for client %d: %w", row.Client, err)
		}
		held, err := decimal.NewFromString(row.Held)
		if err != nil {
			return aggregate{}, fmt.Errorf("metrics: parsing held for client %d: %w", row.Client, err)
		}
		agg.totalAvailable = agg.totalAvailable.Add(available)
		agg.totalHeld = agg.totalHeld.Add(held)
		agg.clientCount++
		if row.Locked {
			agg.lockedCount++
		}
	}
	return agg, nil
}

// WriteRunSummary computes and writes the aggregate point for runID.
func (e *Exporter) WriteRunSummary(ctx context.Context, runID string, rows []shard.SnapshotRow) error {
	agg, err := summarize(rows)
	if err != nil {
		return err
	}

	point := influxdb2.NewPoint(
		"txshard_run",
		map[string]string{"run_id": runID},
		map[string]interface{}{
			"total_available": agg.totalAvailable.InexactFloat64(),
			"total_held":      agg.totalHeld.InexactFloat64(),
			"locked_accounts": agg.lockedCount,
			"client_count":    agg.clientCount,
		},
		time.Now(),
	)
	return e.writer.WritePoint(ctx, point)
}

// Close flushes pending writes and releases the underlying HTTP client.
func (e *Exporter) Close() {
	e.client.Close()
}
