// Command txshard streams a CSV transaction log through a sharded
// payments engine and writes the final per-client snapshot to stdout.
package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/terminal-bench/txshard/internal/audit"
	"github.com/terminal-bench/txshard/internal/cache"
	"github.com/terminal-bench/txshard/internal/coordinator"
	"github.com/terminal-bench/txshard/internal/engine"
	"github.com/terminal-bench/txshard/internal/events"
	"github.com/terminal-bench/txshard/internal/ingest"
	"github.com/terminal-bench/txshard/internal/metrics"
	"github.com/terminal-bench/txshard/internal/observe"
	"github.com/terminal-bench/txshard/internal/shard"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <input_file>", os.Args[0])
	}
	inputPath := os.Args[1]

	runID := uuid.New().String()
	ctx := context.Background()

	numShards := 4
	if v := os.Getenv("SHARD_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Fatalf("invalid SHARD_COUNT %q: %v", v, err)
		}
		numShards = n
	}

	if endpoints := os.Getenv("ETCD_ENDPOINTS"); endpoints != "" {
		lock, err := coordinator.Acquire(ctx, splitCSVEnv(endpoints), runID)
		if err != nil {
			log.Fatalf("failed to acquire run lock: %v", err)
		}
		defer lock.Release(ctx)
	}

	observer, closeObserver := buildObserver()
	defer closeObserver()

	eng, err := engine.New(engine.Config{NumShards: numShards, Observer: observer})
	if err != nil {
		log.Fatalf("failed to start engine: %v", err)
	}

	in, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("failed to open %s: %v", inputPath, err)
	}
	defer in.Close()

	reader, err := ingest.NewReader(in)
	if err != nil {
		log.Fatalf("failed to read %s: %v", inputPath, err)
	}

	writer, err := ingest.NewWriter(os.Stdout)
	if err != nil {
		log.Fatalf("failed to open output writer: %v", err)
	}

	if err := ingest.Run(ctx, reader, writer, eng); err != nil {
		log.Fatalf("run failed: %v", err)
	}

	rows, err := eng.Snapshot()
	if err != nil {
		log.Fatalf("failed to read final snapshot: %v", err)
	}

	writeToAuditSink(ctx, runID, rows)
	writeToSnapshotCache(ctx, runID, rows)
	writeToMetrics(ctx, runID, rows)
}

// buildObserver wires an events.Publisher if NATS_URL is set, otherwise a
// no-op observer. Connection failures are logged, never fatal — the core
// run must complete regardless of whether the event bus is reachable.
func buildObserver() (observe.Observer, func()) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return observe.Noop{}, func() {}
	}
	pub, err := events.Connect(url, "txshard")
	if err != nil {
		log.Printf("events: connect failed, continuing without publisher: %v", err)
		return observe.Noop{}, func() {}
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Printf("events: close failed: %v", err)
		}
	}
}

// writeToAuditSink persists rows to Postgres if AUDIT_DATABASE_URL is set.
// Any failure is logged and swallowed: the audit trail is a convenience,
// never a reason to fail a run that already produced correct output.
func writeToAuditSink(ctx context.Context, runID string, rows []shard.SnapshotRow) {
	dbURL := os.Getenv("AUDIT_DATABASE_URL")
	if dbURL == "" {
		return
	}
	sink, err := audit.Open(dbURL)
	if err != nil {
		log.Printf("audit: open failed, skipping: %v", err)
		return
	}
	defer sink.Close()

	if err := sink.EnsureSchema(ctx); err != nil {
		log.Printf("audit: schema setup failed, skipping: %v", err)
		return
	}
	if err := sink.WriteSnapshot(ctx, runID, rows); err != nil {
		log.Printf("audit: write failed: %v", err)
	}
}

// writeToSnapshotCache mirrors rows to Redis if SNAPSHOT_REDIS_ADDR is set.
func writeToSnapshotCache(ctx context.Context, runID string, rows []shard.SnapshotRow) {
	addr := os.Getenv("SNAPSHOT_REDIS_ADDR")
	if addr == "" {
		return
	}
	c, err := cache.Connect(ctx, addr)
	if err != nil {
		log.Printf("cache: connect failed, skipping: %v", err)
		return
	}
	defer c.Close()

	if err := c.WriteSnapshot(ctx, runID, rows); err != nil {
		log.Printf("cache: write failed: %v", err)
	}
}

// writeToMetrics exports a run-level aggregate to InfluxDB if INFLUX_URL is
// set, along with INFLUX_TOKEN/INFLUX_ORG/INFLUX_BUCKET.
func writeToMetrics(ctx context.Context, runID string, rows []shard.SnapshotRow) {
	url := os.Getenv("INFLUX_URL")
	if url == "" {
		return
	}
	exp := metrics.Connect(url, os.Getenv("INFLUX_TOKEN"), os.Getenv("INFLUX_ORG"), os.Getenv("INFLUX_BUCKET"))
	defer exp.Close()

	if err := exp.WriteRunSummary(ctx, runID, rows); err != nil {
		log.Printf("metrics: write failed: %v", err)
	}
}

func splitCSVEnv(v string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}
