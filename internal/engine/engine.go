// Package engine owns the sharded worker pool: it constructs N ShardStates,
// N bounded queues, spawns one worker per shard, and exposes the
// submit/finalize/snapshot lifecycle the pipeline driver drives.
package engine

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/terminal-bench/txshard/internal/observe"
	"github.com/terminal-bench/txshard/internal/router"
	"github.com/terminal-bench/txshard/internal/shard"
)

// DefaultQueueCapacity is the default per-shard bounded queue capacity,
// chosen to keep steady-state memory O(N*capacity + accounts + ledger)
// while still absorbing normal producer/consumer rate mismatches.
const DefaultQueueCapacity = 1024

// ErrNotFinalized is returned by Snapshot before Finalize has been called.
// ErrAlreadyFinalized is not returned by this package: Submit after Finalize
// returns router.ErrEngineClosed.
var (
	ErrAlreadyFinalized = errors.New("engine: already finalized")
	ErrNotFinalized     = errors.New("engine: snapshot requires finalize first")
)

// Engine is the top-level sharded dispatcher.
type Engine struct {
	router  *router.Router
	workers []*shard.Worker
	queues  []chan shard.Transaction
	group   *errgroup.Group

	mu        sync.Mutex
	finalized bool
}

// Config controls shard count, queue depth, and the optional lifecycle
// observer fed from every successful mutation.
type Config struct {
	NumShards     int
	QueueCapacity int
	Observer      observe.Observer
}

// New constructs numShards ShardStates and bounded queues and immediately
// spawns one worker goroutine per shard; workers begin draining as soon as
// Submit starts enqueuing.
func New(cfg Config) (*Engine, error) {
	if cfg.NumShards < 1 {
		return nil, errors.New("engine: numShards must be >= 1")
	}
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	queues := make([]chan shard.Transaction, cfg.NumShards)
	workers := make([]*shard.Worker, cfg.NumShards)
	for i := 0; i < cfg.NumShards; i++ {
		queues[i] = make(chan shard.Transaction, capacity)
		state := shard.NewState(i, cfg.Observer)
		workers[i] = shard.NewWorker(state, queues[i])
	}

	group, _ := errgroup.WithContext(context.Background())
	for _, w := range workers {
		worker := w
		group.Go(worker.Run)
	}

	return &Engine{
		router:  router.New(queues),
		workers: workers,
		queues:  queues,
		group:   group,
	}, nil
}

// Submit routes tx to its shard's queue, blocking for capacity.
func (e *Engine) Submit(ctx context.Context, tx shard.Transaction) error {
	return e.router.Submit(ctx, tx)
}

// Finalize closes all shard queues and awaits every worker's completion. It
// is idempotent: a second call is a no-op returning nil. A pipeline that
// failed mid-stream may still call Finalize — already-enqueued work drains
// to completion regardless.
func (e *Engine) Finalize() error {
	e.mu.Lock()
	if e.finalized {
		e.mu.Unlock()
		return nil
	}
	e.finalized = true
	e.mu.Unlock()

	e.router.Close()
	for _, q := range e.queues {
		close(q)
	}
	return e.group.Wait()
}

// SnapshotRow is one client's final reported balances. It does not record
// which shard the row came from.
type SnapshotRow = shard.SnapshotRow

// Snapshot iterates shards in index order, then client id ascending within
// each shard. Callable only after Finalize has completed.
func (e *Engine) Snapshot() ([]SnapshotRow, error) {
	e.mu.Lock()
	finalized := e.finalized
	e.mu.Unlock()
	if !finalized {
		return nil, ErrNotFinalized
	}

	var rows []SnapshotRow
	for _, w := range e.workers {
		shardRows, err := w.Snapshot()
		if err != nil {
			return nil, err
		}
		rows = append(rows, shardRows...)
	}
	return rows, nil
}
