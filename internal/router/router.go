// Package router hashes a client id to a shard index and forwards the
// transaction onto that shard's bounded queue, providing backpressure and a
// closed-engine signal to the pipeline driver.
package router

import (
	"context"
	"errors"

	"github.com/terminal-bench/txshard/internal/shard"
)

// ErrEngineClosed is returned by Submit once the engine has begun shutting
// down; the caller must stop pushing new transactions.
var ErrEngineClosed = errors.New("router: engine is closed")

// Router owns the set of per-shard inbound channels and a stable, pure
// routing function over client id.
type Router struct {
	queues []chan shard.Transaction
	closed chan struct{}
}

// New builds a Router over the given per-shard queues (index i is shard i's
// inbound channel).
func New(queues []chan shard.Transaction) *Router {
	return &Router{queues: queues, closed: make(chan struct{})}
}

// NumShards returns the shard count this router was built with.
func (r *Router) NumShards() int {
	return len(r.queues)
}

// ShardIndex computes the stable, pure routing function: client mod N.
func (r *Router) ShardIndex(client uint16) int {
	return int(client) % len(r.queues)
}

// Submit pushes tx onto its shard's queue, blocking for capacity
// (backpressure) unless ctx is cancelled or the engine has been closed, in
// which case it returns immediately without enqueuing.
func (r *Router) Submit(ctx context.Context, tx shard.Transaction) error {
	select {
	case <-r.closed:
		return ErrEngineClosed
	default:
	}

	idx := r.ShardIndex(tx.Client)
	select {
	case r.queues[idx] <- tx:
		return nil
	case <-r.closed:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the router closed: subsequent Submit calls return
// ErrEngineClosed immediately instead of enqueuing. It does not close the
// underlying shard queues — that is the Engine's responsibility, done only
// once no further Submit can race with it.
func (r *Router) Close() {
	select {
	case <-r.closed:
		// already closed
	default:
		close(r.closed)
	}
}
