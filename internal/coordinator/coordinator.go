// Package coordinator provides a distributed run-lock backed by etcd, so two
// operators cannot start overlapping runs against the same run id (and
// therefore the same audit/cache keys) from different hosts at once.
package coordinator

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"
)

// leaseTTLSeconds bounds how long a lock survives a coordinator process that
// dies without releasing it.
const leaseTTLSeconds = 30

// Lock holds a single run's distributed mutex for its lifetime.
type Lock struct {
	client  *clientv3.Client
	session *concurrency.Session
	mutex   *concurrency.Mutex
}

// Acquire blocks until it holds the run lock for runID across the given etcd
// endpoints, or ctx is done.
func Acquire(ctx context.Context, endpoints []string, runID string) (*Lock, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("coordinator: dial: %w", err)
	}

	session, err := concurrency.NewSession(client, concurrency.WithTTL(leaseTTLSeconds))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("coordinator: session: %w", err)
	}

	mutex := concurrency.NewMutex(session, "/txshard/runs/"+runID)
	if err := mutex.Lock(ctx); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("coordinator: lock %q: %w", runID, err)
	}

	return &Lock{client: client, session: session, mutex: mutex}, nil
}

// Release unlocks the run lock and closes the underlying etcd session.
func (l *Lock) Release(ctx context.Context) error {
	unlockErr := l.mutex.Unlock(ctx)
	sessionErr := l.session.Close()
	closeErr := l.client.Close()
	if unlockErr != nil {
		return fmt.Errorf("coordinator: unlock: %w", unlockErr)
	}
	if sessionErr != nil {
		return fmt.Errorf("coordinator: session close: %w", sessionErr)
	}
	return closeErr
}
