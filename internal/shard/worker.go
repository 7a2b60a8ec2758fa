package shard

// Worker owns one State exclusively and drains its inbound bounded channel
// in arrival order. It never touches another shard's state and never
// blocks on another shard — the only suspension points are the channel
// receive here and the channel send at the router.
type Worker struct {
	state *State
	in    <-chan Transaction
}

// NewWorker wires a State to its inbound channel.
func NewWorker(state *State, in <-chan Transaction) *Worker {
	return &Worker{state: state, in: in}
}

// Run drains the inbound channel until it is closed, dispatching each
// transaction in order. It returns when the channel is closed and drained,
// i.e. after the producer side has called close and every already-enqueued
// transaction has been processed.
func (w *Worker) Run() error {
	for tx := range w.in {
		w.state.Dispatch(tx)
	}
	return nil
}

// Snapshot exposes the owned state's snapshot. Must only be called after Run
// has returned (i.e. after the engine has finalized), since State has no
// internal locking.
func (w *Worker) Snapshot() ([]SnapshotRow, error) {
	return w.state.Snapshot()
}
