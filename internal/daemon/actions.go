package daemon

import (
	"context"
	"log/slog"
	"sync"
)

// Action is a control action triggered by a real-time signal.
// The values match the signal offsets from the configured base.
type Action int

const (
	ActionMarkRead Action = iota
	ActionClearAll
	ActionNext
	ActionPrev
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionMarkRead:
		return "mark-read"
	case ActionClearAll:
		return "clear-all"
	case ActionNext:
		return "next"
	case ActionPrev:
		return "prev"
	default:
		return "unknown"
	}
}

// DefaultQueueSize is the action queue buffer used by the daemon.
const DefaultQueueSize = 64

// ActionQueue applies actions to State one at a time, in arrival order.
// Enqueue blocks when the buffer is full rather than dropping.
type ActionQueue struct {
	mu     sync.Mutex
	state  *State
	logger *slog.Logger
	ch     chan Action

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewActionQueue creates a queue that applies actions to state.
func NewActionQueue(state *State, size int, logger *slog.Logger) *ActionQueue {
	if logger == nil {
		logger = slog.Default()
	}
	if size < 1 {
		size = 1
	}
	return &ActionQueue{
		state:  state,
		logger: logger,
		ch:     make(chan Action, size),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs the worker until ctx is cancelled or Stop is called.
func (q *ActionQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	go q.worker(ctx)
}

// Stop stops the worker after the action in progress. Queued actions are discarded.
func (q *ActionQueue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopCh)
	q.mu.Unlock()

	<-q.doneCh
}

// Enqueue adds an action. It blocks while the buffer is full and returns
// false once the worker has stopped.
func (q *ActionQueue) Enqueue(a Action) bool {
	select {
	case <-q.doneCh:
		return false
	default:
	}

	select {
	case q.ch <- a:
		return true
	case <-q.doneCh:
		return false
	}
}

func (q *ActionQueue) worker(ctx context.Context) {
	defer close(q.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case a := <-q.ch:
			q.logger.Debug("applying action", "action", a)
			q.state.Apply(a)
		}
	}
}
