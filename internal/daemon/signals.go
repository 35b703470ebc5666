package daemon

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jmylchreest/glance/internal/config"
)

// SignalMap maps real-time signals onto actions.
// SIGRTMIN+Base marks read, +1 clears all, +2 moves next, +3 moves previous.
type SignalMap struct {
	Base int
}

// Signals returns the signals the map listens on, in action order.
func (m SignalMap) Signals() []os.Signal {
	sigs := make([]os.Signal, config.SignalCount)
	for i := range sigs {
		sigs[i] = syscall.Signal(config.SignalRTMin + m.Base + i)
	}
	return sigs
}

// ActionFor returns the action bound to sig.
func (m SignalMap) ActionFor(sig os.Signal) (Action, bool) {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return 0, false
	}
	offset := int(s) - config.SignalRTMin - m.Base
	if offset < 0 || offset >= config.SignalCount {
		return 0, false
	}
	return Action(offset), true
}

// SignalListener feeds mapped signals into an ActionQueue.
// Signals never touch State from the delivery goroutine.
// The runtime keeps one pending bit per signal number, so a burst of the
// same signal sent faster than it is delivered arrives as one action.
type SignalListener struct {
	mu      sync.Mutex
	mapping SignalMap
	queue   *ActionQueue
	logger  *slog.Logger
	sigCh   chan os.Signal

	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewSignalListener creates a listener for mapping that enqueues on queue.
func NewSignalListener(mapping SignalMap, queue *ActionQueue, logger *slog.Logger) *SignalListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignalListener{
		mapping: mapping,
		queue:   queue,
		logger:  logger,
		sigCh:   make(chan os.Signal, config.SignalCount*4),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start registers the signals and begins forwarding them.
func (l *SignalListener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	signal.Notify(l.sigCh, l.mapping.Signals()...)
	go l.loop(ctx)

	l.logger.Debug("signal listener started", "signals", l.mapping.Signals())
}

// Remap switches to a new signal base.
func (l *SignalListener) Remap(mapping SignalMap) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if mapping == l.mapping {
		return
	}
	l.mapping = mapping
	if l.running {
		// Stop restores default handling for signals no longer listened on.
		signal.Stop(l.sigCh)
		signal.Notify(l.sigCh, mapping.Signals()...)
	}
	l.logger.Info("signal base changed", "base", mapping.Base)
}

// Stop unregisters the signals and waits for the forwarding loop to exit.
func (l *SignalListener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	signal.Stop(l.sigCh)
	close(l.stopCh)
	l.mu.Unlock()

	<-l.doneCh
	l.logger.Debug("signal listener stopped")
}

func (l *SignalListener) loop(ctx context.Context) {
	defer close(l.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case sig := <-l.sigCh:
			l.mu.Lock()
			action, ok := l.mapping.ActionFor(sig)
			l.mu.Unlock()
			if !ok {
				l.logger.Debug("ignoring unmapped signal", "signal", sig)
				continue
			}
			if !l.queue.Enqueue(action) {
				l.logger.Debug("action queue stopped, dropping signal", "signal", sig)
			}
		}
	}
}
