package daemon

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_String(t *testing.T) {
	assert.Equal(t, "mark-read", ActionMarkRead.String())
	assert.Equal(t, "clear-all", ActionClearAll.String())
	assert.Equal(t, "next", ActionNext.String())
	assert.Equal(t, "prev", ActionPrev.String())
	assert.Equal(t, "unknown", Action(9).String())
}

func TestActionQueue_AppliesInOrder(t *testing.T) {
	state, sink, _ := newTestState(t, nil)
	for i := 0; i < 3; i++ {
		_, err := state.Notify(0, notification("app", "s"))
		require.NoError(t, err)
	}

	queue := NewActionQueue(state, 1, nil)
	queue.Start(context.Background())
	for _, a := range []Action{ActionNext, ActionNext, ActionPrev, ActionMarkRead} {
		require.True(t, queue.Enqueue(a))
	}

	require.Eventually(t, func() bool {
		return len(sink.statuses(t)) == 3+4
	}, time.Second, 5*time.Millisecond)
	queue.Stop()

	snap := state.Snapshot()
	assert.Equal(t, uint32(2), snap.Current)
	assert.True(t, snap.Entries[1].Read)
}

func TestActionQueue_EnqueueAfterStop(t *testing.T) {
	state, _, _ := newTestState(t, nil)
	queue := NewActionQueue(state, 1, nil)
	queue.Start(context.Background())
	queue.Stop()
	queue.Stop()

	assert.False(t, queue.Enqueue(ActionNext))
}

func TestActionQueue_StopsWithContext(t *testing.T) {
	state, _, _ := newTestState(t, nil)
	queue := NewActionQueue(state, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return !queue.Enqueue(ActionNext)
	}, time.Second, 5*time.Millisecond)
}

func TestSignalMap_ActionFor(t *testing.T) {
	tests := []struct {
		name   string
		base   int
		signal os.Signal
		want   Action
		ok     bool
	}{
		{"base is mark-read", 0, syscall.Signal(34), ActionMarkRead, true},
		{"base+1 is clear-all", 0, syscall.Signal(35), ActionClearAll, true},
		{"base+2 is next", 0, syscall.Signal(36), ActionNext, true},
		{"base+3 is prev", 0, syscall.Signal(37), ActionPrev, true},
		{"past the range", 0, syscall.Signal(38), 0, false},
		{"below the base", 5, syscall.Signal(38), 0, false},
		{"offset base", 5, syscall.Signal(41), ActionNext, true},
		{"ordinary signal", 0, syscall.SIGTERM, 0, false},
		{"non syscall signal", 0, os.Interrupt, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SignalMap{Base: tt.base}.ActionFor(tt.signal)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSignalMap_Signals(t *testing.T) {
	assert.Equal(t, []os.Signal{
		syscall.Signal(36), syscall.Signal(37), syscall.Signal(38), syscall.Signal(39),
	}, SignalMap{Base: 2}.Signals())
}

func TestSignalListener_DeliversThroughQueue(t *testing.T) {
	state, _, _ := newTestState(t, nil)
	for i := 0; i < 2; i++ {
		_, err := state.Notify(0, notification("app", "s"))
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := NewActionQueue(state, DefaultQueueSize, nil)
	queue.Start(ctx)
	defer queue.Stop()

	mapping := SignalMap{Base: 20}
	listener := NewSignalListener(mapping, queue, nil)
	listener.Start(ctx)
	defer listener.Stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.Signal(34+20+2)))

	require.Eventually(t, func() bool {
		return state.Snapshot().Current == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSignalListener_SpacedSignalsEachApply(t *testing.T) {
	state, _, _ := newTestState(t, nil)
	for i := 0; i < 4; i++ {
		_, err := state.Notify(0, notification("app", "s"))
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := NewActionQueue(state, DefaultQueueSize, nil)
	queue.Start(ctx)
	defer queue.Stop()

	listener := NewSignalListener(SignalMap{Base: 16}, queue, nil)
	listener.Start(ctx)
	defer listener.Stop()

	next := syscall.Signal(34 + 16 + 2)
	for want := uint32(2); want <= 4; want++ {
		require.NoError(t, syscall.Kill(os.Getpid(), next))
		require.Eventually(t, func() bool {
			return state.Snapshot().Current == want
		}, 2*time.Second, 10*time.Millisecond, "signal %d", want-1)
	}
}
