package daemon

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/glance/internal/adapter/output"
	"github.com/jmylchreest/glance/internal/config"
	"github.com/jmylchreest/glance/internal/core"
	"github.com/jmylchreest/glance/internal/model"
	"github.com/jmylchreest/glance/internal/store"
)

// Hooks receive protocol events produced by mutations. They run after the
// state lock is released, in the order the mutations happened.
type Hooks struct {
	OnClosed        func(id uint32, reason model.CloseReason)
	OnActionInvoked func(id uint32, actionKey string)
}

type event struct {
	id     uint32
	reason model.CloseReason
	action string // set for ActionInvoked, empty for NotificationClosed
}

// State is the single owner of the store and cursor.
type State struct {
	mu       sync.Mutex
	store    *store.Store
	cursor   *core.Cursor
	renderer *output.WaybarRenderer
	sink     io.Writer
	logger   *slog.Logger
	now      func() time.Time
	arrived  bool // next render follows a new notification

	// hookMu is taken before mu is released so hooks fire in mutation order.
	hookMu sync.Mutex
	hooks  Hooks
}

// NewState creates an empty State that renders to sink after every mutation.
func NewState(cfg *config.Config, sink io.Writer, logger *slog.Logger) (*State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	renderer, err := output.NewWaybarRenderer(RendererOptions(cfg.Render))
	if err != nil {
		return nil, err
	}
	return &State{
		store:    store.NewStore(),
		cursor:   core.NewCursor(CursorOptions(cfg.Navigation)),
		renderer: renderer,
		sink:     sink,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// RendererOptions maps the render config section onto renderer options.
func RendererOptions(rc config.RenderConfig) output.WaybarOptions {
	return output.WaybarOptions{
		TextTemplate: rc.TextTemplate,
		MaxLength:    rc.MaxLength,
		EscapeMarkup: rc.EscapeMarkup,
		TooltipLimit: rc.TooltipLimit,
		AppIcons:     rc.AppIcons,
	}
}

// CursorOptions maps the navigation config section onto cursor options.
func CursorOptions(nc config.NavigationConfig) core.Options {
	return core.Options{
		FollowNew:       nc.FollowNew,
		MarkReadOnLeave: nc.MarkReadOnLeave,
	}
}

// SetHooks installs the protocol event hooks.
func (s *State) SetHooks(h Hooks) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.hooks = h
}

// SetClock overrides the clock for arrival times and tooltip ages. Intended for tests.
func (s *State) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	s.store.SetClock(now)
	s.renderer.SetClock(now)
}

// Notify inserts a notification, or replaces the live one named by hint.
func (s *State) Notify(hint uint32, n model.Notification) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, replaced, err := s.store.Upsert(hint, n)
	if err != nil {
		return 0, err
	}
	if replaced {
		s.cursor.OnReplace(id)
	} else {
		s.cursor.OnInsert(id)
		s.arrived = true
	}
	s.logger.Debug("notification stored", "id", id, "app", n.AppName, "replaced", replaced)
	s.settleLocked()
	return id, nil
}

// Close removes id and reports it through OnClosed with reason.
func (s *State) Close(id uint32, reason model.CloseReason) error {
	s.mu.Lock()

	after, before := s.store.Neighbors(id)
	if _, err := s.store.Remove(id); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cursor.OnRemove(id, after, before)
	s.logger.Debug("notification closed", "id", id, "reason", reason)
	s.settleLocked()

	s.dispatchLocked([]event{{id: id, reason: reason}})
	return nil
}

// MarkRead acknowledges the current notification. When it carries a default
// action, that action is reported through OnActionInvoked.
func (s *State) MarkRead() (uint32, bool) {
	s.mu.Lock()

	id, ok := s.cursor.MarkRead()
	var events []event
	if ok {
		if n, exists := s.store.Get(id); exists && n.HasAction(model.DefaultActionKey) {
			events = append(events, event{id: id, action: model.DefaultActionKey})
		}
	}
	s.settleLocked()

	s.dispatchLocked(events)
	return id, ok
}

// Next moves the cursor forward. It reports whether the position changed.
func (s *State) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := s.cursor.Next(s.store)
	s.settleLocked()
	return moved
}

// Prev moves the cursor backward. It reports whether the position changed.
func (s *State) Prev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := s.cursor.Prev(s.store)
	s.settleLocked()
	return moved
}

// ClearAll removes every notification, reporting each as dismissed.
// It returns the number removed.
func (s *State) ClearAll() int {
	s.mu.Lock()

	removed := s.store.Clear()
	s.cursor.Clear()
	s.settleLocked()

	events := make([]event, len(removed))
	for i, n := range removed {
		events[i] = event{id: n.ID, reason: model.CloseReasonDismissed}
	}
	s.logger.Debug("notifications cleared", "count", len(removed))

	s.dispatchLocked(events)
	return len(removed)
}

// Apply performs a signal action.
func (s *State) Apply(a Action) {
	switch a {
	case ActionMarkRead:
		s.MarkRead()
	case ActionClearAll:
		s.ClearAll()
	case ActionNext:
		s.Next()
	case ActionPrev:
		s.Prev()
	default:
		s.logger.Debug("ignoring unknown action", "action", a)
	}
}

// Reconfigure applies navigation and render settings from cfg and re-renders.
// The store and cursor position are kept.
func (s *State) Reconfigure(cfg *config.Config) error {
	renderer, err := output.NewWaybarRenderer(RendererOptions(cfg.Render))
	if err != nil {
		return fmt.Errorf("reconfigure: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	renderer.SetClock(s.now)
	s.renderer = renderer
	s.cursor.SetOptions(CursorOptions(cfg.Navigation))
	s.settleLocked()
	return nil
}

// Flush writes the current render to the sink without mutating anything.
func (s *State) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleLocked()
}

// Snapshot returns a settled copy of the store and cursor.
func (s *State) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Render returns the waybar status for the current state.
func (s *State) Render() output.WaybarStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.Render(s.snapshotLocked())
}

// History returns every notification in arrival order with navigation state.
func (s *State) History() []model.HistoryEntry {
	return s.Snapshot().Entries
}

func (s *State) snapshotLocked() model.Snapshot {
	all := s.store.All()
	current := s.cursor.Current()

	snap := model.Snapshot{
		Entries: make([]model.HistoryEntry, len(all)),
		Current: current,
	}
	for i, n := range all {
		snap.Entries[i] = model.HistoryEntry{
			Notification: n,
			Read:         s.cursor.IsRead(n.ID),
			Current:      n.ID == current,
		}
		if n.ID == current {
			snap.Position = i + 1
		}
	}
	return snap
}

// settleLocked checks the cursor against the store and pushes a render.
// An arrival marks only the render that directly follows it.
func (s *State) settleLocked() {
	if err := s.cursor.Validate(s.store); err != nil {
		s.logger.Error("cursor out of step with store", "error", err)
	}
	arrived := s.arrived
	s.arrived = false
	if s.sink == nil {
		return
	}
	snap := s.snapshotLocked()
	snap.Arrived = arrived
	if err := s.renderer.Write(s.sink, snap); err != nil {
		s.logger.Debug("failed to write render", "error", err)
	}
}

// dispatchLocked releases mu and runs hooks for events.
func (s *State) dispatchLocked(events []event) {
	if len(events) == 0 {
		s.mu.Unlock()
		return
	}

	s.hookMu.Lock()
	s.mu.Unlock()
	defer s.hookMu.Unlock()

	for _, e := range events {
		switch {
		case e.action != "" && s.hooks.OnActionInvoked != nil:
			s.hooks.OnActionInvoked(e.id, e.action)
		case e.action == "" && s.hooks.OnClosed != nil:
			s.hooks.OnClosed(e.id, e.reason)
		}
	}
}
