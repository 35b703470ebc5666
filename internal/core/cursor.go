// Package core provides the navigation state machine over the notification store.
package core

import "fmt"

// Order is the arrival-ordered id sequence the cursor navigates.
// *store.Store satisfies it.
type Order interface {
	Len() int
	IndexOf(id uint32) int
	IDAt(i int) uint32
}

// Options tunes cursor transitions.
type Options struct {
	// FollowNew moves the cursor to every newly inserted notification.
	// When false, new arrivals only take focus from the Empty state.
	FollowNew bool
	// MarkReadOnLeave marks the current notification read when next/prev
	// navigates away from it.
	MarkReadOnLeave bool
}

// Cursor tracks the current notification and the set of read ids.
// A current id of zero is the Empty state.
//
// Cursor is not safe for concurrent use; it is owned together with the store.
type Cursor struct {
	current uint32
	read    map[uint32]struct{}
	opts    Options
}

// NewCursor creates a cursor in the Empty state.
func NewCursor(opts Options) *Cursor {
	return &Cursor{
		read: make(map[uint32]struct{}),
		opts: opts,
	}
}

// SetOptions replaces the transition options. The position is kept.
func (c *Cursor) SetOptions(opts Options) {
	c.opts = opts
}

// Current returns the current id, or 0 when Empty.
func (c *Cursor) Current() uint32 {
	return c.current
}

// IsEmpty reports whether the cursor is in the Empty state.
func (c *Cursor) IsEmpty() bool {
	return c.current == 0
}

// IsRead reports whether id has been acknowledged.
func (c *Cursor) IsRead(id uint32) bool {
	_, ok := c.read[id]
	return ok
}

// ReadCount returns the number of acknowledged ids.
func (c *Cursor) ReadCount() int {
	return len(c.read)
}

// OnInsert handles a newly appended notification.
func (c *Cursor) OnInsert(id uint32) {
	if c.current == 0 || c.opts.FollowNew {
		c.current = id
	}
}

// OnReplace handles an in-place replacement. New content is unread again.
func (c *Cursor) OnReplace(id uint32) {
	delete(c.read, id)
}

// Next moves to the entry after the current one, wrapping to the first.
// It returns true when the position changed.
func (c *Cursor) Next(order Order) bool {
	return c.step(order, 1)
}

// Prev moves to the entry before the current one, wrapping to the last.
// It returns true when the position changed.
func (c *Cursor) Prev(order Order) bool {
	return c.step(order, -1)
}

func (c *Cursor) step(order Order, delta int) bool {
	if c.current == 0 {
		return false
	}
	n := order.Len()
	idx := order.IndexOf(c.current)
	if n < 2 || idx < 0 {
		return false
	}

	if c.opts.MarkReadOnLeave {
		c.read[c.current] = struct{}{}
	}
	c.current = order.IDAt((idx + delta + n) % n)
	return true
}

// MarkRead acknowledges the current notification without moving.
// It returns the acknowledged id and false when Empty.
func (c *Cursor) MarkRead() (uint32, bool) {
	if c.current == 0 {
		return 0, false
	}
	c.read[c.current] = struct{}{}
	return c.current, true
}

// OnRemove handles removal of id from the store. after and before are the
// neighbours of id in the pre-removal order (zero when absent). When id was
// current the cursor moves to after, else before, else Empty.
func (c *Cursor) OnRemove(id, after, before uint32) {
	delete(c.read, id)
	if id != c.current {
		return
	}
	switch {
	case after != 0:
		c.current = after
	case before != 0:
		c.current = before
	default:
		c.current = 0
	}
}

// Clear returns to Empty and forgets every read id.
func (c *Cursor) Clear() {
	c.current = 0
	c.read = make(map[uint32]struct{})
}

// Validate checks the cursor against order: a non-empty cursor must point at
// a live id, an empty cursor implies an empty order, and read ids must be live.
func (c *Cursor) Validate(order Order) error {
	if c.current == 0 {
		if order.Len() != 0 {
			return fmt.Errorf("cursor empty but %d notifications are live", order.Len())
		}
	} else if order.IndexOf(c.current) < 0 {
		return fmt.Errorf("cursor points at %d which is not live", c.current)
	}
	for id := range c.read {
		if order.IndexOf(id) < 0 {
			return fmt.Errorf("read set holds %d which is not live", id)
		}
	}
	return nil
}
