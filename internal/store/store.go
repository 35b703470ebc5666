// Package store provides the in-memory notification store.
package store

import (
	"fmt"
	"math"
	"time"

	"github.com/jmylchreest/glance/internal/model"
)

// Store is an arrival-ordered sequence of notifications indexed by id.
//
// Store is not safe for concurrent use. It is owned by daemon.State, which
// serializes every mutation together with the cursor update it implies.
type Store struct {
	notifications []model.Notification
	index         map[uint32]int // id -> slice index

	// lastID is the highest id ever assigned. Ids at or below it are never
	// handed out again.
	lastID uint32

	now func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		notifications: make([]model.Notification, 0),
		index:         make(map[uint32]int),
		now:           time.Now,
	}
}

// SetClock overrides the clock used for CreatedAt. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Upsert inserts or replaces a notification.
//
// A zero hint allocates the next id and appends. A hint matching a live entry
// overwrites that entry in place. A hint above every id ever assigned creates a
// new entry with that id. Any other hint was already used (or skipped) and is
// rejected with model.ErrInvalidArgument.
func (s *Store) Upsert(hint uint32, n model.Notification) (id uint32, replaced bool, err error) {
	n = n.Clone()
	n.CreatedAt = s.now()

	if hint != 0 {
		if idx, exists := s.index[hint]; exists {
			n.ID = hint
			s.notifications[idx] = n
			return hint, true, nil
		}
		if hint <= s.lastID {
			return 0, false, fmt.Errorf("%w: replaces_id %d is not a live notification", model.ErrInvalidArgument, hint)
		}
		id = hint
	} else {
		if s.lastID == math.MaxUint32 {
			return 0, false, fmt.Errorf("%w: notification id space exhausted", model.ErrInvalidArgument)
		}
		id = s.lastID + 1
	}

	s.lastID = id
	n.ID = id
	s.index[id] = len(s.notifications)
	s.notifications = append(s.notifications, n)
	return id, false, nil
}

// Remove removes and returns the notification with the given id.
func (s *Store) Remove(id uint32) (model.Notification, error) {
	idx, exists := s.index[id]
	if !exists {
		return model.Notification{}, fmt.Errorf("%w: id %d", model.ErrNotFound, id)
	}

	removed := s.notifications[idx]
	s.notifications = append(s.notifications[:idx], s.notifications[idx+1:]...)

	delete(s.index, id)
	for i := idx; i < len(s.notifications); i++ {
		s.index[s.notifications[i].ID] = i
	}

	return removed, nil
}

// Clear removes every notification and returns them in arrival order.
// The id counter is kept so ids stay unique for the process lifetime.
func (s *Store) Clear() []model.Notification {
	removed := s.notifications
	s.notifications = make([]model.Notification, 0)
	s.index = make(map[uint32]int)
	return removed
}

// Get returns a copy of the notification with the given id.
func (s *Store) Get(id uint32) (model.Notification, bool) {
	idx, exists := s.index[id]
	if !exists {
		return model.Notification{}, false
	}
	return s.notifications[idx].Clone(), true
}

// Has reports whether id is live.
func (s *Store) Has(id uint32) bool {
	_, exists := s.index[id]
	return exists
}

// All returns a copy of all notifications in arrival order.
func (s *Store) All() []model.Notification {
	result := make([]model.Notification, len(s.notifications))
	for i := range s.notifications {
		result[i] = s.notifications[i].Clone()
	}
	return result
}

// IDs returns the live ids in arrival order.
func (s *Store) IDs() []uint32 {
	ids := make([]uint32, len(s.notifications))
	for i, n := range s.notifications {
		ids[i] = n.ID
	}
	return ids
}

// Len returns the number of live notifications.
func (s *Store) Len() int {
	return len(s.notifications)
}

// IndexOf returns the 0-based arrival position of id, or -1.
func (s *Store) IndexOf(id uint32) int {
	if idx, exists := s.index[id]; exists {
		return idx
	}
	return -1
}

// IDAt returns the id at the 0-based arrival position i.
func (s *Store) IDAt(i int) uint32 {
	return s.notifications[i].ID
}

// Neighbors returns the ids immediately after and before id in arrival order.
// Zero means there is no such neighbour (or id is not live).
func (s *Store) Neighbors(id uint32) (after, before uint32) {
	idx, exists := s.index[id]
	if !exists {
		return 0, 0
	}
	if idx+1 < len(s.notifications) {
		after = s.notifications[idx+1].ID
	}
	if idx > 0 {
		before = s.notifications[idx-1].ID
	}
	return after, before
}

// LastID returns the highest id ever assigned.
func (s *Store) LastID() uint32 {
	return s.lastID
}
