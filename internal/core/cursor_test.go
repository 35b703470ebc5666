package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/glance/internal/model"
	"github.com/jmylchreest/glance/internal/store"
)

// fixture keeps a store and cursor in step the way daemon.State does.
type fixture struct {
	store  *store.Store
	cursor *Cursor
}

func newFixture(t *testing.T, opts Options, count int) *fixture {
	t.Helper()
	f := &fixture{store: store.NewStore(), cursor: NewCursor(opts)}
	for i := 0; i < count; i++ {
		f.insert(t)
	}
	return f
}

func (f *fixture) insert(t *testing.T) uint32 {
	t.Helper()
	id, replaced, err := f.store.Upsert(0, model.Notification{AppName: "test", Summary: "s"})
	require.NoError(t, err)
	require.False(t, replaced)
	f.cursor.OnInsert(id)
	return id
}

func (f *fixture) close(t *testing.T, id uint32) {
	t.Helper()
	after, before := f.store.Neighbors(id)
	_, err := f.store.Remove(id)
	require.NoError(t, err)
	f.cursor.OnRemove(id, after, before)
	require.NoError(t, f.cursor.Validate(f.store))
}

func (f *fixture) moveTo(t *testing.T, id uint32) {
	t.Helper()
	for i := 0; i < f.store.Len() && f.cursor.Current() != id; i++ {
		f.cursor.Next(f.store)
	}
	require.Equal(t, id, f.cursor.Current())
}

func TestCursor_NewArrivalsDoNotStealFocus(t *testing.T) {
	f := newFixture(t, Options{}, 0)
	assert.True(t, f.cursor.IsEmpty())

	assert.Equal(t, uint32(1), f.insert(t))
	assert.Equal(t, uint32(1), f.cursor.Current())

	assert.Equal(t, uint32(2), f.insert(t))
	assert.Equal(t, uint32(1), f.cursor.Current())

	assert.Equal(t, uint32(3), f.insert(t))
	assert.Equal(t, uint32(1), f.cursor.Current())
}

func TestCursor_FollowNew(t *testing.T) {
	f := newFixture(t, Options{FollowNew: true}, 3)
	assert.Equal(t, uint32(3), f.cursor.Current())
}

func TestCursor_NextWraps(t *testing.T) {
	f := newFixture(t, Options{}, 3)
	require.Equal(t, uint32(1), f.cursor.Current())

	assert.True(t, f.cursor.Next(f.store))
	assert.Equal(t, uint32(2), f.cursor.Current())
	assert.True(t, f.cursor.Next(f.store))
	assert.Equal(t, uint32(3), f.cursor.Current())
	assert.True(t, f.cursor.Next(f.store))
	assert.Equal(t, uint32(1), f.cursor.Current())
}

func TestCursor_PrevWraps(t *testing.T) {
	f := newFixture(t, Options{}, 3)

	assert.True(t, f.cursor.Prev(f.store))
	assert.Equal(t, uint32(3), f.cursor.Current())
	assert.True(t, f.cursor.Prev(f.store))
	assert.Equal(t, uint32(2), f.cursor.Current())
}

func TestCursor_NextPrevAreInverses(t *testing.T) {
	for count := 2; count <= 5; count++ {
		f := newFixture(t, Options{MarkReadOnLeave: true}, count)
		for _, id := range f.store.IDs() {
			f.moveTo(t, id)

			f.cursor.Next(f.store)
			f.cursor.Prev(f.store)
			assert.Equal(t, id, f.cursor.Current(), "prev(next(%d)) with %d entries", id, count)

			f.cursor.Prev(f.store)
			f.cursor.Next(f.store)
			assert.Equal(t, id, f.cursor.Current(), "next(prev(%d)) with %d entries", id, count)
		}
	}
}

func TestCursor_SingleEntryIsFixedPoint(t *testing.T) {
	f := newFixture(t, Options{MarkReadOnLeave: true}, 1)

	assert.False(t, f.cursor.Next(f.store))
	assert.False(t, f.cursor.Prev(f.store))
	assert.Equal(t, uint32(1), f.cursor.Current())
	assert.False(t, f.cursor.IsRead(1), "staying put is not leaving")
}

func TestCursor_EmptyNavigationIsNoop(t *testing.T) {
	f := newFixture(t, Options{}, 0)

	assert.False(t, f.cursor.Next(f.store))
	assert.False(t, f.cursor.Prev(f.store))
	_, ok := f.cursor.MarkRead()
	assert.False(t, ok)
	assert.True(t, f.cursor.IsEmpty())
	assert.Equal(t, 0, f.cursor.ReadCount())
}

func TestCursor_MarkReadOnLeave(t *testing.T) {
	f := newFixture(t, Options{MarkReadOnLeave: true}, 3)
	f.cursor.Next(f.store)
	assert.True(t, f.cursor.IsRead(1))
	assert.False(t, f.cursor.IsRead(2))

	g := newFixture(t, Options{}, 3)
	g.cursor.Next(g.store)
	assert.False(t, g.cursor.IsRead(1))
}

func TestCursor_CloseCurrentMovesToNext(t *testing.T) {
	f := newFixture(t, Options{}, 3)
	f.moveTo(t, 2)

	f.close(t, 2)
	assert.Equal(t, uint32(3), f.cursor.Current())
}

func TestCursor_CloseLastFallsBack(t *testing.T) {
	f := newFixture(t, Options{}, 2)
	f.moveTo(t, 2)

	f.close(t, 2)
	assert.Equal(t, uint32(1), f.cursor.Current())

	f.close(t, 1)
	assert.True(t, f.cursor.IsEmpty())
}

func TestCursor_CloseOtherKeepsPosition(t *testing.T) {
	f := newFixture(t, Options{}, 3)
	f.moveTo(t, 2)

	f.close(t, 3)
	assert.Equal(t, uint32(2), f.cursor.Current())
	f.close(t, 1)
	assert.Equal(t, uint32(2), f.cursor.Current())
}

func TestCursor_CloseNeverDangles(t *testing.T) {
	// Every removal order over every starting position must leave the cursor valid.
	const count = 4
	permutations := permute([]int{0, 1, 2, 3})

	for start := 1; start <= count; start++ {
		for _, perm := range permutations {
			f := newFixture(t, Options{}, count)
			f.moveTo(t, uint32(start))
			ids := f.store.IDs()
			for _, i := range perm {
				f.close(t, ids[i])
			}
			assert.True(t, f.cursor.IsEmpty())
		}
	}
}

func TestCursor_MarkReadThenClose(t *testing.T) {
	f := newFixture(t, Options{}, 2)

	id, ok := f.cursor.MarkRead()
	require.True(t, ok)
	assert.Equal(t, uint32(1), id)
	assert.True(t, f.cursor.IsRead(1))
	assert.Equal(t, uint32(1), f.cursor.Current(), "mark-read does not move")

	f.close(t, 1)
	assert.False(t, f.cursor.IsRead(1))
	assert.False(t, f.store.Has(1))
	assert.Equal(t, 0, f.cursor.ReadCount())
}

func TestCursor_ReplaceMarksUnread(t *testing.T) {
	f := newFixture(t, Options{}, 1)
	f.cursor.MarkRead()
	require.True(t, f.cursor.IsRead(1))

	f.cursor.OnReplace(1)
	assert.False(t, f.cursor.IsRead(1))
	assert.Equal(t, uint32(1), f.cursor.Current())
}

func TestCursor_ClearIsIdempotent(t *testing.T) {
	f := newFixture(t, Options{}, 3)
	f.cursor.MarkRead()

	for i := 0; i < 2; i++ {
		f.store.Clear()
		f.cursor.Clear()
		assert.True(t, f.cursor.IsEmpty())
		assert.Equal(t, 0, f.cursor.ReadCount())
		assert.Equal(t, 0, f.store.Len())
		assert.NoError(t, f.cursor.Validate(f.store))
	}
}

func TestCursor_Validate(t *testing.T) {
	f := newFixture(t, Options{}, 2)
	assert.NoError(t, f.cursor.Validate(f.store))

	// Removing behind the cursor's back leaves it dangling.
	_, err := f.store.Remove(1)
	require.NoError(t, err)
	assert.Error(t, f.cursor.Validate(f.store))
}

func permute(xs []int) [][]int {
	if len(xs) <= 1 {
		return [][]int{append([]int(nil), xs...)}
	}
	var out [][]int
	for i := range xs {
		rest := make([]int, 0, len(xs)-1)
		rest = append(rest, xs[:i]...)
		rest = append(rest, xs[i+1:]...)
		for _, p := range permute(rest) {
			out = append(out, append([]int{xs[i]}, p...))
		}
	}
	return out
}
