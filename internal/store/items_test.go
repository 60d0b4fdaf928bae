package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/undolog/internal/counter"
	"github.com/roach88/undolog/internal/engine"
	"github.com/roach88/undolog/internal/history"
	"github.com/roach88/undolog/internal/persist"
)

var _ persist.Storage = (*Store)(nil)
var _ persist.KeyLister = (*Store)(nil)

func TestItems_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.GetItem(ctx, "history:a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetItem(ctx, "history:a", `{"actions":[],"tracking":true}`))
	v, ok, err := s.GetItem(ctx, "history:a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"actions":[],"tracking":true}`, v)

	require.NoError(t, s.RemoveItem(ctx, "history:a"))
	require.NoError(t, s.RemoveItem(ctx, "history:a"))
	_, ok, err = s.GetItem(ctx, "history:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestItems_RevisionCountsWrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rev, err := s.Revision(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rev)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SetItem(ctx, "k", "v"))
	}
	rev, err = s.Revision(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rev)

	require.NoError(t, s.RemoveItem(ctx, "k"))
	require.NoError(t, s.SetItem(ctx, "k", "v"))
	rev, err = s.Revision(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)
}

func TestItems_KeysByPrefixInByteOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, k := range []string{"history:b", "history:B", "history:a", "other:a"} {
		require.NoError(t, s.SetItem(ctx, k, "{}"))
	}

	keys, err := s.Keys(ctx, "history:")
	require.NoError(t, err)
	assert.Equal(t, []string{"history:B", "history:a", "history:b"}, keys)

	all, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	docs, err := persist.ListDocuments(ctx, s, persist.DefaultKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "a", "b"}, docs)
}

func TestItems_SurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/reopen.db"

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetItem(ctx, "k", "v"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

// An edited document written through the adapter is restored by a fresh
// store on the same database.
func TestItems_AdapterRoundTrip(t *testing.T) {
	path := t.TempDir() + "/history.db"

	h, err := history.New[counter.State](counter.Reduce)
	require.NoError(t, err)

	db, err := Open(path)
	require.NoError(t, err)
	a := persist.NewAdapter(db, h, persist.WithKey("doc"))
	s := engine.New(h.Reduce, h.Initial(), a.Middleware())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Dispatch(counter.Increment(1)))
		a.Wait()
	}
	require.NoError(t, s.Dispatch(h.UndoAction()))
	require.NoError(t, a.Flush(context.Background()))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	a2 := persist.NewAdapter(db, h)
	s2 := engine.New(h.Reduce, h.Initial(), a2.Middleware())
	require.NoError(t, s2.Dispatch(a2.LoadAction("doc")))
	a2.Wait()

	state := s2.State()
	assert.Equal(t, int64(2), state.Present.Count)
	assert.True(t, state.CanUndo)
	assert.True(t, state.CanRedo)
	assert.Len(t, state.History.Actions, 3)
}
