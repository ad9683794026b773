package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	file, err := NewFile(filepath.Join(t.TempDir(), "progress"))
	require.NoError(t, err)
	db, err := NewSQLite(filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": db,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			player := uuid.NewString()
			other := uuid.NewString()

			_, err := st.Get(ctx, player, "theme")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, st.Set(ctx, player, "theme", []byte(`"dark"`)))
			got, err := st.Get(ctx, player, "theme")
			require.NoError(t, err)
			assert.Equal(t, `"dark"`, string(got))

			require.NoError(t, st.Set(ctx, player, "theme", []byte(`"light"`)))
			got, err = st.Get(ctx, player, "theme")
			require.NoError(t, err)
			assert.Equal(t, `"light"`, string(got))

			_, err = st.Get(ctx, other, "theme")
			assert.ErrorIs(t, err, ErrNotFound, "players must not share values")

			require.NoError(t, st.Delete(ctx, player, "theme"))
			require.NoError(t, st.Delete(ctx, player, "theme"))
			_, err = st.Get(ctx, player, "theme")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreRejectsInvalidIdentifiers(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "short", "../../etc/passwd", "12345678-1234-5678-9ABC-123456789XYZ"} {
				assert.Error(t, st.Set(ctx, id, "theme", []byte("x")), "player %q", id)
			}
			player := uuid.NewString()
			for _, key := range []string{"", "../theme", "Theme", "a/b"} {
				_, err := st.Get(ctx, player, key)
				assert.Error(t, err, "key %q", key)
				assert.NotErrorIs(t, err, ErrNotFound)
			}
		})
	}
}

func TestStorePrune(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			player := uuid.NewString()
			require.NoError(t, st.Set(ctx, player, "game_state", []byte("{}")))
			require.NoError(t, st.Set(ctx, player, "theme", []byte(`"dark"`)))

			n, err := st.Prune(ctx, time.Hour)
			require.NoError(t, err)
			assert.Zero(t, n)

			n, err = st.Prune(ctx, -time.Hour)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			_, err = st.Get(ctx, player, "theme")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

// backdate makes the stored value look as if it was written age ago.
func backdate(t *testing.T, st Store, playerID, key string, age time.Duration) {
	t.Helper()
	when := time.Now().Add(-age)
	switch st := st.(type) {
	case *Memory:
		st.mu.Lock()
		e := st.players[playerID][key]
		e.updatedAt = when
		st.players[playerID][key] = e
		st.mu.Unlock()
	case *File:
		p, err := st.path(playerID, key)
		require.NoError(t, err)
		require.NoError(t, os.Chtimes(p, when, when))
	case *SQLite:
		_, err := st.db.Exec(`UPDATE progress SET updated_at = ? WHERE player_id = ? AND key = ?`,
			when.UnixNano(), playerID, key)
		require.NoError(t, err)
	default:
		t.Fatalf("cannot backdate %T", st)
	}
}

func TestPruneKeepsActivePlayersWhole(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			active := uuid.NewString()
			idle := uuid.NewString()
			for _, player := range []string{active, idle} {
				require.NoError(t, st.Set(ctx, player, "completed_sentences", []byte(`["ILL BE BACK"]`)))
				require.NoError(t, st.Set(ctx, player, "game_state", []byte("{}")))
				backdate(t, st, player, "completed_sentences", 100*24*time.Hour)
			}
			backdate(t, st, idle, "game_state", 95*24*time.Hour)

			n, err := st.Prune(ctx, 90*24*time.Hour)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			got, err := st.Get(ctx, active, "completed_sentences")
			require.NoError(t, err, "a recent write must keep older values")
			assert.JSONEq(t, `["ILL BE BACK"]`, string(got))
			_, err = st.Get(ctx, active, "game_state")
			assert.NoError(t, err)

			for _, key := range []string{"completed_sentences", "game_state"} {
				_, err = st.Get(ctx, idle, key)
				assert.ErrorIs(t, err, ErrNotFound, "idle %s", key)
			}
		})
	}
}

func TestMemoryPruneUsesLastWrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now()
	m.now = func() time.Time { return now.Add(-3 * time.Hour) }
	old := uuid.NewString()
	require.NoError(t, m.Set(ctx, old, "theme", []byte("x")))

	m.now = func() time.Time { return now }
	fresh := uuid.NewString()
	require.NoError(t, m.Set(ctx, fresh, "theme", []byte("y")))

	n, err := m.Prune(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = m.Get(ctx, old, "theme")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, fresh, "theme")
	assert.NoError(t, err)
}

func TestFilePruneRemovesEmptyPlayerDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	player := uuid.NewString()
	require.NoError(t, f.Set(ctx, player, "theme", []byte(`"dark"`)))
	p := filepath.Join(dir, player, "theme.json")
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(p, old, old))

	n, err := f.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = os.Stat(filepath.Join(dir, player))
	assert.True(t, os.IsNotExist(err), "player directory should be removed, got %v", err)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "progress.db")
	player := uuid.NewString()

	db, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, player, "completed_sentences", []byte(`["ILL BE BACK"]`)))
	require.NoError(t, db.Close())

	db, err = NewSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Get(ctx, player, "completed_sentences")
	require.NoError(t, err)
	assert.JSONEq(t, `["ILL BE BACK"]`, string(got))
}
