package telemetry

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hupe1980/agentrouter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_AppendRead(t *testing.T) {
	s := newSQLiteStore(t)

	require.NoError(t, s.Append("s1", testutil.NewRecord("s1", "a1", "first")))
	require.NoError(t, s.Append("s1", testutil.NewFailedRecord("s1", "a1", "boom")))
	require.NoError(t, s.Append("s2", testutil.NewRecord("s2", "a2", map[string]any{"reply": "remote"})))

	recs, err := s.Read("s1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "first", recs[0].Reply)
	assert.Equal(t, "a1", recs[0].ToID)
	assert.True(t, recs[1].Failed())
	assert.Equal(t, "boom", recs[1].Error)

	other, err := s.Read("s2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, map[string]any{"reply": "remote"}, other[0].Reply)

	ids, err := s.Sessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)
}

func TestSQLiteStore_UnknownSessionIsEmpty(t *testing.T) {
	recs, err := newSQLiteStore(t).Read("nope")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append("s1", testutil.NewRecord("s1", "a1", "kept")))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	recs, err := reopened.Read("s1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "kept", recs[0].Reply)
}

func TestSQLiteStore_ConcurrentAppend(t *testing.T) {
	s := newSQLiteStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append("shared", testutil.NewRecord("shared", fmt.Sprintf("a%d", i), "ok")))
		}(i)
	}
	wg.Wait()

	recs, err := s.Read("shared")
	require.NoError(t, err)
	assert.Len(t, recs, 20)
}
