package telemetry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/agentrouter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_AppendRead(t *testing.T) {
	s := NewInMemoryStore()

	require.NoError(t, s.Append("s1", testutil.NewRecord("s1", "a1", "first")))
	require.NoError(t, s.Append("s1", testutil.NewFailedRecord("s1", "a1", "boom")))
	require.NoError(t, s.Append("s2", testutil.NewRecord("s2", "a2", "other")))

	recs, err := s.Read("s1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "first", recs[0].Reply)
	assert.True(t, recs[1].Failed())

	assert.Equal(t, []string{"s1", "s2"}, s.Sessions())
	assert.Equal(t, 1, s.Len("s2"))
}

func TestInMemoryStore_UnknownSessionIsEmpty(t *testing.T) {
	recs, err := NewInMemoryStore().Read("nope")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestInMemoryStore_ReadReturnsCopy(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Append("s1", testutil.NewRecord("s1", "a1", "orig")))

	recs, _ := s.Read("s1")
	recs[0].Reply = "tampered"

	again, _ := s.Read("s1")
	assert.Equal(t, "orig", again[0].Reply)
}

func TestInMemoryStore_StructuredReplyIsNotShared(t *testing.T) {
	s := NewInMemoryStore()
	reply := map[string]any{"answer": 42.0, "tags": []any{"a"}}
	require.NoError(t, s.Append("s1", testutil.NewRecord("s1", "peer", reply)))

	reply["answer"] = 0.0

	recs, _ := s.Read("s1")
	recs[0].Reply.(map[string]any)["tags"].([]any)[0] = "tampered"

	again, _ := s.Read("s1")
	assert.Equal(t, map[string]any{"answer": 42.0, "tags": []any{"a"}}, again[0].Reply)
}

func TestInMemoryStore_ConcurrentAppend(t *testing.T) {
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append("shared", testutil.NewRecord("shared", fmt.Sprintf("a%d", i), "ok"))
			_, _ = s.Read("shared")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len("shared"))
}
