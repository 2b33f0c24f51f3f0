package revision

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/reqflow/internal/types"
)

func snap(url string) *types.HttpRequest {
	return &types.HttpRequest{ID: "r1", Method: "GET", URL: url}
}

func TestStoreUndoRedoScenario(t *testing.T) {
	s := NewStore(Options{})
	require.NoError(t, s.Init("r1", snap("A")))

	_, err := s.Capture("r1", snap("B"))
	require.NoError(t, err)
	_, err = s.Capture("r1", snap("C"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Index("r1"))

	got, ok := s.Undo("r1")
	require.True(t, ok)
	assert.Equal(t, "B", got.URL)
	assert.Equal(t, 1, s.Index("r1"))

	got, ok = s.Undo("r1")
	require.True(t, ok)
	assert.Equal(t, "A", got.URL)
	assert.Equal(t, 0, s.Index("r1"))

	got, ok = s.Undo("r1")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, 0, s.Index("r1"))

	got, ok = s.Redo("r1")
	require.True(t, ok)
	assert.Equal(t, "B", got.URL)

	// new edit after undo drops the abandoned C
	added, err := s.Capture("r1", snap("D"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 3, s.Len("r1"))
	assert.Equal(t, 2, s.Index("r1"))
	assert.False(t, s.CanRedo("r1"))

	_, ok = s.Redo("r1")
	assert.False(t, ok)

	got, _ = s.Undo("r1")
	assert.Equal(t, "B", got.URL)
	got, _ = s.Redo("r1")
	assert.Equal(t, "D", got.URL)
}

func TestStoreCaptureIsIdempotent(t *testing.T) {
	s := NewStore(Options{})
	require.NoError(t, s.Init("r1", snap("A")))
	_, err := s.Capture("r1", snap("B"))
	require.NoError(t, err)

	added, err := s.Capture("r1", snap("B"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 2, s.Len("r1"))
	assert.Equal(t, 1, s.Index("r1"))
}

func TestStoreCapCapturesKeepsMostRecent(t *testing.T) {
	s := NewStore(Options{Limit: 30})
	for i := 0; i < 35; i++ {
		_, err := s.Capture("r1", snap(fmt.Sprintf("v%d", i)))
		require.NoError(t, err)
	}

	assert.Equal(t, 30, s.Len("r1"))
	assert.Equal(t, 29, s.Index("r1"))

	cur, ok := s.Current("r1")
	require.True(t, ok)
	assert.Equal(t, "v34", cur.URL)

	// walk back to the oldest retained entry
	var oldest *types.HttpRequest
	for s.CanUndo("r1") {
		oldest, _ = s.Undo("r1")
	}
	assert.Equal(t, "v5", oldest.URL)
}

func TestStoreCaptureWithoutInitSeeds(t *testing.T) {
	s := NewStore(Options{})
	added, err := s.Capture("new", snap("A"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, s.Len("new"))
	assert.Equal(t, 0, s.Index("new"))
	assert.False(t, s.CanUndo("new"))
	assert.False(t, s.CanRedo("new"))
}

func TestStoreSnapshotsAreDeepCopies(t *testing.T) {
	s := NewStore(Options{})
	orig := snap("A")
	orig.Headers = []types.Row{{Key: "X", Value: "1"}}
	require.NoError(t, s.Init("r1", orig))
	_, err := s.Capture("r1", snap("B"))
	require.NoError(t, err)

	// caller mutating its own copy must not reach the store
	orig.Headers[0].Value = "mutated"
	orig.URL = "mutated"

	undone, ok := s.Undo("r1")
	require.True(t, ok)
	assert.Equal(t, "A", undone.URL)
	assert.Equal(t, "1", undone.Headers[0].Value)

	// nor must mutating a returned copy
	undone.Headers[0].Value = "again"
	cur, _ := s.Current("r1")
	assert.Equal(t, "1", cur.Headers[0].Value)
}

func TestStoreAbsentEntity(t *testing.T) {
	s := NewStore(Options{})
	_, ok := s.Undo("missing")
	assert.False(t, ok)
	_, ok = s.Redo("missing")
	assert.False(t, ok)
	assert.False(t, s.CanUndo("missing"))
	assert.False(t, s.CanRedo("missing"))
	assert.Equal(t, -1, s.Index("missing"))
	assert.Equal(t, 0, s.Len("missing"))
}

func TestStoreClearAndRetain(t *testing.T) {
	s := NewStore(Options{})
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Init(id, snap(id)))
	}

	s.Clear("a")
	assert.Equal(t, []string{"b", "c"}, s.IDs())

	s.Retain([]string{"c", "zzz"})
	assert.Equal(t, []string{"c"}, s.IDs())
}

func TestStoreDropsOversizedEntity(t *testing.T) {
	s := NewStore(Options{MaxTrackedBytes: 100})
	require.NoError(t, s.Init("r1", snap("small")))

	big := snap("x")
	big.Body = strings.Repeat("a", 200)
	_, err := s.Capture("r1", big)
	require.ErrorIs(t, err, ErrTooLarge)
	assert.Equal(t, 0, s.Len("r1"))

	err = s.Init("r2", big)
	require.ErrorIs(t, err, ErrTooLarge)
	assert.NotContains(t, s.IDs(), "r2")
}

func TestStoreInitRejectsNil(t *testing.T) {
	s := NewStore(Options{})
	assert.Error(t, s.Init("r1", nil))
}

func TestStoreConcurrentEntities(t *testing.T) {
	s := NewStore(Options{Limit: 10})
	var wg sync.WaitGroup
	for e := 0; e < 8; e++ {
		wg.Add(1)
		go func(e int) {
			defer wg.Done()
			id := fmt.Sprintf("e%d", e)
			for i := 0; i < 20; i++ {
				_, _ = s.Capture(id, snap(fmt.Sprintf("%s-%d", id, i)))
				if i%5 == 0 {
					s.Undo(id)
				}
			}
		}(e)
	}
	wg.Wait()

	assert.Len(t, s.IDs(), 8)
	for _, id := range s.IDs() {
		assert.LessOrEqual(t, s.Len(id), 10)
	}
}
