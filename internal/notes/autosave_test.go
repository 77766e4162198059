package notes

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	mu     sync.Mutex
	saves  map[string][]string
	failOn string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{saves: map[string][]string{}}
}

func (s *recordingStore) Save(noteID, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if noteID == s.failOn {
		return errors.New("save failed")
	}
	s.saves[noteID] = append(s.saves[noteID], body)
	return nil
}

func (s *recordingStore) bodies(noteID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.saves[noteID]...)
}

func TestQueueCoalescesIntoOneWrite(t *testing.T) {
	store := newRecordingStore()
	a := NewAutosaver(store, 30*time.Millisecond)
	defer a.Close()

	require.NoError(t, a.Queue("n1", "c"))
	require.NoError(t, a.Queue("n1", "ca"))
	require.NoError(t, a.Queue("n1", "call back"))

	assert.Eventually(t, func() bool {
		return len(store.bodies("n1")) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"call back"}, store.bodies("n1"))
}

func TestFlushWritesImmediately(t *testing.T) {
	store := newRecordingStore()
	a := NewAutosaver(store, time.Hour)
	defer a.Close()

	require.NoError(t, a.Queue("n1", "draft"))
	require.NoError(t, a.Flush("n1"))

	assert.Equal(t, []string{"draft"}, store.bodies("n1"))

	// Second flush is a no-op, not a duplicate write.
	require.NoError(t, a.Flush("n1"))
	assert.Len(t, store.bodies("n1"), 1)
}

func TestCloseFlushesAllPending(t *testing.T) {
	store := newRecordingStore()
	a := NewAutosaver(store, time.Hour)

	require.NoError(t, a.Queue("n1", "one"))
	require.NoError(t, a.Queue("n2", "two"))
	require.NoError(t, a.Close())

	assert.Equal(t, []string{"one"}, store.bodies("n1"))
	assert.Equal(t, []string{"two"}, store.bodies("n2"))

	assert.ErrorIs(t, a.Queue("n3", "after close"), ErrClosed)
}

func TestCloseReportsSaveErrorButFlushesRest(t *testing.T) {
	store := newRecordingStore()
	store.failOn = "bad"
	a := NewAutosaver(store, time.Hour)

	require.NoError(t, a.Queue("bad", "x"))
	require.NoError(t, a.Queue("good", "y"))

	err := a.Close()
	assert.Error(t, err)
	assert.Equal(t, []string{"y"}, store.bodies("good"))
}

func TestNotesAreIndependent(t *testing.T) {
	store := newRecordingStore()
	a := NewAutosaver(store, 30*time.Millisecond)
	defer a.Close()

	require.NoError(t, a.Queue("n1", "first"))
	require.NoError(t, a.Queue("n2", "second"))

	assert.Eventually(t, func() bool {
		return len(store.bodies("n1")) == 1 && len(store.bodies("n2")) == 1
	}, time.Second, 10*time.Millisecond)
}
