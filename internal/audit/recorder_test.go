package audit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	threaddomain "fieldline-backend/internal/thread/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	saved  []*threaddomain.EmailAudit
	failAll bool
}

func (s *fakeStore) Save(event *threaddomain.EmailAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errors.New("store down")
	}
	s.saved = append(s.saved, event)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func TestRecorderWritesEvents(t *testing.T) {
	store := &fakeStore{}
	recorder := NewRecorder(store, 1)
	recorder.Start()

	recorder.Record(Event{Type: threaddomain.AuditThreadClosed, ThreadID: "t1", UserID: "u1"})
	recorder.Record(Event{Type: threaddomain.AuditThreadPinned, ThreadID: "t2", UserID: "u1"})
	recorder.Stop()

	require.Equal(t, 2, store.count())
	assert.Equal(t, threaddomain.AuditThreadClosed, store.saved[0].Type)
	assert.NotEmpty(t, store.saved[0].ID)
	assert.False(t, store.saved[0].Timestamp.IsZero())
}

func TestRecordNeverPanicsOnStoreFailure(t *testing.T) {
	store := &fakeStore{failAll: true}
	recorder := NewRecorder(store, 2)
	recorder.Start()

	assert.NotPanics(t, func() {
		for i := 0; i < 50; i++ {
			recorder.Record(Event{Type: threaddomain.AuditThreadReopened, ThreadID: "t1"})
		}
		recorder.Stop()
	})
	assert.Equal(t, 0, store.count())
}

func TestRecordFillsTimestamp(t *testing.T) {
	store := &fakeStore{}
	recorder := NewRecorder(store, 1)
	recorder.Start()

	before := time.Now()
	recorder.Record(Event{Type: threaddomain.AuditThreadUnpinned, ThreadID: "t1"})
	recorder.Stop()

	require.Equal(t, 1, store.count())
	assert.False(t, store.saved[0].Timestamp.Before(before))
}

func TestRecordAfterStopDropsEventWithoutPanic(t *testing.T) {
	store := &fakeStore{}
	recorder := NewRecorder(store, 1)
	recorder.Start()
	recorder.Record(Event{Type: threaddomain.AuditThreadClosed, ThreadID: "t1"})
	recorder.Stop()

	assert.NotPanics(t, func() {
		recorder.Record(Event{Type: threaddomain.AuditThreadReopened, ThreadID: "t1"})
	})
	assert.Equal(t, 1, store.count())
}

func TestStopIsIdempotentAndStartOnce(t *testing.T) {
	store := &fakeStore{}
	recorder := NewRecorder(store, 0) // defaults worker count
	recorder.Start()
	recorder.Start()
	recorder.Stop()
	assert.NotPanics(t, func() { recorder.Stop() })
}
