// Package audit records who-did-what events for email threads. Recording is
// fire-and-forget: callers never learn whether the write succeeded, and a
// failed or dropped event never affects the action that emitted it.
package audit

import (
	"log"
	"sync"
	"time"

	threaddomain "fieldline-backend/internal/thread/domain"

	"github.com/google/uuid"
)

// Store persists audit rows.
type Store interface {
	Save(event *threaddomain.EmailAudit) error
}

// Event is what callers hand to Record.
type Event struct {
	Type      string
	ThreadID  string
	UserID    string
	Detail    string
	Timestamp time.Time
}

// Recorder buffers events on a channel and writes them from background
// workers. Queue-full means the event is dropped and logged, never blocked on.
type Recorder struct {
	store       Store
	queue       chan Event
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	mu          sync.Mutex
}

func NewRecorder(store Store, workerCount int) *Recorder {
	if workerCount <= 0 {
		workerCount = 2
	}

	return &Recorder{
		store:       store,
		queue:       make(chan Event, 256),
		workerCount: workerCount,
	}
}

// Start launches the writer goroutines.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return
	}

	for i := 0; i < r.workerCount; i++ {
		r.workerWg.Add(1)
		go r.worker()
	}
	r.started = true
	log.Printf("[Audit] Started %d writers", r.workerCount)
}

// Stop drains the queue and waits for the writers to finish.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()

	close(r.queue)
	r.workerWg.Wait()
	log.Println("[Audit] Writers stopped")
}

// Record enqueues an event. It never blocks and never returns an error; a
// full queue drops the event with a log line, as does a recorder that is
// not running. The send happens under the same lock Stop uses to flip
// started before closing the queue, so Record after Stop cannot hit the
// closed channel.
func (r *Recorder) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		log.Printf("[Audit] Recorder not running, dropping event %s for thread %s", event.Type, event.ThreadID)
		return
	}

	select {
	case r.queue <- event:
	default:
		log.Printf("[Audit] Queue full, dropping event %s for thread %s", event.Type, event.ThreadID)
	}
}

func (r *Recorder) worker() {
	defer r.workerWg.Done()

	for event := range r.queue {
		row := &threaddomain.EmailAudit{
			ID:        uuid.New().String(),
			Type:      event.Type,
			ThreadID:  event.ThreadID,
			UserID:    event.UserID,
			Detail:    event.Detail,
			Timestamp: event.Timestamp,
		}
		if err := r.store.Save(row); err != nil {
			log.Printf("[Audit] Failed to save event %s for thread %s: %v", event.Type, event.ThreadID, err)
		}
	}
}
