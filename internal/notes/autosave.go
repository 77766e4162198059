// Package notes debounces note edits so rapid keystrokes from the UI
// collapse into one write per idle period. Close flushes everything still
// pending, so a clean shutdown never loses an edit.
package notes

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Store persists the note body. Implemented by the thread usecase.
type Store interface {
	Save(noteID, body string) error
}

// StoreFunc adapts a function to Store.
type StoreFunc func(noteID, body string) error

func (f StoreFunc) Save(noteID, body string) error { return f(noteID, body) }

var ErrClosed = errors.New("autosaver is closed")

type pendingNote struct {
	body  string
	timer *time.Timer
}

// Autosaver coalesces per-note writes. Each Queue call replaces the pending
// body and restarts that note's idle timer; when the timer fires the latest
// body is written once.
type Autosaver struct {
	store Store
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingNote
	closed  bool
}

func NewAutosaver(store Store, delay time.Duration) *Autosaver {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Autosaver{
		store:   store,
		delay:   delay,
		pending: make(map[string]*pendingNote),
	}
}

// Queue records the newest body for a note and (re)starts its idle timer.
func (a *Autosaver) Queue(noteID, body string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	if p, ok := a.pending[noteID]; ok {
		p.body = body
		p.timer.Reset(a.delay)
		return nil
	}

	p := &pendingNote{body: body}
	p.timer = time.AfterFunc(a.delay, func() {
		if err := a.Flush(noteID); err != nil {
			log.Printf("[Notes] Autosave failed for note %s: %v", noteID, err)
		}
	})
	a.pending[noteID] = p
	return nil
}

// Flush writes a note's pending body immediately. Flushing a note with
// nothing pending is a no-op.
func (a *Autosaver) Flush(noteID string) error {
	a.mu.Lock()
	p, ok := a.pending[noteID]
	if ok {
		p.timer.Stop()
		delete(a.pending, noteID)
	}
	a.mu.Unlock()

	if !ok {
		return nil
	}

	if err := a.store.Save(noteID, p.body); err != nil {
		return fmt.Errorf("failed to save note %s: %w", noteID, err)
	}
	return nil
}

// Close flushes every pending note and rejects further queues. Returns the
// first save error encountered; remaining notes are still flushed.
func (a *Autosaver) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true

	ids := make([]string, 0, len(a.pending))
	for id := range a.pending {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := a.Flush(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
