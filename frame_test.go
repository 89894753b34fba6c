package explorer

import (
	"sync"
	"testing"
	"time"
)

// fakeFrames runs callbacks synchronously and records requests and cancels.
type fakeFrames struct {
	mu       sync.Mutex
	next     uint64
	requests int
	cancels  []uint64
}

func (f *fakeFrames) RequestFrame(cb func()) uint64 {
	f.mu.Lock()
	f.next++
	f.requests++
	id := f.next
	f.mu.Unlock()
	cb()
	return id
}

func (f *fakeFrames) CancelFrame(id uint64) {
	f.mu.Lock()
	f.cancels = append(f.cancels, id)
	f.mu.Unlock()
}

// panicFrames emulates a frame source mid-teardown.
type panicFrames struct{}

func (panicFrames) RequestFrame(func()) uint64 { panic("source gone") }
func (panicFrames) CancelFrame(uint64)         { panic("source gone") }

func TestFrameScheduler(t *testing.T) {
	t.Run("UsesSource", func(t *testing.T) {
		src := &fakeFrames{}
		fs := newFrameScheduler(src)

		ran := false
		h := fs.requestFrame(func() { ran = true })
		if !ran {
			t.Errorf("expected callback to run through the source")
		}
		fs.cancelFrame(h)
		if len(src.cancels) != 1 || src.cancels[0] != h.id {
			t.Errorf("expected cancel forwarded for id %d, got %v", h.id, src.cancels)
		}
	})

	t.Run("TimerFallback", func(t *testing.T) {
		fs := newFrameScheduler(nil)
		done := make(chan struct{})
		fs.requestFrame(func() { close(done) })

		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
			t.Errorf("expected timer-backed frame to fire")
		}
	})

	t.Run("CancelTimerFallback", func(t *testing.T) {
		fs := newFrameScheduler(nil)
		fired := make(chan struct{}, 1)
		h := fs.requestFrame(func() { fired <- struct{}{} })
		fs.cancelFrame(h)

		select {
		case <-fired:
			t.Errorf("expected cancelled frame not to fire")
		case <-time.After(60 * time.Millisecond):
		}
	})

	t.Run("PanickingSourceDegrades", func(t *testing.T) {
		fs := newFrameScheduler(panicFrames{})
		done := make(chan struct{})
		h := fs.requestFrame(func() { close(done) })

		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
			t.Errorf("expected fallback timer after source panic")
		}
		fs.cancelFrame(h) // must not propagate the source's panic
	})
}
