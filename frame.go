package explorer

import (
	"sync"
	"time"
)

// frameFallbackInterval approximates one display refresh at ~60Hz.
const frameFallbackInterval = 16 * time.Millisecond

// FrameSource is implemented by hosts that can schedule callbacks aligned to
// their display refresh cycle. The engine falls back to a timer when the
// host does not provide one.
type FrameSource interface {
	RequestFrame(cb func()) (id uint64)
	CancelFrame(id uint64)
}

// FrameHandle identifies a pending frame callback.
type FrameHandle struct {
	id    uint64
	timer *time.Timer
}

// frameScheduler schedules callbacks on the next display refresh, degrading
// to a ~16ms timer when no frame source is reachable. Best effort: there are
// no error conditions.
type frameScheduler struct {
	mu     sync.Mutex
	source FrameSource
}

func newFrameScheduler(source FrameSource) *frameScheduler {
	return &frameScheduler{source: source}
}

// requestFrame schedules cb for the next frame tick and returns a handle
// that cancelFrame accepts.
func (f *frameScheduler) requestFrame(cb func()) FrameHandle {
	f.mu.Lock()
	source := f.source
	f.mu.Unlock()

	if source != nil {
		// The source may be mid-teardown; degrade to the timer path rather
		// than surfacing the failure.
		var id uint64
		panicked := func() (p bool) {
			defer func() {
				if recover() != nil {
					p = true
				}
			}()
			id = source.RequestFrame(cb)
			return false
		}()
		if !panicked {
			return FrameHandle{id: id}
		}
	}
	return FrameHandle{timer: time.AfterFunc(frameFallbackInterval, cb)}
}

// cancelFrame cancels a pending frame callback. Unknown or already-fired
// handles are ignored.
func (f *frameScheduler) cancelFrame(h FrameHandle) {
	if h.timer != nil {
		h.timer.Stop()
		return
	}
	f.mu.Lock()
	source := f.source
	f.mu.Unlock()
	if source == nil {
		return
	}
	defer func() { _ = recover() }()
	source.CancelFrame(h.id)
}
