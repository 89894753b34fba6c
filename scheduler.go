package explorer

import "time"

// SelectionNotifier is implemented by hosts whose selection mutator can be
// decorated: registered callbacks run after every host-side selection
// change, with the original mutator behavior preserved.
type SelectionNotifier interface {
	OnSelectionSet(fn func()) (off func())
}

// TreeEventSource is implemented by hosts that emit native events from their
// hierarchy tree (clicks, programmatic selection).
type TreeEventSource interface {
	OnTreeEvent(fn func()) (off func())
}

// ScheduleRerender debounces and coalesces render requests: any pending
// timer and pending frame are cancelled, then a new timer is armed. When it
// fires, one animation-frame callback performs the actual render, guarded so
// at most one cycle is ever in flight.
func (e *Engine) ScheduleRerender(delay time.Duration) {
	defer e.boundary("schedule rerender")()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.cancelPendingLocked()
	e.pending = time.AfterFunc(delay, e.debounceFired)
}

func (e *Engine) cancelPendingLocked() {
	// Invalidate any frame request currently escaping debounceFired's
	// unlocked window; it cancels itself when it sees the new generation.
	e.frameGen++
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	if e.pendingFrame != nil {
		e.frames.cancelFrame(*e.pendingFrame)
		e.pendingFrame = nil
	}
}

func (e *Engine) debounceFired() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	if e.renderInFlight {
		// A cycle is still executing. Re-arm instead of piling on: the next
		// cycle starts only after this one finishes, and re-reads the current
		// selection rather than reusing the trigger's snapshot.
		e.pending = time.AfterFunc(e.debounce, e.debounceFired)
		e.mu.Unlock()
		return
	}
	e.frameGen++
	gen := e.frameGen
	e.mu.Unlock()

	// The frame source may run the callback synchronously; request outside
	// the lock. A ScheduleRerender landing in this window bumps the
	// generation, so the request is cancelled below instead of stored where
	// that ScheduleRerender could no longer see it.
	h := e.frames.requestFrame(e.renderFrame)

	e.mu.Lock()
	if e.stopped || gen != e.frameGen {
		e.mu.Unlock()
		e.frames.cancelFrame(h)
		return
	}
	e.pendingFrame = &h
	e.mu.Unlock()
}

func (e *Engine) renderFrame() {
	e.mu.Lock()
	if e.stopped || e.renderInFlight {
		e.mu.Unlock()
		return
	}
	e.pendingFrame = nil
	e.renderInFlight = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.renderInFlight = false
		e.mu.Unlock()
	}()
	e.RenderFolderRowsForCurrentCollection()
}

// Start attaches the three change-detection producers: the decorated
// selection setter and the native tree events where the host supports them,
// plus the fixed-interval poll fallback. All three funnel into one
// comparison against the last rendered key, so a single navigation firing
// all of them schedules exactly one render.
func (e *Engine) Start() {
	defer e.boundary("start")()
	e.mu.Lock()
	if e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	var offs []func()
	if sn, ok := e.host.(SelectionNotifier); ok {
		offs = append(offs, sn.OnSelectionSet(e.selectionMaybeChanged))
	}
	if ts, ok := e.host.(TreeEventSource); ok {
		offs = append(offs, ts.OnTreeEvent(e.selectionMaybeChanged))
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		for _, off := range offs {
			off()
		}
		return
	}
	e.producerOffs = append(e.producerOffs, offs...)
	e.poll = time.NewTicker(e.pollInterval)
	e.pollDone = make(chan struct{})
	poll, done := e.poll, e.pollDone
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-poll.C:
				e.selectionMaybeChanged()
			case <-done:
				return
			}
		}
	}()
}

// selectionMaybeChanged is the single signal all producers converge on: a
// render is scheduled only when the resolved selection key differs from the
// last rendered one.
func (e *Engine) selectionMaybeChanged() {
	defer e.boundary("selection change check")()
	if e.currentKey() != e.lastRenderedKey() {
		e.ScheduleRerender(e.debounce)
	}
}

func (e *Engine) currentKey() string {
	c := e.store.SelectedCollection()
	if c == nil {
		return "library-root"
	}
	return string(c.ID)
}
