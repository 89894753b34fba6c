package explorer

import (
	"sync"

	"github.com/rs/zerolog"
)

// BodyRefHolder is implemented by host views that keep a direct field
// reference to their scrollable body element. The compensator's fallback
// strategy replaces that reference with a delegating wrapper that intercepts
// only the scroll coordinate.
type BodyRefHolder interface {
	ScrollBody() Scrollable
	ReplaceScrollBody(with Scrollable) bool
}

// coordinateAdapter translates between the logical and true scroll
// coordinate spaces. Exactly one backend is active at a time. readTrue and
// writeTrue are only called with the compensator's lock held.
type coordinateAdapter interface {
	attach() bool
	detach()
	readTrue() int
	writeTrue(v int)
	name() string
}

// Compensator makes a block of injected content transparent to the host's
// scroll bookkeeping: external reads and writes of the scroll coordinate see
// the logical position (true minus the injected block's height), while the
// true position keeps the host's virtualization math consistent.
//
// Compensation is a best-effort enhancement. If neither strategy can patch
// the host, rendering proceeds without coordinate masking.
//
// The mutex covers target, adapter and offset. Frame callbacks write the
// true coordinate while the render path tears patches down, so every method
// takes the lock; a WriteTrue that loses the race to Teardown becomes a
// no-op instead of touching a detached patch.
type Compensator struct {
	log zerolog.Logger

	mu      sync.Mutex
	target  Scrollable
	adapter coordinateAdapter
	offset  int

	degradedOnce sync.Once
}

func newCompensator(log zerolog.Logger) *Compensator {
	return &Compensator{log: log}
}

// Ensure activates compensation for body. Idempotent: re-detecting the same
// element is a no-op. A different element tears down the previous patch
// first. view may be nil; it is only consulted for the fallback strategy.
func (c *Compensator) Ensure(body Scrollable, view HostView) {
	if body == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == body && c.adapter != nil {
		return
	}
	c.teardownLocked()
	c.target = body

	if sw, ok := body.(ScrollAccessorSwapper); ok {
		a := &accessorAdapter{c: c, swapper: sw}
		if c.tryAttach(a) {
			return
		}
	}
	if holder, ok := view.(BodyRefHolder); ok {
		a := &refAdapter{c: c, holder: holder}
		if c.tryAttach(a) {
			return
		}
	}
	c.degradedOnce.Do(func() {
		c.log.Warn().Msg("scroll compensation unavailable, rendering without coordinate masking")
	})
}

// tryAttach runs an adapter's attach inside a recover boundary; any panic
// from probing the host object means "strategy unavailable".
func (c *Compensator) tryAttach(a coordinateAdapter) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Debug().Str("strategy", a.name()).Interface("panic", r).
				Msg("scroll patch strategy failed")
			ok = false
		}
	}()
	if !a.attach() {
		return false
	}
	c.adapter = a
	c.log.Debug().Str("strategy", a.name()).Msg("scroll compensation active")
	return true
}

// Active reports whether a patch strategy is currently in place.
func (c *Compensator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adapter != nil
}

// Offset returns the current compensation delta.
func (c *Compensator) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// SetOffset adjusts the compensation delta. When the offset changes, the
// true coordinate is nudged by the same amount so the visible (logical)
// position does not move.
func (c *Compensator) SetOffset(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delta := n - c.offset
	if delta == 0 {
		return
	}
	c.offset = n
	if c.adapter != nil {
		c.adapter.writeTrue(c.adapter.readTrue() + delta)
	}
}

// ReadTrue returns the unpatched scroll coordinate.
func (c *Compensator) ReadTrue() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.adapter != nil {
		return c.adapter.readTrue()
	}
	if c.target != nil {
		return c.target.ScrollTop()
	}
	return 0
}

// WriteTrue forces an absolute true scroll position, bypassing the logical
// translation. Used to snap to the top after navigation.
func (c *Compensator) WriteTrue(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.adapter != nil {
		c.adapter.writeTrue(v)
		return
	}
	if c.target != nil {
		c.target.SetScrollTop(v)
	}
}

// Teardown restores the original accessors or references. Safe to call even
// if compensation was never set up, and safe to call repeatedly.
func (c *Compensator) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

func (c *Compensator) teardownLocked() {
	if c.adapter != nil {
		func() {
			defer func() { _ = recover() }()
			c.adapter.detach()
		}()
		c.adapter = nil
	}
	c.target = nil
	c.offset = 0
}

// accessorAdapter is the primary strategy: replace the element's scroll
// accessor pair with a wrapping pair that subtracts/adds the offset, the way
// a property descriptor would be redefined on the nearest prototype.
type accessorAdapter struct {
	c       *Compensator
	swapper ScrollAccessorSwapper
	origGet func() int
	origSet func(int)
}

func (a *accessorAdapter) name() string { return "accessor" }

func (a *accessorAdapter) attach() bool {
	get, set, ok := a.swapper.SwapScrollAccessors(a.logicalGet, a.logicalSet)
	if !ok {
		return false
	}
	a.origGet, a.origSet = get, set
	return true
}

func (a *accessorAdapter) detach() {
	a.swapper.SwapScrollAccessors(a.origGet, a.origSet)
}

// logicalGet and logicalSet run on whatever goroutine reads the host's
// scroll coordinate, so they take the compensator's lock themselves. The
// compensator never calls them; it goes through the original accessors.
func (a *accessorAdapter) logicalGet() int {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()
	v := a.origGet() - a.c.offset
	if v < 0 {
		v = 0
	}
	return v
}

func (a *accessorAdapter) logicalSet(v int) {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()
	a.origSet(v + a.c.offset)
}

func (a *accessorAdapter) readTrue() int   { return a.origGet() }
func (a *accessorAdapter) writeTrue(v int) { a.origSet(v) }

// refAdapter is the fallback strategy: swap the host view's body-element
// reference for a transparent wrapper. Only reads and writes that go through
// the host's own reference are translated.
type refAdapter struct {
	c      *Compensator
	holder BodyRefHolder
	orig   Scrollable
	proxy  *scrollProxy
}

func (a *refAdapter) name() string { return "reference" }

func (a *refAdapter) attach() bool {
	orig := a.holder.ScrollBody()
	if orig == nil {
		return false
	}
	if p, ok := orig.(*scrollProxy); ok {
		// Already wrapped by a previous attach; reuse the underlying element.
		orig = p.Scrollable
	}
	a.orig = orig
	a.proxy = &scrollProxy{Scrollable: orig, c: a.c}
	return a.holder.ReplaceScrollBody(a.proxy)
}

func (a *refAdapter) detach() {
	a.holder.ReplaceScrollBody(a.orig)
}

func (a *refAdapter) readTrue() int   { return a.orig.ScrollTop() }
func (a *refAdapter) writeTrue(v int) { a.orig.SetScrollTop(v) }

// scrollProxy delegates all element behavior to the wrapped scrollable and
// intercepts only the scroll coordinate. Like the logical accessors, its
// methods run on the host's goroutine and lock the compensator.
type scrollProxy struct {
	Scrollable
	c *Compensator
}

func (p *scrollProxy) ScrollTop() int {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	v := p.Scrollable.ScrollTop() - p.c.offset
	if v < 0 {
		v = 0
	}
	return v
}

func (p *scrollProxy) SetScrollTop(v int) {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	p.Scrollable.SetScrollTop(v + p.c.offset)
}
