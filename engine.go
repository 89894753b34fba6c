package explorer

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Default tuning values. All are adjustable through Options.
const (
	// DefaultSettleDelay approximates how long the host takes to finish its
	// own asynchronous row-selection change after a navigation.
	DefaultSettleDelay = 260 * time.Millisecond

	// DefaultPollInterval is the fixed-interval fallback change detector.
	DefaultPollInterval = time.Second

	// DefaultDebounceDelay coalesces bursts of re-render triggers.
	DefaultDebounceDelay = 80 * time.Millisecond

	// DefaultMinColumnWidth floors header-derived grid tracks.
	DefaultMinColumnWidth = 24

	// DefaultRowHeight is the synthetic row height in pixels.
	DefaultRowHeight = 28

	// defaultColumnWidth sizes the single column used when no header row can
	// be located (degraded mode).
	defaultColumnWidth = 240
)

// Engine owns all overlay state for one host list view: the mounted
// synthetic rows, the scroll compensator, the header synchronizer, the
// selection tracker, and the re-render scheduler. Engines are independent;
// one host window gets one Engine.
type Engine struct {
	log   zerolog.Logger
	host  HostView
	store CollectionStore
	nav   Navigator
	theme Theme

	pollInterval time.Duration
	settleDelay  time.Duration
	debounce     time.Duration
	minColWidth  int
	rowHeight    int

	frames    *frameScheduler
	comp      *Compensator
	selection *selectionTracker
	colSync   *headerSync

	// Render cycle state, guarded by renderMu.
	renderMu     sync.Mutex
	rows         []*FolderRow
	gridTemplate string
	header       Element
	body         Scrollable
	dropTarget   *FolderRow
	rowSizeObs   *SizeObserver
	rootSizeObs  *SizeObserver

	// Scheduler state, guarded by mu.
	mu             sync.Mutex
	lastKey        string
	pending        *time.Timer
	pendingFrame   *FrameHandle
	frameGen       uint64
	snapFrames     []FrameHandle
	renderInFlight bool
	poll           *time.Ticker
	pollDone       chan struct{}
	producerOffs   []func()
	started        bool
	stopped        bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default logger is disabled.
func WithLogger(log zerolog.Logger) Option { return func(e *Engine) { e.log = log } }

// WithTheme sets the selection color pairs.
func WithTheme(t Theme) Option { return func(e *Engine) { e.theme = t } }

// WithPollInterval sets the fallback poll interval.
func WithPollInterval(d time.Duration) Option { return func(e *Engine) { e.pollInterval = d } }

// WithSettleDelay sets how long to wait out the host's asynchronous
// navigation before re-rendering.
func WithSettleDelay(d time.Duration) Option { return func(e *Engine) { e.settleDelay = d } }

// WithDebounceDelay sets the trigger-coalescing delay.
func WithDebounceDelay(d time.Duration) Option { return func(e *Engine) { e.debounce = d } }

// WithMinColumnWidth sets the minimum grid track width.
func WithMinColumnWidth(w int) Option { return func(e *Engine) { e.minColWidth = w } }

// WithRowHeight sets the synthetic row height.
func WithRowHeight(h int) Option { return func(e *Engine) { e.rowHeight = h } }

// WithFrameSource overrides frame scheduling. Without this option the engine
// uses the host view's frame source if it publishes one, else a timer.
func WithFrameSource(s FrameSource) Option {
	return func(e *Engine) { e.frames = newFrameScheduler(s) }
}

// NewEngine creates an overlay engine for the given host view, hierarchy
// store and navigation collaborator. Call Start to attach the change
// detectors, and Shutdown before the host unloads.
func NewEngine(host HostView, store CollectionStore, nav Navigator, opts ...Option) *Engine {
	e := &Engine{
		log:          zerolog.Nop(),
		host:         host,
		store:        store,
		nav:          nav,
		theme:        DefaultTheme,
		pollInterval: DefaultPollInterval,
		settleDelay:  DefaultSettleDelay,
		debounce:     DefaultDebounceDelay,
		minColWidth:  DefaultMinColumnWidth,
		rowHeight:    DefaultRowHeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.frames == nil {
		source, _ := host.(FrameSource)
		e.frames = newFrameScheduler(source)
	}
	e.comp = newCompensator(e.log)
	e.colSync = &headerSync{}
	e.selection = newSelectionTracker(e.log, e.theme, func() NativeSelection {
		return host.NativeSelection()
	})
	return e
}

// Selection exposes the synthetic-row selection for hosts that need to
// inspect it (e.g. to suppress their own context menu).
func (e *Engine) Selection() *FolderRow { return e.selection.Current() }

// Rows returns the currently mounted synthetic rows in display order.
func (e *Engine) Rows() []*FolderRow {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()
	return e.rows
}

// Shutdown cancels all pending timers and frames, tears down the scroll
// compensator and every observer, removes the mounted rows, and detaches the
// change-detection producers. Safe to call repeatedly; a second call is a
// no-op that leaves identical state.
func (e *Engine) Shutdown() {
	defer e.boundary("shutdown")()

	e.mu.Lock()
	e.stopped = true
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	if e.pendingFrame != nil {
		e.frames.cancelFrame(*e.pendingFrame)
		e.pendingFrame = nil
	}
	for _, h := range e.snapFrames {
		e.frames.cancelFrame(h)
	}
	e.snapFrames = nil
	if e.poll != nil {
		e.poll.Stop()
		e.poll = nil
	}
	done := e.pollDone
	e.pollDone = nil
	offs := e.producerOffs
	e.producerOffs = nil
	e.renderInFlight = false
	e.mu.Unlock()

	if done != nil {
		close(done)
	}
	for _, off := range offs {
		off()
	}

	e.renderMu.Lock()
	defer e.renderMu.Unlock()
	e.teardownRows()
	e.comp.Teardown()
	e.selection.detachPanel()
	if e.rootSizeObs != nil {
		e.rootSizeObs.Disconnect()
		e.rootSizeObs = nil
	}
	e.header, e.body = nil, nil
}

// teardownRows unmounts the previous cycle's synthetic rows and detaches the
// observers that referenced them. Idempotent.
func (e *Engine) teardownRows() {
	e.colSync.detach()
	if e.rowSizeObs != nil {
		e.rowSizeObs.Disconnect()
		e.rowSizeObs = nil
	}
	if e.selection.Current() != nil {
		e.selection.forget()
	}
	for _, r := range e.rows {
		if p := r.Parent(); p != nil {
			p.RemoveChild(r)
		}
	}
	e.rows = nil
	e.dropTarget = nil
}

// boundary returns a deferred recover handler: no exception from this
// subsystem may propagate into the host application.
func (e *Engine) boundary(op string) func() {
	return func() {
		if r := recover(); r != nil {
			e.log.Error().Str("op", op).Interface("panic", r).Msg("recovered")
		}
	}
}

// step runs one orchestrator step, downgrading a panic to a logged warning
// so the rest of the cycle continues in degraded form.
func (e *Engine) step(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Str("step", name).Interface("panic", r).Msg("render step failed")
		}
	}()
	fn()
}

func (e *Engine) isStopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

func (e *Engine) lastRenderedKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastKey
}

func (e *Engine) setLastRenderedKey(k string) {
	e.mu.Lock()
	e.lastKey = k
	e.mu.Unlock()
}
