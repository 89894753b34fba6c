package explorer

import (
	"sync"

	"github.com/rs/zerolog"
)

// NativeSelection is the host's own row-selection object. The engine only
// ever clears it; synthetic-row selection and native selection are mutually
// exclusive.
type NativeSelection interface {
	Clear()
	IsEmpty() bool
}

// selectionTracker is the synthetic-row selection state machine. At most one
// row is selected. Visual feedback depends on whether the surrounding panel
// currently holds input focus.
//
// Render cycles run on timer goroutines while host events arrive on the
// caller's, so the state fields sit behind a mutex. The lock is released
// before any restyle or focus move; FocusElement dispatches focus events
// whose listeners re-enter the tracker.
type selectionTracker struct {
	log    zerolog.Logger
	theme  Theme
	native func() NativeSelection

	mu           sync.Mutex
	current      *FolderRow
	panelFocused bool
	panel        Element
	unsubs       []func()
}

func newSelectionTracker(log zerolog.Logger, theme Theme, native func() NativeSelection) *selectionTracker {
	return &selectionTracker{log: log, theme: theme, native: native}
}

// Select marks row as the selected synthetic row, restoring the previous
// row's visual state, moving input focus, and clearing the host's native
// selection. Select(nil) is equivalent to Clear.
func (t *selectionTracker) Select(row *FolderRow) {
	t.mu.Lock()
	if t.current == row {
		t.mu.Unlock()
		return
	}
	prev := t.current
	t.current = row
	focused := t.panelFocused
	t.mu.Unlock()

	if prev != nil {
		prev.applySelection(false, focused, t.theme)
	}
	if row == nil {
		return
	}
	row.applySelection(true, focused, t.theme)
	FocusElement(row)
	if ns := t.native(); ns != nil {
		ns.Clear()
	}
}

// Clear deselects the current row, if any.
func (t *selectionTracker) Clear() { t.Select(nil) }

// Current returns the selected row, or nil.
func (t *selectionTracker) Current() *FolderRow {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// forget drops the selection without restyling, used when the selected row
// is about to be unmounted.
func (t *selectionTracker) forget() {
	t.mu.Lock()
	t.current = nil
	t.mu.Unlock()
}

func (t *selectionTracker) setPanelFocused(focused bool) {
	t.mu.Lock()
	if t.panelFocused == focused {
		t.mu.Unlock()
		return
	}
	t.panelFocused = focused
	row := t.current
	t.mu.Unlock()
	if row != nil {
		row.applySelection(true, focused, t.theme)
	}
}

// attachPanel wires the focus-in/focus-out and mousedown listeners that
// drive highlight strength and mutual exclusivity with native rows. Events
// bubble up from the injected rows' container, so one set of listeners on
// the panel covers every row.
func (t *selectionTracker) attachPanel(panel Element) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.panel == panel {
		return
	}
	t.detachLocked()
	t.panel = panel

	t.unsubs = append(t.unsubs,
		panel.On(EventFocusIn, func(ev *Event) {
			t.setPanelFocused(true)
			if folderRowOf(ev.Target) == nil {
				// Focus moved to a native row or elsewhere in the panel.
				t.Clear()
			}
		}),
		panel.On(EventFocusOut, func(ev *Event) {
			if f := FocusedElement(panel); f == nil || !within(panel, f) {
				t.setPanelFocused(false)
			}
		}),
		panel.On(EventMouseDown, func(ev *Event) {
			if folderRowOf(ev.Target) == nil {
				t.Clear()
			}
		}),
	)
}

// detachPanel removes the panel listeners. Safe to call repeatedly.
func (t *selectionTracker) detachPanel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detachLocked()
}

func (t *selectionTracker) detachLocked() {
	for _, off := range t.unsubs {
		off()
	}
	t.unsubs = nil
	t.panel = nil
}

// folderRowOf returns the synthetic row containing el, or nil.
func folderRowOf(el Element) *FolderRow {
	for ; el != nil; el = el.Parent() {
		if r, ok := el.(*FolderRow); ok {
			return r
		}
	}
	return nil
}

// within reports whether el is root or one of its descendants.
func within(root, el Element) bool {
	return el == root || IsAncestorOf(root, el)
}
