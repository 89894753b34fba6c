package explorer

import (
	"strconv"
	"sync"
	"time"
)

// HostView is the opaque host list view. The engine relies only on this
// contract plus whichever optional upgrades the concrete host implements
// (BodyRefHolder, SelectionNotifier, TreeEventSource, FrameSource).
type HostView interface {
	Root() Element
	NativeSelection() NativeSelection
}

// HostColumn describes one column of the reference host table.
type HostColumn struct {
	Label string
	Width int
}

// HostTable is a reference host list view: a virtualized item table with a
// header row, a scrollable body, native item rows, and its own selection
// model with asynchronous scroll restoration after navigation. The demo
// binary and the test suite run the engine against it; the engine itself
// never depends on the concrete type.
type HostTable struct {
	mu sync.Mutex

	root    *BaseElement
	header  *BaseElement
	bodyBox *ScrollBox
	body    Scrollable // field reference to the body; strategy B swaps this
	sel     *hostSelection

	rowHeight int

	selectionSubs []func()
	treeSubs      []func()
}

// NewHostTable builds a host table with the given columns and native row
// height.
func NewHostTable(columns []HostColumn, rowHeight int) *HostTable {
	ht := &HostTable{rowHeight: rowHeight}
	ht.root = NewElement("items-tree")
	ht.root.SetSize(800, 600)

	ht.header = NewElement("virtualized-table-header")
	for _, col := range columns {
		cell := NewElement("cell")
		cell.SetAttr("label", col.Label)
		cell.SetSize(col.Width, rowHeight)
		ht.header.AppendChild(cell)
	}
	ht.root.AppendChild(ht.header)

	ht.bodyBox = NewScrollBox("virtualized-table-body")
	ht.bodyBox.SetSize(800, 600-rowHeight)
	ht.root.AppendChild(ht.bodyBox)
	ht.body = ht.bodyBox

	ht.sel = &hostSelection{}
	return ht
}

// Root implements HostView.
func (ht *HostTable) Root() Element { return ht.root }

// NativeSelection implements HostView.
func (ht *HostTable) NativeSelection() NativeSelection { return ht.sel }

// Header returns the header row element.
func (ht *HostTable) Header() Element { return ht.header }

// Body returns the scrollable body through the table's own field reference,
// the same way the host's internal virtualization math reads it.
func (ht *HostTable) Body() Scrollable { return ht.bodyRef() }

// ScrollBody implements BodyRefHolder.
func (ht *HostTable) ScrollBody() Scrollable { return ht.bodyRef() }

// ReplaceScrollBody implements BodyRefHolder.
func (ht *HostTable) ReplaceScrollBody(with Scrollable) bool {
	if with == nil {
		return false
	}
	ht.mu.Lock()
	ht.body = with
	ht.mu.Unlock()
	return true
}

// bodyRef reads the body field under the lock; the engine's reference
// substitution swaps it from a frame goroutine.
func (ht *HostTable) bodyRef() Scrollable {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	return ht.body
}

// OnSelectionSet implements SelectionNotifier: fn runs after every
// SetSelectedCollection call, with the original behavior preserved.
func (ht *HostTable) OnSelectionSet(fn func()) func() {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	ht.selectionSubs = append(ht.selectionSubs, fn)
	idx := len(ht.selectionSubs) - 1
	return func() {
		ht.mu.Lock()
		ht.selectionSubs[idx] = nil
		ht.mu.Unlock()
	}
}

// OnTreeEvent implements TreeEventSource.
func (ht *HostTable) OnTreeEvent(fn func()) func() {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	ht.treeSubs = append(ht.treeSubs, fn)
	idx := len(ht.treeSubs) - 1
	return func() {
		ht.mu.Lock()
		ht.treeSubs[idx] = nil
		ht.mu.Unlock()
	}
}

// SetSelectedCollection is the host's selection mutator: it updates the
// store selection, fires the decorated-setter notifications and a native
// tree event, and kicks off the host's asynchronous scroll restoration.
func (ht *HostTable) SetSelectedCollection(store *MemoryStore, id CollectionID) {
	if id == "" {
		store.SelectLibraryRoot()
	} else {
		store.Select(id)
	}
	saved := ht.bodyRef().ScrollTop()
	ht.notify(ht.snapshotSubs(&ht.selectionSubs))
	ht.notify(ht.snapshotSubs(&ht.treeSubs))
	// The host restores the previous scroll position a beat after the
	// selection lands; this is the race the engine's two-frame snap defeats.
	time.AfterFunc(5*time.Millisecond, func() {
		ht.bodyRef().SetScrollTop(saved)
	})
}

func (ht *HostTable) snapshotSubs(subs *[]func()) []func() {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	out := make([]func(), len(*subs))
	copy(out, *subs)
	return out
}

func (ht *HostTable) notify(subs []func()) {
	for _, fn := range subs {
		if fn != nil {
			fn()
		}
	}
}

// SetItems replaces the native item rows, leaving any injected rows alone.
func (ht *HostTable) SetItems(labels []string) {
	body := ht.bodyRef()
	for _, c := range body.Children() {
		if _, synthetic := c.(*FolderRow); !synthetic && HasClass(c, "row") {
			body.RemoveChild(c)
		}
	}
	ht.sel.reset()
	for i, label := range labels {
		body.AppendChild(ht.buildNativeRow(i, label))
	}
}

func (ht *HostTable) buildNativeRow(index int, label string) Element {
	row := NewElement("row")
	row.SetAttr("label", label)
	row.SetAttr("index", strconv.Itoa(index))
	row.SetSize(0, ht.rowHeight)
	row.On(EventClick, func(*Event) {
		ht.sel.selectRow(row)
	})
	return row
}

// ResizeColumn sets a header cell's width, as a user dragging a column
// divider would.
func (ht *HostTable) ResizeColumn(i, width int) {
	cells := ht.header.Children()
	if i < 0 || i >= len(cells) {
		return
	}
	_, h := cells[i].Size()
	cells[i].SetSize(width, h)
}

// VisibleRange returns the native-row window the host's virtualization
// would materialize for the given viewport height. It reads the scroll
// coordinate through the host's own reference, so active compensation keeps
// it expressed in native-row space.
func (ht *HostTable) VisibleRange(viewportHeight int) (start, end int) {
	if ht.rowHeight <= 0 {
		return 0, 0
	}
	start = ht.bodyRef().ScrollTop() / ht.rowHeight
	rows := viewportHeight / ht.rowHeight
	return start, start + rows
}

// hostSelection is the host's native row-selection model. The engine clears
// it from whichever goroutine a synthetic selection happens on.
type hostSelection struct {
	mu         sync.Mutex
	rows       map[Element]bool
	clearCalls int
}

func (s *hostSelection) selectRow(row Element) {
	s.mu.Lock()
	if s.rows == nil {
		s.rows = make(map[Element]bool)
	}
	s.rows[row] = true
	s.mu.Unlock()
	row.SetAttr("selected", "true")
}

// Clear implements NativeSelection.
func (s *hostSelection) Clear() {
	s.mu.Lock()
	s.clearCalls++
	rows := s.rows
	s.rows = nil
	s.mu.Unlock()
	for row := range rows {
		row.SetAttr("selected", "")
	}
}

// IsEmpty implements NativeSelection.
func (s *hostSelection) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows) == 0
}

func (s *hostSelection) reset() {
	s.mu.Lock()
	s.rows = nil
	s.mu.Unlock()
}
