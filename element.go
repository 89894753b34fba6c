// Package explorer injects synthetic collection rows above the native rows
// of a host-owned virtualized item table, so navigating a collection
// hierarchy feels like browsing folders. The host view is treated as an
// opaque element tree; the engine only relies on the contracts in this file.
package explorer

import (
	"strings"
	"sync"
)

// Element is the retained-tree contract the engine operates on. Concrete
// elements embed BaseElement, which provides the full implementation.
type Element interface {
	// Hierarchy
	Parent() Element
	SetParent(Element)
	Children() []Element
	AppendChild(child Element)
	InsertBefore(child, before Element)
	RemoveChild(child Element)

	// Attributes (class markers, roles, style hints)
	Attr(name string) string
	SetAttr(name, value string)

	// Pixel geometry
	Size() (width, height int)
	SetSize(width, height int)

	// Event listeners. The returned function removes the listener.
	On(t EventType, fn func(*Event)) func()

	base() *BaseElement
}

// Scrollable is an element with a vertical scroll coordinate.
type Scrollable interface {
	Element
	ScrollTop() int
	SetScrollTop(v int)
	ScrollHeight() int
}

// EventType identifies a class of element events.
type EventType uint8

const (
	EventMouseDown EventType = iota
	EventClick
	EventDoubleClick
	EventKeyDown
	EventFocusIn
	EventFocusOut
	EventDragOver
	EventDrop
)

// Key names for keyboard events.
const (
	KeyEnter     = "Enter"
	KeySpace     = " "
	KeyArrowUp   = "ArrowUp"
	KeyArrowDown = "ArrowDown"
)

// Event carries a single dispatched event. Events bubble from the target up
// through its ancestors until stopped.
type Event struct {
	Type   EventType
	Target Element
	Key    string       // for EventKeyDown
	Drag   *DragPayload // for EventDragOver/EventDrop

	stopped bool
}

// StopPropagation prevents the event from bubbling further.
func (e *Event) StopPropagation() { e.stopped = true }

// DispatchEvent delivers ev to target and bubbles it through the ancestor
// chain until stopped or the root is reached.
func DispatchEvent(target Element, ev *Event) {
	ev.Target = target
	for el := target; el != nil && !ev.stopped; el = el.Parent() {
		el.base().handleEvent(ev)
	}
}

// BaseElement is the canonical Element implementation. Embed it in concrete
// element types and call initSelf with the outer value.
//
// Elements are shared between the host application and the engine's timer
// and frame callbacks, so every accessor synchronizes on the element's own
// mutex. The mutex is never held while listeners or observers run.
type BaseElement struct {
	mu sync.Mutex

	self     Element
	parent   Element
	children []Element
	attrs    map[string]string

	width, height int

	listeners map[EventType][]func(*Event)
	sizeObs   []*SizeObserver
	mutObs    []*MutationObserver

	// Set on the tree root only: the element currently holding input focus.
	treeFocus Element
}

// NewElement creates a plain element with the given class attribute.
func NewElement(class string) *BaseElement {
	b := &BaseElement{}
	b.initSelf(b)
	if class != "" {
		b.SetAttr("class", class)
	}
	return b
}

// initSelf records the outer element value so parent links and event targets
// refer to the concrete type rather than the embedded BaseElement. Call it
// before the element is shared.
func (b *BaseElement) initSelf(self Element) {
	b.self = self
}

func (b *BaseElement) base() *BaseElement { return b }

// Parent returns the parent element.
func (b *BaseElement) Parent() Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parent
}

// SetParent sets the parent element.
func (b *BaseElement) SetParent(p Element) {
	b.mu.Lock()
	b.parent = p
	b.mu.Unlock()
}

// Children returns a snapshot of the child elements in document order.
func (b *BaseElement) Children() []Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Element(nil), b.children...)
}

// AppendChild adds child as the last child.
func (b *BaseElement) AppendChild(child Element) {
	child.SetParent(b.self)
	b.mu.Lock()
	b.children = append(b.children, child)
	b.mu.Unlock()
	b.notifyMutation(MutationRecord{Type: MutationChildList, Target: b.self})
}

// InsertBefore inserts child immediately before the reference element.
// A nil or unknown reference appends.
func (b *BaseElement) InsertBefore(child, before Element) {
	if before == nil {
		b.AppendChild(child)
		return
	}
	child.SetParent(b.self)
	b.mu.Lock()
	inserted := false
	for i, c := range b.children {
		if c == before {
			b.children = append(b.children[:i], append([]Element{child}, b.children[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		b.children = append(b.children, child)
	}
	b.mu.Unlock()
	b.notifyMutation(MutationRecord{Type: MutationChildList, Target: b.self})
}

// RemoveChild detaches child. Removing a non-child is a no-op.
func (b *BaseElement) RemoveChild(child Element) {
	b.mu.Lock()
	found := false
	for i, c := range b.children {
		if c == child {
			b.children = append(b.children[:i], b.children[i+1:]...)
			found = true
			break
		}
	}
	b.mu.Unlock()
	if !found {
		return
	}
	child.SetParent(nil)
	b.notifyMutation(MutationRecord{Type: MutationChildList, Target: b.self})
}

// Attr returns the named attribute, or "" if unset.
func (b *BaseElement) Attr(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attrs[name]
}

// SetAttr sets an attribute and notifies mutation observers.
func (b *BaseElement) SetAttr(name, value string) {
	b.mu.Lock()
	if b.attrs == nil {
		b.attrs = make(map[string]string)
	}
	if b.attrs[name] == value {
		b.mu.Unlock()
		return
	}
	b.attrs[name] = value
	b.mu.Unlock()
	b.notifyMutation(MutationRecord{Type: MutationAttributes, Target: b.self, Attr: name})
}

// Size returns the element's rendered size in pixels.
func (b *BaseElement) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// SetSize sets the rendered size and notifies size observers on change.
func (b *BaseElement) SetSize(w, h int) {
	b.mu.Lock()
	if b.width == w && b.height == h {
		b.mu.Unlock()
		return
	}
	b.width, b.height = w, h
	obs := append([]*SizeObserver(nil), b.sizeObs...)
	self := b.self
	b.mu.Unlock()
	for _, o := range obs {
		if o != nil {
			o.notify(self)
		}
	}
}

// On registers an event listener. The returned function removes it.
func (b *BaseElement) On(t EventType, fn func(*Event)) func() {
	b.mu.Lock()
	if b.listeners == nil {
		b.listeners = make(map[EventType][]func(*Event))
	}
	b.listeners[t] = append(b.listeners[t], fn)
	idx := len(b.listeners[t]) - 1
	b.mu.Unlock()
	return func() {
		// Zero out to allow GC, don't reorder.
		b.mu.Lock()
		b.listeners[t][idx] = nil
		b.mu.Unlock()
	}
}

func (b *BaseElement) handleEvent(ev *Event) {
	b.mu.Lock()
	fns := make([]func(*Event), len(b.listeners[ev.Type]))
	copy(fns, b.listeners[ev.Type])
	b.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(ev)
		}
		if ev.stopped {
			return
		}
	}
}

// notifyMutation walks the ancestor chain delivering the record to every
// observer that either targets the mutated element or watches its subtree.
func (b *BaseElement) notifyMutation(rec MutationRecord) {
	for el := b.self; el != nil; {
		base := el.base()
		base.mu.Lock()
		obs := append([]*MutationObserver(nil), base.mutObs...)
		parent := base.parent
		base.mu.Unlock()
		for _, o := range obs {
			if o != nil {
				o.maybeDeliver(el, rec)
			}
		}
		el = parent
	}
}

func (b *BaseElement) addSizeObserver(o *SizeObserver) {
	b.mu.Lock()
	b.sizeObs = append(b.sizeObs, o)
	b.mu.Unlock()
}

func (b *BaseElement) removeSizeObserver(o *SizeObserver) {
	b.mu.Lock()
	for i, obs := range b.sizeObs {
		if obs == o {
			b.sizeObs[i] = nil
		}
	}
	b.mu.Unlock()
}

func (b *BaseElement) addMutationObserver(o *MutationObserver) {
	b.mu.Lock()
	b.mutObs = append(b.mutObs, o)
	b.mu.Unlock()
}

func (b *BaseElement) removeMutationObserver(o *MutationObserver) {
	b.mu.Lock()
	for i, obs := range b.mutObs {
		if obs == o {
			b.mutObs[i] = nil
		}
	}
	b.mu.Unlock()
}

// Root returns the topmost ancestor of el (el itself if detached).
func Root(el Element) Element {
	for {
		p := el.Parent()
		if p == nil {
			return el
		}
		el = p
	}
}

// FocusElement moves input focus to el, dispatching EventFocusOut from the
// previously focused element and EventFocusIn from el. Focus is tracked on
// the tree root.
func FocusElement(el Element) {
	root := Root(el).base()
	root.mu.Lock()
	prev := root.treeFocus
	if prev == el {
		root.mu.Unlock()
		return
	}
	root.treeFocus = el
	root.mu.Unlock()
	if prev != nil {
		DispatchEvent(prev, &Event{Type: EventFocusOut})
	}
	DispatchEvent(el, &Event{Type: EventFocusIn})
}

// FocusedElement returns the element holding focus in el's tree, or nil.
func FocusedElement(el Element) Element {
	root := Root(el).base()
	root.mu.Lock()
	defer root.mu.Unlock()
	return root.treeFocus
}

// HasClass reports whether the element's class attribute contains name as a
// whitespace-separated token.
func HasClass(el Element, name string) bool {
	for _, c := range strings.Fields(el.Attr("class")) {
		if c == name {
			return true
		}
	}
	return false
}

// IsAncestorOf reports whether el appears in the parent chain of other.
func IsAncestorOf(el, other Element) bool {
	for p := other.Parent(); p != nil; p = p.Parent() {
		if p == el {
			return true
		}
	}
	return false
}

// ScrollBox is a scrollable container element. Its scroll coordinate is read
// and written through an accessor pair that the compensator may swap out,
// mirroring a property-descriptor redefinition. The scroll state shares the
// element's mutex.
type ScrollBox struct {
	BaseElement

	scrollTop int
	getFn     func() int
	setFn     func(int)
	sealed    bool
}

// NewScrollBox creates a scrollable container with the given class.
func NewScrollBox(class string) *ScrollBox {
	s := &ScrollBox{}
	s.initSelf(s)
	if class != "" {
		s.SetAttr("class", class)
	}
	s.SetAttr("overflow", "auto")
	return s
}

// ScrollTop returns the scroll coordinate through the active accessor.
func (s *ScrollBox) ScrollTop() int {
	s.mu.Lock()
	get := s.getFn
	s.mu.Unlock()
	if get != nil {
		return get()
	}
	return s.rawScrollTop()
}

// SetScrollTop writes the scroll coordinate through the active accessor.
func (s *ScrollBox) SetScrollTop(v int) {
	s.mu.Lock()
	set := s.setFn
	s.mu.Unlock()
	if set != nil {
		set(v)
		return
	}
	s.setRawScrollTop(v)
}

// ScrollHeight returns the total content height.
func (s *ScrollBox) ScrollHeight() int {
	total := 0
	for _, c := range s.Children() {
		_, h := c.Size()
		total += h
	}
	return total
}

func (s *ScrollBox) rawScrollTop() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrollTop
}

func (s *ScrollBox) setRawScrollTop(v int) {
	_, h := s.Size()
	max := s.ScrollHeight() - h
	if max < 0 {
		max = 0
	}
	if v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	s.mu.Lock()
	s.scrollTop = v
	s.mu.Unlock()
}

// Seal forbids accessor swapping, emulating a platform that refuses property
// redefinition. Used to force the compensator onto its fallback strategy.
func (s *ScrollBox) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

// SwapScrollAccessors replaces the scroll accessor pair and returns the
// originals so they can be restored. ok is false if the element is sealed.
func (s *ScrollBox) SwapScrollAccessors(get func() int, set func(int)) (origGet func() int, origSet func(int), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return nil, nil, false
	}
	origGet, origSet = s.getFn, s.setFn
	if origGet == nil {
		origGet = s.rawScrollTop
	}
	if origSet == nil {
		origSet = s.setRawScrollTop
	}
	s.getFn, s.setFn = get, set
	return origGet, origSet, true
}

// ScrollAccessorSwapper is implemented by scrollable elements whose accessor
// pair can be replaced in place. This is the compensator's first strategy.
type ScrollAccessorSwapper interface {
	SwapScrollAccessors(get func() int, set func(int)) (origGet func() int, origSet func(int), ok bool)
}
