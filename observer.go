package explorer

import "sync"

// MutationType identifies the kind of tree change a record describes.
type MutationType uint8

const (
	MutationAttributes MutationType = iota
	MutationChildList
)

// MutationRecord describes one tree mutation.
type MutationRecord struct {
	Type   MutationType
	Target Element
	Attr   string // attribute name for MutationAttributes
}

// MutationOptions selects which mutations an observer receives.
type MutationOptions struct {
	Attributes bool
	ChildList  bool
	Subtree    bool
}

// MutationObserver watches an element (and optionally its subtree) for
// attribute and child-list changes. Delivery is synchronous and push-driven.
// Observe and Disconnect may be called concurrently with deliveries.
type MutationObserver struct {
	mu      sync.Mutex
	fn      func(MutationRecord)
	target  Element
	opts    MutationOptions
	stopped bool
}

// NewMutationObserver creates an observer invoking fn for each mutation.
func NewMutationObserver(fn func(MutationRecord)) *MutationObserver {
	return &MutationObserver{fn: fn}
}

// Observe attaches the observer to el. An observer watches one element at a
// time; observing a new element detaches from the previous one.
func (o *MutationObserver) Observe(el Element, opts MutationOptions) {
	o.Disconnect()
	o.mu.Lock()
	o.target = el
	o.opts = opts
	o.stopped = false
	o.mu.Unlock()
	el.base().addMutationObserver(o)
}

// Disconnect detaches the observer. Safe to call repeatedly.
func (o *MutationObserver) Disconnect() {
	o.mu.Lock()
	o.stopped = true
	target := o.target
	o.target = nil
	o.mu.Unlock()
	if target != nil {
		target.base().removeMutationObserver(o)
	}
}

// maybeDeliver is called from the mutation walk with the element the
// observer is registered on and the record itself.
func (o *MutationObserver) maybeDeliver(registeredOn Element, rec MutationRecord) {
	o.mu.Lock()
	stopped, opts := o.stopped, o.opts
	o.mu.Unlock()
	if stopped {
		return
	}
	if rec.Target != registeredOn && !opts.Subtree {
		return
	}
	switch rec.Type {
	case MutationAttributes:
		if !opts.Attributes {
			return
		}
	case MutationChildList:
		if !opts.ChildList {
			return
		}
	}
	o.fn(rec)
}

// SizeObserver watches one or more elements for rendered-size changes.
// Observe and Disconnect may be called concurrently with deliveries.
type SizeObserver struct {
	mu      sync.Mutex
	fn      func(Element)
	targets []Element
	stopped bool
}

// NewSizeObserver creates an observer invoking fn when an observed element's
// size changes.
func NewSizeObserver(fn func(Element)) *SizeObserver {
	return &SizeObserver{fn: fn}
}

// Observe adds el to the observed set.
func (o *SizeObserver) Observe(el Element) {
	o.mu.Lock()
	o.stopped = false
	o.targets = append(o.targets, el)
	o.mu.Unlock()
	el.base().addSizeObserver(o)
}

// Disconnect detaches the observer from all elements. Safe to call repeatedly.
func (o *SizeObserver) Disconnect() {
	o.mu.Lock()
	o.stopped = true
	targets := o.targets
	o.targets = nil
	o.mu.Unlock()
	for _, el := range targets {
		el.base().removeSizeObserver(o)
	}
}

func (o *SizeObserver) notify(el Element) {
	o.mu.Lock()
	stopped := o.stopped
	o.mu.Unlock()
	if !stopped {
		o.fn(el)
	}
}
