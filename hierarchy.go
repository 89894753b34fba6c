package explorer

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// CollectionID identifies a collection in the hierarchy store.
type CollectionID string

// ItemID identifies a library item.
type ItemID string

// Collection is a node in the hierarchical organization structure. The
// engine never mutates collections directly; all changes go through the
// store.
type Collection struct {
	ID       CollectionID
	Name     string
	ParentID CollectionID // empty for top-level collections
}

// CollectionStore is the external hierarchy collaborator. The engine reads
// the current selection and child sets from it and delegates drag-and-drop
// mutations to it.
type CollectionStore interface {
	// SelectedCollection returns the collection the host currently displays,
	// or nil when a non-collection context (e.g. the library root) is shown.
	SelectedCollection() *Collection

	// Children returns the direct child collections of id, in display order.
	Children(id CollectionID) []*Collection

	// LibraryRootChildren returns the top-level collections shown when the
	// library root itself is selected.
	LibraryRootChildren() []*Collection

	// Parent returns the parent of id, or false for top-level collections.
	Parent(id CollectionID) (CollectionID, bool)

	// AddItems adds items to the target collection.
	AddItems(target CollectionID, items []ItemID) error

	// RemoveItems removes items from the source collection, as one bulk
	// operation where supported.
	RemoveItems(source CollectionID, items []ItemID) error

	// Reparent moves collection c under newParent.
	Reparent(c CollectionID, newParent CollectionID) error
}

// Navigator is the external navigation collaborator. NavigateToCollection is
// asynchronous under the hood; completion is approximated by the engine's
// settle delay rather than awaited.
type Navigator interface {
	NavigateToCollection(id CollectionID)
	PushToHistory(id CollectionID)
	UpdateNavStrip(selected *Collection)
}

// ErrCycle is returned when a reparent would make a collection a descendant
// of itself.
var ErrCycle = errors.New("explorer: reparent would create a cycle")

// ErrUnknownCollection is returned for operations on IDs the store has no
// record of.
var ErrUnknownCollection = errors.New("explorer: unknown collection")

// MemoryStore is an in-memory CollectionStore used by the demo binary and
// the test suite. It is safe for concurrent use.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[CollectionID]*Collection
	members     map[CollectionID]map[ItemID]bool
	selected    CollectionID
	libraryRoot bool
}

// NewMemoryStore creates an empty store positioned at the library root.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[CollectionID]*Collection),
		members:     make(map[CollectionID]map[ItemID]bool),
		libraryRoot: true,
	}
}

// NewCollection creates a collection under parent (empty for top level) and
// returns it.
func (s *MemoryStore) NewCollection(name string, parent CollectionID) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Collection{
		ID:       CollectionID(uuid.NewString()),
		Name:     name,
		ParentID: parent,
	}
	s.collections[c.ID] = c
	s.members[c.ID] = make(map[ItemID]bool)
	return c
}

// Select makes id the current collection.
func (s *MemoryStore) Select(id CollectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
	s.libraryRoot = false
}

// SelectLibraryRoot switches the store to the library-root context.
func (s *MemoryStore) SelectLibraryRoot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
	s.libraryRoot = true
}

// SelectedCollection implements CollectionStore.
func (s *MemoryStore) SelectedCollection() *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return nil
	}
	return s.collections[s.selected]
}

// Children implements CollectionStore. Results are name-sorted.
func (s *MemoryStore) Children(id CollectionID) []*Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.childrenLocked(id)
}

// LibraryRootChildren implements CollectionStore.
func (s *MemoryStore) LibraryRootChildren() []*Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.childrenLocked("")
}

func (s *MemoryStore) childrenLocked(parent CollectionID) []*Collection {
	var out []*Collection
	for _, c := range s.collections {
		if c.ParentID == parent {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Parent implements CollectionStore.
func (s *MemoryStore) Parent(id CollectionID) (CollectionID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[id]
	if !ok || c.ParentID == "" {
		return "", false
	}
	return c.ParentID, true
}

// AddItems implements CollectionStore.
func (s *MemoryStore) AddItems(target CollectionID, items []ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[target]
	if !ok {
		return fmt.Errorf("add items to %q: %w", target, ErrUnknownCollection)
	}
	for _, it := range items {
		m[it] = true
	}
	return nil
}

// RemoveItems implements CollectionStore.
func (s *MemoryStore) RemoveItems(source CollectionID, items []ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[source]
	if !ok {
		return fmt.Errorf("remove items from %q: %w", source, ErrUnknownCollection)
	}
	for _, it := range items {
		delete(m, it)
	}
	return nil
}

// Reparent implements CollectionStore.
func (s *MemoryStore) Reparent(c CollectionID, newParent CollectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[c]
	if !ok {
		return fmt.Errorf("reparent %q: %w", c, ErrUnknownCollection)
	}
	if newParent != "" {
		if _, ok := s.collections[newParent]; !ok {
			return fmt.Errorf("reparent under %q: %w", newParent, ErrUnknownCollection)
		}
		// Walk the ancestor chain to refuse cycles at the store boundary too.
		for p := newParent; p != ""; {
			if p == c {
				return ErrCycle
			}
			pc, ok := s.collections[p]
			if !ok {
				break
			}
			p = pc.ParentID
		}
	}
	col.ParentID = newParent
	return nil
}

// Collection returns the collection with the given ID, or nil.
func (s *MemoryStore) Collection(id CollectionID) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collections[id]
}

// Items returns the member items of a collection, unordered.
func (s *MemoryStore) Items(id CollectionID) []ItemID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ItemID
	for it := range s.members[id] {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
