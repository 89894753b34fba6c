package explorer

import (
	"errors"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	t.Run("ChildrenSorted", func(t *testing.T) {
		store := NewMemoryStore()
		store.NewCollection("Zoology", "")
		store.NewCollection("Astronomy", "")
		store.NewCollection("Math", "")

		kids := store.LibraryRootChildren()
		if len(kids) != 3 {
			t.Fatalf("expected 3 top-level collections, got %d", len(kids))
		}
		if kids[0].Name != "Astronomy" || kids[1].Name != "Math" || kids[2].Name != "Zoology" {
			t.Errorf("expected name-sorted children, got %v %v %v",
				kids[0].Name, kids[1].Name, kids[2].Name)
		}
	})

	t.Run("SelectedCollection", func(t *testing.T) {
		store := NewMemoryStore()
		a := store.NewCollection("A", "")

		if got := store.SelectedCollection(); got != nil {
			t.Errorf("expected library root initially, got %v", got)
		}
		store.Select(a.ID)
		if got := store.SelectedCollection(); got == nil || got.ID != a.ID {
			t.Errorf("expected A selected")
		}
		store.SelectLibraryRoot()
		if got := store.SelectedCollection(); got != nil {
			t.Errorf("expected library root after reset, got %v", got)
		}
	})

	t.Run("Parent", func(t *testing.T) {
		store := NewMemoryStore()
		a := store.NewCollection("A", "")
		b := store.NewCollection("B", a.ID)

		if p, ok := store.Parent(b.ID); !ok || p != a.ID {
			t.Errorf("expected parent A, got %v ok=%v", p, ok)
		}
		if _, ok := store.Parent(a.ID); ok {
			t.Errorf("expected top-level collection to have no parent")
		}
	})

	t.Run("AddRemoveItems", func(t *testing.T) {
		store := NewMemoryStore()
		a := store.NewCollection("A", "")

		if err := store.AddItems(a.ID, []ItemID{"x", "y"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := store.Items(a.ID); len(got) != 2 {
			t.Errorf("expected 2 items, got %v", got)
		}
		if err := store.RemoveItems(a.ID, []ItemID{"x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := store.Items(a.ID); len(got) != 1 || got[0] != "y" {
			t.Errorf("expected [y], got %v", got)
		}

		err := store.AddItems("missing", []ItemID{"x"})
		if !errors.Is(err, ErrUnknownCollection) {
			t.Errorf("expected ErrUnknownCollection, got %v", err)
		}
	})

	t.Run("Reparent", func(t *testing.T) {
		store := NewMemoryStore()
		a := store.NewCollection("A", "")
		b := store.NewCollection("B", "")

		if err := store.Reparent(b.ID, a.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p, _ := store.Parent(b.ID); p != a.ID {
			t.Errorf("expected B under A, got %v", p)
		}
	})

	t.Run("ReparentRejectsCycle", func(t *testing.T) {
		store := NewMemoryStore()
		a := store.NewCollection("A", "")
		b := store.NewCollection("B", a.ID)
		c := store.NewCollection("C", b.ID)

		err := store.Reparent(a.ID, c.ID)
		if !errors.Is(err, ErrCycle) {
			t.Fatalf("expected ErrCycle, got %v", err)
		}
		if p, ok := store.Parent(a.ID); ok {
			t.Errorf("expected A untouched at top level, got parent %v", p)
		}
	})
}
