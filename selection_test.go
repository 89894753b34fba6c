package explorer

import (
	"testing"

	"github.com/rs/zerolog"
)

type fakeNative struct {
	clears int
	rows   int
}

func (f *fakeNative) Clear()        { f.clears++; f.rows = 0 }
func (f *fakeNative) IsEmpty() bool { return f.rows == 0 }

func newTestRow(name string) *FolderRow {
	r := &FolderRow{collection: &Collection{ID: CollectionID(name), Name: name}}
	r.initSelf(r)
	r.SetAttr("class", "folder-row")
	r.SetSize(0, 28)
	return r
}

func TestSelectionTracker(t *testing.T) {
	setup := func() (*selectionTracker, *fakeNative, Element, *FolderRow, *FolderRow) {
		native := &fakeNative{}
		tracker := newSelectionTracker(zerolog.Nop(), DefaultTheme, func() NativeSelection {
			return native
		})

		root := NewElement("items-tree")
		panel := NewElement("panel")
		root.AppendChild(panel)
		r1 := newTestRow("one")
		r2 := newTestRow("two")
		panel.AppendChild(r1)
		panel.AppendChild(r2)
		tracker.attachPanel(panel)
		return tracker, native, panel, r1, r2
	}

	t.Run("SelectClearsNative", func(t *testing.T) {
		tracker, native, _, r1, _ := setup()
		native.rows = 2

		tracker.Select(r1)

		if tracker.Current() != r1 {
			t.Errorf("expected r1 selected")
		}
		if !r1.Selected() {
			t.Errorf("expected r1 marked selected")
		}
		if native.clears != 1 {
			t.Errorf("expected native selection cleared once, got %d", native.clears)
		}
		if FocusedElement(r1) != Element(r1) {
			t.Errorf("expected focus moved to r1")
		}
	})

	t.Run("SingleSelection", func(t *testing.T) {
		tracker, _, _, r1, r2 := setup()
		tracker.Select(r1)
		tracker.Select(r2)

		if r1.Selected() {
			t.Errorf("expected r1 deselected after selecting r2")
		}
		if tracker.Current() != r2 {
			t.Errorf("expected r2 selected")
		}
	})

	t.Run("ActiveHighlightWhilePanelFocused", func(t *testing.T) {
		tracker, _, _, r1, _ := setup()
		tracker.Select(r1)

		// Focus landed inside the panel, so the strong pair applies.
		if got := r1.Attr("bg"); got != string(DefaultTheme.SelectedActiveBG) {
			t.Errorf("expected active background %q, got %q", DefaultTheme.SelectedActiveBG, got)
		}
	})

	t.Run("DimsWhenFocusLeavesPanel", func(t *testing.T) {
		tracker, _, panel, r1, _ := setup()
		tracker.Select(r1)

		outside := NewElement("toolbar")
		Root(panel).AppendChild(outside)
		FocusElement(outside)

		if got := r1.Attr("bg"); got != string(DefaultTheme.SelectedInactiveBG) {
			t.Errorf("expected inactive background %q, got %q", DefaultTheme.SelectedInactiveBG, got)
		}
		if tracker.Current() != r1 {
			t.Errorf("expected selection retained while unfocused")
		}
	})

	t.Run("FocusOnNativeRowClearsSynthetic", func(t *testing.T) {
		tracker, _, panel, r1, _ := setup()
		tracker.Select(r1)

		nativeRow := NewElement("row")
		panel.AppendChild(nativeRow)
		FocusElement(nativeRow)

		if tracker.Current() != nil {
			t.Errorf("expected synthetic selection cleared when a native row took focus")
		}
		if r1.Selected() {
			t.Errorf("expected r1 restyled unselected")
		}
	})

	t.Run("MouseDownOutsideClears", func(t *testing.T) {
		tracker, _, panel, r1, _ := setup()
		tracker.Select(r1)

		nativeRow := NewElement("row")
		panel.AppendChild(nativeRow)
		DispatchEvent(nativeRow, &Event{Type: EventMouseDown})

		if tracker.Current() != nil {
			t.Errorf("expected selection cleared by mousedown outside synthetic rows")
		}
	})

	t.Run("DetachPanel", func(t *testing.T) {
		tracker, _, panel, r1, _ := setup()
		tracker.Select(r1)
		tracker.detachPanel()
		tracker.detachPanel() // repeat is safe

		nativeRow := NewElement("row")
		panel.AppendChild(nativeRow)
		DispatchEvent(nativeRow, &Event{Type: EventMouseDown})

		if tracker.Current() != r1 {
			t.Errorf("expected listeners gone after detach")
		}
	})
}
