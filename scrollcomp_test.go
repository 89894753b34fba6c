package explorer

import (
	"testing"

	"github.com/rs/zerolog"
)

// tallScrollBox returns a scroll box with more content than viewport so
// scroll writes are not clamped away.
func tallScrollBox() *ScrollBox {
	box := NewScrollBox("body")
	box.SetSize(400, 100)
	for i := 0; i < 100; i++ {
		row := NewElement("row")
		row.SetSize(0, 20)
		box.AppendChild(row)
	}
	return box
}

func TestCompensatorAccessorStrategy(t *testing.T) {
	t.Run("MasksOffset", func(t *testing.T) {
		box := tallScrollBox()
		c := newCompensator(zerolog.Nop())
		c.Ensure(box, nil)
		if !c.Active() {
			t.Fatalf("expected accessor strategy to activate")
		}

		c.SetOffset(84)
		if got := box.ScrollTop(); got != 0 {
			t.Errorf("expected logical position to stay 0 after offset, got %d", got)
		}
		if got := c.ReadTrue(); got != 84 {
			t.Errorf("expected true position 84, got %d", got)
		}

		box.SetScrollTop(10)
		if got := box.ScrollTop(); got != 10 {
			t.Errorf("expected logical 10 after logical write, got %d", got)
		}
		if got := c.ReadTrue(); got != 94 {
			t.Errorf("expected true 94, got %d", got)
		}
	})

	t.Run("OffsetChangeKeepsLogicalPosition", func(t *testing.T) {
		box := tallScrollBox()
		c := newCompensator(zerolog.Nop())
		c.Ensure(box, nil)
		c.SetOffset(84)
		box.SetScrollTop(50)

		c.SetOffset(28)
		if got := box.ScrollTop(); got != 50 {
			t.Errorf("expected logical 50 after shrinking offset, got %d", got)
		}
		c.SetOffset(120)
		if got := box.ScrollTop(); got != 50 {
			t.Errorf("expected logical 50 after growing offset, got %d", got)
		}
	})

	t.Run("EnsureIdempotent", func(t *testing.T) {
		box := tallScrollBox()
		c := newCompensator(zerolog.Nop())
		c.Ensure(box, nil)
		c.SetOffset(84)
		c.Ensure(box, nil)

		if got := c.Offset(); got != 84 {
			t.Errorf("expected offset preserved across re-ensure, got %d", got)
		}
		// A single level of wrapping only: logical reads are still consistent.
		if got := box.ScrollTop(); got != 0 {
			t.Errorf("expected logical 0, got %d", got)
		}
	})

	t.Run("TeardownRestores", func(t *testing.T) {
		box := tallScrollBox()
		c := newCompensator(zerolog.Nop())
		c.Ensure(box, nil)
		c.SetOffset(84)
		c.Teardown()
		c.Teardown() // repeat is safe

		if c.Active() {
			t.Errorf("expected compensation inactive after teardown")
		}
		if got := c.Offset(); got != 0 {
			t.Errorf("expected offset reset, got %d", got)
		}
		box.SetScrollTop(30)
		if got := box.ScrollTop(); got != 30 {
			t.Errorf("expected raw accessor behavior restored, got %d", got)
		}
	})
}

func TestCompensatorReferenceStrategy(t *testing.T) {
	newSealedHost := func() *HostTable {
		ht := NewHostTable([]HostColumn{{Label: "Title", Width: 200}}, 20)
		labels := make([]string, 100)
		for i := range labels {
			labels[i] = "item"
		}
		ht.SetItems(labels)
		ht.bodyBox.Seal()
		return ht
	}

	t.Run("FallsBackWhenSealed", func(t *testing.T) {
		ht := newSealedHost()
		c := newCompensator(zerolog.Nop())
		c.Ensure(ht.bodyBox, ht)
		if !c.Active() {
			t.Fatalf("expected reference strategy to activate")
		}

		c.SetOffset(84)
		// Reads through the host's own reference see the logical coordinate.
		if got := ht.Body().ScrollTop(); got != 0 {
			t.Errorf("expected logical 0 through host reference, got %d", got)
		}
		// Direct reads of the element itself stay unmasked.
		if got := ht.bodyBox.ScrollTop(); got != 84 {
			t.Errorf("expected true 84 on the element, got %d", got)
		}

		ht.Body().SetScrollTop(10)
		if got := ht.bodyBox.ScrollTop(); got != 94 {
			t.Errorf("expected true 94 after logical write, got %d", got)
		}
	})

	t.Run("TeardownSwapsReferenceBack", func(t *testing.T) {
		ht := newSealedHost()
		c := newCompensator(zerolog.Nop())
		c.Ensure(ht.bodyBox, ht)
		c.Teardown()

		if ht.Body() != Scrollable(ht.bodyBox) {
			t.Errorf("expected original body reference restored")
		}
	})

	t.Run("NeitherStrategyDegrades", func(t *testing.T) {
		box := tallScrollBox()
		box.Seal()
		c := newCompensator(zerolog.Nop())
		c.Ensure(box, nil)

		if c.Active() {
			t.Errorf("expected no strategy without swap or body reference")
		}
		// Best effort continues: true writes go straight to the element.
		c.WriteTrue(40)
		if got := box.ScrollTop(); got != 40 {
			t.Errorf("expected direct write 40, got %d", got)
		}
	})
}
