package explorer

import "testing"

func TestColumnTemplates(t *testing.T) {
	header := func(widths ...int) Element {
		h := NewElement("virtualized-table-header")
		for _, w := range widths {
			cell := NewElement("cell")
			cell.SetSize(w, 20)
			h.AppendChild(cell)
		}
		return h
	}

	t.Run("ComputeFromHeader", func(t *testing.T) {
		cases := []struct {
			name   string
			widths []int
			min    int
			want   string
		}{
			{"typical", []int{200, 100, 80}, 24, "200px 100px 80px"},
			{"floored", []int{200, 10, 0}, 24, "200px 24px 24px"},
			{"single", []int{320}, 24, "320px"},
			{"empty", nil, 24, ""},
		}
		for _, tc := range cases {
			if got := computeTemplateFromHeader(header(tc.widths...), tc.min); got != tc.want {
				t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
			}
		}
	})

	t.Run("Parse", func(t *testing.T) {
		got := parseTemplate("200px 100px 80px")
		if len(got) != 3 || got[0] != 200 || got[1] != 100 || got[2] != 80 {
			t.Errorf("expected [200 100 80], got %v", got)
		}
		if got := parseTemplate(""); len(got) != 0 {
			t.Errorf("expected no tracks, got %v", got)
		}
	})
}

func TestHeaderSync(t *testing.T) {
	t.Run("FiresOnCellResize", func(t *testing.T) {
		h := NewElement("virtualized-table-header")
		cell := NewElement("cell")
		cell.SetSize(200, 20)
		h.AppendChild(cell)

		count := 0
		sync := &headerSync{}
		sync.attach(h, func() { count++ })

		cell.SetSize(150, 20)
		if count != 1 {
			t.Errorf("expected 1 change after resize, got %d", count)
		}
	})

	t.Run("FiresOnColumnAddRemove", func(t *testing.T) {
		h := NewElement("virtualized-table-header")
		count := 0
		sync := &headerSync{}
		sync.attach(h, func() { count++ })

		cell := NewElement("cell")
		h.AppendChild(cell)
		h.RemoveChild(cell)
		if count != 2 {
			t.Errorf("expected 2 changes, got %d", count)
		}
	})

	t.Run("Detach", func(t *testing.T) {
		h := NewElement("virtualized-table-header")
		cell := NewElement("cell")
		cell.SetSize(200, 20)
		h.AppendChild(cell)

		count := 0
		sync := &headerSync{}
		sync.attach(h, func() { count++ })
		sync.detach()
		sync.detach() // repeat is safe

		cell.SetSize(150, 20)
		h.SetAttr("role", "header")
		if count != 0 {
			t.Errorf("expected no changes after detach, got %d", count)
		}
	})
}
