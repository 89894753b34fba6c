package explorer

import (
	"strconv"
	"strings"
)

// computeTemplateFromHeader maps each header cell's rendered width to a grid
// track, flooring at min, and returns the combined template string, e.g.
// "200px 100px 80px".
func computeTemplateFromHeader(header Element, min int) string {
	cells := header.Children()
	parts := make([]string, 0, len(cells))
	for _, cell := range cells {
		w, _ := cell.Size()
		if w < min {
			w = min
		}
		parts = append(parts, strconv.Itoa(w)+"px")
	}
	return strings.Join(parts, " ")
}

// parseTemplate returns the pixel widths encoded in a grid template string.
// Malformed tracks parse as zero.
func parseTemplate(template string) []int {
	fields := strings.Fields(template)
	widths := make([]int, len(fields))
	for i, f := range fields {
		n, _ := strconv.Atoi(strings.TrimSuffix(f, "px"))
		widths[i] = n
	}
	return widths
}

// applyTemplate sets the grid template on every mounted synthetic row
// without rebuilding them.
func applyTemplate(rows []*FolderRow, template string) {
	for _, r := range rows {
		r.setTemplate(template)
	}
}

// headerSync keeps the synthetic rows' column widths identical to the host
// header's. One size observer (header row plus its cells) and one mutation
// observer (attributes, children, subtree) push layout-relevant changes into
// onChange; recomputation is never polled.
type headerSync struct {
	size *SizeObserver
	mut  *MutationObserver
}

func (h *headerSync) attach(header Element, onChange func()) {
	h.detach()
	h.size = NewSizeObserver(func(Element) { onChange() })
	h.size.Observe(header)
	for _, cell := range header.Children() {
		h.size.Observe(cell)
	}
	h.mut = NewMutationObserver(func(MutationRecord) { onChange() })
	h.mut.Observe(header, MutationOptions{Attributes: true, ChildList: true, Subtree: true})
}

// detach disconnects both observers. Safe to call repeatedly.
func (h *headerSync) detach() {
	if h.size != nil {
		h.size.Disconnect()
		h.size = nil
	}
	if h.mut != nil {
		h.mut.Disconnect()
		h.mut = nil
	}
}
