package explorer

import "strings"

// RenderFolderRowsForCurrentCollection runs one full render cycle against
// the collection the store currently reports as selected. The selection is
// re-read here rather than trusted from whichever trigger fired, so a
// container change between trigger and render resolves itself.
func (e *Engine) RenderFolderRowsForCurrentCollection() {
	defer e.boundary("render current collection")()
	e.renderMu.Lock()
	defer e.renderMu.Unlock()
	e.renderCycle(e.store.SelectedCollection())
}

// RenderFolderRows runs one full render cycle for the children of c. Pass
// nil for the library-root context.
func (e *Engine) RenderFolderRows(c *Collection) {
	defer e.boundary("render folder rows")()
	e.renderMu.Lock()
	defer e.renderMu.Unlock()
	e.renderCycle(c)
}

// renderCycle is the per-navigation entry point: teardown, resolve, rebuild,
// re-observe, optionally reset scroll. Individual steps degrade on failure;
// only the scrollable-body lookup gates the cycle.
func (e *Engine) renderCycle(c *Collection) {
	if e.isStopped() {
		return
	}

	key := "library-root"
	if c != nil {
		key = string(c.ID)
	}
	resetScroll := key != e.lastRenderedKey()

	e.teardownRows()

	var children []*Collection
	if c != nil {
		children = e.store.Children(c.ID)
	} else {
		children = e.store.LibraryRootChildren()
	}

	root := e.host.Root()
	if root == nil {
		return
	}
	e.header = findHeaderRow(root)
	e.body = findScrollableBody(root)
	if e.body == nil {
		// Normal outcome for unsupported host layouts: no synthetic rows.
		e.log.Debug().Msg("no scrollable body in host view, skipping folder rows")
		e.comp.Teardown()
		return
	}

	e.selection.attachPanel(root)

	if len(children) == 0 {
		e.comp.SetOffset(0)
		e.comp.Teardown()
		if resetScroll {
			e.step("scroll reset", func() { e.body.SetScrollTop(0) })
		}
		e.setLastRenderedKey(key)
		e.step("nav strip", func() { e.nav.UpdateNavStrip(c) })
		return
	}

	ncols := 1
	template := ""
	if e.header != nil {
		e.step("column template", func() {
			ncols = len(e.header.Children())
			template = computeTemplateFromHeader(e.header, e.minColWidth)
		})
	}
	if template == "" {
		template = defaultTemplate(ncols)
	}
	e.gridTemplate = template

	rows := make([]*FolderRow, len(children))
	for i, child := range children {
		rows[i] = e.buildFolderRow(child, ncols, template)
		if i%2 == 1 {
			rows[i].SetAttr("striped", "true")
		}
	}
	first := firstNativeRowIn(e.body)
	for _, r := range rows {
		e.body.InsertBefore(r, first)
	}
	e.rows = rows

	if e.header != nil {
		e.step("header observers", func() {
			e.colSync.attach(e.header, e.onHeaderChanged)
		})
	}
	e.step("row observers", func() {
		e.rowSizeObs = NewSizeObserver(func(Element) { e.remeasureOffset() })
		for _, r := range rows {
			e.rowSizeObs.Observe(r)
		}
		if e.rootSizeObs == nil {
			e.rootSizeObs = NewSizeObserver(func(Element) { e.onHostResized() })
			e.rootSizeObs.Observe(root)
		}
	})

	e.step("scroll compensation", func() {
		e.comp.Ensure(e.body, e.host)
		e.comp.SetOffset(totalRowHeight(rows))
	})

	if resetScroll {
		e.step("scroll reset", e.snapScrollToTop)
	}

	e.setLastRenderedKey(key)
	e.step("nav strip", func() { e.nav.UpdateNavStrip(c) })
}

// onHeaderChanged recomputes the column template after a header layout
// change and re-applies it to the mounted rows in place.
//
// The observer fires on whatever goroutine resized the header, so the render
// state is read under renderMu. The lock is released before applyTemplate:
// retemplating resizes the rows, which fires the row size observer, which
// re-enters through remeasureOffset.
func (e *Engine) onHeaderChanged() {
	defer e.boundary("header change")()
	e.renderMu.Lock()
	header := e.header
	if header == nil {
		e.renderMu.Unlock()
		return
	}
	tpl := computeTemplateFromHeader(header, e.minColWidth)
	if tpl == e.gridTemplate {
		e.renderMu.Unlock()
		return
	}
	e.gridTemplate = tpl
	rows := e.rows
	e.renderMu.Unlock()
	applyTemplate(rows, tpl)
}

// remeasureOffset recomputes the injected block height after a row resize
// and feeds it to the compensator.
func (e *Engine) remeasureOffset() {
	defer e.boundary("offset remeasure")()
	e.renderMu.Lock()
	rows := e.rows
	e.renderMu.Unlock()
	if rows == nil {
		return
	}
	e.comp.SetOffset(totalRowHeight(rows))
}

func (e *Engine) onHostResized() {
	e.onHeaderChanged()
	e.remeasureOffset()
}

// snapScrollToTop forces the true scroll coordinate to zero, retrying across
// two animation frames. The host restores its own scroll position
// asynchronously after navigation; the retries win that race.
func (e *Engine) snapScrollToTop() {
	e.comp.WriteTrue(0)
	h1 := e.frames.requestFrame(func() {
		if e.isStopped() {
			return
		}
		e.comp.WriteTrue(0)
		h2 := e.frames.requestFrame(func() {
			if e.isStopped() {
				return
			}
			e.comp.WriteTrue(0)
		})
		e.trackSnapFrame(h2)
	})
	e.trackSnapFrame(h1)
}

func (e *Engine) trackSnapFrame(h FrameHandle) {
	e.mu.Lock()
	// Only the two frames of the current snap are ever live.
	if len(e.snapFrames) >= 2 {
		e.snapFrames = e.snapFrames[:0]
	}
	e.snapFrames = append(e.snapFrames, h)
	e.mu.Unlock()
}

// firstNativeRowIn returns the first host-owned row in body, skipping any
// synthetic rows, or nil if the body holds no native rows yet.
func firstNativeRowIn(body Element) Element {
	for _, c := range body.Children() {
		if _, synthetic := c.(*FolderRow); synthetic {
			continue
		}
		if HasClass(c, "row") {
			return c
		}
	}
	return nil
}

func totalRowHeight(rows []*FolderRow) int {
	total := 0
	for _, r := range rows {
		_, h := r.Size()
		total += h
	}
	return total
}

func defaultTemplate(ncols int) string {
	tpl := ""
	for i := 0; i < ncols; i++ {
		if i > 0 {
			tpl += " "
		}
		tpl += "240px"
	}
	return tpl
}

// findHeaderRow locates the host's header row: the explicit class marker
// first, then a heuristic scan for a header-ish container with cells.
func findHeaderRow(root Element) Element {
	if el := findElement(root, func(el Element) bool {
		return HasClass(el, "virtualized-table-header")
	}); el != nil {
		return el
	}
	return findElement(root, func(el Element) bool {
		return len(el.Children()) > 0 && containsToken(el.Attr("class"), "header")
	})
}

// findScrollableBody locates the scrollable body: the explicit class marker
// first, then the first element with vertical overflow containing at least
// one row.
func findScrollableBody(root Element) Scrollable {
	if el := findElement(root, func(el Element) bool {
		return HasClass(el, "virtualized-table-body")
	}); el != nil {
		if s, ok := el.(Scrollable); ok {
			return s
		}
	}
	el := findElement(root, func(el Element) bool {
		if _, ok := el.(Scrollable); !ok {
			return false
		}
		ov := el.Attr("overflow")
		if ov != "auto" && ov != "scroll" {
			return false
		}
		return containsRowDescendant(el)
	})
	if s, ok := el.(Scrollable); ok {
		return s
	}
	return nil
}

// findElement returns the first element in depth-first order satisfying
// match, or nil.
func findElement(el Element, match func(Element) bool) Element {
	if match(el) {
		return el
	}
	for _, c := range el.Children() {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func containsRowDescendant(el Element) bool {
	for _, c := range el.Children() {
		if HasClass(c, "row") || containsRowDescendant(c) {
			return true
		}
	}
	return false
}

func containsToken(class, token string) bool {
	for _, c := range strings.Fields(class) {
		if strings.Contains(c, token) {
			return true
		}
	}
	return false
}
