package explorer

// PayloadKind discriminates what a drag payload carries.
type PayloadKind uint8

const (
	// PayloadItems is a drag of one or more library items out of the host's
	// native rows.
	PayloadItems PayloadKind = iota + 1
	// PayloadCollection is a drag of another collection row (reparenting).
	PayloadCollection
)

// DragPayload is the canonical drag-and-drop contract at the integration
// boundary. Hosts translate whatever wire formats they speak into this one
// struct before dispatching EventDragOver/EventDrop.
type DragPayload struct {
	Kind             PayloadKind
	ItemIDs          []ItemID
	SourceCollection CollectionID // origin of dragged items; empty if unknown
	CollectionID     CollectionID // dragged collection for PayloadCollection
}

// FolderRow is a synthetic element representing one child collection inside
// the host's item table. Rows are ephemeral: created fresh each render
// cycle, destroyed on the next teardown.
type FolderRow struct {
	BaseElement

	collection *Collection
	cells      []*BaseElement
	icon       *BaseElement
	label      *BaseElement
	selected   bool
}

// Collection returns the collection this row represents.
func (r *FolderRow) Collection() *Collection { return r.collection }

// ColumnCount returns the number of grid cells in the row.
func (r *FolderRow) ColumnCount() int { return len(r.cells) }

// Selected reports whether this row is the currently selected synthetic row.
func (r *FolderRow) Selected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// setTemplate resizes the row's cells to the given grid template.
func (r *FolderRow) setTemplate(template string) {
	r.SetAttr("grid-template", template)
	widths := parseTemplate(template)
	_, h := r.Size()
	total := 0
	for i, cell := range r.cells {
		w := 0
		if i < len(widths) {
			w = widths[i]
		}
		cell.SetSize(w, h)
		total += w
	}
	r.SetSize(total, h)
}

func (r *FolderRow) applySelection(selected, panelFocused bool, theme Theme) {
	r.mu.Lock()
	r.selected = selected
	r.mu.Unlock()
	switch {
	case selected && panelFocused:
		r.SetAttr("bg", string(theme.SelectedActiveBG))
		r.SetAttr("fg", string(theme.SelectedActiveFG))
	case selected:
		r.SetAttr("bg", string(theme.SelectedInactiveBG))
		r.SetAttr("fg", string(theme.SelectedInactiveFG))
	default:
		r.SetAttr("bg", "")
		r.SetAttr("fg", string(theme.RowFG))
	}
}

// buildFolderRow constructs one synthetic row for c: a grid matching the
// current column template, an icon+name primary cell, and empty placeholder
// cells so the column count matches the host header exactly.
func (e *Engine) buildFolderRow(c *Collection, columnCount int, template string) *FolderRow {
	r := &FolderRow{collection: c}
	r.initSelf(r)
	r.SetAttr("class", "folder-row")
	r.SetAttr("role", "row")
	r.SetSize(0, e.rowHeight)
	r.applySelection(false, false, e.theme)

	if columnCount < 1 {
		columnCount = 1
	}
	r.cells = make([]*BaseElement, columnCount)
	for i := range r.cells {
		cell := NewElement("cell")
		if i == 0 {
			cell.SetAttr("class", "cell primary")
		}
		r.cells[i] = cell
		r.AppendChild(cell)
	}

	r.icon = NewElement("icon folder")
	r.icon.SetAttr("fg", string(e.theme.IconFG))
	r.label = NewElement("label")
	r.label.SetAttr("text", c.Name)
	r.cells[0].AppendChild(r.icon)
	r.cells[0].AppendChild(r.label)

	r.setTemplate(template)

	r.On(EventClick, func(*Event) {
		e.selection.Select(r)
	})
	r.On(EventDoubleClick, func(*Event) {
		e.navigateInto(c)
	})
	r.On(EventKeyDown, func(ev *Event) {
		switch ev.Key {
		case KeyEnter, KeySpace:
			e.navigateInto(c)
		case KeyArrowDown:
			e.moveRowSelection(r, 1)
		case KeyArrowUp:
			e.moveRowSelection(r, -1)
		}
	})
	r.On(EventDragOver, func(ev *Event) {
		e.markDropTarget(r, ev.Drag)
	})
	r.On(EventDrop, func(ev *Event) {
		e.markDropTarget(nil, nil)
		e.handleDrop(r, ev.Drag)
	})

	return r
}

// navigateInto delegates navigation to the external collaborator and
// schedules a re-render once the host's asynchronous selection change has
// had time to settle.
func (e *Engine) navigateInto(c *Collection) {
	e.log.Debug().Str("collection", string(c.ID)).Msg("navigate into")
	e.nav.NavigateToCollection(c.ID)
	e.nav.PushToHistory(c.ID)
	e.ScheduleRerender(e.settleDelay)
}

// moveRowSelection moves the selection among synthetic rows. At the lower
// boundary focus transfers to the first native row; at the upper boundary it
// blocks.
func (e *Engine) moveRowSelection(from *FolderRow, delta int) {
	e.renderMu.Lock()
	rows := e.rows
	body := e.body
	e.renderMu.Unlock()

	idx := -1
	for i, r := range rows {
		if r == from {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	next := idx + delta
	switch {
	case next < 0:
		// Blocked at the first synthetic row.
	case next >= len(rows):
		if body != nil {
			if native := firstNativeRowIn(body); native != nil {
				FocusElement(native)
			}
		}
	default:
		e.selection.Select(rows[next])
	}
}

// firstNativeRow returns the first host-owned row following the synthetic
// block, or nil.
func (e *Engine) firstNativeRow() Element {
	e.renderMu.Lock()
	body := e.body
	e.renderMu.Unlock()
	if body == nil {
		return nil
	}
	return firstNativeRowIn(body)
}

// markDropTarget moves the visual drop mark as a drag passes over the
// synthetic rows. Rows that would reject the payload get no mark; a nil row
// clears any existing mark.
func (e *Engine) markDropTarget(row *FolderRow, p *DragPayload) {
	accept := row != nil && e.acceptsDrop(row, p)
	e.renderMu.Lock()
	prev := e.dropTarget
	if accept {
		e.dropTarget = row
	} else {
		e.dropTarget = nil
	}
	e.renderMu.Unlock()

	if prev != nil && prev != row {
		prev.SetAttr("droptarget", "")
	}
	if row == nil {
		return
	}
	if accept {
		row.SetAttr("droptarget", "true")
	} else {
		row.SetAttr("droptarget", "")
	}
}

// acceptsDrop reports whether a drop of p onto target would be committed.
func (e *Engine) acceptsDrop(target *FolderRow, p *DragPayload) bool {
	if p == nil {
		return false
	}
	switch p.Kind {
	case PayloadItems:
		return len(p.ItemIDs) > 0
	case PayloadCollection:
		return p.CollectionID != "" && !e.wouldCycle(target.collection.ID, p.CollectionID)
	}
	return false
}

// wouldCycle reports whether reparenting dragged under target would make a
// collection a descendant of itself, by walking the target's ancestor chain.
func (e *Engine) wouldCycle(target, dragged CollectionID) bool {
	for id := target; ; {
		if id == dragged {
			return true
		}
		parent, ok := e.store.Parent(id)
		if !ok {
			return false
		}
		id = parent
	}
}

// handleDrop processes a drop onto a synthetic row, delegating mutations to
// the hierarchy store.
func (e *Engine) handleDrop(target *FolderRow, p *DragPayload) {
	if p == nil {
		return
	}
	switch p.Kind {
	case PayloadItems:
		e.dropItems(target, p)
	case PayloadCollection:
		e.dropCollection(target, p)
	}
}

func (e *Engine) dropItems(target *FolderRow, p *DragPayload) {
	if len(p.ItemIDs) == 0 {
		return
	}
	id := target.collection.ID
	if err := e.store.AddItems(id, p.ItemIDs); err != nil {
		e.log.Warn().Err(err).Str("target", string(id)).Msg("drop: add items failed")
		return
	}
	if p.SourceCollection == "" || p.SourceCollection == id {
		return
	}
	if err := e.store.RemoveItems(p.SourceCollection, p.ItemIDs); err != nil {
		// Bulk removal unavailable; fall back to removing one at a time so a
		// single bad item doesn't strand the rest in the source collection.
		e.log.Debug().Err(err).Msg("drop: bulk remove failed, retrying per item")
		for _, it := range p.ItemIDs {
			if err := e.store.RemoveItems(p.SourceCollection, []ItemID{it}); err != nil {
				e.log.Warn().Err(err).Str("item", string(it)).Msg("drop: remove item failed")
			}
		}
	}
}

func (e *Engine) dropCollection(target *FolderRow, p *DragPayload) {
	dragged := p.CollectionID
	if dragged == "" || dragged == target.collection.ID {
		return
	}
	// A collection must never become its own ancestor's descendant: check
	// before committing anything to the store.
	if e.wouldCycle(target.collection.ID, dragged) {
		e.log.Debug().Str("collection", string(dragged)).Msg("drop: reparent would create a cycle, rejected")
		return
	}
	if err := e.store.Reparent(dragged, target.collection.ID); err != nil {
		e.log.Warn().Err(err).Msg("drop: reparent failed")
		return
	}
	e.ScheduleRerender(e.settleDelay)
}
