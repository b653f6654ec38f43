package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/hylla/slab/internal/gesture"
)

// cardHit describes what a canvas cell resolves to when pressed.
type cardHit struct {
	cardID string
	handle bool
}

// hitTest resolves a canvas cell to the topmost card under it, walking the
// stacking order top-down the way pointer events resolve against stacked
// elements.
func (m Model) hitTest(cellX, cellY int) (cardHit, bool) {
	ws, ok := m.svc.CurrentWorkspace()
	if !ok {
		return cardHit{}, false
	}
	view := m.viewCtl.View()
	stacking := ws.Stacking()
	for i := len(stacking) - 1; i >= 0; i-- {
		id := stacking[i]
		rect := cardCellRect(ws.Cards[id], view, m.metrics)
		if rect.contains(cellX, cellY) {
			return cardHit{cardID: id, handle: rect.handle(cellX, cellY)}, true
		}
	}
	return cardHit{}, false
}

// onCanvas reports whether a mouse event lands on the canvas area rather
// than the status or help chrome.
func (m Model) onCanvas(x, y int) bool {
	w, h := m.canvasSize()
	return x >= 0 && x < w && y >= 0 && y < h
}

// handleMouseWheel handles mouse wheel.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || !m.onCanvas(msg.X, msg.Y) {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.viewCtl.WheelZoom(cellScreenPoint(msg.X, msg.Y, m.metrics), true)
	case tea.MouseWheelDown:
		m.viewCtl.WheelZoom(cellScreenPoint(msg.X, msg.Y, m.metrics), false)
	}
	return m, nil
}

// handleMouseClick routes a press to the card under the cursor, its resize
// handle, or the canvas background for panning.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone && m.mode != modeEditCard {
		return m, nil
	}
	if msg.Button != tea.MouseLeft || !m.onCanvas(msg.X, msg.Y) {
		return m, nil
	}

	pos := cellScreenPoint(msg.X, msg.Y, m.metrics)
	hit, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		// Clicking empty canvas while editing commits the edit first.
		if m.mode == modeEditCard {
			next, cmd := m.commitCardEditor()
			model := next.(Model)
			model.selectedCardID = ""
			model.viewCtl.PointerDown(gesture.MousePointer, pos)
			return model, cmd
		}
		m.selectedCardID = ""
		m.viewCtl.PointerDown(gesture.MousePointer, pos)
		return m, nil
	}

	ws, _ := m.svc.CurrentWorkspace()
	card := ws.Cards[hit.cardID]
	editing := m.mode == modeEditCard && m.editingCardID == hit.cardID
	if m.mode == modeEditCard && !editing {
		next, cmd := m.commitCardEditor()
		model := next.(Model)
		model.selectedCardID = hit.cardID
		return model, cmd
	}

	m.selectedCardID = hit.cardID
	if m.cardCtl != nil && m.cardCtl.Active() {
		return m, nil
	}
	ctl := gesture.NewCardController(hit.cardID, m.bus, m.adapter, m.viewCtl.View, m.metrics)
	started := false
	if hit.handle {
		started = ctl.StartResize(gesture.MousePointer, pos, card)
	} else {
		started = ctl.StartDrag(gesture.MousePointer, pos, card, editing)
	}
	if started {
		m.cardCtl = ctl
	}
	return m, nil
}

// handleMouseMotion feeds pointer movement to whichever gesture is active.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	m.bus.Publish(gesture.PointerEvent{
		Kind:     gesture.EventMove,
		ID:       gesture.MousePointer,
		Position: cellScreenPoint(msg.X, msg.Y, m.metrics),
	})
	return m, nil
}

// handleMouseRelease ends the active gesture.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	m.bus.Publish(gesture.PointerEvent{
		Kind:     gesture.EventUp,
		ID:       gesture.MousePointer,
		Position: cellScreenPoint(msg.X, msg.Y, m.metrics),
	})
	if m.cardCtl != nil && !m.cardCtl.Active() {
		m.cardCtl = nil
	}
	return m, nil
}
