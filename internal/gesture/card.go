package gesture

import (
	"github.com/hylla/slab/internal/domain"
	"github.com/hylla/slab/internal/geometry"
	"github.com/hylla/slab/internal/measure"
)

// CardMutator is the slice of the store the card controllers need. Every
// call must be a silent no-op when the card no longer exists; the move
// handlers run on the hot path and never check for errors.
type CardMutator interface {
	UpdateCardPosition(cardID string, position domain.Point)
	UpdateCardSize(cardID string, size domain.CardSize)
	BringCardToFront(cardID string)
}

type cardMode int

const (
	cardIdle cardMode = iota
	cardDragging
	cardResizing
)

// CardController owns both per-card gestures. Dragging and resizing are
// mutually exclusive on the same card by construction: a single mode field
// holds whichever is active. Current card state is passed into each Start
// call explicitly; the controller never reads it back from a closure.
type CardController struct {
	cardID  string
	bus     *Bus
	store   CardMutator
	viewFn  func() domain.ViewState
	metrics measure.Metrics

	mode    cardMode
	pointer PointerID
	sub     *Subscription

	dragOffset domain.Point // workspace space

	resizeStartPointer domain.Point // screen space
	resizeStartSize    domain.CardSize
	resizeText         string
}

// NewCardController returns an idle controller for one card. viewFn must
// report the live camera so screen deltas divide by the zoom actually on
// screen.
func NewCardController(cardID string, bus *Bus, store CardMutator, viewFn func() domain.ViewState, metrics measure.Metrics) *CardController {
	return &CardController{
		cardID:  cardID,
		bus:     bus,
		store:   store,
		viewFn:  viewFn,
		metrics: metrics,
	}
}

// CardID returns the card this controller drives.
func (c *CardController) CardID() string { return c.cardID }

// Dragging reports whether a drag is in progress.
func (c *CardController) Dragging() bool { return c.mode == cardDragging }

// Resizing reports whether a resize is in progress.
func (c *CardController) Resizing() bool { return c.mode == cardResizing }

// Active reports whether any gesture owns the card.
func (c *CardController) Active() bool { return c.mode != cardIdle }

// StartDrag begins dragging from a press on the card body. Refused while
// the card is in text-edit mode or while any gesture already owns the card.
// Bringing the card to front is part of starting, not of moving.
func (c *CardController) StartDrag(id PointerID, pos domain.Point, card domain.Card, editing bool) bool {
	if editing || c.mode != cardIdle {
		return false
	}
	c.mode = cardDragging
	c.pointer = id
	c.dragOffset = geometry.ToWorkspace(pos, c.viewFn()).Sub(card.Position)
	c.store.BringCardToFront(c.cardID)
	c.attach()
	return true
}

// StartResize begins resizing from a press on the resize handle.
func (c *CardController) StartResize(id PointerID, pos domain.Point, card domain.Card) bool {
	if c.mode != cardIdle {
		return false
	}
	c.mode = cardResizing
	c.pointer = id
	c.resizeStartPointer = pos
	c.resizeStartSize = card.Size
	c.resizeText = card.Text
	c.attach()
	return true
}

// AutoGrow recomputes the height the card's text needs at its current width
// and reports the grown size when it exceeds the current height by more than
// the hysteresis threshold. Never fires while a resize is active; callers
// additionally skip it during text editing.
func (c *CardController) AutoGrow(card domain.Card) (domain.CardSize, bool) {
	if c.mode == cardResizing {
		return card.Size, false
	}
	required := c.metrics.MinHeightForText(card.Text, card.Size.Width)
	if required <= card.Size.Height+measure.AutoGrowHysteresis {
		return card.Size, false
	}
	return domain.CardSize{Width: card.Size.Width, Height: required}, true
}

// Teardown force-ends any in-progress gesture and detaches the listener.
// Called when the card's visual leaves the tree; no update is dispatched
// for an element that no longer exists.
func (c *CardController) Teardown() {
	c.mode = cardIdle
	c.detach()
}

func (c *CardController) attach() {
	if c.sub == nil {
		c.sub = c.bus.Subscribe(c.handle)
	}
}

func (c *CardController) detach() {
	c.sub.Close()
	c.sub = nil
}

func (c *CardController) handle(ev PointerEvent) {
	// A second pointer arriving mid-gesture is ignored wholesale; only the
	// original contact drives the math.
	if ev.ID != c.pointer {
		return
	}
	switch ev.Kind {
	case EventMove:
		switch c.mode {
		case cardDragging:
			c.dragMove(ev.Position)
		case cardResizing:
			c.resizeMove(ev.Position)
		}
	case EventUp, EventCancel:
		c.mode = cardIdle
		c.detach()
	}
}

// dragMove dispatches the new position on every move event: position
// updates are cheap and the card must track the pointer 1:1.
func (c *CardController) dragMove(pos domain.Point) {
	next := geometry.ToWorkspace(pos, c.viewFn()).Sub(c.dragOffset)
	c.store.UpdateCardPosition(c.cardID, next)
}

func (c *CardController) resizeMove(pos domain.Point) {
	zoom := c.viewFn().Zoom
	delta := pos.Sub(c.resizeStartPointer).Scale(1 / zoom)
	candidate := domain.CardSize{
		Width:  c.resizeStartSize.Width + delta.X,
		Height: c.resizeStartSize.Height + delta.Y,
	}.Clamped()
	// A card can never shrink below the height its own text needs at the
	// chosen width.
	if minH := c.metrics.MinHeightForText(c.resizeText, candidate.Width); candidate.Height < minH {
		candidate.Height = minH
	}
	c.store.UpdateCardSize(c.cardID, candidate)
}
