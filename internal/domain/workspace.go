package domain

import (
	"slices"
	"sort"
	"strings"
)

// Workspace is one independent canvas: its cards, its camera, and the order
// cards were created in. InteractionOrder is the recency list used only for
// stacking; it is rebuilt from CardOrder when a workspace is loaded and is
// not part of the persisted document.
type Workspace struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Cards     map[string]Card `json:"cards"`
	ViewState ViewState       `json:"viewState"`
	CardOrder []string        `json:"cardOrder"`

	InteractionOrder []string `json:"-"`
}

// NewWorkspace constructs an empty workspace.
func NewWorkspace(id, name string) (Workspace, error) {
	if strings.TrimSpace(id) == "" {
		return Workspace{}, ErrInvalidID
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Workspace{}, ErrInvalidName
	}
	return Workspace{
		ID:        id,
		Name:      name,
		Cards:     map[string]Card{},
		ViewState: DefaultViewState(),
	}, nil
}

// Reconciled enforces that CardOrder is a permutation of the card keys:
// entries without a backing card are dropped, cards missing from the order
// are appended (sorted by id so repeated loads agree). The interaction order
// gets the same treatment, seeded from CardOrder when empty.
func (w Workspace) Reconciled() Workspace {
	w = w.Clone()
	if w.Cards == nil {
		w.Cards = map[string]Card{}
	}
	for id, card := range w.Cards {
		if card.ID == "" {
			card.ID = id
		}
		w.Cards[id] = card.Normalized()
	}
	w.ViewState = w.ViewState.Normalized()
	w.CardOrder = reconcileOrder(w.CardOrder, w.Cards)
	if len(w.InteractionOrder) == 0 {
		w.InteractionOrder = slices.Clone(w.CardOrder)
	} else {
		w.InteractionOrder = reconcileOrder(w.InteractionOrder, w.Cards)
	}
	return w
}

// reconcileOrder drops ids without a card and appends missing card ids.
func reconcileOrder(order []string, cards map[string]Card) []string {
	out := make([]string, 0, len(cards))
	seen := make(map[string]struct{}, len(cards))
	for _, id := range order {
		if _, ok := cards[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	missing := make([]string, 0)
	for id := range cards {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return append(out, missing...)
}

// BroughtToFront returns the workspace with the card moved to the tail of
// the interaction order, inserting it if absent. Idempotent. Unknown ids
// leave the workspace unchanged.
func (w Workspace) BroughtToFront(cardID string) Workspace {
	if _, ok := w.Cards[cardID]; !ok {
		return w
	}
	w = w.Clone()
	order := make([]string, 0, len(w.InteractionOrder)+1)
	for _, id := range w.InteractionOrder {
		if id != cardID {
			order = append(order, id)
		}
	}
	w.InteractionOrder = append(order, cardID)
	return w
}

// Stacking returns card ids bottom-to-top for rendering.
func (w Workspace) Stacking() []string {
	if len(w.InteractionOrder) > 0 {
		return reconcileOrder(w.InteractionOrder, w.Cards)
	}
	return reconcileOrder(w.CardOrder, w.Cards)
}

// Clone deep-copies the workspace so transitions never mutate shared state.
func (w Workspace) Clone() Workspace {
	cards := make(map[string]Card, len(w.Cards))
	for id, card := range w.Cards {
		cards[id] = card
	}
	w.Cards = cards
	w.CardOrder = slices.Clone(w.CardOrder)
	w.InteractionOrder = slices.Clone(w.InteractionOrder)
	return w
}
