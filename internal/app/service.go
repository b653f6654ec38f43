package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hylla/slab/internal/domain"
	"github.com/hylla/slab/internal/geometry"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Service is the reactive state store: the single owner of AppState. All
// mutations are expressed as pure functions of the previous state applied
// under one lock, so two logical actions from one user gesture (say "card
// created" and "interaction order appended") can never lose each other's
// update. Mutations targeting a missing card or workspace are silent
// no-ops; the gesture hot path never sees an error for them. A transition
// commits to memory only after it persists, so a save error leaves the
// previous state in place.
type Service struct {
	mu    sync.Mutex
	repo  Repository
	idGen IDGenerator
	state domain.AppState
}

// NewService constructs a store over the given repository.
func NewService(repo Repository, idGen IDGenerator) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	return &Service{
		repo:  repo,
		idGen: idGen,
		state: domain.NewAppState(),
	}
}

// Load reads every persisted workspace and repairs the state invariants.
func (s *Service) Load(ctx context.Context) error {
	workspaces, err := s.repo.LoadWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("load workspaces: %w", err)
	}
	current, err := s.repo.LoadCurrentWorkspaceID(ctx)
	if err != nil {
		return fmt.Errorf("load current workspace id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	state := domain.NewAppState()
	if workspaces != nil {
		state.Workspaces = workspaces
	}
	state.CurrentWorkspaceID = current
	s.state = state.Reconciled()
	return nil
}

// EnsureDefaultWorkspace creates a starter workspace when none exist.
func (s *Service) EnsureDefaultWorkspace(ctx context.Context) (domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws, ok := s.state.Current(); ok {
		return ws, nil
	}
	ws, err := domain.NewWorkspace(s.idGen(), "My Workspace")
	if err != nil {
		return domain.Workspace{}, err
	}
	if err := s.repo.SaveWorkspace(ctx, ws); err != nil {
		return domain.Workspace{}, err
	}
	if err := s.repo.SaveCurrentWorkspaceID(ctx, ws.ID); err != nil {
		return domain.Workspace{}, err
	}
	s.state.Workspaces[ws.ID] = ws
	s.state.CurrentWorkspaceID = ws.ID
	return ws, nil
}

// State returns a deep-copied snapshot of the root state.
func (s *Service) State() domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// CurrentWorkspace returns a snapshot of the current workspace.
func (s *Service) CurrentWorkspace() (domain.Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.state.Current()
	if !ok {
		return domain.Workspace{}, false
	}
	return s.state.Clone().Workspaces[ws.ID], true
}

// Workspaces lists snapshots of every workspace sorted by name.
func (s *Service) Workspaces() []domain.Workspace {
	state := s.State()
	out := make([]domain.Workspace, 0, len(state.Workspaces))
	for _, id := range state.WorkspaceIDsByName() {
		out = append(out, state.Workspaces[id])
	}
	return out
}

// updateCurrent applies a pure workspace transition to the current
// workspace and persists the result. A false from fn means "nothing to do"
// and leaves both state and storage untouched.
func (s *Service) updateCurrent(ctx context.Context, fn func(domain.Workspace) (domain.Workspace, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.state.Current()
	if !ok {
		return nil
	}
	next, changed := fn(ws.Clone())
	if !changed {
		return nil
	}
	if err := s.repo.SaveWorkspace(ctx, next); err != nil {
		return err
	}
	s.state.Workspaces[next.ID] = next
	return nil
}

// UpdateViewState merges a partial camera update into the current
// workspace.
func (s *Service) UpdateViewState(ctx context.Context, patch domain.ViewPatch) error {
	return s.updateCurrent(ctx, func(ws domain.Workspace) (domain.Workspace, bool) {
		ws.ViewState = patch.Apply(ws.ViewState)
		return ws, true
	})
}

// UpdateCardPosition moves a card. No-op when the card is absent.
func (s *Service) UpdateCardPosition(ctx context.Context, cardID string, position domain.Point) error {
	return s.updateCurrent(ctx, func(ws domain.Workspace) (domain.Workspace, bool) {
		card, ok := ws.Cards[cardID]
		if !ok {
			return ws, false
		}
		card.Position = position
		ws.Cards[cardID] = card
		return ws, true
	})
}

// UpdateCardSize resizes a card, clamping to the minimums. No-op when the
// card is absent.
func (s *Service) UpdateCardSize(ctx context.Context, cardID string, size domain.CardSize) error {
	return s.updateCurrent(ctx, func(ws domain.Workspace) (domain.Workspace, bool) {
		card, ok := ws.Cards[cardID]
		if !ok {
			return ws, false
		}
		card.Size = size.Clamped()
		ws.Cards[cardID] = card
		return ws, true
	})
}

// UpdateCardText replaces a card's text. No-op when the card is absent.
func (s *Service) UpdateCardText(ctx context.Context, cardID, text string) error {
	return s.updateCurrent(ctx, func(ws domain.Workspace) (domain.Workspace, bool) {
		card, ok := ws.Cards[cardID]
		if !ok {
			return ws, false
		}
		card.Text = text
		ws.Cards[cardID] = card
		return ws, true
	})
}

// BringCardToFront moves the card to the top of the stacking order.
func (s *Service) BringCardToFront(ctx context.Context, cardID string) error {
	return s.updateCurrent(ctx, func(ws domain.Workspace) (domain.Workspace, bool) {
		next := ws.BroughtToFront(cardID)
		if _, ok := ws.Cards[cardID]; !ok {
			return ws, false
		}
		return next, true
	})
}

// AddCard creates a card with the default size centered on the given
// workspace point, appends it to both orders, and records it as the last
// created card so the render layer can focus it for editing.
func (s *Service) AddCard(ctx context.Context, text string, center domain.Point) (domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.state.Current()
	if !ok {
		return domain.Card{}, domain.ErrWorkspaceNotFound
	}
	ws = ws.Clone()
	card, err := domain.NewCard(s.idGen(), text, center)
	if err != nil {
		return domain.Card{}, err
	}
	ws.Cards[card.ID] = card
	ws.CardOrder = append(ws.CardOrder, card.ID)
	ws.InteractionOrder = append(ws.InteractionOrder, card.ID)
	if err := s.repo.SaveWorkspace(ctx, ws); err != nil {
		return domain.Card{}, err
	}
	s.state.Workspaces[ws.ID] = ws
	s.state.LastCreatedCardID = card.ID
	return card, nil
}

// DeleteCard removes a card from the cards map and both orders. No-op when
// the card is absent.
func (s *Service) DeleteCard(ctx context.Context, cardID string) error {
	return s.updateCurrent(ctx, func(ws domain.Workspace) (domain.Workspace, bool) {
		if _, ok := ws.Cards[cardID]; !ok {
			return ws, false
		}
		delete(ws.Cards, cardID)
		ws.CardOrder = removeID(ws.CardOrder, cardID)
		ws.InteractionOrder = removeID(ws.InteractionOrder, cardID)
		return ws, true
	})
}

// CenterOnPoint recomputes the pan so the workspace point lands at the
// viewport center, preserving zoom. A zero-size viewport is degenerate
// geometry: the call reports false and changes nothing.
func (s *Service) CenterOnPoint(ctx context.Context, point domain.Point, viewport geometry.Viewport) (bool, error) {
	if viewport.IsZero() {
		return false, nil
	}
	err := s.updateCurrent(ctx, func(ws domain.Workspace) (domain.Workspace, bool) {
		ws.ViewState.Pan = geometry.CenterPan(point, viewport, ws.ViewState.Zoom)
		return ws, true
	})
	return err == nil, err
}

// TakeLastCreatedCardID returns and clears the auto-focus-edit marker.
func (s *Service) TakeLastCreatedCardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.state.LastCreatedCardID
	s.state.LastCreatedCardID = ""
	return id
}

// CreateWorkspace adds an empty workspace and makes it current.
func (s *Service) CreateWorkspace(ctx context.Context, name string) (domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Workspace %d", len(s.state.Workspaces)+1)
	}
	ws, err := domain.NewWorkspace(s.idGen(), name)
	if err != nil {
		return domain.Workspace{}, err
	}
	if err := s.repo.SaveWorkspace(ctx, ws); err != nil {
		return domain.Workspace{}, err
	}
	if err := s.repo.SaveCurrentWorkspaceID(ctx, ws.ID); err != nil {
		return domain.Workspace{}, err
	}
	s.state.Workspaces[ws.ID] = ws
	s.state.CurrentWorkspaceID = ws.ID
	return ws, nil
}

// RenameWorkspace updates a workspace's display name.
func (s *Service) RenameWorkspace(ctx context.Context, workspaceID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.state.Workspaces[workspaceID]
	if !ok {
		return domain.ErrWorkspaceNotFound
	}
	ws.Name = name
	if err := s.repo.SaveWorkspace(ctx, ws); err != nil {
		return err
	}
	s.state.Workspaces[workspaceID] = ws
	return nil
}

// DeleteWorkspace removes a workspace. The last remaining workspace cannot
// be deleted; attempting it leaves state unchanged.
func (s *Service) DeleteWorkspace(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Workspaces[workspaceID]; !ok {
		return domain.ErrWorkspaceNotFound
	}
	if len(s.state.Workspaces) <= 1 {
		return domain.ErrLastWorkspace
	}
	next := s.state.CurrentWorkspaceID
	if next == workspaceID {
		for _, id := range s.state.WorkspaceIDsByName() {
			if id != workspaceID {
				next = id
				break
			}
		}
		if err := s.repo.SaveCurrentWorkspaceID(ctx, next); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteWorkspace(ctx, workspaceID); err != nil {
		return err
	}
	delete(s.state.Workspaces, workspaceID)
	s.state.CurrentWorkspaceID = next
	return nil
}

// SwitchWorkspace makes another workspace current.
func (s *Service) SwitchWorkspace(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Workspaces[workspaceID]; !ok {
		return domain.ErrWorkspaceNotFound
	}
	if err := s.repo.SaveCurrentWorkspaceID(ctx, workspaceID); err != nil {
		return err
	}
	s.state.CurrentWorkspaceID = workspaceID
	return nil
}

func removeID(order []string, id string) []string {
	out := make([]string, 0, len(order))
	for _, other := range order {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}
