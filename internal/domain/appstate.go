package domain

import "sort"

// AppState is the process-wide root: every workspace plus which one is
// current. Invariant: whenever Workspaces is non-empty CurrentWorkspaceID
// references an existing entry, and the last workspace cannot be deleted.
type AppState struct {
	Workspaces         map[string]Workspace
	CurrentWorkspaceID string

	// LastCreatedCardID remembers the most recent AddCard result so the
	// render layer can focus it for editing. Not persisted.
	LastCreatedCardID string
}

// NewAppState returns an empty root state.
func NewAppState() AppState {
	return AppState{Workspaces: map[string]Workspace{}}
}

// Reconciled repairs every workspace and the current-workspace invariant.
func (s AppState) Reconciled() AppState {
	s = s.Clone()
	for id, ws := range s.Workspaces {
		if ws.ID == "" {
			ws.ID = id
		}
		s.Workspaces[id] = ws.Reconciled()
	}
	if len(s.Workspaces) == 0 {
		s.CurrentWorkspaceID = ""
		return s
	}
	if _, ok := s.Workspaces[s.CurrentWorkspaceID]; !ok {
		s.CurrentWorkspaceID = s.WorkspaceIDsByName()[0]
	}
	return s
}

// Current returns the current workspace, if any.
func (s AppState) Current() (Workspace, bool) {
	ws, ok := s.Workspaces[s.CurrentWorkspaceID]
	return ws, ok
}

// WorkspaceIDsByName returns all workspace ids sorted by display name, with
// id as the tiebreak so the order is stable.
func (s AppState) WorkspaceIDsByName() []string {
	ids := make([]string, 0, len(s.Workspaces))
	for id := range s.Workspaces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.Workspaces[ids[i]], s.Workspaces[ids[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return ids
}

// Clone deep-copies the state for copy-on-write transitions.
func (s AppState) Clone() AppState {
	workspaces := make(map[string]Workspace, len(s.Workspaces))
	for id, ws := range s.Workspaces {
		workspaces[id] = ws.Clone()
	}
	s.Workspaces = workspaces
	return s
}
