package app

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/hylla/slab/internal/domain"
)

// Document is the persisted interchange format: a JSON object keyed by
// workspace id. It is the same shape the storage layer writes, so an
// export can be re-imported losslessly.
type Document map[string]domain.Workspace

// ImportResult reports what an import changed.
type ImportResult struct {
	Imported    []string
	Overwritten []string
}

// ExportDocument serializes every workspace as an indented JSON document.
func (s *Service) ExportDocument() ([]byte, error) {
	state := s.State()
	doc := make(Document, len(state.Workspaces))
	for id, ws := range state.Workspaces {
		doc[id] = ws
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ImportDocument merges a document into the store. Workspaces are matched
// by id: unknown ids are added, known ids are overwritten. A document that
// fails to parse or contains no usable workspaces aborts without touching
// the state.
func (s *Service) ImportDocument(ctx context.Context, data []byte) (ImportResult, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return ImportResult{}, ErrMalformedDocument
	}

	incoming := make(map[string]domain.Workspace, len(doc))
	for id, ws := range doc {
		if id == "" {
			continue
		}
		ws.ID = id
		incoming[id] = ws.Reconciled()
	}
	if len(incoming) == 0 {
		return ImportResult{}, ErrEmptyDocument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result ImportResult
	for id, ws := range incoming {
		if err := s.repo.SaveWorkspace(ctx, ws); err != nil {
			return ImportResult{}, err
		}
		if _, exists := s.state.Workspaces[id]; exists {
			result.Overwritten = append(result.Overwritten, id)
		} else {
			result.Imported = append(result.Imported, id)
		}
		s.state.Workspaces[id] = ws
	}
	if s.state.CurrentWorkspaceID == "" {
		s.state = s.state.Reconciled()
		if err := s.repo.SaveCurrentWorkspaceID(ctx, s.state.CurrentWorkspaceID); err != nil {
			return ImportResult{}, err
		}
	}
	sort.Strings(result.Imported)
	sort.Strings(result.Overwritten)
	return result, nil
}
