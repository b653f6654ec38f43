// Package diskv persists workspaces as flat JSON documents, one value per
// workspace id, plus a "current" meta key naming the active workspace.
package diskv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	kv "github.com/peterbourgon/diskv/v3"

	"github.com/hylla/slab/internal/domain"
)

const (
	workspacePrefix = "workspace-"
	currentKey      = "meta-current"
)

// Repo implements the app.Repository port on top of a diskv store.
type Repo struct {
	d *kv.Diskv
}

// Open creates the store directory if needed and returns a repository over
// it.
func Open(dir string) (*Repo, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage dir is empty")
	}
	d := kv.New(kv.Options{
		BasePath:     dir,
		Transform:    func(string) []string { return nil },
		CacheSizeMax: 1024 * 1024, // 1MB
	})
	return &Repo{d: d}, nil
}

// LoadWorkspaces reads every persisted workspace keyed by id.
func (r *Repo) LoadWorkspaces(ctx context.Context) (map[string]domain.Workspace, error) {
	out := map[string]domain.Workspace{}
	for key := range r.d.Keys(ctx.Done()) {
		if !strings.HasPrefix(key, workspacePrefix) {
			continue
		}
		data, err := r.d.Read(key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		var ws domain.Workspace
		if err := json.Unmarshal(data, &ws); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		id := strings.TrimPrefix(key, workspacePrefix)
		if ws.ID == "" {
			ws.ID = id
		}
		out[id] = ws
	}
	return out, nil
}

// SaveWorkspace writes one workspace document.
func (r *Repo) SaveWorkspace(_ context.Context, ws domain.Workspace) error {
	if strings.TrimSpace(ws.ID) == "" {
		return domain.ErrInvalidID
	}
	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return fmt.Errorf("encode workspace %s: %w", ws.ID, err)
	}
	return r.d.Write(workspacePrefix+ws.ID, data)
}

// DeleteWorkspace removes a workspace document. Deleting an absent
// workspace is not an error.
func (r *Repo) DeleteWorkspace(_ context.Context, id string) error {
	key := workspacePrefix + id
	if !r.d.Has(key) {
		return nil
	}
	return r.d.Erase(key)
}

// LoadCurrentWorkspaceID reads the active-workspace marker, "" when unset.
func (r *Repo) LoadCurrentWorkspaceID(context.Context) (string, error) {
	if !r.d.Has(currentKey) {
		return "", nil
	}
	data, err := r.d.Read(currentKey)
	if err != nil {
		return "", fmt.Errorf("read current workspace id: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveCurrentWorkspaceID records which workspace is active.
func (r *Repo) SaveCurrentWorkspaceID(_ context.Context, id string) error {
	return r.d.Write(currentKey, []byte(id))
}
