package app

import (
	"context"

	"github.com/hylla/slab/internal/domain"
)

// Repository persists workspaces as a key-value mapping with JSON values.
type Repository interface {
	LoadWorkspaces(context.Context) (map[string]domain.Workspace, error)
	SaveWorkspace(context.Context, domain.Workspace) error
	DeleteWorkspace(context.Context, string) error
	LoadCurrentWorkspaceID(context.Context) (string, error)
	SaveCurrentWorkspaceID(context.Context, string) error
}
