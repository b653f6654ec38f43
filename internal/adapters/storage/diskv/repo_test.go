package diskv

import (
	"context"
	"testing"

	"github.com/hylla/slab/internal/domain"
)

func openTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return repo
}

func TestSaveAndLoadWorkspaces(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	ws, err := domain.NewWorkspace("ws-1", "Plans")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	card, err := domain.NewCard("card-1", "hello", domain.Point{X: 100, Y: 50})
	if err != nil {
		t.Fatalf("NewCard: %v", err)
	}
	ws.Cards[card.ID] = card
	ws.CardOrder = []string{card.ID}
	ws.ViewState = domain.ViewState{Pan: domain.Point{X: -20, Y: 30}, Zoom: 2.5}

	if err := repo.SaveWorkspace(ctx, ws); err != nil {
		t.Fatalf("SaveWorkspace: %v", err)
	}

	loaded, err := repo.LoadWorkspaces(ctx)
	if err != nil {
		t.Fatalf("LoadWorkspaces: %v", err)
	}
	got, ok := loaded["ws-1"]
	if !ok {
		t.Fatalf("workspace missing, got %v", loaded)
	}
	if got.Name != "Plans" || got.ViewState.Zoom != 2.5 {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if got.Cards[card.ID].Text != "hello" {
		t.Fatalf("card lost: %+v", got.Cards)
	}
}

func TestSaveWorkspaceRequiresID(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.SaveWorkspace(context.Background(), domain.Workspace{Name: "nameless"})
	if err != domain.ErrInvalidID {
		t.Fatalf("err = %v, want ErrInvalidID", err)
	}
}

func TestDeleteWorkspace(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	ws, _ := domain.NewWorkspace("ws-1", "Plans")
	if err := repo.SaveWorkspace(ctx, ws); err != nil {
		t.Fatalf("SaveWorkspace: %v", err)
	}
	if err := repo.DeleteWorkspace(ctx, "ws-1"); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}
	loaded, err := repo.LoadWorkspaces(ctx)
	if err != nil {
		t.Fatalf("LoadWorkspaces: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("workspace still present: %v", loaded)
	}
	if err := repo.DeleteWorkspace(ctx, "ws-1"); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestCurrentWorkspaceIDRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	id, err := repo.LoadCurrentWorkspaceID(ctx)
	if err != nil {
		t.Fatalf("LoadCurrentWorkspaceID: %v", err)
	}
	if id != "" {
		t.Fatalf("fresh store returned %q", id)
	}
	if err := repo.SaveCurrentWorkspaceID(ctx, "ws-9"); err != nil {
		t.Fatalf("SaveCurrentWorkspaceID: %v", err)
	}
	id, err = repo.LoadCurrentWorkspaceID(ctx)
	if err != nil {
		t.Fatalf("LoadCurrentWorkspaceID: %v", err)
	}
	if id != "ws-9" {
		t.Fatalf("id = %q, want ws-9", id)
	}
}

func TestMetaKeyNotListedAsWorkspace(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveCurrentWorkspaceID(ctx, "ws-1"); err != nil {
		t.Fatalf("SaveCurrentWorkspaceID: %v", err)
	}
	loaded, err := repo.LoadWorkspaces(ctx)
	if err != nil {
		t.Fatalf("LoadWorkspaces: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("meta key leaked into workspaces: %v", loaded)
	}
}
