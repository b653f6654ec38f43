package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hylla/slab/internal/domain"
	"github.com/hylla/slab/internal/geometry"
)

type memoryRepo struct {
	workspaces map[string]domain.Workspace
	current    string
	saves      int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{workspaces: map[string]domain.Workspace{}}
}

func (r *memoryRepo) LoadWorkspaces(context.Context) (map[string]domain.Workspace, error) {
	out := make(map[string]domain.Workspace, len(r.workspaces))
	for id, ws := range r.workspaces {
		out[id] = ws
	}
	return out, nil
}

func (r *memoryRepo) SaveWorkspace(_ context.Context, ws domain.Workspace) error {
	r.workspaces[ws.ID] = ws
	r.saves++
	return nil
}

func (r *memoryRepo) DeleteWorkspace(_ context.Context, id string) error {
	delete(r.workspaces, id)
	return nil
}

func (r *memoryRepo) LoadCurrentWorkspaceID(context.Context) (string, error) {
	return r.current, nil
}

func (r *memoryRepo) SaveCurrentWorkspaceID(_ context.Context, id string) error {
	r.current = id
	return nil
}

func sequentialIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewService(repo, sequentialIDs())
	if _, err := svc.EnsureDefaultWorkspace(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultWorkspace: %v", err)
	}
	return svc, repo
}

func TestEnsureDefaultWorkspacePersists(t *testing.T) {
	svc, repo := newTestService(t)
	ws, ok := svc.CurrentWorkspace()
	if !ok {
		t.Fatal("expected a current workspace")
	}
	if repo.current != ws.ID {
		t.Fatalf("current id not persisted: %q != %q", repo.current, ws.ID)
	}
	if _, ok := repo.workspaces[ws.ID]; !ok {
		t.Fatal("workspace not persisted")
	}
}

func TestAddCardCentersAndRecordsLastCreated(t *testing.T) {
	svc, _ := newTestService(t)
	card, err := svc.AddCard(context.Background(), "hello", domain.Point{X: 400, Y: 300})
	if err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	want := domain.Point{X: 400 - domain.DefaultCardWidth/2, Y: 300 - domain.DefaultCardHeight/2}
	if card.Position != want {
		t.Fatalf("position = %+v, want %+v", card.Position, want)
	}
	if got := svc.TakeLastCreatedCardID(); got != card.ID {
		t.Fatalf("last created = %q, want %q", got, card.ID)
	}
	if got := svc.TakeLastCreatedCardID(); got != "" {
		t.Fatalf("marker not cleared, got %q", got)
	}
	ws, _ := svc.CurrentWorkspace()
	if len(ws.CardOrder) != 1 || ws.CardOrder[0] != card.ID {
		t.Fatalf("card order = %v", ws.CardOrder)
	}
	if len(ws.InteractionOrder) != 1 || ws.InteractionOrder[0] != card.ID {
		t.Fatalf("interaction order = %v", ws.InteractionOrder)
	}
}

func TestMutationsOnMissingCardAreSilent(t *testing.T) {
	svc, repo := newTestService(t)
	before := repo.saves
	ctx := context.Background()
	if err := svc.UpdateCardPosition(ctx, "ghost", domain.Point{X: 1}); err != nil {
		t.Fatalf("UpdateCardPosition: %v", err)
	}
	if err := svc.UpdateCardSize(ctx, "ghost", domain.CardSize{Width: 300, Height: 200}); err != nil {
		t.Fatalf("UpdateCardSize: %v", err)
	}
	if err := svc.UpdateCardText(ctx, "ghost", "boo"); err != nil {
		t.Fatalf("UpdateCardText: %v", err)
	}
	if err := svc.BringCardToFront(ctx, "ghost"); err != nil {
		t.Fatalf("BringCardToFront: %v", err)
	}
	if err := svc.DeleteCard(ctx, "ghost"); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	if repo.saves != before {
		t.Fatalf("missing-card mutations wrote %d saves", repo.saves-before)
	}
}

func TestUpdateCardSizeClamps(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	card, err := svc.AddCard(ctx, "", domain.Point{})
	if err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	if err := svc.UpdateCardSize(ctx, card.ID, domain.CardSize{Width: 10, Height: 10}); err != nil {
		t.Fatalf("UpdateCardSize: %v", err)
	}
	ws, _ := svc.CurrentWorkspace()
	got := ws.Cards[card.ID].Size
	if got.Width != domain.MinCardWidth || got.Height != domain.MinCardHeight {
		t.Fatalf("size = %+v, want minimums", got)
	}
}

func TestBringCardToFrontReordersInteractionOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, _ := svc.AddCard(ctx, "a", domain.Point{})
	b, _ := svc.AddCard(ctx, "b", domain.Point{})
	c, _ := svc.AddCard(ctx, "c", domain.Point{})

	if err := svc.BringCardToFront(ctx, a.ID); err != nil {
		t.Fatalf("BringCardToFront: %v", err)
	}
	ws, _ := svc.CurrentWorkspace()
	wantStack := []string{b.ID, c.ID, a.ID}
	for i, id := range wantStack {
		if ws.InteractionOrder[i] != id {
			t.Fatalf("interaction order = %v, want %v", ws.InteractionOrder, wantStack)
		}
	}
	wantOrder := []string{a.ID, b.ID, c.ID}
	for i, id := range wantOrder {
		if ws.CardOrder[i] != id {
			t.Fatalf("card order = %v, want %v", ws.CardOrder, wantOrder)
		}
	}

	// Raising the top card again must not change anything.
	if err := svc.BringCardToFront(ctx, a.ID); err != nil {
		t.Fatalf("BringCardToFront: %v", err)
	}
	ws, _ = svc.CurrentWorkspace()
	for i, id := range wantStack {
		if ws.InteractionOrder[i] != id {
			t.Fatalf("after repeat, interaction order = %v", ws.InteractionOrder)
		}
	}
}

func TestDeleteCardRemovesFromOrders(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, _ := svc.AddCard(ctx, "a", domain.Point{})
	b, _ := svc.AddCard(ctx, "b", domain.Point{})
	if err := svc.DeleteCard(ctx, a.ID); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	ws, _ := svc.CurrentWorkspace()
	if _, ok := ws.Cards[a.ID]; ok {
		t.Fatal("card still present")
	}
	if len(ws.CardOrder) != 1 || ws.CardOrder[0] != b.ID {
		t.Fatalf("card order = %v", ws.CardOrder)
	}
	if len(ws.InteractionOrder) != 1 || ws.InteractionOrder[0] != b.ID {
		t.Fatalf("interaction order = %v", ws.InteractionOrder)
	}
}

type failingRepo struct {
	*memoryRepo
	saveErr error
}

func (r *failingRepo) SaveWorkspace(ctx context.Context, ws domain.Workspace) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.memoryRepo.SaveWorkspace(ctx, ws)
}

func TestFailedSaveLeavesStateUnchanged(t *testing.T) {
	repo := &failingRepo{memoryRepo: newMemoryRepo()}
	svc := NewService(repo, sequentialIDs())
	ctx := context.Background()
	if _, err := svc.EnsureDefaultWorkspace(ctx); err != nil {
		t.Fatalf("EnsureDefaultWorkspace: %v", err)
	}
	before, _ := svc.CurrentWorkspace()

	repo.saveErr = errors.New("disk full")
	if _, err := svc.AddCard(ctx, "x", domain.Point{}); err == nil {
		t.Fatal("AddCard: want error")
	}
	if _, err := svc.CreateWorkspace(ctx, "Other"); err == nil {
		t.Fatal("CreateWorkspace: want error")
	}
	if err := svc.RenameWorkspace(ctx, before.ID, "Renamed"); err == nil {
		t.Fatal("RenameWorkspace: want error")
	}
	if err := svc.UpdateViewState(ctx, domain.ViewPatch{Zoom: ptrFloat(2)}); err == nil {
		t.Fatal("UpdateViewState: want error")
	}

	after, ok := svc.CurrentWorkspace()
	if !ok || after.ID != before.ID || after.Name != before.Name {
		t.Fatalf("current workspace changed: %+v", after)
	}
	if len(after.Cards) != 0 {
		t.Fatalf("card kept after failed save: %d", len(after.Cards))
	}
	if after.ViewState != before.ViewState {
		t.Fatalf("view state changed: %+v", after.ViewState)
	}
	if got := len(svc.Workspaces()); got != 1 {
		t.Fatalf("workspaces = %d, want 1", got)
	}
	if id := svc.TakeLastCreatedCardID(); id != "" {
		t.Fatalf("last created marker set to %q after failed save", id)
	}
}

func TestDeleteLastWorkspaceRefused(t *testing.T) {
	svc, _ := newTestService(t)
	ws, _ := svc.CurrentWorkspace()
	err := svc.DeleteWorkspace(context.Background(), ws.ID)
	if !errors.Is(err, domain.ErrLastWorkspace) {
		t.Fatalf("err = %v, want ErrLastWorkspace", err)
	}
	after, ok := svc.CurrentWorkspace()
	if !ok || after.ID != ws.ID {
		t.Fatal("state changed by refused delete")
	}
}

func TestDeleteCurrentWorkspaceSwitches(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	first, _ := svc.CurrentWorkspace()
	second, err := svc.CreateWorkspace(ctx, "Archive")
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	if err := svc.DeleteWorkspace(ctx, second.ID); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}
	cur, ok := svc.CurrentWorkspace()
	if !ok || cur.ID != first.ID {
		t.Fatalf("current = %+v, want %q", cur.ID, first.ID)
	}
	if repo.current != first.ID {
		t.Fatalf("persisted current = %q, want %q", repo.current, first.ID)
	}
	if _, ok := repo.workspaces[second.ID]; ok {
		t.Fatal("deleted workspace still persisted")
	}
}

func TestSwitchWorkspaceUnknownID(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.SwitchWorkspace(context.Background(), "nope")
	if !errors.Is(err, domain.ErrWorkspaceNotFound) {
		t.Fatalf("err = %v, want ErrWorkspaceNotFound", err)
	}
}

func TestRenameWorkspaceValidatesName(t *testing.T) {
	svc, _ := newTestService(t)
	ws, _ := svc.CurrentWorkspace()
	if err := svc.RenameWorkspace(context.Background(), ws.ID, "  "); !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("err = %v, want ErrInvalidName", err)
	}
	if err := svc.RenameWorkspace(context.Background(), ws.ID, "Plans"); err != nil {
		t.Fatalf("RenameWorkspace: %v", err)
	}
	after, _ := svc.CurrentWorkspace()
	if after.Name != "Plans" {
		t.Fatalf("name = %q", after.Name)
	}
}

func TestCenterOnPoint(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if err := svc.UpdateViewState(ctx, domain.ViewPatch{Zoom: ptrFloat(2)}); err != nil {
		t.Fatalf("UpdateViewState: %v", err)
	}
	applied, err := svc.CenterOnPoint(ctx, domain.Point{X: 100, Y: 50}, geometry.Viewport{Width: 800, Height: 600})
	if err != nil || !applied {
		t.Fatalf("CenterOnPoint: applied=%v err=%v", applied, err)
	}
	ws, _ := svc.CurrentWorkspace()
	want := domain.Point{X: 400 - 100*2, Y: 300 - 50*2}
	if ws.ViewState.Pan != want {
		t.Fatalf("pan = %+v, want %+v", ws.ViewState.Pan, want)
	}
}

func TestCenterOnPointDegenerateViewport(t *testing.T) {
	svc, _ := newTestService(t)
	before, _ := svc.CurrentWorkspace()
	applied, err := svc.CenterOnPoint(context.Background(), domain.Point{X: 9, Y: 9}, geometry.Viewport{})
	if err != nil {
		t.Fatalf("CenterOnPoint: %v", err)
	}
	if applied {
		t.Fatal("zero viewport must not apply")
	}
	after, _ := svc.CurrentWorkspace()
	if after.ViewState != before.ViewState {
		t.Fatal("view state changed")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.AddCard(ctx, "note", domain.Point{X: 10, Y: 10}); err != nil {
		t.Fatalf("AddCard: %v", err)
	}
	data, err := svc.ExportDocument()
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}

	other := NewService(newMemoryRepo(), sequentialIDs())
	result, err := other.ImportDocument(ctx, data)
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if len(result.Imported) != 1 || len(result.Overwritten) != 0 {
		t.Fatalf("result = %+v", result)
	}
	ws, ok := other.CurrentWorkspace()
	if !ok {
		t.Fatal("import did not repair current workspace")
	}
	if len(ws.Cards) != 1 {
		t.Fatalf("cards = %d, want 1", len(ws.Cards))
	}
}

func TestImportOverwritesByID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ws, _ := svc.CurrentWorkspace()

	doc := fmt.Sprintf(`{%q: {"id": %q, "name": "Replaced", "cards": {}, "viewState": {"pan": {"x": 0, "y": 0}, "zoom": 1}, "cardOrder": []}}`, ws.ID, ws.ID)
	result, err := svc.ImportDocument(ctx, []byte(doc))
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if len(result.Overwritten) != 1 || result.Overwritten[0] != ws.ID {
		t.Fatalf("result = %+v", result)
	}
	after, _ := svc.CurrentWorkspace()
	if after.Name != "Replaced" {
		t.Fatalf("name = %q", after.Name)
	}
}

func TestImportRejectsBadDocuments(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.ImportDocument(ctx, []byte("{not json")); !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
	if _, err := svc.ImportDocument(ctx, []byte("{}")); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("err = %v, want ErrEmptyDocument", err)
	}
	ws, ok := svc.CurrentWorkspace()
	if !ok || ws.Name != "My Workspace" {
		t.Fatal("failed import mutated state")
	}
}

func ptrFloat(v float64) *float64 { return &v }
