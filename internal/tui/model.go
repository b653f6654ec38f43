package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/hylla/slab/internal/config"
	"github.com/hylla/slab/internal/domain"
	"github.com/hylla/slab/internal/geometry"
	"github.com/hylla/slab/internal/gesture"
	"github.com/hylla/slab/internal/measure"
)

// Service represents service data used by this package.
type Service interface {
	CurrentWorkspace() (domain.Workspace, bool)
	Workspaces() []domain.Workspace
	UpdateViewState(context.Context, domain.ViewPatch) error
	UpdateCardPosition(context.Context, string, domain.Point) error
	UpdateCardSize(context.Context, string, domain.CardSize) error
	UpdateCardText(context.Context, string, string) error
	BringCardToFront(context.Context, string) error
	AddCard(context.Context, string, domain.Point) (domain.Card, error)
	DeleteCard(context.Context, string) error
	CenterOnPoint(context.Context, domain.Point, geometry.Viewport) (bool, error)
	TakeLastCreatedCardID() string
	CreateWorkspace(context.Context, string) (domain.Workspace, error)
	RenameWorkspace(context.Context, string, string) error
	DeleteWorkspace(context.Context, string) error
	SwitchWorkspace(context.Context, string) error
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeEditCard
	modeNewWorkspace
	modeRenameWorkspace
	modeConfirmDeleteCard
	modeConfirmDeleteWorkspace
	modeSidebar
	modePreview
)

// chromeRows is the screen space reserved below the canvas for the status
// and help lines.
const chromeRows = 2

// storeErrSink collects errors the gesture layer reports while committing;
// the model drains it after every message.
type storeErrSink struct {
	err error
}

// storeAdapter bridges the synchronous gesture mutator interfaces onto the
// state store.
type storeAdapter struct {
	svc  Service
	sink *storeErrSink
}

func (a *storeAdapter) report(err error) {
	if err != nil {
		a.sink.err = err
	}
}

func (a *storeAdapter) UpdateViewState(patch domain.ViewPatch) {
	a.report(a.svc.UpdateViewState(context.Background(), patch))
}

func (a *storeAdapter) UpdateCardPosition(cardID string, position domain.Point) {
	a.report(a.svc.UpdateCardPosition(context.Background(), cardID, position))
}

func (a *storeAdapter) UpdateCardSize(cardID string, size domain.CardSize) {
	a.report(a.svc.UpdateCardSize(context.Background(), cardID, size))
}

func (a *storeAdapter) BringCardToFront(cardID string) {
	a.report(a.svc.BringCardToFront(context.Background(), cardID))
}

type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	canvasCfg config.CanvasConfig
	metrics   measure.Metrics

	bus     *gesture.Bus
	adapter *storeAdapter
	sink    *storeErrSink
	viewCtl *gesture.ViewController
	cardCtl *gesture.CardController

	selectedCardID string

	mode          inputMode
	editor        textarea.Model
	editingCardID string
	nameInput     textinput.Model
	renameTarget  string
	sidebarIndex  int
	confirmTarget string

	preview markdownRenderer

	writeClipboard func(string) error
}

// NewModel constructs the canvas model over a loaded state store.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false

	editor := textarea.New()
	editor.Placeholder = "card text (markdown)"
	editor.CharLimit = 0

	nameInput := textinput.New()
	nameInput.Prompt = "name: "
	nameInput.CharLimit = 80

	sink := &storeErrSink{}
	adapter := &storeAdapter{svc: svc, sink: sink}
	bus := gesture.NewBus()

	view := domain.DefaultViewState()
	if ws, ok := svc.CurrentWorkspace(); ok {
		view = ws.ViewState
	}

	m := Model{
		svc:       svc,
		status:    "ready",
		help:      h,
		keys:      newKeyMap(config.Default("").Keys),
		canvasCfg: config.Default("").Canvas,
		metrics:   measure.DefaultMetrics(),
		bus:       bus,
		adapter:   adapter,
		sink:      sink,
		viewCtl:   gesture.NewViewController(bus, adapter, view),
		editor:    editor,
		nameInput: nameInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	model, ok := next.(Model)
	if !ok {
		return next, cmd
	}
	if model.sink.err != nil {
		model.status = "save failed: " + model.sink.err.Error()
		model.sink.err = nil
	}
	return model, cmd
}

func (m Model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(clamp(m.width-8, 24, 80))
		m.editor.SetHeight(clamp(m.height-8, 4, 16))
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// syncView pulls the committed view back into the view controller after a
// store-side camera change (reset, center on card, workspace switch).
func (m *Model) syncView() {
	if ws, ok := m.svc.CurrentWorkspace(); ok {
		m.viewCtl.SetView(ws.ViewState)
	}
}

// canvasSize returns the canvas area in cells, the window minus chrome.
func (m Model) canvasSize() (int, int) {
	return max(m.width, 1), max(m.height-chromeRows, 1)
}

// viewportUnits returns the canvas size in screen units for centering math.
func (m Model) viewportUnits() geometry.Viewport {
	w, h := m.canvasSize()
	return geometry.Viewport{
		Width:  float64(w) * m.metrics.UnitsPerColumn,
		Height: float64(h) * m.metrics.UnitsPerRow,
	}
}

func (m Model) selectedCard() (domain.Card, bool) {
	ws, ok := m.svc.CurrentWorkspace()
	if !ok {
		return domain.Card{}, false
	}
	card, ok := ws.Cards[m.selectedCardID]
	return card, ok
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch {
	case key.Matches(msg, m.keys.quit):
		m.viewCtl.Teardown()
		if m.cardCtl != nil {
			m.cardCtl.Teardown()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			return m, nil
		}
		m.selectedCardID = ""
		return m, nil

	case key.Matches(msg, m.keys.addCard):
		center := geometry.ToWorkspace(m.viewportUnits().Center(), m.viewCtl.View())
		card, err := m.svc.AddCard(ctx, "", center)
		if err != nil {
			m.status = "add card failed: " + err.Error()
			return m, nil
		}
		m.svc.TakeLastCreatedCardID()
		m.selectedCardID = card.ID
		return m.startCardEditor(card)

	case key.Matches(msg, m.keys.deleteCard):
		if _, ok := m.selectedCard(); !ok {
			m.status = "no card selected"
			return m, nil
		}
		m.mode = modeConfirmDeleteCard
		return m, nil

	case key.Matches(msg, m.keys.editCard):
		card, ok := m.selectedCard()
		if !ok {
			m.status = "no card selected"
			return m, nil
		}
		return m.startCardEditor(card)

	case key.Matches(msg, m.keys.yankCard):
		card, ok := m.selectedCard()
		if !ok {
			m.status = "no card selected"
			return m, nil
		}
		if m.writeClipboard == nil {
			m.status = "clipboard unavailable"
			return m, nil
		}
		if err := m.writeClipboard(card.Text); err != nil {
			m.status = "copy failed: " + err.Error()
			return m, nil
		}
		m.status = "card text copied"
		return m, nil

	case key.Matches(msg, m.keys.cycleCard):
		m.cycleSelection()
		return m, nil

	case key.Matches(msg, m.keys.panLeft):
		return m.panBy(-1, 0)
	case key.Matches(msg, m.keys.panRight):
		return m.panBy(1, 0)
	case key.Matches(msg, m.keys.panUp):
		return m.panBy(0, -1)
	case key.Matches(msg, m.keys.panDown):
		return m.panBy(0, 1)

	case key.Matches(msg, m.keys.zoomIn):
		m.viewCtl.WheelZoom(m.viewportUnits().Center(), true)
		return m, nil
	case key.Matches(msg, m.keys.zoomOut):
		m.viewCtl.WheelZoom(m.viewportUnits().Center(), false)
		return m, nil

	case key.Matches(msg, m.keys.resetView):
		def := domain.DefaultViewState()
		m.adapter.UpdateViewState(domain.ViewPatch{Pan: &def.Pan, Zoom: &def.Zoom})
		m.syncView()
		m.status = "view reset"
		return m, nil

	case key.Matches(msg, m.keys.centerSelection):
		card, ok := m.selectedCard()
		if !ok {
			m.status = "no card selected"
			return m, nil
		}
		center := card.Position.Add(domain.Point{X: card.Size.Width / 2, Y: card.Size.Height / 2})
		applied, err := m.svc.CenterOnPoint(ctx, center, m.viewportUnits())
		if err != nil {
			m.status = "center failed: " + err.Error()
			return m, nil
		}
		if !applied {
			m.status = "viewport not ready"
			return m, nil
		}
		m.syncView()
		return m, nil

	case key.Matches(msg, m.keys.sidebar):
		m.mode = modeSidebar
		m.sidebarIndex = m.currentWorkspaceIndex()
		return m, nil

	case key.Matches(msg, m.keys.preview):
		if _, ok := m.selectedCard(); !ok {
			m.status = "no card selected"
			return m, nil
		}
		m.mode = modePreview
		return m, nil
	}
	return m, nil
}

// panBy shifts the camera by whole cells. Keyboard pans have no gesture
// lifecycle, so they commit immediately like wheel zoom.
func (m Model) panBy(dx, dy int) (tea.Model, tea.Cmd) {
	step := float64(m.canvasCfg.PanStep)
	view := m.viewCtl.View()
	pan := view.Pan.Add(domain.Point{
		X: -float64(dx) * step * m.metrics.UnitsPerColumn,
		Y: -float64(dy) * step * m.metrics.UnitsPerRow,
	})
	m.adapter.UpdateViewState(domain.ViewPatch{Pan: &pan})
	m.syncView()
	return m, nil
}

func (m *Model) cycleSelection() {
	ws, ok := m.svc.CurrentWorkspace()
	if !ok || len(ws.CardOrder) == 0 {
		return
	}
	next := 0
	for i, id := range ws.CardOrder {
		if id == m.selectedCardID {
			next = (i + 1) % len(ws.CardOrder)
			break
		}
	}
	m.selectedCardID = ws.CardOrder[next]
}

func (m Model) currentWorkspaceIndex() int {
	current, ok := m.svc.CurrentWorkspace()
	if !ok {
		return 0
	}
	for i, ws := range m.svc.Workspaces() {
		if ws.ID == current.ID {
			return i
		}
	}
	return 0
}

func (m Model) startCardEditor(card domain.Card) (tea.Model, tea.Cmd) {
	m.mode = modeEditCard
	m.editingCardID = card.ID
	m.editor.SetValue(card.Text)
	return m, m.editor.Focus()
}

// commitCardEditor stores the edited text and grows the card when the new
// text no longer fits.
func (m Model) commitCardEditor() (tea.Model, tea.Cmd) {
	ctx := context.Background()
	text := m.editor.Value()
	cardID := m.editingCardID
	m.mode = modeNone
	m.editingCardID = ""
	m.editor.Blur()

	if err := m.svc.UpdateCardText(ctx, cardID, text); err != nil {
		m.status = "save failed: " + err.Error()
		return m, nil
	}
	ws, ok := m.svc.CurrentWorkspace()
	if !ok {
		return m, nil
	}
	card, ok := ws.Cards[cardID]
	if !ok {
		return m, nil
	}
	grower := m.cardCtl
	if grower == nil || grower.CardID() != cardID {
		grower = gesture.NewCardController(cardID, m.bus, m.adapter, m.viewCtl.View, m.metrics)
	}
	if size, grow := grower.AutoGrow(card); grow {
		m.adapter.UpdateCardSize(cardID, size)
	}
	return m, nil
}

func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch m.mode {
	case modeEditCard:
		if msg.String() == "esc" {
			return m.commitCardEditor()
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd

	case modeNewWorkspace, modeRenameWorkspace:
		switch msg.String() {
		case "esc":
			m.mode = modeSidebar
			m.nameInput.Blur()
			return m, nil
		case "enter":
			name := strings.TrimSpace(m.nameInput.Value())
			m.nameInput.Blur()
			if m.mode == modeNewWorkspace {
				ws, err := m.svc.CreateWorkspace(ctx, name)
				if err != nil {
					m.status = "create failed: " + err.Error()
				} else {
					m.status = fmt.Sprintf("workspace %q created", ws.Name)
					m.selectedCardID = ""
					m.syncView()
				}
			} else {
				if err := m.svc.RenameWorkspace(ctx, m.renameTarget, name); err != nil {
					m.status = "rename failed: " + err.Error()
				} else {
					m.status = "workspace renamed"
				}
			}
			m.mode = modeSidebar
			m.sidebarIndex = m.currentWorkspaceIndex()
			return m, nil
		}
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd

	case modeConfirmDeleteCard:
		switch msg.String() {
		case "y", "enter":
			if err := m.svc.DeleteCard(ctx, m.selectedCardID); err != nil {
				m.status = "delete failed: " + err.Error()
			} else {
				m.status = "card deleted"
			}
			m.selectedCardID = ""
			m.mode = modeNone
		case "n", "esc":
			m.mode = modeNone
		}
		return m, nil

	case modeConfirmDeleteWorkspace:
		switch msg.String() {
		case "y", "enter":
			if err := m.svc.DeleteWorkspace(ctx, m.confirmTarget); err != nil {
				m.status = "delete failed: " + err.Error()
			} else {
				m.status = "workspace deleted"
				m.selectedCardID = ""
				m.syncView()
			}
			m.mode = modeSidebar
			m.sidebarIndex = m.currentWorkspaceIndex()
		case "n", "esc":
			m.mode = modeSidebar
		}
		return m, nil

	case modeSidebar:
		return m.handleSidebarKey(msg)

	case modePreview:
		if msg.String() == "esc" || key.Matches(msg, m.keys.preview) {
			m.mode = modeNone
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleSidebarKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	workspaces := m.svc.Workspaces()
	switch msg.String() {
	case "esc", "q":
		m.mode = modeNone
		return m, nil
	case "j", "down":
		if m.sidebarIndex < len(workspaces)-1 {
			m.sidebarIndex++
		}
		return m, nil
	case "k", "up":
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
		return m, nil
	case "enter":
		if m.sidebarIndex >= 0 && m.sidebarIndex < len(workspaces) {
			if err := m.svc.SwitchWorkspace(context.Background(), workspaces[m.sidebarIndex].ID); err != nil {
				m.status = "switch failed: " + err.Error()
				return m, nil
			}
			m.selectedCardID = ""
			m.syncView()
			m.mode = modeNone
			m.status = "switched to " + workspaces[m.sidebarIndex].Name
		}
		return m, nil
	case "n":
		m.mode = modeNewWorkspace
		m.nameInput.SetValue("")
		return m, m.nameInput.Focus()
	case "r":
		if m.sidebarIndex >= 0 && m.sidebarIndex < len(workspaces) {
			m.mode = modeRenameWorkspace
			m.renameTarget = workspaces[m.sidebarIndex].ID
			m.nameInput.SetValue(workspaces[m.sidebarIndex].Name)
			return m, m.nameInput.Focus()
		}
		return m, nil
	case "d":
		if m.sidebarIndex >= 0 && m.sidebarIndex < len(workspaces) {
			m.confirmTarget = workspaces[m.sidebarIndex].ID
			m.mode = modeConfirmDeleteWorkspace
		}
		return m, nil
	}
	return m, nil
}
