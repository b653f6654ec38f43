package tui

import (
	"charm.land/bubbles/v2/key"

	"github.com/hylla/slab/internal/config"
)

// keyMap represents key map data used by this package.
type keyMap struct {
	quit            key.Binding
	toggleHelp      key.Binding
	addCard         key.Binding
	deleteCard      key.Binding
	editCard        key.Binding
	yankCard        key.Binding
	cycleCard       key.Binding
	panLeft         key.Binding
	panRight        key.Binding
	panUp           key.Binding
	panDown         key.Binding
	zoomIn          key.Binding
	zoomOut         key.Binding
	resetView       key.Binding
	centerSelection key.Binding
	sidebar         key.Binding
	preview         key.Binding
}

// newKeyMap constructs key map from the configured bindings.
func newKeyMap(keys config.KeyConfig) keyMap {
	return keyMap{
		quit:            key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		addCard:         key.NewBinding(key.WithKeys(keys.AddCard), key.WithHelp(keys.AddCard, "add card")),
		deleteCard:      key.NewBinding(key.WithKeys(keys.DeleteCard), key.WithHelp(keys.DeleteCard, "delete card")),
		editCard:        key.NewBinding(key.WithKeys(keys.EditCard), key.WithHelp(keys.EditCard, "edit card")),
		yankCard:        key.NewBinding(key.WithKeys(keys.YankCard), key.WithHelp(keys.YankCard, "copy card text")),
		cycleCard:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next card")),
		panLeft:         key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "pan left")),
		panRight:        key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "pan right")),
		panUp:           key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "pan up")),
		panDown:         key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "pan down")),
		zoomIn:          key.NewBinding(key.WithKeys(keys.ZoomIn, "="), key.WithHelp(keys.ZoomIn, "zoom in")),
		zoomOut:         key.NewBinding(key.WithKeys(keys.ZoomOut, "_"), key.WithHelp(keys.ZoomOut, "zoom out")),
		resetView:       key.NewBinding(key.WithKeys(keys.ResetView), key.WithHelp(keys.ResetView, "reset view")),
		centerSelection: key.NewBinding(key.WithKeys(keys.CenterSelection), key.WithHelp(keys.CenterSelection, "center on card")),
		sidebar:         key.NewBinding(key.WithKeys(keys.Sidebar), key.WithHelp(keys.Sidebar, "workspaces")),
		preview:         key.NewBinding(key.WithKeys(keys.Preview), key.WithHelp(keys.Preview, "preview card")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addCard, k.editCard, k.cycleCard, k.sidebar, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addCard, k.editCard, k.deleteCard, k.yankCard, k.preview, k.cycleCard},
		{k.panLeft, k.panRight, k.panUp, k.panDown, k.zoomIn, k.zoomOut, k.resetView, k.centerSelection},
		{k.sidebar, k.toggleHelp, k.quit},
	}
}
