package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
)

// View handles view.
func (m Model) View() tea.View {
	if !m.ready {
		return frame("loading...")
	}

	ws, ok := m.svc.CurrentWorkspace()
	if !ok {
		return frame("no workspace\n\npress q to quit")
	}

	width, height := m.canvasSize()
	canvas := strings.Join(renderCanvas(ws, m.viewCtl.View(), width, height, m.selectedCardID, m.metrics), "\n")

	content := canvas + "\n" + m.statusLine(ws.Name) + "\n" + m.helpLine()
	if overlay := m.renderOverlay(); overlay != "" {
		content = overlayOnContent(content, overlay, m.width, m.height)
	}
	return frame(content)
}

func frame(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

func (m Model) statusLine(workspaceName string) string {
	view := m.viewCtl.View()
	left := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(workspaceName)
	zoom := fmt.Sprintf("%.0f%%", view.Zoom*100)
	gesture := ""
	switch {
	case m.viewCtl.Panning():
		gesture = " • panning"
	case m.cardCtl != nil && m.cardCtl.Dragging():
		gesture = " • dragging"
	case m.cardCtl != nil && m.cardCtl.Resizing():
		gesture = " • resizing"
	}
	right := lipgloss.NewStyle().Foreground(mutedColor).Render(zoom + gesture + " • " + m.status)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) helpLine() string {
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	return lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1).Render(helpBubble.View(m.keys))
}

// renderOverlay renders output for the current model state.
func (m Model) renderOverlay() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	hintStyle := lipgloss.NewStyle().Foreground(mutedColor)

	switch m.mode {
	case modeEditCard:
		lines := []string{
			titleStyle.Render("Edit Card"),
			m.editor.View(),
			hintStyle.Render("esc save & close"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeNewWorkspace:
		lines := []string{
			titleStyle.Render("New Workspace"),
			m.nameInput.View(),
			hintStyle.Render("enter create • esc cancel"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeRenameWorkspace:
		lines := []string{
			titleStyle.Render("Rename Workspace"),
			m.nameInput.View(),
			hintStyle.Render("enter save • esc cancel"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeConfirmDeleteCard:
		lines := []string{
			titleStyle.Render("Delete card?"),
			hintStyle.Render("y delete • n cancel"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeConfirmDeleteWorkspace:
		lines := []string{
			titleStyle.Render("Delete workspace and all its cards?"),
			hintStyle.Render("y delete • n cancel"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeSidebar:
		current, _ := m.svc.CurrentWorkspace()
		lines := []string{titleStyle.Render("Workspaces")}
		for i, ws := range m.svc.Workspaces() {
			marker := "  "
			if i == m.sidebarIndex {
				marker = "> "
			}
			name := ws.Name
			if ws.ID == current.ID {
				name += " *"
			}
			lines = append(lines, fmt.Sprintf("%s%s (%d cards)", marker, name, len(ws.Cards)))
		}
		lines = append(lines, hintStyle.Render("enter switch • n new • r rename • d delete • esc close"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modePreview:
		card, ok := m.selectedCard()
		if !ok {
			return ""
		}
		body := m.preview.render(card.Text, clamp(m.width-12, 24, 80))
		if body == "" {
			body = hintStyle.Render("(empty card)")
		}
		lines := []string{
			titleStyle.Render("Preview"),
			body,
			hintStyle.Render("esc close"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))
	}
	return ""
}

func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines trims or pads content to exactly maxLines lines, replacing the
// last kept line with an ellipsis when content was dropped.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = "…"
	}
	for len(lines) < maxLines {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers the overlay box on top of the base content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(fitLines(base, height)).X(0).Y(0).Z(0))
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}
