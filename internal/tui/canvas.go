package tui

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/hylla/slab/internal/domain"
	"github.com/hylla/slab/internal/geometry"
	"github.com/hylla/slab/internal/measure"
)

// cellRect is a card's footprint on the terminal grid, in cells.
type cellRect struct {
	X, Y, W, H int
}

func (r cellRect) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// handle reports whether the cell is the card's resize handle, the
// bottom-right corner.
func (r cellRect) handle(x, y int) bool {
	return x == r.X+r.W-1 && y == r.Y+r.H-1
}

// cardCellRect projects a card through the camera onto the terminal grid.
// One cell spans UnitsPerColumn by UnitsPerRow screen units, so zooming
// changes how many cells a card covers. A card never collapses below the
// 2x2 cells needed to draw its border.
func cardCellRect(card domain.Card, view domain.ViewState, metrics measure.Metrics) cellRect {
	topLeft := geometry.ToScreen(card.Position, view)
	r := cellRect{
		X: int(math.Floor(topLeft.X / metrics.UnitsPerColumn)),
		Y: int(math.Floor(topLeft.Y / metrics.UnitsPerRow)),
		W: int(math.Round(card.Size.Width * view.Zoom / metrics.UnitsPerColumn)),
		H: int(math.Round(card.Size.Height * view.Zoom / metrics.UnitsPerRow)),
	}
	if r.W < 2 {
		r.W = 2
	}
	if r.H < 2 {
		r.H = 2
	}
	return r
}

// cellScreenPoint returns the screen-unit point at the center of a cell.
// Mouse events arrive in cells; the gesture layer works in screen units.
func cellScreenPoint(x, y int, metrics measure.Metrics) domain.Point {
	return domain.Point{
		X: float64(x)*metrics.UnitsPerColumn + metrics.UnitsPerColumn/2,
		Y: float64(y)*metrics.UnitsPerRow + metrics.UnitsPerRow/2,
	}
}

type borderRunes struct {
	tl, tr, bl, br, horiz, vert rune
}

var (
	cardBorder     = borderRunes{'┌', '┐', '└', '┘', '─', '│'}
	selectedBorder = borderRunes{'╔', '╗', '╚', '╝', '═', '║'}
)

// renderCanvas paints the workspace onto a rune grid, bottom to top in
// stacking order so overlapping cards occlude correctly.
func renderCanvas(ws domain.Workspace, view domain.ViewState, width, height int, selectedID string, metrics measure.Metrics) []string {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	for _, id := range ws.Stacking() {
		card := ws.Cards[id]
		drawCard(grid, card, cardCellRect(card, view, metrics), id == selectedID)
	}

	lines := make([]string, height)
	var sb strings.Builder
	for i, row := range grid {
		sb.Reset()
		for _, ch := range row {
			if ch != wideTail {
				sb.WriteRune(ch)
			}
		}
		lines[i] = sb.String()
	}
	return lines
}

func drawCard(grid [][]rune, card domain.Card, r cellRect, selected bool) {
	b := cardBorder
	if selected {
		b = selectedBorder
	}

	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			ch := ' '
			switch {
			case y == r.Y && x == r.X:
				ch = b.tl
			case y == r.Y && x == r.X+r.W-1:
				ch = b.tr
			case y == r.Y+r.H-1 && x == r.X:
				ch = b.bl
			case y == r.Y+r.H-1 && x == r.X+r.W-1:
				ch = '◢'
			case y == r.Y || y == r.Y+r.H-1:
				ch = b.horiz
			case x == r.X || x == r.X+r.W-1:
				ch = b.vert
			}
			putCell(grid, x, y, ch)
		}
	}

	innerW := r.W - 2
	innerH := r.H - 2
	if innerW < 1 || innerH < 1 {
		return
	}
	for row, line := range cardLines(card.Text, innerW) {
		if row >= innerH {
			break
		}
		col := 0
		for _, ch := range line {
			w := runewidth.RuneWidth(ch)
			if w < 1 {
				continue
			}
			if col+w > innerW {
				break
			}
			gx, gy := r.X+1+col, r.Y+1+row
			if w == 2 {
				// Both halves land on the grid or neither does, so a
				// clipped wide rune cannot skew the row width.
				if gy >= 0 && gy < len(grid) && gx >= 0 && gx+1 < len(grid[gy]) {
					putCell(grid, gx, gy, ch)
					putCell(grid, gx+1, gy, wideTail)
				}
			} else {
				putCell(grid, gx, gy, ch)
			}
			col += w
		}
	}
}

// cardLines wraps card text to the displayed inner width, word boundaries
// first and a hard break for anything still over.
func cardLines(text string, cols int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	wrapped := wrap.String(wordwrap.String(text, cols), cols)
	return strings.Split(wrapped, "\n")
}

// wideTail marks the trailing cell of a double-width rune. The grid holds
// one entry per terminal cell; renderCanvas drops tails when joining rows
// so a wide rune contributes exactly its two cells of display width.
const wideTail rune = 0

func putCell(grid [][]rune, x, y int, ch rune) {
	if y < 0 || y >= len(grid) {
		return
	}
	row := grid[y]
	if x < 0 || x >= len(row) {
		return
	}
	// Overwriting half of a wide rune blanks the surviving half.
	if row[x] == wideTail && x > 0 {
		row[x-1] = ' '
	}
	if runewidth.RuneWidth(row[x]) == 2 && x+1 < len(row) && row[x+1] == wideTail {
		row[x+1] = ' '
	}
	row[x] = ch
}
