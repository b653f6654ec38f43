// Package measure answers "how tall does this text render at this width",
// the offscreen-measurement half of the resize and auto-grow behaviors. It
// wraps with the same rules the render layer uses so measured and painted
// heights agree.
package measure

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// AutoGrowHysteresis is the slack, in workspace units, required before a
// text change grows its card. It absorbs sub-unit measurement jitter so
// grow-measure feedback loops cannot start.
const AutoGrowHysteresis = 5.0

// Metrics converts between workspace units and text cells. One rendered
// text column occupies UnitsPerColumn workspace units and one row
// UnitsPerRow; the paddings are the card's inner margins in units.
type Metrics struct {
	UnitsPerColumn float64
	UnitsPerRow    float64
	PaddingX       float64
	PaddingY       float64
}

// DefaultMetrics matches the card styling used by the render layer.
func DefaultMetrics() Metrics {
	return Metrics{
		UnitsPerColumn: 10,
		UnitsPerRow:    20,
		PaddingX:       10,
		PaddingY:       20,
	}
}

// Columns returns how many text columns fit inside a card of the given
// width. Never less than one.
func (m Metrics) Columns(width float64) int {
	cols := int((width - 2*m.PaddingX) / m.UnitsPerColumn)
	if cols < 1 {
		cols = 1
	}
	return cols
}

// WrapText wraps text to fit the given card width, breaking on word
// boundaries first and hard-breaking anything still over the limit.
func (m Metrics) WrapText(text string, width float64) []string {
	cols := m.Columns(width)
	wrapped := wrap.String(wordwrap.String(text, cols), cols)
	return strings.Split(wrapped, "\n")
}

// MinHeightForText returns the card height, in workspace units, needed to
// show the whole text at the given width, vertical padding included.
func (m Metrics) MinHeightForText(text string, width float64) float64 {
	lines := m.WrapText(text, width)
	rows := len(lines)
	if rows < 1 {
		rows = 1
	}
	return float64(rows)*m.UnitsPerRow + 2*m.PaddingY
}

// LineWidth returns the display width of one wrapped line, in cells.
func LineWidth(line string) int {
	return runewidth.StringWidth(line)
}
