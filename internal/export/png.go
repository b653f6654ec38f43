// Package export rasterizes a workspace to a PNG image.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/hylla/slab/internal/domain"
	"github.com/hylla/slab/internal/measure"
)

// ErrNothingToExport reports a workspace with no cards.
var ErrNothingToExport = errors.New("nothing to export")

const (
	exportPadding = 40.0 // workspace units around the card bounds
	fontSize      = 12.0
)

// Renderer draws workspaces at a fixed 1 pixel per workspace unit, using
// the shared text metrics so wrapping in the image matches the live view.
type Renderer struct {
	metrics measure.Metrics
}

// NewRenderer returns a renderer over the given text metrics.
func NewRenderer(metrics measure.Metrics) *Renderer {
	return &Renderer{metrics: metrics}
}

// EncodePNG renders every card in the workspace, bottom to top in stacking
// order, cropped to the card bounds plus padding.
func (r *Renderer) EncodePNG(ws domain.Workspace, w io.Writer) error {
	ws = ws.Reconciled()
	if len(ws.Cards) == 0 {
		return ErrNothingToExport
	}

	minX, minY, maxX, maxY := bounds(ws)
	minX -= exportPadding
	minY -= exportPadding
	maxX += exportPadding
	maxY += exportPadding

	dc := gg.NewContext(int(maxX-minX), int(maxY-minY))
	dc.SetColor(color.White)
	dc.Clear()

	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return fmt.Errorf("parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(ttfFont, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	for _, id := range ws.Stacking() {
		r.drawCard(dc, ws.Cards[id], minX, minY)
	}
	return dc.EncodePNG(w)
}

// bounds returns the bounding rectangle of all cards in workspace units.
func bounds(ws domain.Workspace) (minX, minY, maxX, maxY float64) {
	first := true
	for _, card := range ws.Cards {
		left, top := card.Position.X, card.Position.Y
		right, bottom := left+card.Size.Width, top+card.Size.Height
		if first {
			minX, minY, maxX, maxY = left, top, right, bottom
			first = false
			continue
		}
		if left < minX {
			minX = left
		}
		if top < minY {
			minY = top
		}
		if right > maxX {
			maxX = right
		}
		if bottom > maxY {
			maxY = bottom
		}
	}
	return minX, minY, maxX, maxY
}

func (r *Renderer) drawCard(dc *gg.Context, card domain.Card, minX, minY float64) {
	x := card.Position.X - minX
	y := card.Position.Y - minY

	// Opaque fill first so cards underneath do not show through.
	dc.SetColor(color.White)
	dc.DrawRectangle(x, y, card.Size.Width, card.Size.Height)
	dc.Fill()
	dc.SetLineWidth(1.0)
	dc.SetColor(color.Black)
	dc.DrawRectangle(x, y, card.Size.Width, card.Size.Height)
	dc.Stroke()

	lines := r.metrics.WrapText(card.Text, card.Size.Width)
	maxRows := int((card.Size.Height - 2*r.metrics.PaddingY) / r.metrics.UnitsPerRow)
	if len(lines) > maxRows {
		lines = lines[:maxRows]
	}
	textX := x + r.metrics.PaddingX
	textY := y + r.metrics.PaddingY + fontSize
	for i, line := range lines {
		dc.DrawString(line, textX, textY+float64(i)*r.metrics.UnitsPerRow)
	}
}
