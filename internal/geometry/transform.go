// Package geometry holds the pure coordinate math relating screen space to
// workspace space. Every gesture controller goes through these functions so
// pointer deltas and stored positions stay consistent at any zoom level.
package geometry

import "github.com/hylla/slab/internal/domain"

// ToWorkspace converts a screen-space point into workspace space.
func ToWorkspace(screen domain.Point, view domain.ViewState) domain.Point {
	return domain.Point{
		X: (screen.X - view.Pan.X) / view.Zoom,
		Y: (screen.Y - view.Pan.Y) / view.Zoom,
	}
}

// ToScreen converts a workspace-space point into screen space.
func ToScreen(workspace domain.Point, view domain.ViewState) domain.Point {
	return domain.Point{
		X: workspace.X*view.Zoom + view.Pan.X,
		Y: workspace.Y*view.Zoom + view.Pan.Y,
	}
}

// PanForAnchor solves the pan that maps the workspace point back onto the
// given screen anchor at the given zoom.
func PanForAnchor(anchor, workspace domain.Point, zoom float64) domain.Point {
	return anchor.Sub(workspace.Scale(zoom))
}

// ZoomAt returns the view zoomed to newZoom such that the workspace point
// currently under the screen anchor stays under it. The zoom is clamped.
func ZoomAt(view domain.ViewState, anchor domain.Point, newZoom float64) domain.ViewState {
	newZoom = domain.ClampZoom(newZoom)
	under := ToWorkspace(anchor, view)
	return domain.ViewState{
		Pan:  PanForAnchor(anchor, under, newZoom),
		Zoom: newZoom,
	}
}

// Viewport is the live size of the visible canvas, in screen units.
type Viewport struct {
	Width  float64
	Height float64
}

// Center returns the viewport's center in screen space.
func (v Viewport) Center() domain.Point {
	return domain.Point{X: v.Width / 2, Y: v.Height / 2}
}

// IsZero reports whether the viewport has no usable area.
func (v Viewport) IsZero() bool {
	return v.Width <= 0 || v.Height <= 0
}

// CenterPan solves the pan that places the workspace point at the viewport
// center, preserving zoom.
func CenterPan(point domain.Point, viewport Viewport, zoom float64) domain.Point {
	return PanForAnchor(viewport.Center(), point, zoom)
}
