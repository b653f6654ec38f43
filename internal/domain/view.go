package domain

// Zoom bounds and the multiplicative step applied per wheel notch.
const (
	MinZoom       = 0.1
	MaxZoom       = 10.0
	WheelZoomStep = 1.1
)

// ViewState is the per-workspace camera: Pan is the screen-space offset of
// the workspace origin, Zoom the uniform scale applied before translation.
type ViewState struct {
	Pan  Point   `json:"pan"`
	Zoom float64 `json:"zoom"`
}

// DefaultViewState returns the camera for a fresh workspace.
func DefaultViewState() ViewState {
	return ViewState{Zoom: 1}
}

// ClampZoom bounds z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// Normalized repairs a view state read from an untrusted document: a
// non-positive zoom becomes 1, anything else is clamped into range.
func (v ViewState) Normalized() ViewState {
	if v.Zoom <= 0 {
		v.Zoom = 1
	}
	v.Zoom = ClampZoom(v.Zoom)
	return v
}

// ViewPatch is a partial view-state update: nil fields are left unchanged.
type ViewPatch struct {
	Pan  *Point
	Zoom *float64
}

// Apply merges the patch into v, clamping zoom.
func (p ViewPatch) Apply(v ViewState) ViewState {
	if p.Pan != nil {
		v.Pan = *p.Pan
	}
	if p.Zoom != nil {
		v.Zoom = ClampZoom(*p.Zoom)
	}
	return v
}
