package gesture

import (
	"github.com/hylla/slab/internal/domain"
	"github.com/hylla/slab/internal/geometry"
)

// ViewMutator is the slice of the store the view controller needs.
type ViewMutator interface {
	UpdateViewState(patch domain.ViewPatch)
}

// Logger receives warnings about degenerate gesture geometry. Controllers
// never log on the per-move hot path.
type Logger interface {
	Warn(msg string, keyvals ...any)
}

type viewMode int

const (
	viewIdle viewMode = iota
	viewPanning
	viewPinching
)

// ViewController owns the camera. During a pan or pinch the controller's
// local view drives rendering and the store is only written at gesture end;
// wheel zoom has no end event and commits immediately. The local view and
// the committed value may only diverge while a gesture is active.
type ViewController struct {
	bus   *Bus
	store ViewMutator
	view  domain.ViewState
	mode  viewMode
	sub   *Subscription
	log   Logger

	panPointer PointerID
	panOffset  domain.Point

	pinchA         PointerID
	pinchB         PointerID
	pinchStartDist float64
	pinchStartView domain.ViewState
	pinchAnchor    domain.Point // workspace point under the initial midpoint
}

// NewViewController returns an idle controller seeded with the committed
// view state.
func NewViewController(bus *Bus, store ViewMutator, view domain.ViewState) *ViewController {
	return &ViewController{bus: bus, store: store, view: view.Normalized()}
}

// SetLogger routes degenerate-geometry warnings somewhere visible. A nil
// logger keeps the controller silent.
func (c *ViewController) SetLogger(log Logger) {
	c.log = log
}

// View returns the live camera the render layer should draw with.
func (c *ViewController) View() domain.ViewState {
	return c.view
}

// SetView replaces the camera outside of a gesture, e.g. after a workspace
// switch or a center-on-point. Ignored while a gesture is active so the two
// states cannot silently diverge mid-gesture.
func (c *ViewController) SetView(view domain.ViewState) {
	if c.mode != viewIdle {
		return
	}
	c.view = view.Normalized()
}

// Panning reports whether a single-pointer pan is in progress.
func (c *ViewController) Panning() bool { return c.mode == viewPanning }

// Pinching reports whether a two-finger pinch is in progress.
func (c *ViewController) Pinching() bool { return c.mode == viewPinching }

// WheelZoom steps the zoom by one wheel notch about the screen anchor,
// keeping the workspace point under the anchor fixed, and commits
// immediately.
func (c *ViewController) WheelZoom(anchor domain.Point, zoomIn bool) {
	target := c.view.Zoom * domain.WheelZoomStep
	if !zoomIn {
		target = c.view.Zoom / domain.WheelZoomStep
	}
	c.view = geometry.ZoomAt(c.view, anchor, target)
	c.commit()
}

// PointerDown begins a pan. The render layer only routes presses that
// originated on empty canvas here; presses within a card region belong to
// that card's own controller.
func (c *ViewController) PointerDown(id PointerID, pos domain.Point) {
	if c.mode != viewIdle {
		return
	}
	c.mode = viewPanning
	c.panPointer = id
	c.panOffset = pos.Sub(c.view.Pan)
	c.attach()
}

// TouchStart feeds the current set of live contacts after a touch began on
// empty canvas. One finger pans; a second finger promotes the gesture to a
// pinch, cancelling the pan without committing it.
func (c *ViewController) TouchStart(touches []Touch) {
	switch {
	case len(touches) == 0:
		return
	case len(touches) == 1:
		c.PointerDown(touches[0].ID, touches[0].Position)
	default:
		if c.mode == viewPinching {
			return
		}
		c.startPinch(touches[0], touches[1])
	}
}

func (c *ViewController) startPinch(a, b Touch) {
	c.mode = viewPinching
	c.pinchA = a.ID
	c.pinchB = b.ID
	c.pinchStartDist = a.Position.Distance(b.Position)
	c.pinchStartView = c.view
	mid := domain.Midpoint(a.Position, b.Position)
	c.pinchAnchor = geometry.ToWorkspace(mid, c.view)
	c.attach()
}

// Teardown force-ends any in-progress gesture without committing and
// detaches the move listener. Called when the canvas unmounts.
func (c *ViewController) Teardown() {
	c.mode = viewIdle
	c.detach()
}

func (c *ViewController) attach() {
	if c.sub == nil {
		c.sub = c.bus.Subscribe(c.handle)
	}
}

func (c *ViewController) detach() {
	c.sub.Close()
	c.sub = nil
}

func (c *ViewController) handle(ev PointerEvent) {
	switch c.mode {
	case viewPanning:
		c.handlePan(ev)
	case viewPinching:
		c.handlePinch(ev)
	}
}

func (c *ViewController) handlePan(ev PointerEvent) {
	if ev.ID != c.panPointer {
		return
	}
	switch ev.Kind {
	case EventMove:
		c.view.Pan = ev.Position.Sub(c.panOffset)
	case EventUp, EventCancel:
		c.mode = viewIdle
		c.detach()
		c.commit()
	}
}

func (c *ViewController) handlePinch(ev PointerEvent) {
	switch ev.Kind {
	case EventMove:
		a, okA := ev.TouchByID(c.pinchA)
		b, okB := ev.TouchByID(c.pinchB)
		if !okA || !okB {
			return
		}
		dist := a.Position.Distance(b.Position)
		if c.pinchStartDist == 0 {
			// Degenerate start: adopt the first usable distance and skip
			// the zoom update for this frame.
			if c.log != nil {
				c.log.Warn("pinch started at zero distance, skipping zoom frame")
			}
			c.pinchStartDist = dist
			return
		}
		mid := domain.Midpoint(a.Position, b.Position)
		zoom := domain.ClampZoom(c.pinchStartView.Zoom * (dist / c.pinchStartDist))
		c.view = domain.ViewState{
			Pan:  geometry.PanForAnchor(mid, c.pinchAnchor, zoom),
			Zoom: zoom,
		}
	case EventUp, EventCancel:
		// Releasing either tracked finger ends the pinch; other contacts
		// never drove the math and are ignored.
		if ev.ID != c.pinchA && ev.ID != c.pinchB {
			return
		}
		c.mode = viewIdle
		c.detach()
		c.commit()
	}
}

func (c *ViewController) commit() {
	pan := c.view.Pan
	zoom := c.view.Zoom
	c.store.UpdateViewState(domain.ViewPatch{Pan: &pan, Zoom: &zoom})
}
