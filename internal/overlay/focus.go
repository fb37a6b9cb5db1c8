package overlay

import (
	"sync"

	"github.com/waypointhq/waypoint/server/internal/model"
)

// Close-in zoom used when framing a single point.
const pointZoom = 15

// FocusRequest asks the rendering layer to frame a center at a zoom. The
// controller only publishes requests; it never moves a map itself.
type FocusRequest struct {
	Center  model.Coordinates `json:"center"`
	Zoom    int               `json:"zoom"`
	Padding int               `json:"padding"`
}

// zoomSteps maps a degree span to a zoom level, widest first. Evaluated top
// down, first match wins.
var zoomSteps = []struct {
	span float64
	zoom int
}{
	{10, 6},
	{5, 7},
	{2, 8},
	{1, 9},
	{0.5, 10},
	{0.2, 11},
	{0.1, 12},
	{0.05, 13},
	{0.02, 14},
}

func zoomForSpan(span float64) int {
	for _, step := range zoomSteps {
		if span > step.span {
			return step.zoom
		}
	}
	return pointZoom
}

// FocusController turns geometries into focus requests and publishes the
// latest one to subscribers. Publishing a request equal to the current one is
// a no-op, so replaying the same focus never creeps the version forward.
type FocusController struct {
	mu      sync.Mutex
	current *FocusRequest
	version uint64
	subs    map[int]func(FocusRequest)
	nextSub int
}

func NewFocusController() *FocusController {
	return &FocusController{subs: make(map[int]func(FocusRequest))}
}

// RequestForBounds is the pure geometry half: midpoint center, zoom from the
// span table keyed on the larger of the two extents.
func RequestForBounds(b Bounds, padding int) FocusRequest {
	latSpan, lngSpan := b.Span()
	return FocusRequest{
		Center:  b.Center(),
		Zoom:    zoomForSpan(max(latSpan, lngSpan)),
		Padding: padding,
	}
}

// RequestForPoint frames a single point at the fixed close zoom.
func RequestForPoint(p model.Coordinates, padding int) FocusRequest {
	return FocusRequest{Center: p, Zoom: pointZoom, Padding: padding}
}

// CombineBounds unions any mix of boxes and points, coordinate-wise. Returns
// false when there is nothing to frame.
func CombineBounds(boxes []Bounds, points []model.Coordinates) (Bounds, bool) {
	var out *Bounds
	add := func(b Bounds) {
		if out == nil {
			out = &b
			return
		}
		u := out.Union(b)
		out = &u
	}
	for _, b := range boxes {
		add(b)
	}
	for _, p := range points {
		add(PointBounds(p))
	}
	if out == nil {
		return Bounds{}, false
	}
	return *out, true
}

// FocusBounds publishes a request framing the box.
func (c *FocusController) FocusBounds(b Bounds, padding int) FocusRequest {
	req := RequestForBounds(b, padding)
	c.publish(req)
	return req
}

// FocusPoint publishes a request framing a single point.
func (c *FocusController) FocusPoint(p model.Coordinates, padding int) FocusRequest {
	req := RequestForPoint(p, padding)
	c.publish(req)
	return req
}

// FocusAll combines boxes and points and publishes a request for the union.
// A single point input collapses to the point rule.
func (c *FocusController) FocusAll(boxes []Bounds, points []model.Coordinates, padding int) (FocusRequest, bool) {
	combined, ok := CombineBounds(boxes, points)
	if !ok {
		return FocusRequest{}, false
	}
	return c.FocusBounds(combined, padding), true
}

// Current returns the last published request, if any.
func (c *FocusController) Current() (FocusRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return FocusRequest{}, false
	}
	return *c.current, true
}

// Version counts distinct published requests. Repeats do not bump it.
func (c *FocusController) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Subscribe registers fn for every newly published request. The returned
// function cancels the subscription.
func (c *FocusController) Subscribe(fn func(FocusRequest)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *FocusController) publish(req FocusRequest) {
	c.mu.Lock()
	if c.current != nil && *c.current == req {
		c.mu.Unlock()
		return
	}
	c.current = &req
	c.version++
	subs := make([]func(FocusRequest), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(req)
	}
}
