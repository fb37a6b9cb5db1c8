package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointhq/waypoint/server/internal/model"
)

func box(s, w, n, e float64) Bounds {
	return Bounds{
		SouthWest: model.Coordinates{Lat: s, Lng: w},
		NorthEast: model.Coordinates{Lat: n, Lng: e},
	}
}

func TestZoomForSpanTable(t *testing.T) {
	cases := []struct {
		span float64
		zoom int
	}{
		{20, 6},
		{10.1, 6},
		{7, 7},
		{3, 8},
		{1.5, 9},
		{0.7, 10},
		{0.3, 11},
		{0.15, 12},
		{0.07, 13},
		{0.03, 14},
		{0.01, 15},
		{0, 15},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.zoom, zoomForSpan(tc.span), "span %v", tc.span)
	}
}

func TestFocusPoint(t *testing.T) {
	fc := NewFocusController()
	p := model.Coordinates{Lat: 37.78, Lng: -122.41}

	req := fc.FocusPoint(p, 20)

	assert.Equal(t, p, req.Center)
	assert.Equal(t, pointZoom, req.Zoom)
	assert.Equal(t, 20, req.Padding)
}

func TestFocusBoundsCenterAndZoom(t *testing.T) {
	fc := NewFocusController()

	req := fc.FocusBounds(box(0, 0, 3, 3), 20)

	assert.Equal(t, model.Coordinates{Lat: 1.5, Lng: 1.5}, req.Center)
	assert.Equal(t, 8, req.Zoom) // span 3 sits in the 2..5 degree bucket
}

func TestFocusAllCombinesInputs(t *testing.T) {
	fc := NewFocusController()
	boxes := []Bounds{box(0, 0, 1, 1), box(2, 2, 3, 3)}

	req, ok := fc.FocusAll(boxes, nil, 20)

	require.True(t, ok)
	assert.Equal(t, model.Coordinates{Lat: 1.5, Lng: 1.5}, req.Center)
	assert.Equal(t, 8, req.Zoom)

	_, ok = fc.FocusAll(nil, nil, 20)
	assert.False(t, ok)
}

func TestFocusRepublishIsIdempotent(t *testing.T) {
	fc := NewFocusController()
	var fired int
	cancel := fc.Subscribe(func(FocusRequest) { fired++ })
	defer cancel()

	fc.FocusBounds(box(0, 0, 1, 1), 20)
	fc.FocusBounds(box(0, 0, 1, 1), 20)
	fc.FocusBounds(box(0, 0, 1, 1), 20)

	assert.Equal(t, uint64(1), fc.Version())
	assert.Equal(t, 1, fired)

	fc.FocusBounds(box(0, 0, 2, 2), 20)
	assert.Equal(t, uint64(2), fc.Version())
	assert.Equal(t, 2, fired)

	cur, ok := fc.Current()
	require.True(t, ok)
	assert.Equal(t, model.Coordinates{Lat: 1, Lng: 1}, cur.Center)
}
