package overlay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointhq/waypoint/server/internal/model"
)

func polygon(coords string) json.RawMessage {
	return json.RawMessage(`{"type":"Polygon","coordinates":` + coords + `}`)
}

// unitSquare covers lat 0..1, lng 0..1. GeoJSON positions are [lng,lat].
func unitSquare() json.RawMessage {
	return polygon(`[[[0,0],[1,0],[1,1],[0,1],[0,0]]]`)
}

func TestBoundsFromPolygon(t *testing.T) {
	raw := polygon(`[[[-122.5,37.7],[-122.3,37.7],[-122.3,37.9],[-122.5,37.9],[-122.5,37.7]]]`)

	b, err := BoundsFromGeoJSON(raw)

	require.NoError(t, err)
	assert.Equal(t, model.Coordinates{Lat: 37.7, Lng: -122.5}, b.SouthWest)
	assert.Equal(t, model.Coordinates{Lat: 37.9, Lng: -122.3}, b.NorthEast)
}

func TestBoundsFromMultiPolygonAndFeature(t *testing.T) {
	multi := json.RawMessage(`{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]],[[[2,2],[3,2],[3,3],[2,2]]]]}`)
	b, err := BoundsFromGeoJSON(multi)
	require.NoError(t, err)
	assert.Equal(t, model.Coordinates{Lat: 0, Lng: 0}, b.SouthWest)
	assert.Equal(t, model.Coordinates{Lat: 3, Lng: 3}, b.NorthEast)

	feature := json.RawMessage(`{"type":"Feature","properties":{},"geometry":` + string(unitSquare()) + `}`)
	b, err = BoundsFromGeoJSON(feature)
	require.NoError(t, err)
	assert.Equal(t, model.Coordinates{Lat: 1, Lng: 1}, b.NorthEast)

	fc := json.RawMessage(`{"type":"FeatureCollection","features":[` + string(feature) + `]}`)
	b, err = BoundsFromGeoJSON(fc)
	require.NoError(t, err)
	assert.Equal(t, model.Coordinates{Lat: 0, Lng: 0}, b.SouthWest)
}

func TestBoundsRejectsUnsupportedGeometry(t *testing.T) {
	cases := map[string]json.RawMessage{
		"missing":          nil,
		"point":            json.RawMessage(`{"type":"Point","coordinates":[0,0]}`),
		"line":             json.RawMessage(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`),
		"no type":          json.RawMessage(`{"coordinates":[[[0,0]]]}`),
		"empty collection": json.RawMessage(`{"type":"FeatureCollection","features":[]}`),
		"garbage":          json.RawMessage(`{"type":"Polygon","coordinates":"nope"}`),
	}
	for name, raw := range cases {
		_, err := BoundsFromGeoJSON(raw)
		assert.ErrorIs(t, err, model.ErrInvalidGeometry, name)
	}
}

func TestBoundsJSONShape(t *testing.T) {
	b := Bounds{
		SouthWest: model.Coordinates{Lat: 0.5, Lng: -1.5},
		NorthEast: model.Coordinates{Lat: 2, Lng: 3},
	}

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `[[0.5,-1.5],[2,3]]`, string(data))

	var back Bounds
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, b, back)
}

func TestBoundsUnionAndCenter(t *testing.T) {
	a := Bounds{SouthWest: model.Coordinates{Lat: 0, Lng: 0}, NorthEast: model.Coordinates{Lat: 1, Lng: 1}}
	b := Bounds{SouthWest: model.Coordinates{Lat: 2, Lng: 2}, NorthEast: model.Coordinates{Lat: 3, Lng: 3}}

	u := a.Union(b)
	assert.Equal(t, model.Coordinates{Lat: 0, Lng: 0}, u.SouthWest)
	assert.Equal(t, model.Coordinates{Lat: 3, Lng: 3}, u.NorthEast)
	assert.Equal(t, model.Coordinates{Lat: 1.5, Lng: 1.5}, u.Center())

	latSpan, lngSpan := u.Span()
	assert.Equal(t, 3.0, latSpan)
	assert.Equal(t, 3.0, lngSpan)
}
