package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointhq/waypoint/server/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	c := New("test-key", time.Minute, zerolog.Nop())
	c.SetBaseURL(srv.URL)
	return c, &calls
}

func TestGeocodeParsesAndCaches(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "1 Main St", r.URL.Query().Get("address"))
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "1 Main St, Springfield",
				"geometry": {"location": {"lat": 37.78, "lng": -122.41}}
			}]
		}`))
	})

	place, err := c.Geocode(context.Background(), "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, "1 Main St, Springfield", place.FormattedAddress)
	require.NotNil(t, place.Coordinates)
	assert.Equal(t, 37.78, place.Coordinates.Lat)
	assert.Equal(t, -122.41, place.Coordinates.Lng)

	// Second lookup is served from cache.
	_, err = c.Geocode(context.Background(), "1 Main St")
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
}

func TestGeocodeStatuses(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})
	_, err := c.Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, model.ErrNotFound)

	c, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "OVER_QUERY_LIMIT"}`))
	})
	_, err = c.Geocode(context.Background(), "1 Main St")
	assert.ErrorIs(t, err, model.ErrGeocodingUnavailable)

	c, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = c.Geocode(context.Background(), "1 Main St")
	assert.ErrorIs(t, err, model.ErrGeocodingUnavailable)
}

func TestSearchPlaces(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/textsearch/json", r.URL.Path)
		assert.Equal(t, "pharmacy near downtown", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"name": "Corner Pharmacy", "formatted_address": "2 Oak Ave",
				 "geometry": {"location": {"lat": 1, "lng": 2}}},
				{"name": "Central Drug", "formatted_address": "9 Elm St",
				 "geometry": {"location": {"lat": 3, "lng": 4}}}
			]
		}`))
	})

	places, err := c.SearchPlaces(context.Background(), "pharmacy near downtown")
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Corner Pharmacy", places[0].Name)
	assert.Equal(t, 3.0, places[1].Coordinates.Lat)
}

func TestTransitDirectionsDecodesPolyline(t *testing.T) {
	// "_p~iF~ps|U_ulLnnqC" is the canonical example encoding of
	// (38.5,-120.2) -> (40.7,-120.95).
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/directions/json", r.URL.Path)
		assert.Equal(t, "transit", r.URL.Query().Get("mode"))
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"summary": "Route 40 bus",
				"legs": [{"duration": {"value": 1860}}],
				"fare": {"text": "$2.50"},
				"overview_polyline": {"points": "_p~iF~ps|U_ulLnnqC"}
			}]
		}`))
	})

	sum, err := c.TransitDirections(context.Background(), "1 Main St", "9 Elm St")
	require.NoError(t, err)
	assert.Equal(t, "Route 40 bus", sum.Summary)
	assert.Equal(t, 31, sum.DurationMinutes)
	assert.Equal(t, "$2.50", sum.Fare)
	require.Len(t, sum.Path, 2)
	assert.InDelta(t, 38.5, sum.Path[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, sum.Path[0].Lng, 1e-5)
	assert.InDelta(t, 40.7, sum.Path[1].Lat, 1e-5)
}

func TestTransitDirectionsNoRoute(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
	})

	_, err := c.TransitDirections(context.Background(), "a", "b")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
