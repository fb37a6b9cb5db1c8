package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointhq/waypoint/server/internal/model"
)

func TestApplyDeltaBuildsLayers(t *testing.T) {
	o := New()
	delta := &model.StateDelta{
		SourceAddress:          "1 Main St",
		DestinationAddress:     "9 Elm St",
		OriginCoordinates:      &model.Coordinates{Lat: 0, Lng: 0},
		DestinationCoordinates: &model.Coordinates{Lat: 1, Lng: 1},
		Addresses: []model.Place{
			{Name: "Clinic", FormattedAddress: "9 Elm St", Coordinates: &model.Coordinates{Lat: 2, Lng: 2}},
			{Name: "No coords", FormattedAddress: "nowhere"},
		},
		ServiceZones: []model.ZoneRef{
			{ProviderID: "pr-1", ProviderName: "Metro Access", GeoJSON: unitSquare()},
		},
	}

	require.NoError(t, o.ApplyDelta(delta))

	zones := o.Zones.Zones()
	require.Len(t, zones, 1)
	assert.Equal(t, ZoneProvider, zones[0].Type)
	assert.Equal(t, "pr-1", zones[0].ProviderID)
	assert.Equal(t, "Metro Access", zones[0].Label)

	pings := o.Pings.Pings()
	require.Len(t, pings, 3) // origin, destination, one resolvable address
	assert.Equal(t, PingOrigin, pings[0].Type)
	assert.Equal(t, "1 Main St", pings[0].Label)
	assert.Equal(t, PingDestination, pings[1].Type)
	assert.Equal(t, PingSearchResult, pings[2].Type)
}

func TestApplyDeltaEmptyIsNoop(t *testing.T) {
	o := New()

	require.NoError(t, o.ApplyDelta(&model.StateDelta{}))

	assert.Empty(t, o.Zones.Zones())
	assert.Empty(t, o.Pings.Pings())
	assert.Equal(t, uint64(0), o.Zones.Version())
}

func TestFocusOnZonesAndPings(t *testing.T) {
	o := New()

	_, err := o.Zones.AddZone(ZoneInput{Type: ZoneProvider, GeoJSON: unitSquare()}, false)
	require.NoError(t, err)
	_, err = o.Pings.AddPing(PingInput{Type: PingDestination, Coordinates: model.Coordinates{Lat: 3, Lng: 3}}, false)
	require.NoError(t, err)

	req, ok := o.FocusOnZonesAndPings(20)

	require.True(t, ok)
	assert.Equal(t, model.Coordinates{Lat: 1.5, Lng: 1.5}, req.Center)
	assert.Equal(t, 8, req.Zoom)

	o.Clear()
	_, ok = o.FocusOnZonesAndPings(20)
	assert.False(t, ok)
}
