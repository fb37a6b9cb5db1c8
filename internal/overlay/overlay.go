// Package overlay holds the map layers the chat UI drives: service-zone
// polygons, point markers, and the focus controller that frames them. The
// same operations are driven live by incoming tool results and during replay
// by each snapshot's new_data increment.
package overlay

import (
	"github.com/waypointhq/waypoint/server/internal/model"
)

// defaultPadding is the fitBounds padding, in pixels, used when an operation
// does not pass its own.
const defaultPadding = 20

// Overlay bundles the two stores with their shared focus controller.
type Overlay struct {
	Zones *ZoneStore
	Pings *PingStore
	Focus *FocusController
}

// New wires an empty overlay around one focus controller.
func New() *Overlay {
	fc := NewFocusController()
	return &Overlay{
		Zones: NewZoneStore(fc),
		Pings: NewPingStore(fc),
		Focus: fc,
	}
}

// FocusOnZonesAndPings frames the union of every zone box and every marker.
func (o *Overlay) FocusOnZonesAndPings(padding int) (FocusRequest, bool) {
	return o.Focus.FocusAll(o.Zones.allBounds(), o.Pings.allPoints(), padding)
}

// ApplyDelta renders one replay step's increment: new service zones become
// provider polygons, new endpoint coordinates and address results become
// markers. The map action itself (show_zones, add_pings, focus) is the
// player's call; ApplyDelta only maintains the layers.
func (o *Overlay) ApplyDelta(delta *model.StateDelta) error {
	if delta.Empty() {
		return nil
	}

	zoneIns := make([]ZoneInput, 0, len(delta.ServiceZones))
	for _, ref := range delta.ServiceZones {
		zoneIns = append(zoneIns, ZoneInput{
			Type:       ZoneProvider,
			GeoJSON:    ref.GeoJSON,
			Label:      ref.ProviderName,
			ProviderID: ref.ProviderID,
		})
	}
	if len(zoneIns) > 0 {
		if _, err := o.Zones.AddZones(zoneIns, false); err != nil {
			return err
		}
	}

	var pingIns []PingInput
	if delta.OriginCoordinates != nil {
		pingIns = append(pingIns, PingInput{
			Type:        PingOrigin,
			Coordinates: *delta.OriginCoordinates,
			Label:       delta.SourceAddress,
		})
	}
	if delta.DestinationCoordinates != nil {
		pingIns = append(pingIns, PingInput{
			Type:        PingDestination,
			Coordinates: *delta.DestinationCoordinates,
			Label:       delta.DestinationAddress,
		})
	}
	for _, place := range delta.Addresses {
		if place.Coordinates == nil {
			continue
		}
		pingIns = append(pingIns, PingInput{
			Type:        PingSearchResult,
			Coordinates: *place.Coordinates,
			Label:       place.Name,
			Description: place.FormattedAddress,
		})
	}
	if len(pingIns) > 0 {
		if _, err := o.Pings.AddPings(pingIns, false); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties both layers.
func (o *Overlay) Clear() {
	o.Zones.ClearAll()
	o.Pings.ClearAll()
}
