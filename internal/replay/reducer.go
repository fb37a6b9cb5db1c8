package replay

import (
	"github.com/waypointhq/waypoint/server/internal/model"
)

// Reduce folds the message log and the normalized event log into one snapshot
// per message.
//
// Events are charged to the first message whose creation time is at or after
// their own ("<=", not "<"): an event recorded at exactly a message's
// timestamp produced that message, so it must be folded in before the
// snapshot is taken. Events older than the first message fold into step 0.
// Events newer than the last message are never applied.
//
// The accumulator only grows; every emitted snapshot is a deep copy so later
// steps cannot retroactively change earlier ones.
func Reduce(msgs []*model.Message, events []ToolCallEvent) []model.ReplaySnapshot {
	if len(msgs) == 0 {
		return []model.ReplaySnapshot{}
	}

	var state model.CumulativeState
	snapshots := make([]model.ReplaySnapshot, 0, len(msgs))
	next := 0 // index of the first unapplied event; both logs are time-sorted

	for i, msg := range msgs {
		delta := &model.StateDelta{}
		var applied appliedKinds
		for next < len(events) && !events[next].CreationTime.After(msg.CreationTime) {
			applyEvent(&state, events[next], delta, &applied)
			next++
		}

		snapshots = append(snapshots, model.ReplaySnapshot{
			SequenceNumber: i + 1,
			Message:        *msg,
			State:          state.Clone(),
			UIHints:        deriveHints(&state, msg.Role, delta, applied),
		})
	}
	return snapshots
}

type appliedKinds struct {
	findProviders   bool
	searchAddresses bool
	providerInfo    bool
}

func applyEvent(state *model.CumulativeState, ev ToolCallEvent, delta *model.StateDelta, applied *appliedKinds) {
	switch ev.Kind {
	case model.ToolFindProviders:
		applied.findProviders = true
		p := ev.FindProviders
		for _, provider := range p.Providers {
			upsertProvider(state, provider)
			delta.Providers = append(delta.Providers, provider)
			if len(provider.ServiceZone) > 0 {
				ref := model.ZoneRef{
					ProviderID:   provider.ProviderID,
					ProviderName: provider.Name,
					GeoJSON:      provider.ServiceZone,
				}
				if addZoneRef(state, ref) {
					delta.ServiceZones = append(delta.ServiceZones, ref)
				}
			}
		}
		if p.SourceAddress != "" {
			state.SourceAddress = p.SourceAddress
			delta.SourceAddress = p.SourceAddress
		}
		if p.DestinationAddress != "" {
			state.DestinationAddress = p.DestinationAddress
			delta.DestinationAddress = p.DestinationAddress
		}
		if p.OriginCoordinates != nil {
			c := *p.OriginCoordinates
			state.OriginCoordinates = &c
			delta.OriginCoordinates = &c
		}
		if p.DestinationCoordinates != nil {
			c := *p.DestinationCoordinates
			state.DestinationCoordinates = &c
			delta.DestinationCoordinates = &c
		}
		if p.PublicTransit != nil {
			state.PublicTransit = p.PublicTransit
			delta.PublicTransit = p.PublicTransit
		}

	case model.ToolSearchAddresses:
		applied.searchAddresses = true
		for _, place := range ev.SearchAddresses.Places {
			if addPlace(state, place) {
				delta.Addresses = append(delta.Addresses, place)
			}
		}

	case model.ToolGetProviderInfo:
		applied.providerInfo = true
		info := ev.ProviderInfo
		if info.ProviderID == "" {
			return
		}
		if state.ProviderDetails == nil {
			state.ProviderDetails = make(map[string]string)
		}
		state.ProviderDetails[info.ProviderID] = info.ProviderInfo
		if delta.ProviderDetails == nil {
			delta.ProviderDetails = make(map[string]string)
		}
		delta.ProviderDetails[info.ProviderID] = info.ProviderInfo
	}
}

// deriveHints computes the per-step directives. When several kinds fire in
// one step the highlight/map-action winner follows the fixed priority
// find_providers > search_addresses > get_provider_info.
func deriveHints(state *model.CumulativeState, role string, delta *model.StateDelta, applied appliedKinds) model.UIHints {
	hints := model.UIHints{}
	assistant := role == model.RoleAssistant

	if applied.findProviders {
		hints.ShowProviders = assistant
		hints.HighlightTool = string(model.ToolFindProviders)
		hints.MapAction = model.MapActionShowZones
	}
	if applied.searchAddresses {
		hints.ShowAddresses = assistant
		if hints.HighlightTool == "" {
			hints.HighlightTool = string(model.ToolSearchAddresses)
		}
		if hints.MapAction == "" {
			hints.MapAction = model.MapActionAddPings
		}
	}
	if applied.providerInfo && hints.HighlightTool == "" {
		hints.HighlightTool = string(model.ToolGetProviderInfo)
	}

	// Once both trip endpoints are known (now or earlier) the map frames them
	// unless a tool already claimed the action this step.
	if hints.MapAction == "" && state.SourceAddress != "" && state.DestinationAddress != "" {
		hints.MapAction = model.MapActionFocus
	}

	if !delta.Empty() {
		hints.NewData = delta
	}
	return hints
}

// upsertProvider merges by provider id: a later sighting of the same provider
// overwrites in place, anything new appends. Nothing is ever removed.
func upsertProvider(state *model.CumulativeState, p model.Provider) {
	for i := range state.Providers {
		if state.Providers[i].ProviderID == p.ProviderID {
			state.Providers[i] = p
			return
		}
	}
	state.Providers = append(state.Providers, p)
}

func addZoneRef(state *model.CumulativeState, ref model.ZoneRef) bool {
	for _, z := range state.ServiceZones {
		if z.ProviderID == ref.ProviderID {
			return false
		}
	}
	state.ServiceZones = append(state.ServiceZones, ref)
	return true
}

func addPlace(state *model.CumulativeState, place model.Place) bool {
	for _, a := range state.Addresses {
		if a.Name == place.Name && a.FormattedAddress == place.FormattedAddress {
			return false
		}
	}
	state.Addresses = append(state.Addresses, place)
	return true
}
