package model

import (
	"encoding/json"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation groups an ordered message log with its tool-call side effects.
type Conversation struct {
	ConversationID string    `json:"conversationId"`
	Title          string    `json:"title"`
	CreationTime   time.Time `json:"creationTime"`
}

// Message is an immutable chat message. Ordering within a conversation is by
// CreationTime ascending, ties broken by Seq (insertion order).
type Message struct {
	MessageID      string    `json:"messageId"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreationTime   time.Time `json:"creationTime"`
	Seq            int64     `json:"seq"`
}

// Coordinates is a WGS84 point. Lat must be in [-90,90], Lng in [-180,180].
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is inside the WGS84 envelope.
func (c Coordinates) Valid() bool {
	return c.Lat == c.Lat && c.Lng == c.Lng && // NaN guard
		c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Place is a resolved address lookup result.
type Place struct {
	Name             string       `json:"name"`
	FormattedAddress string       `json:"formattedAddress"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
}

// Provider is a transportation provider from the directory. ServiceZone, when
// present, holds a GeoJSON Polygon/MultiPolygon/Feature/FeatureCollection.
type Provider struct {
	ProviderID              string            `json:"providerId"`
	Name                    string            `json:"name"`
	Type                    string            `json:"type"`
	RoutingType             string            `json:"routingType"`
	EligibilityRequirements []string          `json:"eligibilityRequirements,omitempty"`
	ServiceHours            string            `json:"serviceHours,omitempty"`
	ServiceZone             json.RawMessage   `json:"serviceZone,omitempty"`
	Website                 string            `json:"website,omitempty"`
	Contacts                map[string]string `json:"contacts,omitempty"`
	CreationTime            time.Time         `json:"creationTime"`
}

// TransitSummary describes a public-transit alternative between the trip
// endpoints. Path is the decoded overview polyline.
type TransitSummary struct {
	Summary         string        `json:"summary"`
	DurationMinutes int           `json:"durationMinutes,omitempty"`
	Fare            string        `json:"fare,omitempty"`
	Path            []Coordinates `json:"path,omitempty"`
}

// ToolKind discriminates stored tool-call records.
type ToolKind string

const (
	ToolFindProviders   ToolKind = "find_providers"
	ToolSearchAddresses ToolKind = "search_addresses"
	ToolGetProviderInfo ToolKind = "get_provider_info"
)

// ToolCallRecord is a raw stored side-effect row. Payload is kept verbatim;
// a corrupt payload is normalized away later, never rejected at read time.
type ToolCallRecord struct {
	RecordID       string          `json:"recordId"`
	ConversationID string          `json:"conversationId"`
	Kind           ToolKind        `json:"kind"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	CreationTime   time.Time       `json:"creationTime"`
}

// FindProvidersPayload is the result of a provider search.
type FindProvidersPayload struct {
	Providers              []Provider      `json:"providers"`
	SourceAddress          string          `json:"sourceAddress,omitempty"`
	DestinationAddress     string          `json:"destinationAddress,omitempty"`
	OriginCoordinates      *Coordinates    `json:"originCoordinates,omitempty"`
	DestinationCoordinates *Coordinates    `json:"destinationCoordinates,omitempty"`
	PublicTransit          *TransitSummary `json:"publicTransit,omitempty"`
}

// SearchAddressesPayload is the result of an address search.
type SearchAddressesPayload struct {
	Places []Place `json:"places"`
}

// ProviderInfoPayload is the result of a provider-info lookup.
type ProviderInfoPayload struct {
	ProviderID   string `json:"providerId"`
	ProviderInfo string `json:"providerInfo"`
}

// ZoneRef is a zone-level reference carried in replay state so the map layer
// can render a provider's coverage without re-reading the directory.
type ZoneRef struct {
	ProviderID   string          `json:"providerId"`
	ProviderName string          `json:"providerName"`
	GeoJSON      json.RawMessage `json:"geoJson"`
}

// CumulativeState is the replay accumulator. It only ever grows within one
// replay pass; later events add to or overwrite fields, never roll back.
type CumulativeState struct {
	Providers              []Provider        `json:"providers"`
	Addresses              []Place           `json:"addresses"`
	SourceAddress          string            `json:"sourceAddress,omitempty"`
	DestinationAddress     string            `json:"destinationAddress,omitempty"`
	OriginCoordinates      *Coordinates      `json:"originCoordinates,omitempty"`
	DestinationCoordinates *Coordinates      `json:"destinationCoordinates,omitempty"`
	PublicTransit          *TransitSummary   `json:"publicTransit,omitempty"`
	ProviderDetails        map[string]string `json:"providerDetails,omitempty"`
	ServiceZones           []ZoneRef         `json:"serviceZones,omitempty"`
}

// Clone returns a deep, independent copy. Snapshots taken during a replay
// pass must never alias the accumulator that keeps mutating after them.
func (s *CumulativeState) Clone() CumulativeState {
	out := CumulativeState{
		SourceAddress:      s.SourceAddress,
		DestinationAddress: s.DestinationAddress,
	}
	if len(s.Providers) > 0 {
		out.Providers = make([]Provider, len(s.Providers))
		for i, p := range s.Providers {
			out.Providers[i] = p.clone()
		}
	}
	if len(s.Addresses) > 0 {
		out.Addresses = make([]Place, len(s.Addresses))
		for i, a := range s.Addresses {
			out.Addresses[i] = a.clone()
		}
	}
	out.OriginCoordinates = cloneCoords(s.OriginCoordinates)
	out.DestinationCoordinates = cloneCoords(s.DestinationCoordinates)
	out.PublicTransit = s.PublicTransit.clone()
	if len(s.ProviderDetails) > 0 {
		out.ProviderDetails = make(map[string]string, len(s.ProviderDetails))
		for k, v := range s.ProviderDetails {
			out.ProviderDetails[k] = v
		}
	}
	if len(s.ServiceZones) > 0 {
		out.ServiceZones = make([]ZoneRef, len(s.ServiceZones))
		for i, z := range s.ServiceZones {
			out.ServiceZones[i] = z.clone()
		}
	}
	return out
}

func (p Provider) clone() Provider {
	out := p
	if len(p.EligibilityRequirements) > 0 {
		out.EligibilityRequirements = append([]string(nil), p.EligibilityRequirements...)
	}
	if len(p.ServiceZone) > 0 {
		out.ServiceZone = append(json.RawMessage(nil), p.ServiceZone...)
	}
	if len(p.Contacts) > 0 {
		out.Contacts = make(map[string]string, len(p.Contacts))
		for k, v := range p.Contacts {
			out.Contacts[k] = v
		}
	}
	return out
}

func (a Place) clone() Place {
	out := a
	out.Coordinates = cloneCoords(a.Coordinates)
	return out
}

func (t *TransitSummary) clone() *TransitSummary {
	if t == nil {
		return nil
	}
	out := *t
	if len(t.Path) > 0 {
		out.Path = append([]Coordinates(nil), t.Path...)
	}
	return &out
}

func (z ZoneRef) clone() ZoneRef {
	out := z
	if len(z.GeoJSON) > 0 {
		out.GeoJSON = append(json.RawMessage(nil), z.GeoJSON...)
	}
	return out
}

func cloneCoords(c *Coordinates) *Coordinates {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

// MapAction tells the replay consumer what to do with the map at a step.
type MapAction string

const (
	MapActionShowZones MapAction = "show_zones"
	MapActionAddPings  MapAction = "add_pings"
	MapActionFocus     MapAction = "focus"
)

// StateDelta carries only the increment applied at one replay step, so a
// consumer can animate what is new without diffing full snapshots.
type StateDelta struct {
	Providers              []Provider        `json:"providers,omitempty"`
	Addresses              []Place           `json:"addresses,omitempty"`
	SourceAddress          string            `json:"sourceAddress,omitempty"`
	DestinationAddress     string            `json:"destinationAddress,omitempty"`
	OriginCoordinates      *Coordinates      `json:"originCoordinates,omitempty"`
	DestinationCoordinates *Coordinates      `json:"destinationCoordinates,omitempty"`
	PublicTransit          *TransitSummary   `json:"publicTransit,omitempty"`
	ProviderDetails        map[string]string `json:"providerDetails,omitempty"`
	ServiceZones           []ZoneRef         `json:"serviceZones,omitempty"`
}

// Empty reports whether the step introduced nothing.
func (d *StateDelta) Empty() bool {
	return d == nil || (len(d.Providers) == 0 && len(d.Addresses) == 0 &&
		d.SourceAddress == "" && d.DestinationAddress == "" &&
		d.OriginCoordinates == nil && d.DestinationCoordinates == nil &&
		d.PublicTransit == nil && len(d.ProviderDetails) == 0 && len(d.ServiceZones) == 0)
}

// UIHints is the derived per-step directive set.
type UIHints struct {
	ShowProviders bool        `json:"showProviders"`
	ShowAddresses bool        `json:"showAddresses"`
	MapAction     MapAction   `json:"mapAction,omitempty"`
	HighlightTool string      `json:"highlightTool,omitempty"`
	NewData       *StateDelta `json:"newData,omitempty"`
}

// ReplaySnapshot pairs one message with the full reconstructed state as of
// that message plus the hints derived for the step.
type ReplaySnapshot struct {
	SequenceNumber int             `json:"sequenceNumber"`
	Message        Message         `json:"message"`
	State          CumulativeState `json:"state"`
	UIHints        UIHints         `json:"uiHints"`
}

// ReplayConfig carries pure playback parameters, passed through verbatim.
type ReplayConfig struct {
	AutoAdvance        bool `json:"autoAdvance"`
	DelayMs            int  `json:"delayMs"`
	ShowTypewriter     bool `json:"showTypewriter"`
	HighlightToolCalls bool `json:"highlightToolCalls"`
}

// DefaultReplayConfig matches the defaults the web player ships with.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		AutoAdvance:        true,
		DelayMs:            1800,
		ShowTypewriter:     true,
		HighlightToolCalls: true,
	}
}

// Replay is the full generated playback for a conversation.
type Replay struct {
	ConversationID string           `json:"conversationId"`
	States         []ReplaySnapshot `json:"states"`
	Config         ReplayConfig     `json:"replayConfig"`
}

// Example is a persisted replay published for other viewers.
type Example struct {
	ExampleID      string           `json:"exampleId"`
	ConversationID string           `json:"conversationId"`
	Title          string           `json:"title"`
	Description    *string          `json:"description,omitempty"`
	Category       string           `json:"category,omitempty"`
	States         []ReplaySnapshot `json:"states"`
	Config         ReplayConfig     `json:"replayConfig"`
	CreationTime   time.Time        `json:"creationTime"`
}
