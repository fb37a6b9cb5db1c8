package overlay

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ZoneType classifies a service zone.
type ZoneType string

const (
	ZoneProvider    ZoneType = "provider"
	ZoneCoverage    ZoneType = "coverage"
	ZoneEligibility ZoneType = "eligibility"
	ZoneCustom      ZoneType = "custom"
)

// providerPalette colors provider zones that arrive without an explicit
// color. The store walks it with a cursor so batches of providers come out in
// a repeatable, visually distinct order.
var providerPalette = []string{
	"#2563eb", "#16a34a", "#dc2626", "#9333ea",
	"#ea580c", "#0d9488", "#db2777", "#ca8a04",
}

// ZoneConfig is the rendering style of a zone polygon.
type ZoneConfig struct {
	Color     string  `json:"color"`
	Weight    int     `json:"weight"`
	Opacity   float64 `json:"opacity"`
	DashArray string  `json:"dashArray,omitempty"`
}

func defaultZoneConfig(t ZoneType) ZoneConfig {
	cfg := ZoneConfig{Color: "#2563eb", Weight: 2, Opacity: 0.25}
	switch t {
	case ZoneCoverage:
		cfg.Color = "#0d9488"
	case ZoneEligibility:
		cfg.Color = "#ca8a04"
		cfg.DashArray = "6 4"
	case ZoneCustom:
		cfg.Color = "#6b7280"
	}
	return cfg
}

// ZoneInput is what callers hand AddZone. Config fields left at their zero
// value fall back to the per-type defaults.
type ZoneInput struct {
	Type        ZoneType
	GeoJSON     json.RawMessage
	Label       string
	Description string
	ProviderID  string
	Metadata    map[string]string
	Config      *ZoneConfig
}

// ServiceZone is a stored zone. Bounds is derived once from GeoJSON at
// construction. Instances are owned by the store; accessors return copies.
type ServiceZone struct {
	ID          string            `json:"id"`
	Type        ZoneType          `json:"type"`
	GeoJSON     json.RawMessage   `json:"geoJson"`
	Label       string            `json:"label,omitempty"`
	Description string            `json:"description,omitempty"`
	ProviderID  string            `json:"providerId,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Config      ZoneConfig        `json:"config"`
	Bounds      Bounds            `json:"bounds"`
	CreatedAt   time.Time         `json:"createdAt"`
	Visible     bool              `json:"visible"`
}

func (z *ServiceZone) copy() ServiceZone {
	out := *z
	if len(z.GeoJSON) > 0 {
		out.GeoJSON = append(json.RawMessage(nil), z.GeoJSON...)
	}
	if len(z.Metadata) > 0 {
		out.Metadata = make(map[string]string, len(z.Metadata))
		for k, v := range z.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// ZoneStore owns the service-zone overlay layer. All mutations are atomic
// with respect to each other; readers get copies, never store internals.
type ZoneStore struct {
	mu          sync.Mutex
	zones       []*ServiceZone
	colorCursor int
	loading     map[string]struct{}
	focus       *FocusController
	notifier    changeNotifier
	now         func() time.Time
	newID       func() string
}

// NewZoneStore builds an empty store publishing focus requests to fc.
func NewZoneStore(fc *FocusController) *ZoneStore {
	return &ZoneStore{
		loading: make(map[string]struct{}),
		focus:   fc,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// AddZone validates and stores one zone, returning its id. When focus is
// true the new zone's bounds are published immediately.
func (s *ZoneStore) AddZone(in ZoneInput, focus bool) (string, error) {
	s.mu.Lock()
	zone, err := s.buildZone(in)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.zones = append(s.zones, zone)
	bounds := zone.Bounds
	s.mu.Unlock()

	s.notifier.notify()
	if focus {
		s.focus.FocusBounds(bounds, defaultPadding)
	}
	return zone.ID, nil
}

// AddZones stores a batch all-or-nothing: one invalid geometry rejects the
// whole call and the store is left untouched. When focus is true the union
// of the new zones' bounds is published.
func (s *ZoneStore) AddZones(ins []ZoneInput, focus bool) ([]string, error) {
	if len(ins) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	savedCursor := s.colorCursor
	built := make([]*ServiceZone, 0, len(ins))
	for i, in := range ins {
		zone, err := s.buildZone(in)
		if err != nil {
			s.colorCursor = savedCursor
			s.mu.Unlock()
			return nil, fmt.Errorf("zone %d: %w", i, err)
		}
		built = append(built, zone)
	}
	ids := make([]string, len(built))
	var union *Bounds
	for i, zone := range built {
		s.zones = append(s.zones, zone)
		ids[i] = zone.ID
		if union == nil {
			b := zone.Bounds
			union = &b
		} else {
			u := union.Union(zone.Bounds)
			union = &u
		}
	}
	s.mu.Unlock()

	s.notifier.notify()
	if focus && union != nil {
		s.focus.FocusBounds(*union, defaultPadding)
	}
	return ids, nil
}

// buildZone validates input and assigns id, config and bounds. Caller holds
// the lock; the provider color cursor only advances on success.
func (s *ZoneStore) buildZone(in ZoneInput) (*ServiceZone, error) {
	bounds, err := BoundsFromGeoJSON(in.GeoJSON)
	if err != nil {
		return nil, err
	}
	typ := in.Type
	if typ == "" {
		typ = ZoneCustom
	}
	cfg := defaultZoneConfig(typ)
	if in.Config != nil {
		if in.Config.Color != "" {
			cfg.Color = in.Config.Color
		}
		if in.Config.Weight != 0 {
			cfg.Weight = in.Config.Weight
		}
		if in.Config.Opacity != 0 {
			cfg.Opacity = in.Config.Opacity
		}
		if in.Config.DashArray != "" {
			cfg.DashArray = in.Config.DashArray
		}
	}
	if typ == ZoneProvider && (in.Config == nil || in.Config.Color == "") {
		cfg.Color = providerPalette[s.colorCursor%len(providerPalette)]
		s.colorCursor++
	}
	return &ServiceZone{
		ID:          s.newID(),
		Type:        typ,
		GeoJSON:     append(json.RawMessage(nil), in.GeoJSON...),
		Label:       in.Label,
		Description: in.Description,
		ProviderID:  in.ProviderID,
		Metadata:    in.Metadata,
		Config:      cfg,
		Bounds:      bounds,
		CreatedAt:   s.now(),
		Visible:     true,
	}, nil
}

// RemoveZone deletes one zone. Other zones keep their bounds and colors.
func (s *ZoneStore) RemoveZone(id string) bool {
	s.mu.Lock()
	kept := s.zones[:0]
	removed := false
	for _, z := range s.zones {
		if z.ID == id {
			removed = true
			continue
		}
		kept = append(kept, z)
	}
	s.zones = kept
	s.mu.Unlock()
	if removed {
		s.notifier.notify()
	}
	return removed
}

// RemoveZonesByType deletes every zone of the given type.
func (s *ZoneStore) RemoveZonesByType(t ZoneType) int {
	return s.removeWhere(func(z *ServiceZone) bool { return z.Type == t })
}

// RemoveZonesByProvider deletes every zone referencing the provider.
func (s *ZoneStore) RemoveZonesByProvider(providerID string) int {
	return s.removeWhere(func(z *ServiceZone) bool { return z.ProviderID == providerID })
}

func (s *ZoneStore) removeWhere(match func(*ServiceZone) bool) int {
	s.mu.Lock()
	kept := s.zones[:0]
	removed := 0
	for _, z := range s.zones {
		if match(z) {
			removed++
			continue
		}
		kept = append(kept, z)
	}
	s.zones = kept
	s.mu.Unlock()
	if removed > 0 {
		s.notifier.notify()
	}
	return removed
}

// ClearAll empties the store and rewinds the color cursor, so the next batch
// of provider zones gets the same deterministic colors a fresh store would.
func (s *ZoneStore) ClearAll() {
	s.mu.Lock()
	s.zones = nil
	s.colorCursor = 0
	s.mu.Unlock()
	s.notifier.notify()
}

// ToggleVisibility flips one zone's visibility. Hidden zones stay in the
// store and still count toward unfiltered bounds.
func (s *ZoneStore) ToggleVisibility(id string) bool {
	s.mu.Lock()
	found := false
	for _, z := range s.zones {
		if z.ID == id {
			z.Visible = !z.Visible
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notifier.notify()
	}
	return found
}

// ToggleVisibilityByType flips every zone of the type, or sets them all to
// *explicit when given.
func (s *ZoneStore) ToggleVisibilityByType(t ZoneType, explicit *bool) int {
	s.mu.Lock()
	changed := 0
	for _, z := range s.zones {
		if z.Type != t {
			continue
		}
		if explicit != nil {
			z.Visible = *explicit
		} else {
			z.Visible = !z.Visible
		}
		changed++
	}
	s.mu.Unlock()
	if changed > 0 {
		s.notifier.notify()
	}
	return changed
}

// FocusOnZone publishes a request framing one zone.
func (s *ZoneStore) FocusOnZone(id string, padding int) (FocusRequest, bool) {
	s.mu.Lock()
	var bounds *Bounds
	for _, z := range s.zones {
		if z.ID == id {
			b := z.Bounds
			bounds = &b
			break
		}
	}
	s.mu.Unlock()
	if bounds == nil {
		return FocusRequest{}, false
	}
	return s.focus.FocusBounds(*bounds, padding), true
}

// FocusOnAllZones publishes a request framing the union of all zones, or of
// one type when t is non-empty. Hidden zones are included.
func (s *ZoneStore) FocusOnAllZones(t ZoneType, padding int) (FocusRequest, bool) {
	s.mu.Lock()
	boxes := make([]Bounds, 0, len(s.zones))
	for _, z := range s.zones {
		if t != "" && z.Type != t {
			continue
		}
		boxes = append(boxes, z.Bounds)
	}
	s.mu.Unlock()
	return s.focus.FocusAll(boxes, nil, padding)
}

// Zones returns copies of every stored zone in insertion order.
func (s *ZoneStore) Zones() []ServiceZone {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.zones, func(z *ServiceZone, _ int) ServiceZone { return z.copy() })
}

// ZonesByType returns copies of the zones of one type.
func (s *ZoneStore) ZonesByType(t ZoneType) []ServiceZone {
	return s.filter(func(z *ServiceZone) bool { return z.Type == t })
}

// ZonesByProvider returns copies of the zones referencing the provider.
func (s *ZoneStore) ZonesByProvider(providerID string) []ServiceZone {
	return s.filter(func(z *ServiceZone) bool { return z.ProviderID == providerID })
}

// VisibleZones returns copies of the zones currently shown.
func (s *ZoneStore) VisibleZones() []ServiceZone {
	return s.filter(func(z *ServiceZone) bool { return z.Visible })
}

func (s *ZoneStore) filter(match func(*ServiceZone) bool) []ServiceZone {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := lo.Filter(s.zones, func(z *ServiceZone, _ int) bool { return match(z) })
	return lo.Map(matched, func(z *ServiceZone, _ int) ServiceZone { return z.copy() })
}

// allBounds is the union of every stored zone's bounds.
func (s *ZoneStore) allBounds() []Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.zones, func(z *ServiceZone, _ int) Bounds { return z.Bounds })
}

// BeginProviderZoneLoad marks a provider's zone fetch in flight. Returns
// false when a load is already running, in which case the caller must treat
// its toggle as a no-op rather than queue it.
func (s *ZoneStore) BeginProviderZoneLoad(providerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.loading[providerID]; busy {
		return false
	}
	s.loading[providerID] = struct{}{}
	return true
}

// EndProviderZoneLoad clears the in-flight mark.
func (s *ZoneStore) EndProviderZoneLoad(providerID string) {
	s.mu.Lock()
	delete(s.loading, providerID)
	s.mu.Unlock()
}

// ProviderZoneLoading reports whether a provider's fetch is in flight.
func (s *ZoneStore) ProviderZoneLoading(providerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.loading[providerID]
	return busy
}

// Subscribe registers fn to run after every mutation.
func (s *ZoneStore) Subscribe(fn func()) func() {
	return s.notifier.subscribe(fn)
}

// Version counts mutations since the store was created.
func (s *ZoneStore) Version() uint64 {
	return s.notifier.currentVersion()
}
