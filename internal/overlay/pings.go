package overlay

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/waypointhq/waypoint/server/internal/model"
)

// PingType classifies a point marker.
type PingType string

const (
	PingOrigin       PingType = "origin"
	PingDestination  PingType = "destination"
	PingProvider     PingType = "provider"
	PingSearchResult PingType = "search_result"
	PingCustom       PingType = "custom"
)

// PingConfig is the rendering style of a marker.
type PingConfig struct {
	Color  string `json:"color"`
	Icon   string `json:"icon,omitempty"`
	ZIndex int    `json:"zIndex,omitempty"`
}

func defaultPingConfig(t PingType) PingConfig {
	cfg := PingConfig{Color: "#2563eb", Icon: "pin"}
	switch t {
	case PingOrigin:
		cfg.Color = "#16a34a"
		cfg.ZIndex = 10
	case PingDestination:
		cfg.Color = "#dc2626"
		cfg.ZIndex = 10
	case PingProvider:
		cfg.Color = "#9333ea"
		cfg.Icon = "bus"
	case PingSearchResult:
		cfg.Color = "#ea580c"
	}
	return cfg
}

// PingInput is what callers hand AddPing.
type PingInput struct {
	Type        PingType
	Coordinates model.Coordinates
	Label       string
	Description string
	Metadata    map[string]string
	Config      *PingConfig
}

// Ping is a stored point marker. Instances are owned by the store; accessors
// return copies.
type Ping struct {
	ID          string            `json:"id"`
	Type        PingType          `json:"type"`
	Coordinates model.Coordinates `json:"coordinates"`
	Label       string            `json:"label,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Config      PingConfig        `json:"config"`
	CreatedAt   time.Time         `json:"createdAt"`
	Visible     bool              `json:"visible"`
}

func (p *Ping) copy() Ping {
	out := *p
	if len(p.Metadata) > 0 {
		out.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// PingStore owns the point-marker overlay layer. Same operation shape as the
// zone store, with coordinate validation in place of geometry validation.
type PingStore struct {
	mu       sync.Mutex
	pings    []*Ping
	focus    *FocusController
	notifier changeNotifier
	now      func() time.Time
	newID    func() string
}

// NewPingStore builds an empty store publishing focus requests to fc.
func NewPingStore(fc *FocusController) *PingStore {
	return &PingStore{
		focus: fc,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// AddPing validates and stores one marker, returning its id. When focus is
// true the point is framed immediately at the close zoom.
func (s *PingStore) AddPing(in PingInput, focus bool) (string, error) {
	s.mu.Lock()
	ping, err := s.buildPing(in)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.pings = append(s.pings, ping)
	point := ping.Coordinates
	s.mu.Unlock()

	s.notifier.notify()
	if focus {
		s.focus.FocusPoint(point, defaultPadding)
	}
	return ping.ID, nil
}

// AddPings stores a batch all-or-nothing. Callers normally pass focus=true:
// a ping batch is usually the trip endpoints, which should recenter the map
// on their union right away. Zone batches default the other way.
func (s *PingStore) AddPings(ins []PingInput, focus bool) ([]string, error) {
	if len(ins) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	built := make([]*Ping, 0, len(ins))
	for i, in := range ins {
		ping, err := s.buildPing(in)
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("ping %d: %w", i, err)
		}
		built = append(built, ping)
	}
	ids := make([]string, len(built))
	points := make([]model.Coordinates, len(built))
	for i, ping := range built {
		s.pings = append(s.pings, ping)
		ids[i] = ping.ID
		points[i] = ping.Coordinates
	}
	s.mu.Unlock()

	s.notifier.notify()
	if focus {
		if len(points) == 1 {
			s.focus.FocusPoint(points[0], defaultPadding)
		} else {
			s.focus.FocusAll(nil, points, defaultPadding)
		}
	}
	return ids, nil
}

func (s *PingStore) buildPing(in PingInput) (*Ping, error) {
	if !in.Coordinates.Valid() {
		return nil, fmt.Errorf("%w: lat=%v lng=%v", model.ErrInvalidCoordinates,
			in.Coordinates.Lat, in.Coordinates.Lng)
	}
	typ := in.Type
	if typ == "" {
		typ = PingCustom
	}
	cfg := defaultPingConfig(typ)
	if in.Config != nil {
		if in.Config.Color != "" {
			cfg.Color = in.Config.Color
		}
		if in.Config.Icon != "" {
			cfg.Icon = in.Config.Icon
		}
		if in.Config.ZIndex != 0 {
			cfg.ZIndex = in.Config.ZIndex
		}
	}
	return &Ping{
		ID:          s.newID(),
		Type:        typ,
		Coordinates: in.Coordinates,
		Label:       in.Label,
		Description: in.Description,
		Metadata:    in.Metadata,
		Config:      cfg,
		CreatedAt:   s.now(),
		Visible:     true,
	}, nil
}

// RemovePing deletes one marker.
func (s *PingStore) RemovePing(id string) bool {
	return s.removeWhere(func(p *Ping) bool { return p.ID == id }) > 0
}

// RemovePingsByType deletes every marker of the given type.
func (s *PingStore) RemovePingsByType(t PingType) int {
	return s.removeWhere(func(p *Ping) bool { return p.Type == t })
}

func (s *PingStore) removeWhere(match func(*Ping) bool) int {
	s.mu.Lock()
	kept := s.pings[:0]
	removed := 0
	for _, p := range s.pings {
		if match(p) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	s.pings = kept
	s.mu.Unlock()
	if removed > 0 {
		s.notifier.notify()
	}
	return removed
}

// ClearAll empties the store.
func (s *PingStore) ClearAll() {
	s.mu.Lock()
	s.pings = nil
	s.mu.Unlock()
	s.notifier.notify()
}

// ToggleVisibility flips one marker's visibility.
func (s *PingStore) ToggleVisibility(id string) bool {
	s.mu.Lock()
	found := false
	for _, p := range s.pings {
		if p.ID == id {
			p.Visible = !p.Visible
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

// ToggleVisibilityByType flips every marker of the type, or sets them all to
// *explicit when given.
func (s *PingStore) ToggleVisibilityByType(t PingType, explicit *bool) int {
	s.mu.Lock()
	changed := 0
	for _, p := range s.pings {
		if p.Type != t {
			continue
		}
		if explicit != nil {
			p.Visible = *explicit
		} else {
			p.Visible = !p.Visible
		}
		changed++
	}
	s.mu.Unlock()
	if changed > 0 {
		s.notifier.notify()
	}
	return changed
}

// FocusOnPing publishes a request framing one marker.
func (s *PingStore) FocusOnPing(id string, padding int) (FocusRequest, bool) {
	s.mu.Lock()
	var point *model.Coordinates
	for _, p := range s.pings {
		if p.ID == id {
			c := p.Coordinates
			point = &c
			break
		}
	}
	s.mu.Unlock()
	if point == nil {
		return FocusRequest{}, false
	}
	return s.focus.FocusPoint(*point, padding), true
}

// FocusOnAllPings publishes a request framing the union of all markers, or
// of one type when t is non-empty.
func (s *PingStore) FocusOnAllPings(t PingType, padding int) (FocusRequest, bool) {
	s.mu.Lock()
	points := make([]model.Coordinates, 0, len(s.pings))
	for _, p := range s.pings {
		if t != "" && p.Type != t {
			continue
		}
		points = append(points, p.Coordinates)
	}
	s.mu.Unlock()
	if len(points) == 1 {
		return s.focus.FocusPoint(points[0], padding), true
	}
	return s.focus.FocusAll(nil, points, padding)
}

// Pings returns copies of every stored marker in insertion order.
func (s *PingStore) Pings() []Ping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.pings, func(p *Ping, _ int) Ping { return p.copy() })
}

// PingsByType returns copies of the markers of one type.
func (s *PingStore) PingsByType(t PingType) []Ping {
	return s.filter(func(p *Ping) bool { return p.Type == t })
}

// VisiblePings returns copies of the markers currently shown.
func (s *PingStore) VisiblePings() []Ping {
	return s.filter(func(p *Ping) bool { return p.Visible })
}

func (s *PingStore) filter(match func(*Ping) bool) []Ping {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := lo.Filter(s.pings, func(p *Ping, _ int) bool { return match(p) })
	return lo.Map(matched, func(p *Ping, _ int) Ping { return p.copy() })
}

// allPoints lists every marker's coordinates.
func (s *PingStore) allPoints() []model.Coordinates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.pings, func(p *Ping, _ int) model.Coordinates { return p.Coordinates })
}

// Subscribe registers fn to run after every mutation.
func (s *PingStore) Subscribe(fn func()) func() {
	return s.notifier.subscribe(fn)
}

// Version counts mutations since the store was created.
func (s *PingStore) Version() uint64 {
	return s.notifier.currentVersion()
}
