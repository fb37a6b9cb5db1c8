package services

import (
	"context"
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"

	"github.com/waypointhq/waypoint/server/internal/model"
	"github.com/waypointhq/waypoint/server/internal/store"
)

// ProviderService handles the transportation-provider directory.
type ProviderService struct {
	store store.Store
}

func NewProviderService(s store.Store) *ProviderService { return &ProviderService{store: s} }

func (s *ProviderService) Create(ctx context.Context, p *model.Provider) (*model.Provider, error) {
	return s.store.Providers().Create(ctx, p)
}

func (s *ProviderService) Get(ctx context.Context, providerID string) (*model.Provider, error) {
	return s.store.Providers().GetByID(ctx, providerID)
}

func (s *ProviderService) List(ctx context.Context) ([]*model.Provider, error) {
	return s.store.Providers().List(ctx)
}

func (s *ProviderService) Delete(ctx context.Context, providerID string) error {
	return s.store.Providers().Delete(ctx, providerID)
}

// ProviderFilter narrows directory queries. Zero-value fields match all.
// Point, when set, keeps only providers whose service zone contains it.
type ProviderFilter struct {
	Type        string
	RoutingType string
	Point       *model.Coordinates
}

// Filter lists providers matching every set criterion.
func (s *ProviderService) Filter(ctx context.Context, f ProviderFilter) ([]*model.Provider, error) {
	all, err := s.store.Providers().List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(p *model.Provider, _ int) bool {
		if f.Type != "" && p.Type != f.Type {
			return false
		}
		if f.RoutingType != "" && p.RoutingType != f.RoutingType {
			return false
		}
		if f.Point != nil && !zoneContains(p.ServiceZone, *f.Point) {
			return false
		}
		return true
	}), nil
}

// FindForTrip returns the providers whose service zone covers both trip
// endpoints. Providers without a stored zone never match a trip query.
func (s *ProviderService) FindForTrip(ctx context.Context, origin, destination model.Coordinates) ([]*model.Provider, error) {
	all, err := s.store.Providers().List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(p *model.Provider, _ int) bool {
		return zoneContains(p.ServiceZone, origin) && zoneContains(p.ServiceZone, destination)
	}), nil
}

// zoneContains runs a planar point-in-polygon test against a stored GeoJSON
// zone. Unparseable or absent zones contain nothing.
func zoneContains(raw json.RawMessage, c model.Coordinates) bool {
	if len(raw) == 0 {
		return false
	}
	pt := orb.Point{c.Lng, c.Lat}
	for _, geom := range zoneGeometries(raw) {
		switch g := geom.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, pt) {
				return true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, pt) {
				return true
			}
		}
	}
	return false
}

func zoneGeometries(raw json.RawMessage) []orb.Geometry {
	if geom, err := geojson.UnmarshalGeometry(raw); err == nil {
		return []orb.Geometry{geom.Geometry()}
	}
	if feat, err := geojson.UnmarshalFeature(raw); err == nil && feat.Geometry != nil {
		return []orb.Geometry{feat.Geometry}
	}
	if fc, err := geojson.UnmarshalFeatureCollection(raw); err == nil {
		geoms := make([]orb.Geometry, 0, len(fc.Features))
		for _, feat := range fc.Features {
			if feat.Geometry != nil {
				geoms = append(geoms, feat.Geometry)
			}
		}
		return geoms
	}
	return nil
}
