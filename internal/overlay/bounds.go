package overlay

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/gjson"

	"github.com/waypointhq/waypoint/server/internal/model"
)

// Bounds is a geographic box. The wire form is [[southLat,westLng],
// [northLat,eastLng]], matching what map widgets take for fitBounds.
type Bounds struct {
	SouthWest model.Coordinates
	NorthEast model.Coordinates
}

func (b Bounds) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][2]float64{
		{b.SouthWest.Lat, b.SouthWest.Lng},
		{b.NorthEast.Lat, b.NorthEast.Lng},
	})
}

func (b *Bounds) UnmarshalJSON(data []byte) error {
	var raw [2][2]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.SouthWest = model.Coordinates{Lat: raw[0][0], Lng: raw[0][1]}
	b.NorthEast = model.Coordinates{Lat: raw[1][0], Lng: raw[1][1]}
	return nil
}

// Center returns the midpoint of the box.
func (b Bounds) Center() model.Coordinates {
	return model.Coordinates{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// Span returns the box extents in degrees.
func (b Bounds) Span() (lat, lng float64) {
	return b.NorthEast.Lat - b.SouthWest.Lat, b.NorthEast.Lng - b.SouthWest.Lng
}

// Union returns the smallest box covering both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{
		SouthWest: model.Coordinates{
			Lat: min(b.SouthWest.Lat, other.SouthWest.Lat),
			Lng: min(b.SouthWest.Lng, other.SouthWest.Lng),
		},
		NorthEast: model.Coordinates{
			Lat: max(b.NorthEast.Lat, other.NorthEast.Lat),
			Lng: max(b.NorthEast.Lng, other.NorthEast.Lng),
		},
	}
}

// Extend returns the smallest box covering both b and p.
func (b Bounds) Extend(p model.Coordinates) Bounds {
	return b.Union(PointBounds(p))
}

// PointBounds is the degenerate box holding a single point.
func PointBounds(p model.Coordinates) Bounds {
	return Bounds{SouthWest: p, NorthEast: p}
}

func boundsFromOrb(b orb.Bound) Bounds {
	return Bounds{
		SouthWest: model.Coordinates{Lat: b.Min.Y(), Lng: b.Min.X()},
		NorthEast: model.Coordinates{Lat: b.Max.Y(), Lng: b.Max.X()},
	}
}

// BoundsFromGeoJSON computes the min/max box of a zone geometry. Accepted
// top-level types are Polygon, MultiPolygon, Feature and FeatureCollection;
// anything else, including an empty FeatureCollection, is ErrInvalidGeometry.
func BoundsFromGeoJSON(raw json.RawMessage) (Bounds, error) {
	if len(raw) == 0 {
		return Bounds{}, fmt.Errorf("%w: missing geometry", model.ErrInvalidGeometry)
	}
	switch typ := gjson.GetBytes(raw, "type").String(); typ {
	case "Polygon", "MultiPolygon":
		geom, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: %v", model.ErrInvalidGeometry, err)
		}
		return boundsFromOrb(geom.Geometry().Bound()), nil
	case "Feature":
		feat, err := geojson.UnmarshalFeature(raw)
		if err != nil || feat.Geometry == nil {
			return Bounds{}, fmt.Errorf("%w: unparseable feature", model.ErrInvalidGeometry)
		}
		return boundsFromOrb(feat.Geometry.Bound()), nil
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: unparseable feature collection", model.ErrInvalidGeometry)
		}
		var out *Bounds
		for _, feat := range fc.Features {
			if feat.Geometry == nil {
				continue
			}
			b := boundsFromOrb(feat.Geometry.Bound())
			if out == nil {
				out = &b
			} else {
				u := out.Union(b)
				out = &u
			}
		}
		if out == nil {
			return Bounds{}, fmt.Errorf("%w: feature collection has no geometry", model.ErrInvalidGeometry)
		}
		return *out, nil
	default:
		return Bounds{}, fmt.Errorf("%w: unsupported GeoJSON type %q", model.ErrInvalidGeometry, typ)
	}
}
