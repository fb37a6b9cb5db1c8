package model

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// ErrInvalidGeometry rejects zone GeoJSON that is missing or not a
	// Polygon/MultiPolygon/Feature/FeatureCollection.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidCoordinates rejects ping coordinates outside the WGS84 envelope.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrGeocodingUnavailable marks an upstream geocoding/directions failure.
	ErrGeocodingUnavailable = errors.New("geocoding unavailable")
)
