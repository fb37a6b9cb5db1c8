// Package geocode wraps the Google Maps web services the assistant leans on:
// geocoding, place text search, and transit directions. Responses are cached
// in memory; the overlay stores never call out here.
package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/twpayne/go-polyline"

	"github.com/waypointhq/waypoint/server/internal/model"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// Client is a thin caching layer over the Maps HTTP API.
type Client struct {
	http   *resty.Client
	apiKey string
	cache  *cache.Cache
	log    zerolog.Logger
}

// New builds a client. ttl bounds how long geocoding and directions results
// are served from cache.
func New(apiKey string, ttl time.Duration, log zerolog.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetTimeout(10 * time.Second),
		apiKey: apiKey,
		cache:  cache.New(ttl, 2*ttl),
		log:    log,
	}
}

// SetBaseURL points the client at a different API host. Tests use this.
func (c *Client) SetBaseURL(url string) { c.http.SetBaseURL(url) }

// Geocode resolves a free-form address to a place with coordinates. A
// transport or API failure is ErrGeocodingUnavailable; an address Google
// cannot resolve is ErrNotFound.
func (c *Client) Geocode(ctx context.Context, address string) (*model.Place, error) {
	key := "geocode:" + address
	if hit, ok := c.cache.Get(key); ok {
		p := hit.(model.Place)
		return &p, nil
	}

	body, err := c.get(ctx, "/geocode/json", map[string]string{"address": address})
	if err != nil {
		return nil, err
	}
	if status := gjson.GetBytes(body, "status").String(); status != "OK" {
		if status == "ZERO_RESULTS" {
			return nil, fmt.Errorf("%w: no match for %q", model.ErrNotFound, address)
		}
		return nil, fmt.Errorf("%w: geocode status %s", model.ErrGeocodingUnavailable, status)
	}

	first := gjson.GetBytes(body, "results.0")
	place := model.Place{
		Name:             address,
		FormattedAddress: first.Get("formatted_address").String(),
		Coordinates: &model.Coordinates{
			Lat: first.Get("geometry.location.lat").Float(),
			Lng: first.Get("geometry.location.lng").Float(),
		},
	}
	c.cache.Set(key, place, cache.DefaultExpiration)
	return &place, nil
}

// SearchPlaces runs a text search and returns every resolvable result.
func (c *Client) SearchPlaces(ctx context.Context, query string) ([]model.Place, error) {
	key := "places:" + query
	if hit, ok := c.cache.Get(key); ok {
		return append([]model.Place(nil), hit.([]model.Place)...), nil
	}

	body, err := c.get(ctx, "/place/textsearch/json", map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	status := gjson.GetBytes(body, "status").String()
	if status != "OK" && status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("%w: place search status %s", model.ErrGeocodingUnavailable, status)
	}

	var places []model.Place
	gjson.GetBytes(body, "results").ForEach(func(_, res gjson.Result) bool {
		places = append(places, model.Place{
			Name:             res.Get("name").String(),
			FormattedAddress: res.Get("formatted_address").String(),
			Coordinates: &model.Coordinates{
				Lat: res.Get("geometry.location.lat").Float(),
				Lng: res.Get("geometry.location.lng").Float(),
			},
		})
		return true
	})
	c.cache.Set(key, places, cache.DefaultExpiration)
	return places, nil
}

// TransitDirections fetches a transit route between two addresses and decodes
// its overview polyline into a coordinate path.
func (c *Client) TransitDirections(ctx context.Context, origin, destination string) (*model.TransitSummary, error) {
	key := "directions:" + origin + "|" + destination
	if hit, ok := c.cache.Get(key); ok {
		s := hit.(model.TransitSummary)
		return &s, nil
	}

	body, err := c.get(ctx, "/directions/json", map[string]string{
		"origin":      origin,
		"destination": destination,
		"mode":        "transit",
	})
	if err != nil {
		return nil, err
	}
	status := gjson.GetBytes(body, "status").String()
	if status == "ZERO_RESULTS" {
		return nil, fmt.Errorf("%w: no transit route from %q to %q", model.ErrNotFound, origin, destination)
	}
	if status != "OK" {
		return nil, fmt.Errorf("%w: directions status %s", model.ErrGeocodingUnavailable, status)
	}

	route := gjson.GetBytes(body, "routes.0")
	summary := model.TransitSummary{
		Summary:         route.Get("summary").String(),
		DurationMinutes: int(route.Get("legs.0.duration.value").Int() / 60),
		Fare:            route.Get("fare.text").String(),
	}
	if encoded := route.Get("overview_polyline.points").String(); encoded != "" {
		coords, _, err := polyline.DecodeCoords([]byte(encoded))
		if err != nil {
			c.log.Warn().Err(err).Msg("directions overview polyline failed to decode")
		} else {
			summary.Path = make([]model.Coordinates, len(coords))
			for i, pair := range coords {
				summary.Path[i] = model.Coordinates{Lat: pair[0], Lng: pair[1]}
			}
		}
	}
	c.cache.Set(key, summary, cache.DefaultExpiration)
	return &summary, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	req := c.http.R().SetContext(ctx).SetQueryParam("key", c.apiKey)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrGeocodingUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: http %d", model.ErrGeocodingUnavailable, resp.StatusCode())
	}
	return resp.Body(), nil
}
