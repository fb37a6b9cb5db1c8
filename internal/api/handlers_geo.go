package api

import (
	"net/http"

	"github.com/waypointhq/waypoint/server/internal/api/respond"
	"github.com/waypointhq/waypoint/server/internal/api/validate"
	"github.com/waypointhq/waypoint/server/internal/geocode"
)

// GeoHandler passes geocoding, place search and transit directions through
// to the Maps collaborator.
type GeoHandler struct {
	client *geocode.Client
}

func NewGeoHandler(client *geocode.Client) *GeoHandler {
	return &GeoHandler{client: client}
}

// Geocode handles GET /api/geocode?address=...
func (h *GeoHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if err := validate.NonEmpty("address", address); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.client.Geocode(r.Context(), address)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// SearchPlaces handles GET /api/places?query=...
func (h *GeoHandler) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if err := validate.NonEmpty("query", query); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.client.SearchPlaces(r.Context(), query)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"places": out})
}

// Directions handles GET /api/directions?origin=...&destination=...
func (h *GeoHandler) Directions(w http.ResponseWriter, r *http.Request) {
	origin := r.URL.Query().Get("origin")
	destination := r.URL.Query().Get("destination")
	if err := validate.NonEmpty("origin", origin); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.NonEmpty("destination", destination); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.client.TransitDirections(r.Context(), origin, destination)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
