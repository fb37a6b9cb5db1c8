package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/waypointhq/waypoint/server/internal/api/respond"
	"github.com/waypointhq/waypoint/server/internal/api/validate"
	"github.com/waypointhq/waypoint/server/internal/model"
	"github.com/waypointhq/waypoint/server/internal/services"
)

type ProviderHandler struct {
	svc *services.ProviderService
}

func NewProviderHandler(svc *services.ProviderService) *ProviderHandler {
	return &ProviderHandler{svc: svc}
}

func (h *ProviderHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var in model.Provider
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.NonEmpty("name", in.Name); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.NonEmpty("type", in.Type); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.Create(r.Context(), &in)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListProviders handles GET /api/providers with optional type, routingType
// and lat/lng containment filters.
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.ProviderFilter{
		Type:        q.Get("type"),
		RoutingType: q.Get("routingType"),
	}
	if q.Get("lat") != "" || q.Get("lng") != "" {
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
		if errLat != nil || errLng != nil {
			respond.WriteBadRequest(w, "lat and lng must both be numbers")
			return
		}
		pt := model.Coordinates{Lat: lat, Lng: lng}
		if !pt.Valid() {
			respond.WriteBadRequest(w, "lat/lng out of range")
			return
		}
		filter.Point = &pt
	}

	out, err := h.svc.Filter(r.Context(), filter)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"providers": out})
}

func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	providerID := mux.Vars(r)["providerId"]
	out, err := h.svc.Get(r.Context(), providerID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

func (h *ProviderHandler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	providerID := mux.Vars(r)["providerId"]
	if err := h.svc.Delete(r.Context(), providerID); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
