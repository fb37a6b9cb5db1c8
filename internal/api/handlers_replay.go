package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/waypointhq/waypoint/server/internal/api/respond"
	"github.com/waypointhq/waypoint/server/internal/api/validate"
	"github.com/waypointhq/waypoint/server/internal/services"
)

type ReplayHandler struct {
	svc *services.ReplayService
}

func NewReplayHandler(svc *services.ReplayService) *ReplayHandler {
	return &ReplayHandler{svc: svc}
}

// GetReplay handles GET /api/conversations/{conversationId}/replay.
func (h *ReplayHandler) GetReplay(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]
	out, err := h.svc.GenerateReplay(r.Context(), conversationID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// SaveExample handles POST /api/conversations/{conversationId}/example.
func (h *ReplayHandler) SaveExample(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]
	var in struct {
		Title       string  `json:"title"`
		Description *string `json:"description,omitempty"`
		Category    string  `json:"category,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.SaveExample(in.Title, in.Description); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.SaveAsExample(r.Context(), conversationID, services.ExampleMetadata{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *ReplayHandler) ListExamples(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListExamples(r.Context())
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"examples": out})
}

func (h *ReplayHandler) GetExample(w http.ResponseWriter, r *http.Request) {
	exampleID := mux.Vars(r)["exampleId"]
	out, err := h.svc.GetExample(r.Context(), exampleID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
