package api

import (
	"github.com/gorilla/mux"

	"github.com/waypointhq/waypoint/server/internal/api/recovery"
	"github.com/waypointhq/waypoint/server/internal/services"
)

// Deps carries the wired services the router needs. Geo may be nil when no
// Maps key is configured; its routes are then not registered.
type Deps struct {
	Conversations *services.ConversationService
	Replay        *services.ReplayService
	Providers     *services.ProviderService
	Geo           *GeoHandler
}

// NewRouter wires all API routes.
func NewRouter(deps Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	// Conversations and their logs
	conv := NewConversationHandler(deps.Conversations)
	router.HandleFunc("/api/conversations", conv.CreateConversation).Methods("POST")
	router.HandleFunc("/api/conversations", conv.ListConversations).Methods("GET")
	router.HandleFunc("/api/conversations/{conversationId}", conv.GetConversation).Methods("GET")
	router.HandleFunc("/api/conversations/{conversationId}", conv.DeleteConversation).Methods("DELETE")
	router.HandleFunc("/api/conversations/{conversationId}/messages", conv.AppendMessage).Methods("POST")
	router.HandleFunc("/api/conversations/{conversationId}/messages", conv.ListMessages).Methods("GET")
	router.HandleFunc("/api/conversations/{conversationId}/tool-calls", conv.RecordToolCall).Methods("POST")
	router.HandleFunc("/api/conversations/{conversationId}/respond", conv.Respond).Methods("POST")

	// Replay and published examples
	replay := NewReplayHandler(deps.Replay)
	router.HandleFunc("/api/conversations/{conversationId}/replay", replay.GetReplay).Methods("GET")
	router.HandleFunc("/api/conversations/{conversationId}/example", replay.SaveExample).Methods("POST")
	router.HandleFunc("/api/examples", replay.ListExamples).Methods("GET")
	router.HandleFunc("/api/examples/{exampleId}", replay.GetExample).Methods("GET")

	// Provider directory
	providers := NewProviderHandler(deps.Providers)
	router.HandleFunc("/api/providers", providers.CreateProvider).Methods("POST")
	router.HandleFunc("/api/providers", providers.ListProviders).Methods("GET")
	router.HandleFunc("/api/providers/{providerId}", providers.GetProvider).Methods("GET")
	router.HandleFunc("/api/providers/{providerId}", providers.DeleteProvider).Methods("DELETE")

	// Maps passthrough
	if deps.Geo != nil {
		router.HandleFunc("/api/geocode", deps.Geo.Geocode).Methods("GET")
		router.HandleFunc("/api/places", deps.Geo.SearchPlaces).Methods("GET")
		router.HandleFunc("/api/directions", deps.Geo.Directions).Methods("GET")
	}

	// Health
	healthHandler := NewHealthHandler()
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return router
}
