package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/waypointhq/waypoint/server/internal/assistant"
	"github.com/waypointhq/waypoint/server/internal/geocode"
	"github.com/waypointhq/waypoint/server/internal/model"
	"github.com/waypointhq/waypoint/server/internal/store"
)

// ConversationService handles conversation storage and, when an assistant is
// wired in, drives the next turn: run the model, execute the tools it asked
// for, record each result as a side-effect row, append the reply.
type ConversationService struct {
	store     store.Store
	assistant assistant.Assistant
	geocoder  *geocode.Client
	providers *ProviderService
	log       zerolog.Logger
}

func NewConversationService(s store.Store, a assistant.Assistant, g *geocode.Client, p *ProviderService, log zerolog.Logger) *ConversationService {
	return &ConversationService{store: s, assistant: a, geocoder: g, providers: p, log: log}
}

func (s *ConversationService) Create(ctx context.Context, c *model.Conversation) (*model.Conversation, error) {
	return s.store.Conversations().Create(ctx, c)
}

func (s *ConversationService) Get(ctx context.Context, conversationID string) (*model.Conversation, error) {
	return s.store.Conversations().Get(ctx, conversationID)
}

func (s *ConversationService) List(ctx context.Context) ([]*model.Conversation, error) {
	return s.store.Conversations().List(ctx)
}

func (s *ConversationService) Delete(ctx context.Context, conversationID string) error {
	return s.store.Conversations().Delete(ctx, conversationID)
}

func (s *ConversationService) AppendMessage(ctx context.Context, m *model.Message) (*model.Message, error) {
	if m.Role != model.RoleUser && m.Role != model.RoleAssistant && m.Role != model.RoleSystem {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, m.Role)
	}
	if _, err := s.store.Conversations().Get(ctx, m.ConversationID); err != nil {
		return nil, err
	}
	return s.store.Messages().Append(ctx, m)
}

func (s *ConversationService) ListMessages(ctx context.Context, conversationID string) ([]*model.Message, error) {
	return s.store.Messages().List(ctx, conversationID)
}

// RecordToolResult stores one side-effect payload under its kind's log.
func (s *ConversationService) RecordToolResult(ctx context.Context, conversationID string, kind model.ToolKind, payload json.RawMessage) (*model.ToolCallRecord, error) {
	switch kind {
	case model.ToolFindProviders:
		return s.store.ToolCalls().RecordProviderSearch(ctx, conversationID, payload)
	case model.ToolSearchAddresses:
		return s.store.ToolCalls().RecordAddressSearch(ctx, conversationID, payload)
	case model.ToolGetProviderInfo:
		return s.store.ToolCalls().RecordProviderInfo(ctx, conversationID, payload)
	default:
		return nil, fmt.Errorf("%w: unknown tool kind %q", model.ErrValidation, kind)
	}
}

// Respond appends the user's message, runs one assistant turn with tool
// execution, and appends the assistant's reply. Tool results are recorded
// before the reply message so a replay charges them to the reply's step.
func (s *ConversationService) Respond(ctx context.Context, conversationID, userText string) (*model.Message, error) {
	if s.assistant == nil {
		return nil, fmt.Errorf("%w: no assistant configured", model.ErrValidation)
	}

	if _, err := s.AppendMessage(ctx, &model.Message{
		ConversationID: conversationID,
		Role:           model.RoleUser,
		Content:        userText,
	}); err != nil {
		return nil, err
	}

	history, err := s.store.Messages().List(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	reply, err := s.assistant.Reply(ctx, history)
	if err != nil {
		return nil, err
	}

	for _, inv := range reply.Invocations {
		payload, err := s.executeTool(ctx, inv)
		if err != nil {
			s.log.Warn().Err(err).
				Str("conversation_id", conversationID).
				Str("tool", string(inv.Kind)).
				Msg("tool execution failed; recording empty result")
			payload = json.RawMessage(`{}`)
		}
		if _, err := s.RecordToolResult(ctx, conversationID, inv.Kind, payload); err != nil {
			return nil, err
		}
	}

	return s.AppendMessage(ctx, &model.Message{
		ConversationID: conversationID,
		Role:           model.RoleAssistant,
		Content:        reply.Content,
	})
}

func (s *ConversationService) executeTool(ctx context.Context, inv assistant.ToolInvocation) (json.RawMessage, error) {
	switch inv.Kind {
	case model.ToolSearchAddresses:
		return s.runAddressSearch(ctx, inv.Arguments)
	case model.ToolGetProviderInfo:
		return s.runProviderInfo(ctx, inv.Arguments)
	case model.ToolFindProviders:
		return s.runProviderSearch(ctx, inv.Arguments)
	default:
		return nil, fmt.Errorf("%w: unknown tool kind %q", model.ErrValidation, inv.Kind)
	}
}

func (s *ConversationService) runAddressSearch(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	query := gjson.GetBytes(args, "query").String()
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", model.ErrValidation)
	}
	places, err := s.geocoder.SearchPlaces(ctx, query)
	if err != nil {
		return nil, err
	}
	return json.Marshal(model.SearchAddressesPayload{Places: places})
}

func (s *ConversationService) runProviderInfo(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	providerID := gjson.GetBytes(args, "providerId").String()
	if providerID == "" {
		return nil, fmt.Errorf("%w: providerId is required", model.ErrValidation)
	}
	p, err := s.providers.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}
	info, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(model.ProviderInfoPayload{
		ProviderID:   providerID,
		ProviderInfo: string(info),
	})
}

func (s *ConversationService) runProviderSearch(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	source := gjson.GetBytes(args, "sourceAddress").String()
	destination := gjson.GetBytes(args, "destinationAddress").String()
	if source == "" || destination == "" {
		return nil, fmt.Errorf("%w: sourceAddress and destinationAddress are required", model.ErrValidation)
	}

	payload := model.FindProvidersPayload{
		Providers:          []model.Provider{},
		SourceAddress:      source,
		DestinationAddress: destination,
	}

	origin, oerr := s.geocoder.Geocode(ctx, source)
	if oerr == nil {
		payload.SourceAddress = origin.FormattedAddress
		payload.OriginCoordinates = origin.Coordinates
	}
	dest, derr := s.geocoder.Geocode(ctx, destination)
	if derr == nil {
		payload.DestinationAddress = dest.FormattedAddress
		payload.DestinationCoordinates = dest.Coordinates
	}

	// An unresolvable endpoint still yields a result, just without
	// coordinates or provider matches.
	if oerr != nil || derr != nil {
		s.log.Warn().AnErr("origin_err", oerr).AnErr("destination_err", derr).
			Msg("geocoding failed; returning result without coordinates")
		return json.Marshal(payload)
	}

	matches, err := s.providers.FindForTrip(ctx, *origin.Coordinates, *dest.Coordinates)
	if err != nil {
		return nil, err
	}
	for _, p := range matches {
		payload.Providers = append(payload.Providers, *p)
	}

	// Transit is best effort: a trip with no transit route still has providers.
	if transit, err := s.geocoder.TransitDirections(ctx, source, destination); err == nil {
		payload.PublicTransit = transit
	} else {
		s.log.Debug().Err(err).Msg("no transit summary for trip")
	}

	return json.Marshal(payload)
}
