package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/waypointhq/waypoint/server/internal/model"
	"github.com/waypointhq/waypoint/server/internal/replay"
	"github.com/waypointhq/waypoint/server/internal/store"
)

// ReplayService reconstructs a conversation's renderable state sequence from
// its message and tool-call logs.
type ReplayService struct {
	store store.Store
	log   zerolog.Logger
}

func NewReplayService(s store.Store, log zerolog.Logger) *ReplayService {
	return &ReplayService{store: s, log: log}
}

// GenerateReplay rebuilds the full playback for a conversation. A missing or
// empty conversation yields an empty state sequence, not an error. The output
// is deterministic: the same stored logs always produce the same sequence.
func (s *ReplayService) GenerateReplay(ctx context.Context, conversationID string) (*model.Replay, error) {
	out := &model.Replay{
		ConversationID: conversationID,
		States:         []model.ReplaySnapshot{},
		Config:         model.DefaultReplayConfig(),
	}

	msgs, err := s.store.Messages().List(ctx, conversationID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return out, nil
		}
		return nil, err
	}
	if len(msgs) == 0 {
		return out, nil
	}

	events, err := s.loadEvents(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	out.States = replay.Reduce(msgs, events)
	return out, nil
}

func (s *ReplayService) loadEvents(ctx context.Context, conversationID string) ([]replay.ToolCallEvent, error) {
	providerSearches, err := s.store.ToolCalls().ListProviderSearches(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	addressSearches, err := s.store.ToolCalls().ListAddressSearches(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	infoLookups, err := s.store.ToolCalls().ListProviderInfoLookups(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return replay.Normalize(s.log, providerSearches, addressSearches, infoLookups), nil
}

// ExampleMetadata names a saved replay.
type ExampleMetadata struct {
	Title       string
	Description *string
	Category    string
}

// SaveAsExample runs the reducer once and persists its output verbatim, so
// the stored sequence is byte for byte what GenerateReplay would rebuild.
func (s *ReplayService) SaveAsExample(ctx context.Context, conversationID string, meta ExampleMetadata) (*model.Example, error) {
	if meta.Title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
	}

	rep, err := s.GenerateReplay(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	return s.store.Examples().Create(ctx, &model.Example{
		ConversationID: conversationID,
		Title:          meta.Title,
		Description:    meta.Description,
		Category:       meta.Category,
		States:         rep.States,
		Config:         rep.Config,
	})
}

// GetExample loads one saved replay.
func (s *ReplayService) GetExample(ctx context.Context, exampleID string) (*model.Example, error) {
	return s.store.Examples().GetByID(ctx, exampleID)
}

// ListExamples lists saved replays.
func (s *ReplayService) ListExamples(ctx context.Context) ([]*model.Example, error) {
	return s.store.Examples().List(ctx)
}
