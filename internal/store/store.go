package store

import (
	"context"
	"encoding/json"

	"github.com/waypointhq/waypoint/server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
type Store interface {
	Conversations() Conversations
	Messages() Messages
	ToolCalls() ToolCalls
	Providers() Providers
	Examples() Examples
}

type Conversations interface {
	Create(ctx context.Context, c *model.Conversation) (*model.Conversation, error)
	Get(ctx context.Context, conversationID string) (*model.Conversation, error)
	List(ctx context.Context) ([]*model.Conversation, error)
	Delete(ctx context.Context, conversationID string) error
}

type Messages interface {
	// Append stores a message. When CreationTime is zero the adapter stamps
	// it; Seq is always assigned by the adapter (monotonic per conversation).
	Append(ctx context.Context, m *model.Message) (*model.Message, error)
	// List returns messages ordered by creation time ascending, ties by Seq.
	List(ctx context.Context, conversationID string) ([]*model.Message, error)
}

// ToolCalls records and reads the per-kind side-effect logs. The three kinds
// are stored separately; the replay normalizer merges them by timestamp.
type ToolCalls interface {
	RecordProviderSearch(ctx context.Context, conversationID string, payload json.RawMessage) (*model.ToolCallRecord, error)
	RecordAddressSearch(ctx context.Context, conversationID string, payload json.RawMessage) (*model.ToolCallRecord, error)
	RecordProviderInfo(ctx context.Context, conversationID string, payload json.RawMessage) (*model.ToolCallRecord, error)

	ListProviderSearches(ctx context.Context, conversationID string) ([]*model.ToolCallRecord, error)
	ListAddressSearches(ctx context.Context, conversationID string) ([]*model.ToolCallRecord, error)
	ListProviderInfoLookups(ctx context.Context, conversationID string) ([]*model.ToolCallRecord, error)
}

type Providers interface {
	Create(ctx context.Context, p *model.Provider) (*model.Provider, error)
	GetByID(ctx context.Context, providerID string) (*model.Provider, error)
	List(ctx context.Context) ([]*model.Provider, error)
	Delete(ctx context.Context, providerID string) error
}

type Examples interface {
	Create(ctx context.Context, e *model.Example) (*model.Example, error)
	GetByID(ctx context.Context, exampleID string) (*model.Example, error)
	List(ctx context.Context) ([]*model.Example, error)
	Delete(ctx context.Context, exampleID string) error
}
