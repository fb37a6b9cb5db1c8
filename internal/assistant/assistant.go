// Package assistant is the chat-completion collaborator. The conversation
// service feeds it the message history; it answers with text and, when the
// model reaches for a tool, the named tool invocations whose results get
// recorded as side-effect rows.
package assistant

import (
	"context"
	"encoding/json"

	"github.com/waypointhq/waypoint/server/internal/model"
)

// ToolInvocation is one tool the model asked to run, with its raw arguments.
type ToolInvocation struct {
	Kind      model.ToolKind
	Arguments json.RawMessage
}

// Reply is one assistant turn.
type Reply struct {
	Content     string
	Invocations []ToolInvocation
}

// Assistant produces the next turn for a conversation.
type Assistant interface {
	Reply(ctx context.Context, history []*model.Message) (*Reply, error)
}
