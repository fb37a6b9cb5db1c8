package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/waypointhq/waypoint/server/internal/model"
)

const systemPrompt = `You are a transportation assistance agent. You help ` +
	`riders plan accessible trips: finding transportation providers that serve ` +
	`their origin and destination, looking up addresses, and answering ` +
	`questions about specific providers. Use the available tools rather than ` +
	`guessing provider coverage.`

// OpenAI talks to the chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
	log    zerolog.Logger
}

func NewOpenAI(apiKey, chatModel string, log zerolog.Logger) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  chatModel,
		log:    log,
	}
}

var toolDefs = []openai.ChatCompletionToolParam{
	{
		Function: openai.FunctionDefinitionParam{
			Name:        string(model.ToolFindProviders),
			Description: openai.String("Find transportation providers serving a trip between two addresses."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"sourceAddress":      map[string]any{"type": "string"},
					"destinationAddress": map[string]any{"type": "string"},
				},
				"required": []string{"sourceAddress", "destinationAddress"},
			},
		},
	},
	{
		Function: openai.FunctionDefinitionParam{
			Name:        string(model.ToolSearchAddresses),
			Description: openai.String("Resolve a free-form place description to concrete addresses."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
				"required": []string{"query"},
			},
		},
	},
	{
		Function: openai.FunctionDefinitionParam{
			Name:        string(model.ToolGetProviderInfo),
			Description: openai.String("Look up details for one transportation provider by id."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"providerId": map[string]any{"type": "string"},
				},
				"required": []string{"providerId"},
			},
		},
	},
}

// Reply sends the history and maps any tool calls back to our tool kinds.
func (o *OpenAI) Reply(ctx context.Context, history []*model.Message) (*Reply, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openai.SystemMessage(systemPrompt))
	for _, m := range history {
		switch m.Role {
		case model.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		case model.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
		Tools:    toolDefs,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := completion.Choices[0].Message
	reply := &Reply{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		kind := model.ToolKind(tc.Function.Name)
		switch kind {
		case model.ToolFindProviders, model.ToolSearchAddresses, model.ToolGetProviderInfo:
			reply.Invocations = append(reply.Invocations, ToolInvocation{
				Kind:      kind,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		default:
			o.log.Warn().Str("tool", tc.Function.Name).Msg("model asked for an unknown tool")
		}
	}
	return reply, nil
}
