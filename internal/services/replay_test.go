package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointhq/waypoint/server/internal/model"
	"github.com/waypointhq/waypoint/server/internal/store"
	"github.com/waypointhq/waypoint/server/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.New(t.TempDir() + "/waypoint.db")
	require.NoError(t, err)
	return st
}

// seedConversation writes a two-turn conversation whose provider search lands
// between the user question and the assistant answer.
func seedConversation(t *testing.T, st store.Store) string {
	t.Helper()
	ctx := context.Background()

	conv, err := st.Conversations().Create(ctx, &model.Conversation{Title: "trip to the clinic"})
	require.NoError(t, err)

	_, err = st.Messages().Append(ctx, &model.Message{
		ConversationID: conv.ConversationID,
		Role:           model.RoleUser,
		Content:        "How do I get from 1 Main St to 9 Elm St?",
	})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = st.ToolCalls().RecordProviderSearch(ctx, conv.ConversationID, json.RawMessage(`{
		"providers": [
			{"providerId": "pr-1", "name": "Metro Access", "type": "paratransit"},
			{"providerId": "pr-2", "name": "County Rides", "type": "volunteer"}
		],
		"sourceAddress": "1 Main St",
		"destinationAddress": "9 Elm St"
	}`))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = st.Messages().Append(ctx, &model.Message{
		ConversationID: conv.ConversationID,
		Role:           model.RoleAssistant,
		Content:        "Two providers cover that trip.",
	})
	require.NoError(t, err)

	return conv.ConversationID
}

func TestGenerateReplayFromStore(t *testing.T) {
	st := newTestStore(t)
	svc := NewReplayService(st, zerolog.Nop())
	convID := seedConversation(t, st)

	rep, err := svc.GenerateReplay(context.Background(), convID)

	require.NoError(t, err)
	require.Len(t, rep.States, 2)
	assert.Equal(t, model.DefaultReplayConfig(), rep.Config)

	assert.Empty(t, rep.States[0].State.Providers)
	assert.Len(t, rep.States[1].State.Providers, 2)
	assert.True(t, rep.States[1].UIHints.ShowProviders)
	assert.Equal(t, "1 Main St", rep.States[1].State.SourceAddress)
}

func TestGenerateReplayIsDeterministic(t *testing.T) {
	st := newTestStore(t)
	svc := NewReplayService(st, zerolog.Nop())
	convID := seedConversation(t, st)

	first, err := svc.GenerateReplay(context.Background(), convID)
	require.NoError(t, err)
	second, err := svc.GenerateReplay(context.Background(), convID)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestGenerateReplayEmptyAndMissingConversations(t *testing.T) {
	st := newTestStore(t)
	svc := NewReplayService(st, zerolog.Nop())

	rep, err := svc.GenerateReplay(context.Background(), "never-created")
	require.NoError(t, err)
	assert.Empty(t, rep.States)

	conv, err := st.Conversations().Create(context.Background(), &model.Conversation{Title: "empty"})
	require.NoError(t, err)
	rep, err = svc.GenerateReplay(context.Background(), conv.ConversationID)
	require.NoError(t, err)
	assert.Empty(t, rep.States)
}

func TestGenerateReplayToleratesCorruptToolCall(t *testing.T) {
	st := newTestStore(t)
	svc := NewReplayService(st, zerolog.Nop())
	convID := seedConversation(t, st)

	time.Sleep(5 * time.Millisecond)
	_, err := st.ToolCalls().RecordAddressSearch(context.Background(), convID, json.RawMessage(`{"places": [broken`))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = st.Messages().Append(context.Background(), &model.Message{
		ConversationID: convID,
		Role:           model.RoleAssistant,
		Content:        "I could not read those addresses.",
	})
	require.NoError(t, err)

	rep, err := svc.GenerateReplay(context.Background(), convID)

	require.NoError(t, err)
	require.Len(t, rep.States, 3)
	// The corrupt search contributes no addresses but the replay still runs.
	assert.Empty(t, rep.States[2].State.Addresses)
	assert.Len(t, rep.States[2].State.Providers, 2)
}

func TestSaveAsExampleRoundTrip(t *testing.T) {
	st := newTestStore(t)
	svc := NewReplayService(st, zerolog.Nop())
	convID := seedConversation(t, st)
	desc := "provider search demo"

	ex, err := svc.SaveAsExample(context.Background(), convID, ExampleMetadata{
		Title:       "Clinic trip",
		Description: &desc,
		Category:    "trips",
	})
	require.NoError(t, err)
	require.NotEmpty(t, ex.ExampleID)

	// The persisted sequence must be exactly what a fresh reduction produces.
	stored, err := svc.GetExample(context.Background(), ex.ExampleID)
	require.NoError(t, err)
	regenerated, err := svc.GenerateReplay(context.Background(), convID)
	require.NoError(t, err)

	storedJSON, err := json.Marshal(stored.States)
	require.NoError(t, err)
	freshJSON, err := json.Marshal(regenerated.States)
	require.NoError(t, err)
	assert.Equal(t, string(freshJSON), string(storedJSON))
	assert.Equal(t, regenerated.Config, stored.Config)
}

func TestSaveAsExampleRequiresTitle(t *testing.T) {
	st := newTestStore(t)
	svc := NewReplayService(st, zerolog.Nop())

	_, err := svc.SaveAsExample(context.Background(), "any", ExampleMetadata{})
	assert.ErrorIs(t, err, model.ErrValidation)
}
