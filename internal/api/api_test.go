package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/waypointhq/waypoint/server/internal/services"
	"github.com/waypointhq/waypoint/server/internal/store"
	"github.com/waypointhq/waypoint/server/internal/store/sqlite"
)

type testEnv struct {
	store  store.Store
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := sqlite.New(t.TempDir() + "/waypoint.db")
	require.NoError(t, err)

	log := zerolog.Nop()
	providerSvc := services.NewProviderService(st)
	router := NewRouter(Deps{
		Conversations: services.NewConversationService(st, nil, nil, providerSvc, log),
		Replay:        services.NewReplayService(st, log),
		Providers:     providerSvc,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{store: st, server: srv}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestConversationLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/conversations", map[string]string{"title": "Trip planning"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	convID := gjson.GetBytes(body, "conversationId").String()
	require.NotEmpty(t, convID)

	resp = env.do(t, "POST", "/api/conversations", map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "GET", "/api/conversations/"+convID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "GET", "/api/conversations/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "POST", "/api/conversations/"+convID+"/messages",
		map[string]string{"role": "user", "content": "hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "POST", "/api/conversations/"+convID+"/messages",
		map[string]string{"role": "robot", "content": "beep"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "GET", "/api/conversations/"+convID+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "messages.#").Int())

	resp = env.do(t, "DELETE", "/api/conversations/"+convID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "GET", "/api/conversations/"+convID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestToolCallRecording(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/conversations", map[string]string{"title": "t"})
	convID := gjson.GetBytes(decodeBody(t, resp), "conversationId").String()

	resp = env.do(t, "POST", "/api/conversations/"+convID+"/tool-calls", map[string]any{
		"kind":    "search_addresses",
		"payload": map[string]any{"places": []any{}},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "POST", "/api/conversations/"+convID+"/tool-calls", map[string]any{
		"kind": "teleport",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestReplayAndExampleEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/conversations", map[string]string{"title": "replayable"})
	convID := gjson.GetBytes(decodeBody(t, resp), "conversationId").String()

	resp = env.do(t, "POST", "/api/conversations/"+convID+"/messages",
		map[string]string{"role": "user", "content": "find me a ride"})
	resp.Body.Close()
	time.Sleep(5 * time.Millisecond)
	resp = env.do(t, "POST", "/api/conversations/"+convID+"/tool-calls", map[string]any{
		"kind": "find_providers",
		"payload": map[string]any{
			"providers":          []map[string]any{{"providerId": "pr-1", "name": "Metro Access"}},
			"sourceAddress":      "A",
			"destinationAddress": "B",
		},
	})
	resp.Body.Close()
	time.Sleep(5 * time.Millisecond)
	resp = env.do(t, "POST", "/api/conversations/"+convID+"/messages",
		map[string]string{"role": "assistant", "content": "here is a provider"})
	resp.Body.Close()

	resp = env.do(t, "GET", "/api/conversations/"+convID+"/replay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Equal(t, int64(2), gjson.GetBytes(body, "states.#").Int())
	assert.True(t, gjson.GetBytes(body, "states.1.uiHints.showProviders").Bool())
	assert.Equal(t, "Metro Access", gjson.GetBytes(body, "states.1.state.providers.0.name").String())
	assert.True(t, gjson.GetBytes(body, "replayConfig.autoAdvance").Bool())

	// A conversation that does not exist replays as an empty sequence.
	resp = env.do(t, "GET", "/api/conversations/ghost/replay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, int64(0), gjson.GetBytes(body, "states.#").Int())

	resp = env.do(t, "POST", "/api/conversations/"+convID+"/example",
		map[string]string{"title": "Provider demo", "category": "trips"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body = decodeBody(t, resp)
	exampleID := gjson.GetBytes(body, "exampleId").String()
	require.NotEmpty(t, exampleID)

	resp = env.do(t, "GET", "/api/examples/"+exampleID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, int64(2), gjson.GetBytes(body, "states.#").Int())

	resp = env.do(t, "GET", "/api/examples", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "examples.#").Int())
}

func TestProviderEndpoints(t *testing.T) {
	env := newTestEnv(t)

	zone := map[string]any{
		"type":        "Polygon",
		"coordinates": [][][]float64{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}},
	}
	resp := env.do(t, "POST", "/api/providers", map[string]any{
		"providerId":  "pr-1",
		"name":        "Metro Access",
		"type":        "paratransit",
		"routingType": "door_to_door",
		"serviceZone": zone,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "POST", "/api/providers", map[string]any{
		"providerId": "pr-2", "name": "County Rides", "type": "volunteer",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "POST", "/api/providers", map[string]any{"providerId": "pr-3"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "GET", "/api/providers?type=paratransit", nil)
	body := decodeBody(t, resp)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "providers.#").Int())

	resp = env.do(t, "GET", "/api/providers?lat=5&lng=5", nil)
	body = decodeBody(t, resp)
	require.Equal(t, int64(1), gjson.GetBytes(body, "providers.#").Int())
	assert.Equal(t, "pr-1", gjson.GetBytes(body, "providers.0.providerId").String())

	resp = env.do(t, "GET", "/api/providers?lat=91&lng=0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "GET", fmt.Sprintf("/api/providers/%s", "pr-2"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "DELETE", "/api/providers/pr-2", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, "GET", "/api/providers/pr-2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "GET", "/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, []string{"healthy", "unhealthy"}, gjson.GetBytes(body, "status").String())
}

func TestRespondWithoutAssistantIsBadRequest(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "POST", "/api/conversations", map[string]string{"title": "t"})
	convID := gjson.GetBytes(decodeBody(t, resp), "conversationId").String()

	resp = env.do(t, "POST", "/api/conversations/"+convID+"/respond",
		map[string]string{"content": "hello"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
