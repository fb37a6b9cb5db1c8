package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/waypointhq/waypoint/server/internal/model"
	"github.com/waypointhq/waypoint/server/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store
// implementation. Implementations should provide a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Conversations
	conv, err := s.Conversations().Create(ctx, &model.Conversation{Title: "Ride to the clinic"})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if conv.ConversationID == "" {
		t.Fatalf("CreateConversation: empty id")
	}
	if got, err := s.Conversations().Get(ctx, conv.ConversationID); err != nil || got.Title != "Ride to the clinic" {
		t.Fatalf("GetConversation: got=%v err=%v", got, err)
	}
	if _, err := s.Conversations().Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetConversation missing: want ErrNotFound, got %v", err)
	}
	if lst, err := s.Conversations().List(ctx); err != nil || len(lst) == 0 {
		t.Fatalf("ListConversations: n=%d err=%v", len(lst), err)
	}

	// Messages keep creation order via seq even with equal timestamps.
	m1, err := s.Messages().Append(ctx, &model.Message{ConversationID: conv.ConversationID, Role: model.RoleUser, Content: "Find a ride from A to B"})
	if err != nil {
		t.Fatalf("AppendMessage m1: %v", err)
	}
	m2, err := s.Messages().Append(ctx, &model.Message{ConversationID: conv.ConversationID, Role: model.RoleAssistant, Content: "Here are two providers", CreationTime: m1.CreationTime})
	if err != nil {
		t.Fatalf("AppendMessage m2: %v", err)
	}
	if m2.Seq <= m1.Seq {
		t.Fatalf("seq not monotonic: m1=%d m2=%d", m1.Seq, m2.Seq)
	}
	msgs, err := s.Messages().List(ctx, conv.ConversationID)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("ListMessages: n=%d err=%v", len(msgs), err)
	}
	if msgs[0].MessageID != m1.MessageID || msgs[1].MessageID != m2.MessageID {
		t.Fatalf("ListMessages order: %s,%s", msgs[0].MessageID, msgs[1].MessageID)
	}

	// Tool calls: each kind lands in its own log; corrupt payloads round-trip verbatim.
	payload, _ := json.Marshal(model.SearchAddressesPayload{Places: []model.Place{{Name: "City Hall"}}})
	if _, err := s.ToolCalls().RecordAddressSearch(ctx, conv.ConversationID, payload); err != nil {
		t.Fatalf("RecordAddressSearch: %v", err)
	}
	time.Sleep(5 * time.Millisecond) // keep creation-time ordering observable
	if _, err := s.ToolCalls().RecordProviderSearch(ctx, conv.ConversationID, json.RawMessage(`{not json`)); err != nil {
		t.Fatalf("RecordProviderSearch corrupt: %v", err)
	}
	addr, err := s.ToolCalls().ListAddressSearches(ctx, conv.ConversationID)
	if err != nil || len(addr) != 1 || addr[0].Kind != model.ToolSearchAddresses {
		t.Fatalf("ListAddressSearches: n=%d err=%v", len(addr), err)
	}
	prov, err := s.ToolCalls().ListProviderSearches(ctx, conv.ConversationID)
	if err != nil || len(prov) != 1 {
		t.Fatalf("ListProviderSearches: n=%d err=%v", len(prov), err)
	}
	if string(prov[0].Payload) != `{not json` {
		t.Fatalf("corrupt payload not verbatim: %q", prov[0].Payload)
	}
	if lookups, err := s.ToolCalls().ListProviderInfoLookups(ctx, conv.ConversationID); err != nil || len(lookups) != 0 {
		t.Fatalf("ListProviderInfoLookups: n=%d err=%v", len(lookups), err)
	}

	// Providers
	zone := json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`)
	p, err := s.Providers().Create(ctx, &model.Provider{
		Name:        "Metro Access",
		Type:        "paratransit",
		RoutingType: "door_to_door",
		ServiceZone: zone,
		Contacts:    map[string]string{"phone": "555-0100"},
	})
	if err != nil {
		t.Fatalf("CreateProvider: %v", err)
	}
	got, err := s.Providers().GetByID(ctx, p.ProviderID)
	if err != nil || got.Name != "Metro Access" {
		t.Fatalf("GetProvider: got=%v err=%v", got, err)
	}
	if len(got.ServiceZone) == 0 || got.Contacts["phone"] != "555-0100" {
		t.Fatalf("GetProvider JSON fields: zone=%d contacts=%v", len(got.ServiceZone), got.Contacts)
	}
	if lst, err := s.Providers().List(ctx); err != nil || len(lst) == 0 {
		t.Fatalf("ListProviders: n=%d err=%v", len(lst), err)
	}

	// Examples persist the snapshot sequence verbatim.
	states := []model.ReplaySnapshot{{
		SequenceNumber: 1,
		Message:        *m1,
		State:          model.CumulativeState{SourceAddress: "A"},
		UIHints:        model.UIHints{MapAction: model.MapActionFocus},
	}}
	ex, err := s.Examples().Create(ctx, &model.Example{
		ConversationID: conv.ConversationID,
		Title:          "Clinic trip",
		States:         states,
		Config:         model.DefaultReplayConfig(),
	})
	if err != nil {
		t.Fatalf("CreateExample: %v", err)
	}
	gotEx, err := s.Examples().GetByID(ctx, ex.ExampleID)
	if err != nil {
		t.Fatalf("GetExample: %v", err)
	}
	if len(gotEx.States) != 1 || gotEx.States[0].State.SourceAddress != "A" {
		t.Fatalf("GetExample states: %+v", gotEx.States)
	}
	if gotEx.Config != model.DefaultReplayConfig() {
		t.Fatalf("GetExample config: %+v", gotEx.Config)
	}
	if lst, err := s.Examples().List(ctx); err != nil || len(lst) != 1 {
		t.Fatalf("ListExamples: n=%d err=%v", len(lst), err)
	}

	// Deletes
	if err := s.Examples().Delete(ctx, ex.ExampleID); err != nil {
		t.Fatalf("DeleteExample: %v", err)
	}
	if err := s.Providers().Delete(ctx, p.ProviderID); err != nil {
		t.Fatalf("DeleteProvider: %v", err)
	}
	if err := s.Conversations().Delete(ctx, conv.ConversationID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
}
