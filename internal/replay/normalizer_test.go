package replay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointhq/waypoint/server/internal/model"
)

var testClock = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return testClock.Add(time.Duration(sec) * time.Second) }

func record(id string, kind model.ToolKind, t time.Time, payload string) *model.ToolCallRecord {
	rec := &model.ToolCallRecord{RecordID: id, Kind: kind, CreationTime: t}
	if payload != "" {
		rec.Payload = json.RawMessage(payload)
	}
	return rec
}

func TestNormalizeMergesByTimestamp(t *testing.T) {
	providerSearches := []*model.ToolCallRecord{
		record("p1", model.ToolFindProviders, at(10), `{"providers":[]}`),
	}
	addressSearches := []*model.ToolCallRecord{
		record("a1", model.ToolSearchAddresses, at(5), `{"places":[{"name":"City Hall","formattedAddress":"1 Main St"}]}`),
		record("a2", model.ToolSearchAddresses, at(15), `{"places":[]}`),
	}
	infoLookups := []*model.ToolCallRecord{
		record("i1", model.ToolGetProviderInfo, at(12), `{"providerId":"pr-1","providerInfo":"wheelchair accessible"}`),
	}

	events := Normalize(zerolog.Nop(), providerSearches, addressSearches, infoLookups)

	require.Len(t, events, 4)
	assert.Equal(t, []string{"a1", "p1", "i1", "a2"}, eventIDs(events))
	assert.Equal(t, "City Hall", events[0].SearchAddresses.Places[0].Name)
	assert.Equal(t, "pr-1", events[2].ProviderInfo.ProviderID)
}

func TestNormalizeTiesAreStable(t *testing.T) {
	// All at the same instant: merge input order must survive the sort.
	providerSearches := []*model.ToolCallRecord{
		record("p1", model.ToolFindProviders, at(0), `{"providers":[]}`),
		record("p2", model.ToolFindProviders, at(0), `{"providers":[]}`),
	}
	addressSearches := []*model.ToolCallRecord{
		record("a1", model.ToolSearchAddresses, at(0), `{"places":[]}`),
	}
	infoLookups := []*model.ToolCallRecord{
		record("i1", model.ToolGetProviderInfo, at(0), `{"providerId":"x","providerInfo":""}`),
	}

	events := Normalize(zerolog.Nop(), providerSearches, addressSearches, infoLookups)

	assert.Equal(t, []string{"p1", "p2", "a1", "i1"}, eventIDs(events))
}

func TestNormalizeCorruptPayload(t *testing.T) {
	providerSearches := []*model.ToolCallRecord{
		record("p1", model.ToolFindProviders, at(0), `{"providers": [truncated`),
	}

	events := Normalize(zerolog.Nop(), providerSearches, nil, nil)

	require.Len(t, events, 1)
	require.NotNil(t, events[0].FindProviders)
	assert.Empty(t, events[0].FindProviders.Providers)
	assert.Empty(t, events[0].FindProviders.SourceAddress)
}

func TestNormalizeSchemaMismatch(t *testing.T) {
	// Valid JSON that does not fit the payload schema degrades the same way.
	addressSearches := []*model.ToolCallRecord{
		record("a1", model.ToolSearchAddresses, at(0), `{"places": 42}`),
	}

	events := Normalize(zerolog.Nop(), nil, addressSearches, nil)

	require.Len(t, events, 1)
	require.NotNil(t, events[0].SearchAddresses)
	assert.Empty(t, events[0].SearchAddresses.Places)
}

func TestNormalizeMissingPayload(t *testing.T) {
	infoLookups := []*model.ToolCallRecord{
		record("i1", model.ToolGetProviderInfo, at(0), ""),
	}

	events := Normalize(zerolog.Nop(), nil, nil, infoLookups)

	require.Len(t, events, 1)
	require.NotNil(t, events[0].ProviderInfo)
	assert.Empty(t, events[0].ProviderInfo.ProviderID)
}

func eventIDs(events []ToolCallEvent) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.EventID
	}
	return ids
}
