package replay

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/waypointhq/waypoint/server/internal/model"
)

// ToolCallEvent is the normalized side-effect event. Kind discriminates which
// payload pointer is set; a corrupt stored payload yields an event whose
// payload is empty but present, so the reducer still counts the step.
type ToolCallEvent struct {
	EventID      string
	Kind         model.ToolKind
	CreationTime time.Time

	FindProviders   *model.FindProvidersPayload
	SearchAddresses *model.SearchAddressesPayload
	ProviderInfo    *model.ProviderInfoPayload
}

// Normalize merges the three per-kind record logs into one event list sorted
// ascending by creation time. The sort is stable: records with equal
// timestamps keep their input order (provider searches, then address
// searches, then info lookups). A record whose payload fails to parse is
// normalized with an empty payload rather than aborting the merge.
func Normalize(log zerolog.Logger, providerSearches, addressSearches, infoLookups []*model.ToolCallRecord) []ToolCallEvent {
	events := make([]ToolCallEvent, 0, len(providerSearches)+len(addressSearches)+len(infoLookups))

	for _, rec := range providerSearches {
		ev := ToolCallEvent{
			EventID:       rec.RecordID,
			Kind:          model.ToolFindProviders,
			CreationTime:  rec.CreationTime,
			FindProviders: &model.FindProvidersPayload{},
		}
		if !decodePayload(log, rec, ev.FindProviders) {
			ev.FindProviders = &model.FindProvidersPayload{}
		}
		events = append(events, ev)
	}
	for _, rec := range addressSearches {
		ev := ToolCallEvent{
			EventID:         rec.RecordID,
			Kind:            model.ToolSearchAddresses,
			CreationTime:    rec.CreationTime,
			SearchAddresses: &model.SearchAddressesPayload{},
		}
		if !decodePayload(log, rec, ev.SearchAddresses) {
			ev.SearchAddresses = &model.SearchAddressesPayload{}
		}
		events = append(events, ev)
	}
	for _, rec := range infoLookups {
		ev := ToolCallEvent{
			EventID:      rec.RecordID,
			Kind:         model.ToolGetProviderInfo,
			CreationTime: rec.CreationTime,
			ProviderInfo: &model.ProviderInfoPayload{},
		}
		if !decodePayload(log, rec, ev.ProviderInfo) {
			ev.ProviderInfo = &model.ProviderInfoPayload{}
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreationTime.Before(events[j].CreationTime)
	})
	return events
}

// decodePayload unmarshals a stored payload into dst. Returns false when the
// payload is absent or corrupt; dst may then hold a partial decode and the
// caller resets it.
func decodePayload(log zerolog.Logger, rec *model.ToolCallRecord, dst any) bool {
	if len(rec.Payload) == 0 {
		return false
	}
	if !gjson.ValidBytes(rec.Payload) {
		log.Warn().
			Str("record_id", rec.RecordID).
			Str("kind", string(rec.Kind)).
			Msg("tool call payload is not valid JSON; replaying with empty payload")
		return false
	}
	if err := json.Unmarshal(rec.Payload, dst); err != nil {
		log.Warn().
			Err(err).
			Str("record_id", rec.RecordID).
			Str("kind", string(rec.Kind)).
			Msg("tool call payload does not match its schema; replaying with empty payload")
		return false
	}
	return true
}
