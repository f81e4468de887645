package usersink

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-stagecms/pkg/activity"
	"github.com/goliatone/go-stagecms/pkg/interfaces"
	"github.com/google/uuid"
)

// Hook forwards activity events to a go-users activity sink.
type Hook struct {
	Sink interfaces.ActivitySink
}

// Notify maps event onto an activity record. Events without a verb are
// skipped. Identifiers that are not UUIDs are kept in the record data.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil || strings.TrimSpace(event.Verb) == "" {
		return nil
	}
	data := map[string]any{}
	maps.Copy(data, event.Metadata)
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		data["recipients"] = append([]string(nil), event.Recipients...)
	}

	record := interfaces.ActivityRecord{
		ActorID:    parseID(event.ActorID, "actor", data),
		UserID:     parseID(event.UserID, "user", data),
		TenantID:   parseID(event.TenantID, "tenant", data),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		OccurredAt: event.OccurredAt,
		Data:       data,
	}
	return h.Sink.Log(ctx, record)
}

func parseID(raw, key string, data map[string]any) uuid.UUID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		data[key] = raw
		return uuid.Nil
	}
	return id
}
