package usersink

import (
	"context"

	"github.com/goliatone/go-stagecms/pkg/interfaces"
)

// LoggerSink writes activity records as structured log entries. It is the
// sink used when no external activity store is configured.
type LoggerSink struct {
	Logger interfaces.Logger
}

func (s LoggerSink) Log(_ context.Context, record interfaces.ActivityRecord) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.Info("activity."+record.Verb,
		"object_type", record.ObjectType,
		"object_id", record.ObjectID,
		"actor_id", record.ActorID,
		"channel", record.Channel,
		"data", record.Data,
	)
	return nil
}
