package interfaces

import (
	"context"

	usertypes "github.com/goliatone/go-users/pkg/types"
)

// ActivityRecord is the go-users activity record. Page events are stored in
// this shape so host applications can reuse their go-users activity store.
type ActivityRecord = usertypes.ActivityRecord

// ActivitySink persists activity records. A go-users ActivitySink satisfies it.
type ActivitySink interface {
	Log(ctx context.Context, record ActivityRecord) error
}

// ActivitySinkFunc adapts a function to ActivitySink.
type ActivitySinkFunc func(ctx context.Context, record ActivityRecord) error

func (f ActivitySinkFunc) Log(ctx context.Context, record ActivityRecord) error {
	if f == nil {
		return nil
	}
	return f(ctx, record)
}
