package opctx

import (
	"context"

	"github.com/pixav/maxwell/internal/db"
)

type ctxKey string

const (
	TaskIDKey ctxKey = "taskID"
	TickKey   ctxKey = "tick"
)

func WithTaskID(ctx context.Context, id db.UUID) context.Context {
	return context.WithValue(ctx, TaskIDKey, id)
}

func TaskIDFromContext(ctx context.Context) (db.UUID, bool) {
	id, ok := ctx.Value(TaskIDKey).(db.UUID)
	return id, ok
}

func WithTick(ctx context.Context, n uint64) context.Context {
	return context.WithValue(ctx, TickKey, n)
}

func TickFromContext(ctx context.Context) (uint64, bool) {
	n, ok := ctx.Value(TickKey).(uint64)
	return n, ok
}
