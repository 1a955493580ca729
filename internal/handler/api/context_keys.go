package api

import (
	"context"

	"github.com/pixav/maxwell/internal/db"
)

type ctxKey string

// IDKey carries the UUID parsed from the {id} URL segment by WithID.
const IDKey ctxKey = "id"

// IDFromContext pulls the parsed ID back out; ok is false when the route
// was mounted without the WithID middleware.
func IDFromContext(ctx context.Context) (db.UUID, bool) {
	id, ok := ctx.Value(IDKey).(db.UUID)
	return id, ok
}
