package port

import (
	"context"
	"time"
)

// StatusCache stores the assembled status snapshot between polls so frequent
// dashboard refreshes do not fan out into store and broker queries.
type StatusCache interface {
	// GetStatusSnapshot returns nil, nil on a cache miss.
	GetStatusSnapshot(ctx context.Context) (*StatusOutput, error)
	SetStatusSnapshot(ctx context.Context, out *StatusOutput, ttl time.Duration) error
}
