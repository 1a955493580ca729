package port

import (
	"context"
	"time"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
)

// PoolStats summarises the account pool for the status snapshot.
type PoolStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Eligible int `json:"eligible"`
	Leased   int `json:"leased"`
	Cooldown int `json:"cooldown"`
}

// AccountRepository defines persistence operations for upload accounts.
// Every mutation below is a single conditional UPDATE; the row predicate,
// not application memory, decides who owns an account.
type AccountRepository interface {
	Create(ctx context.Context, acct *model.Account) error
	GetByID(ctx context.Context, id db.UUID) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)

	// ResetDueQuotas zeroes usage counters of accounts whose reset boundary
	// passed and rolls the boundary forward. Called lazily before selection.
	ResetDueQuotas(ctx context.Context, now, nextReset time.Time) (int64, error)
	// ListEligible returns lease candidates able to take sizeBytes more
	// today, least recently used first, ties broken by id.
	ListEligible(ctx context.Context, sizeBytes int64, now time.Time, limit int) ([]*model.Account, error)
	// ClaimLease re-checks the full eligibility predicate at write time and
	// takes the lease. Returns false when a concurrent claimer won the row.
	ClaimLease(ctx context.Context, id db.UUID, sizeBytes int64, now, expiresAt time.Time) (bool, error)
	ReleaseLease(ctx context.Context, id db.UUID) error
	// ExtendLease pushes the expiry forward only while the lease is still
	// live and the given task still references the account in an upload
	// phase. Returns false when the lease was lost.
	ExtendLease(ctx context.Context, accountID, taskID db.UUID, now, newExpiry time.Time) (bool, error)

	// ApplyUploadUsage records a finished upload on behalf of the upload
	// stage: adds usage (resetting first if the boundary passed), bumps
	// last_used_at, releases the lease, and enters cooldown when the daily
	// quota is spent.
	ApplyUploadUsage(ctx context.Context, id db.UUID, uploadedBytes int64, now, nextReset time.Time) error

	// ReleaseOrphanLeases clears expired leases not referenced by any task
	// in an upload phase. Returns the number of leases reclaimed.
	ReleaseOrphanLeases(ctx context.Context, now time.Time) (int64, error)
	// ReleaseDueCooldowns reactivates cooldown accounts whose cooldown_until
	// passed, zeroing counters and rolling the reset boundary.
	ReleaseDueCooldowns(ctx context.Context, now, nextReset time.Time) (int64, error)

	PoolStats(ctx context.Context, sizeBytes int64, now time.Time) (PoolStats, error)
}
