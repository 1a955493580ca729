package port

import (
	"context"
	"time"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
)

type UUIDGen func() db.UUID

// AccountLeaser hands out exclusive, time-bounded claims on upload accounts.
type AccountLeaser interface {
	// Acquire returns the least recently used eligible account able to take
	// sizeBytes today, with its lease taken. Never blocks waiting for one.
	Acquire(ctx context.Context, sizeBytes int64) (*model.Account, error)
	Release(ctx context.Context, accountID db.UUID) error
	// Extend pushes the lease expiry forward for a long-running upload and
	// returns the new expiry. Fails when the caller no longer owns the lease.
	Extend(ctx context.Context, accountID, taskID db.UUID) (time.Time, error)
}

type DispatchStats struct {
	Downloads int `json:"downloads"`
	Uploads   int `json:"uploads"`
	Verifies  int `json:"verifies"`
	Deferred  int `json:"deferred"`
	Denied    int `json:"denied"`
}

// Dispatcher advances tasks between pipeline stages. One RunOnce call is a
// full sweep over the download, upload and verify passes.
type Dispatcher interface {
	RunOnce(ctx context.Context) (DispatchStats, error)
}

type ReapStats struct {
	Requeued          int   `json:"requeued"`
	Failed            int   `json:"failed"`
	OrphanLeases      int64 `json:"orphan_leases"`
	CooldownsReleased int64 `json:"cooldowns_released"`
	VideosExpired     int64 `json:"videos_expired"`
}

// Reaper reclaims tasks and leases left behind by crashed or stuck workers.
type Reaper interface {
	Sweep(ctx context.Context) (ReapStats, error)
}

// AdmissionController gates dispatch per stage against queue depth and
// in-flight ceilings. Denial is load shedding, not an error.
type AdmissionController interface {
	ShouldAdmit(ctx context.Context, stage string) bool
}

type RegisterVideoInput struct {
	Title     string `json:"title" validate:"required,max=512"`
	MagnetURI string `json:"magnet_uri" validate:"required,magnet"`
}
type RegisterVideoOutput struct {
	Video *model.Video `json:"video"`
	Task  *model.Task  `json:"task"`
}

// VideoRegistrar registers a video and opens its pipeline task.
type VideoRegistrar interface {
	RegisterVideo(ctx context.Context, in RegisterVideoInput) (*RegisterVideoOutput, error)
}

// TaskCanceller externally fails a task. Any lease it holds is left for the
// next reaper sweep.
type TaskCanceller interface {
	CancelTask(ctx context.Context, id db.UUID, reason string) error
}

type RegisterAccountInput struct {
	Email                string `json:"email" validate:"required,email"`
	DailyQuotaBytes      int64  `json:"daily_quota_bytes" validate:"required,gt=0"`
	StorageCapacityBytes int64  `json:"storage_capacity_bytes" validate:"omitempty,gt=0"`
}

// AccountRegistrar provisions upload accounts into the pool.
type AccountRegistrar interface {
	RegisterAccount(ctx context.Context, in RegisterAccountInput) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]*model.Account, error)
}

type QueueStatus struct {
	Depth   int  `json:"depth"`
	Ceiling int  `json:"ceiling"`
	Admit   bool `json:"admit"`
}
type StatusOutput struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Paused      bool                    `json:"paused"`
	Tasks       map[model.TaskState]int `json:"tasks"`
	Accounts    PoolStats               `json:"accounts"`
	Queues      map[string]QueueStatus  `json:"queues"`
}

// StatusReporter assembles the orchestrator health snapshot.
type StatusReporter interface {
	Status(ctx context.Context) (*StatusOutput, error)
}

// PauseSwitch is the operator's kill switch for the dispatch loop.
type PauseSwitch interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Paused(ctx context.Context) (bool, error)
}
