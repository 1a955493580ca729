package port

import (
	"context"
	"time"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
)

// DownloadDispatch is a pending task claimed for the download stage,
// enriched with the video fields its notification payload carries.
type DownloadDispatch struct {
	TaskID     db.UUID
	VideoID    db.UUID
	MagnetURI  string
	Retries    int
	MaxRetries int
}

// UploadCandidate is a task parked in remuxing with its file on disk,
// waiting for an account lease before it may advance to uploading.
type UploadCandidate struct {
	TaskID     db.UUID
	VideoID    db.UUID
	LocalPath  string
	SizeBytes  int64
	Retries    int
	MaxRetries int
}

// VerifyDispatch is a task the upload stage advanced to verifying that has
// not yet been routed to the verify queue.
type VerifyDispatch struct {
	TaskID     db.UUID
	VideoID    db.UUID
	ShareURL   string
	Retries    int
	MaxRetries int
}

// StaleQuery selects tasks that overstayed their per-state timeout.
type StaleQuery struct {
	State model.TaskState
	// Cutoff is the oldest updated_at still considered live.
	Cutoff time.Time
	// OnlyMissingLocal restricts remuxing candidates to tasks whose video
	// has no local file yet; a parked upload candidate is waiting, not stuck.
	OnlyMissingLocal bool
	// OrLeaseExpired also returns tasks whose attached account lease lapsed,
	// regardless of Cutoff.
	OrLeaseExpired bool
	Now            time.Time
	Limit          int
}

// StaleTask is a reap candidate with the fields the requeue decision needs.
type StaleTask struct {
	TaskID     db.UUID
	VideoID    db.UUID
	AccountID  *db.UUID
	State      model.TaskState
	Retries    int
	MaxRetries int
	UpdatedAt  time.Time
}

// RequeueRequest resets a stale task for another attempt. From and
// ObservedRetries make the write conditional so concurrent sweeps cannot
// double-count a retry.
type RequeueRequest struct {
	TaskID          db.UUID
	From            model.TaskState
	ObservedRetries int
	To              model.TaskState
	QueueName       string
	Reason          string
}

// TaskRepository defines persistence operations for tasks. Claim methods
// perform their state transition and the coarse video status mirror in a
// single transaction; publishing to the queue is the caller's business and
// happens strictly after commit.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id db.UUID) (*model.Task, error)
	HasOpenTask(ctx context.Context, videoID db.UUID) (bool, error)
	CountByState(ctx context.Context, state model.TaskState) (int, error)
	CountsByState(ctx context.Context) (map[model.TaskState]int, error)

	// ClaimPendingBatch locks up to limit pending tasks, skipping rows
	// claimed by a concurrent dispatcher, and moves them to downloading
	// with the given destination queue recorded.
	ClaimPendingBatch(ctx context.Context, queueName string, limit int) ([]DownloadDispatch, error)
	ListUploadReady(ctx context.Context, limit int) ([]UploadCandidate, error)
	// AttachAccountAndAdvance moves one remuxing task to uploading with the
	// leased account attached. Returns false when the task is no longer in
	// remuxing, in which case nothing was written.
	AttachAccountAndAdvance(ctx context.Context, taskID, accountID db.UUID, queueName string) (bool, error)
	// ClaimVerifyBatch routes verifying tasks to the verify queue exactly
	// once, returning the rows it flipped.
	ClaimVerifyBatch(ctx context.Context, queueName string, limit int) ([]VerifyDispatch, error)

	// AdvanceState is the collaborator-facing forward transition, validated
	// against the pipeline order and written as a compare-and-set.
	AdvanceState(ctx context.Context, id db.UUID, from, to model.TaskState) error
	// MarkFailed terminally fails a task from any non-terminal state and
	// mirrors the video status.
	MarkFailed(ctx context.Context, id db.UUID, reason string) error

	ListStale(ctx context.Context, q StaleQuery) ([]StaleTask, error)
	// RequeueForRetry returns false when the conditional write lost, meaning
	// another actor already moved the task.
	RequeueForRetry(ctx context.Context, r RequeueRequest) (bool, error)
	// FailExhausted terminally fails a stale task, conditional on the
	// observed state and retry count like RequeueForRetry.
	FailExhausted(ctx context.Context, id db.UUID, from model.TaskState, observedRetries int, reason string) (bool, error)
}
