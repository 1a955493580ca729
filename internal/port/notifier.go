package port

import (
	"context"

	"github.com/pixav/maxwell/internal/db"
)

// UploadDispatch is the payload of an upload notification: the claimed task
// together with the account leased for it.
type UploadDispatch struct {
	TaskID     db.UUID
	VideoID    db.UUID
	LocalPath  string
	AccountID  db.UUID
	Retries    int
	MaxRetries int
}

// Notifier publishes dispatch notifications to the per-stage work queues.
// Notifications are hints: consumers re-check store state, and a lost
// notification is repaired by the reaper, never by the broker.
type Notifier interface {
	EnqueueDownload(ctx context.Context, n DownloadDispatch) error
	EnqueueUpload(ctx context.Context, n UploadDispatch) error
	EnqueueVerify(ctx context.Context, n VerifyDispatch) error
}
