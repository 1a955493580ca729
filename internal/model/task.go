package model

import (
	"time"

	"github.com/pixav/maxwell/internal/db"
)

type TaskState string

const (
	TaskStatePending     TaskState = "pending"
	TaskStateDownloading TaskState = "downloading"
	TaskStateRemuxing    TaskState = "remuxing"
	TaskStateUploading   TaskState = "uploading"
	TaskStateVerifying   TaskState = "verifying"
	TaskStateComplete    TaskState = "complete"
	TaskStateFailed      TaskState = "failed"
)

// successors holds the forward pipeline order. Failed is not listed here:
// it is reachable from every non-terminal state and handled in CanAdvance.
var successors = map[TaskState]TaskState{
	TaskStatePending:     TaskStateDownloading,
	TaskStateDownloading: TaskStateRemuxing,
	TaskStateRemuxing:    TaskStateUploading,
	TaskStateUploading:   TaskStateVerifying,
	TaskStateVerifying:   TaskStateComplete,
}

func (s TaskState) IsTerminal() bool {
	return s == TaskStateComplete || s == TaskStateFailed
}

// CanAdvance reports whether a forward write from one state to another is
// legal: the destination must be the source's immediate successor, or failed
// from any non-terminal state. Requeues performed on stale tasks are a
// separate operation and never go through this check.
func CanAdvance(from, to TaskState) bool {
	if from.IsTerminal() {
		return false
	}
	if to == TaskStateFailed {
		return true
	}
	return successors[from] == to
}

// ResumptionState returns the state a stale task is reset to when it is
// requeued: the most recent state that holds no exclusive resource. A task
// stalled before its file exists restarts from scratch; a task stalled in
// the upload half goes back to waiting for a fresh account.
func ResumptionState(from TaskState) (TaskState, bool) {
	switch from {
	case TaskStateDownloading, TaskStateRemuxing:
		return TaskStatePending, true
	case TaskStateUploading, TaskStateVerifying:
		return TaskStateRemuxing, true
	default:
		return "", false
	}
}

type Task struct {
	ID           db.UUID   `json:"id"`
	VideoID      db.UUID   `json:"video_id"`
	AccountID    *db.UUID  `json:"account_id,omitempty"`
	State        TaskState `json:"state"`
	QueueName    string    `json:"queue_name"`
	Retries      int       `json:"retries"`
	MaxRetries   int       `json:"max_retries"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
