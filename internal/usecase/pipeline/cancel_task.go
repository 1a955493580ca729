package pipeline

import (
	"context"
	"log"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/port"
)

type taskCancellerSrv struct {
	tasks port.TaskRepository
}

// compile-time check: *taskCancellerSrv must satisfy port.TaskCanceller
var _ port.TaskCanceller = (*taskCancellerSrv)(nil)

func NewTaskCanceller(tasks port.TaskRepository) port.TaskCanceller {
	return &taskCancellerSrv{tasks: tasks}
}

// CancelTask terminally fails a task on operator request. An account still
// leased to it is not touched here; the sweep's orphan pass reclaims it once
// the lease expires.
func (s *taskCancellerSrv) CancelTask(ctx context.Context, id db.UUID, reason string) error {
	if reason == "" {
		reason = "cancelled by operator"
	}
	if err := s.tasks.MarkFailed(ctx, id, reason); err != nil {
		return err
	}

	log.Printf("cancelled task #%s: %s", id, reason)
	return nil
}
