package task

import (
	"context"
	"errors"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/pixav/maxwell/internal/port"
)

// Inspector reports broker-side queue depth through Asynq's inspector API.
type Inspector struct {
	inspector *asynq.Inspector
}

// compile-time check: *Inspector must satisfy port.QueueStats
var _ port.QueueStats = (*Inspector)(nil)

func NewInspector(addr, password string) *Inspector {
	return &Inspector{
		inspector: asynq.NewInspector(asynq.RedisClientOpt{Addr: addr, Password: password}),
	}
}

// PendingDepth counts messages waiting in queueName, active ones included so
// backlog and in-flight both push against the admission ceiling. A queue the
// broker has never seen yet counts as empty.
func (i *Inspector) PendingDepth(ctx context.Context, queueName string) (int, error) {
	info, err := i.inspector.GetQueueInfo(queueName)
	if err != nil {
		if isQueueNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return info.Pending + info.Active, nil
}

func (i *Inspector) Close() error {
	return i.inspector.Close()
}

func isQueueNotFound(err error) bool {
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return true
	}
	// older inspector calls leak the internal NOT_FOUND wording instead
	return err != nil && strings.Contains(err.Error(), "does not exist")
}
