package task

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pixav/maxwell/internal/port"
)

// QueueNames routes each pipeline stage to its broker queue.
type QueueNames struct {
	Download string
	Upload   string
	Verify   string
}

// Notifier publishes stage notifications through Asynq. Broker-side retries
// stay off: a consumer that fails re-reads store state and the reaper
// redispatches, so redelivery would only double-count attempts.
type Notifier struct {
	client  *asynq.Client
	queues  QueueNames
	timeout time.Duration
}

// compile-time check: *Notifier must satisfy port.Notifier
var _ port.Notifier = (*Notifier)(nil)

func NewNotifier(addr, password string, queues QueueNames, publishTimeout time.Duration) *Notifier {
	c := asynq.NewClient(asynq.RedisClientOpt{Addr: addr, Password: password})
	return &Notifier{client: c, queues: queues, timeout: publishTimeout}
}

func (n *Notifier) EnqueueDownload(ctx context.Context, d port.DownloadDispatch) error {
	t, err := NewDownloadVideoTask(d)
	if err != nil {
		return err
	}
	return n.enqueue(ctx, t, n.queues.Download)
}

func (n *Notifier) EnqueueUpload(ctx context.Context, d port.UploadDispatch) error {
	t, err := NewUploadVideoTask(d)
	if err != nil {
		return err
	}
	return n.enqueue(ctx, t, n.queues.Upload)
}

func (n *Notifier) EnqueueVerify(ctx context.Context, d port.VerifyDispatch) error {
	t, err := NewVerifyUploadTask(d)
	if err != nil {
		return err
	}
	return n.enqueue(ctx, t, n.queues.Verify)
}

func (n *Notifier) enqueue(ctx context.Context, t *asynq.Task, queue string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	// consumed notifications stick around for a day so operators can trace
	// recent dispatches in asynq tooling
	if _, err := n.client.EnqueueContext(ctx, t, asynq.Queue(queue), asynq.MaxRetry(0), asynq.Retention(24*time.Hour)); err != nil {
		return err
	}
	return nil
}

func (n *Notifier) Close() error {
	return n.client.Close()
}
