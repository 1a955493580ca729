package port

import "context"

// QueueStats reports broker-side backlog depth per queue.
type QueueStats interface {
	PendingDepth(ctx context.Context, queueName string) (int, error)
}
