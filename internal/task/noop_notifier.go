package task

import (
	"context"

	"github.com/pixav/maxwell/internal/port"
)

// NoopNotifier swallows notifications. Consumers poll store state anyway, so
// a silent broker only slows the pipeline down to reaper cadence.
type NoopNotifier struct{}

var _ port.Notifier = (*NoopNotifier)(nil)

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) EnqueueDownload(ctx context.Context, d port.DownloadDispatch) error {
	return nil
}

func (n *NoopNotifier) EnqueueUpload(ctx context.Context, d port.UploadDispatch) error {
	return nil
}

func (n *NoopNotifier) EnqueueVerify(ctx context.Context, d port.VerifyDispatch) error {
	return nil
}
