package testutil

import (
	"context"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/pixav/maxwell/internal/logger"
	"github.com/pixav/maxwell/internal/task"
)

// RecordingConsumer drains the stage queues the way the downloader and
// uploader boxes would, keeping every payload it sees so tests can assert
// on what the orchestrator actually published.
type RecordingConsumer struct {
	mu        sync.Mutex
	Downloads []task.DownloadVideoPayload
	Uploads   []task.UploadVideoPayload
	Verifies  []task.VerifyUploadPayload
}

func (c *RecordingConsumer) DownloadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Downloads)
}

func (c *RecordingConsumer) Snapshot() ([]task.DownloadVideoPayload, []task.UploadVideoPayload, []task.VerifyUploadPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]task.DownloadVideoPayload(nil), c.Downloads...),
		append([]task.UploadVideoPayload(nil), c.Uploads...),
		append([]task.VerifyUploadPayload(nil), c.Verifies...)
}

// StartRecordingConsumer runs an asynq server consuming the given stage
// queues. It returns the recorder and a function to shut the server down.
func StartRecordingConsumer(redisAddr string, queues []string) (*RecordingConsumer, func()) {
	rec := &RecordingConsumer{}

	mux := asynq.NewServeMux()
	mux.HandleFunc(task.TypeDownloadVideo, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseDownloadVideoPayload(t)
		if err != nil {
			return err
		}
		rec.mu.Lock()
		rec.Downloads = append(rec.Downloads, p)
		rec.mu.Unlock()
		return nil
	})
	mux.HandleFunc(task.TypeUploadVideo, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseUploadVideoPayload(t)
		if err != nil {
			return err
		}
		rec.mu.Lock()
		rec.Uploads = append(rec.Uploads, p)
		rec.mu.Unlock()
		return nil
	})
	mux.HandleFunc(task.TypeVerifyUpload, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseVerifyUploadPayload(t)
		if err != nil {
			return err
		}
		rec.mu.Lock()
		rec.Verifies = append(rec.Verifies, p)
		rec.mu.Unlock()
		return nil
	})

	qmap := make(map[string]int, len(queues))
	for _, q := range queues {
		qmap[q] = 1
	}
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: 5,
		Queues:      qmap,
	})
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Errorf(context.Background(), "recording consumer stopped: %v", err)
		}
	}()

	return rec, func() {
		srv.Shutdown()
	}
}
