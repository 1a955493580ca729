package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/pixav/maxwell/internal/port"
)

type DispatchOptions struct {
	// BatchSize caps how many tasks a single pass claims.
	BatchSize int
	// Queues maps stage names to broker queue names.
	Queues map[string]string
}

type dispatcherSrv struct {
	tasks    port.TaskRepository
	leaser   port.AccountLeaser
	notifier port.Notifier
	admitter port.AdmissionController
	opts     DispatchOptions
}

// compile-time check: *dispatcherSrv must satisfy port.Dispatcher
var _ port.Dispatcher = (*dispatcherSrv)(nil)

func NewDispatcher(tasks port.TaskRepository, leaser port.AccountLeaser, notifier port.Notifier, admitter port.AdmissionController, opts DispatchOptions) port.Dispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	return &dispatcherSrv{tasks: tasks, leaser: leaser, notifier: notifier, admitter: admitter, opts: opts}
}

// RunOnce walks the three dispatch passes. State transitions commit before
// anything is published: a notification that never arrives leaves a claimed
// row behind for the reaper, never a phantom message for a row that does not
// exist.
func (s *dispatcherSrv) RunOnce(ctx context.Context) (port.DispatchStats, error) {
	var stats port.DispatchStats

	if err := s.dispatchDownloads(ctx, &stats); err != nil {
		return stats, err
	}
	if err := s.dispatchUploads(ctx, &stats); err != nil {
		return stats, err
	}
	if err := s.dispatchVerifies(ctx, &stats); err != nil {
		return stats, err
	}

	return stats, nil
}

func (s *dispatcherSrv) dispatchDownloads(ctx context.Context, stats *port.DispatchStats) error {
	if !s.admitter.ShouldAdmit(ctx, StageDownload) {
		stats.Denied++
		return nil
	}

	batch, err := s.tasks.ClaimPendingBatch(ctx, s.opts.Queues[StageDownload], s.opts.BatchSize)
	if err != nil {
		return fmt.Errorf("failed claiming pending tasks: %w", err)
	}

	for _, d := range batch {
		if err := s.notifier.EnqueueDownload(ctx, d); err != nil {
			log.Printf("failed publishing download for task #%s, leaving it for the reaper: %v", d.TaskID, err)
			continue
		}
		stats.Downloads++
	}
	return nil
}

func (s *dispatcherSrv) dispatchUploads(ctx context.Context, stats *port.DispatchStats) error {
	if !s.admitter.ShouldAdmit(ctx, StageUpload) {
		stats.Denied++
		return nil
	}

	candidates, err := s.tasks.ListUploadReady(ctx, s.opts.BatchSize)
	if err != nil {
		return fmt.Errorf("failed listing upload-ready tasks: %w", err)
	}

	for i, c := range candidates {
		acct, err := s.leaser.Acquire(ctx, c.SizeBytes)
		if errors.Is(err, ErrNoEligibleAccount) {
			// the pool is drained for now; everyone behind this candidate
			// would only fail the same way
			stats.Deferred += len(candidates) - i
			log.Printf("no eligible account for task #%s, deferring %d uploads", c.TaskID, len(candidates)-i)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed acquiring account for task #%s: %w", c.TaskID, err)
		}

		advanced, err := s.tasks.AttachAccountAndAdvance(ctx, c.TaskID, acct.ID, s.opts.Queues[StageUpload])
		if err != nil {
			if relErr := s.leaser.Release(ctx, acct.ID); relErr != nil {
				log.Printf("failed releasing lease on account #%s: %v", acct.ID, relErr)
			}
			return fmt.Errorf("failed advancing task #%s to uploading: %w", c.TaskID, err)
		}
		if !advanced {
			// the task moved on while we were leasing; hand the account back
			if relErr := s.leaser.Release(ctx, acct.ID); relErr != nil {
				log.Printf("failed releasing lease on account #%s: %v", acct.ID, relErr)
			}
			continue
		}

		if err := s.notifier.EnqueueUpload(ctx, port.UploadDispatch{
			TaskID:     c.TaskID,
			VideoID:    c.VideoID,
			LocalPath:  c.LocalPath,
			AccountID:  acct.ID,
			Retries:    c.Retries,
			MaxRetries: c.MaxRetries,
		}); err != nil {
			log.Printf("failed publishing upload for task #%s, leaving it for the reaper: %v", c.TaskID, err)
			continue
		}
		stats.Uploads++
	}
	return nil
}

func (s *dispatcherSrv) dispatchVerifies(ctx context.Context, stats *port.DispatchStats) error {
	if !s.admitter.ShouldAdmit(ctx, StageVerify) {
		stats.Denied++
		return nil
	}

	batch, err := s.tasks.ClaimVerifyBatch(ctx, s.opts.Queues[StageVerify], s.opts.BatchSize)
	if err != nil {
		return fmt.Errorf("failed claiming verify tasks: %w", err)
	}

	for _, d := range batch {
		if err := s.notifier.EnqueueVerify(ctx, d); err != nil {
			log.Printf("failed publishing verify for task #%s, leaving it for the reaper: %v", d.TaskID, err)
			continue
		}
		stats.Verifies++
	}
	return nil
}
