package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
)

type ReapOptions struct {
	// StageTimeouts holds the per-state staleness threshold; a state with no
	// entry is never swept.
	StageTimeouts map[model.TaskState]time.Duration
	// Limit caps how many stale tasks one sweep touches per state.
	Limit int
	// VideoRetention expires available videos untouched for this long;
	// zero disables expiry.
	VideoRetention time.Duration
}

type reaperSrv struct {
	tasks    port.TaskRepository
	accounts port.AccountRepository
	videos   port.VideoRepository
	opts     ReapOptions
}

// compile-time check: *reaperSrv must satisfy port.Reaper
var _ port.Reaper = (*reaperSrv)(nil)

func NewReaper(tasks port.TaskRepository, accounts port.AccountRepository, videos port.VideoRepository, opts ReapOptions) port.Reaper {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	return &reaperSrv{tasks: tasks, accounts: accounts, videos: videos, opts: opts}
}

// sweepOrder fixes which states a sweep visits and in what sequence, from
// earliest pipeline stage to latest.
var sweepOrder = []model.TaskState{
	model.TaskStateDownloading,
	model.TaskStateRemuxing,
	model.TaskStateUploading,
	model.TaskStateVerifying,
}

// Sweep repairs whatever fell through the cracks since the last run: stale
// tasks are requeued or failed, expired leases reclaimed, lapsed cooldowns
// lifted and old videos retired. Every write is conditional on the state the
// sweep observed, so a concurrent sweep or a consumer that woke up late
// cannot be double-counted.
func (s *reaperSrv) Sweep(ctx context.Context) (port.ReapStats, error) {
	var stats port.ReapStats
	now := time.Now().UTC()

	for _, state := range sweepOrder {
		timeout, ok := s.opts.StageTimeouts[state]
		if !ok || timeout <= 0 {
			continue
		}
		if err := s.sweepState(ctx, state, now, timeout, &stats); err != nil {
			return stats, err
		}
	}

	orphans, err := s.accounts.ReleaseOrphanLeases(ctx, now)
	if err != nil {
		return stats, fmt.Errorf("failed releasing orphan leases: %w", err)
	}
	stats.OrphanLeases = orphans

	released, err := s.accounts.ReleaseDueCooldowns(ctx, now, nextUTCMidnight(now))
	if err != nil {
		return stats, fmt.Errorf("failed releasing due cooldowns: %w", err)
	}
	stats.CooldownsReleased = released

	if s.opts.VideoRetention > 0 {
		expired, err := s.videos.ExpireAvailableBefore(ctx, now.Add(-s.opts.VideoRetention))
		if err != nil {
			return stats, fmt.Errorf("failed expiring old videos: %w", err)
		}
		stats.VideosExpired = expired
	}

	return stats, nil
}

func (s *reaperSrv) sweepState(ctx context.Context, state model.TaskState, now time.Time, timeout time.Duration, stats *port.ReapStats) error {
	q := port.StaleQuery{
		State:  state,
		Cutoff: now.Add(-timeout),
		Limit:  s.opts.Limit,
	}
	switch state {
	case model.TaskStateRemuxing:
		// a remuxed task with its file on disk is parked waiting for an
		// account, not stuck
		q.OnlyMissingLocal = true
	case model.TaskStateUploading, model.TaskStateVerifying:
		// a dead lease means a dead consumer no matter how fresh the row is
		q.OrLeaseExpired = true
		q.Now = now
	}

	stale, err := s.tasks.ListStale(ctx, q)
	if err != nil {
		return fmt.Errorf("failed listing stale %s tasks: %w", state, err)
	}

	for _, st := range stale {
		if err := s.reapTask(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *reaperSrv) reapTask(ctx context.Context, st port.StaleTask) error {
	resume, ok := model.ResumptionState(st.State)
	if !ok {
		log.Printf("warning: stale task #%s is in unexpected state %s, skipping", st.TaskID, st.State)
		return nil
	}

	if st.Retries >= st.MaxRetries {
		reason := fmt.Sprintf("retries exhausted, stalled in %s", st.State)
		claimed, err := s.tasks.FailExhausted(ctx, st.TaskID, st.State, st.Retries, reason)
		if err != nil {
			return fmt.Errorf("failed failing exhausted task #%s: %w", st.TaskID, err)
		}
		if claimed {
			log.Printf("failed task #%s after %d retries, stalled in %s", st.TaskID, st.Retries, st.State)
			s.releaseStaleLease(ctx, st)
		}
		return nil
	}

	claimed, err := s.tasks.RequeueForRetry(ctx, port.RequeueRequest{
		TaskID:          st.TaskID,
		From:            st.State,
		ObservedRetries: st.Retries,
		To:              resume,
		QueueName:       "",
		Reason:          fmt.Sprintf("stalled in %s", st.State),
	})
	if err != nil {
		return fmt.Errorf("failed requeuing stale task #%s: %w", st.TaskID, err)
	}
	if claimed {
		log.Printf("requeued task #%s from %s to %s (retry %d of %d)", st.TaskID, st.State, resume, st.Retries+1, st.MaxRetries)
		s.releaseStaleLease(ctx, st)
	}
	return nil
}

// releaseStaleLease frees the account attached to a reaped upload-phase
// task. Failure is only logged: the orphan pass of the next sweep reclaims
// any lease this one misses.
func (s *reaperSrv) releaseStaleLease(ctx context.Context, st port.StaleTask) {
	if st.AccountID == nil {
		return
	}
	if st.State != model.TaskStateUploading && st.State != model.TaskStateVerifying {
		return
	}
	if err := s.accounts.ReleaseLease(ctx, *st.AccountID); err != nil {
		log.Printf("failed releasing lease on account #%s: %v", *st.AccountID, err)
	}
}
