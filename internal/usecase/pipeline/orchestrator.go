package pipeline

import (
	"context"
	"time"

	"github.com/pixav/maxwell/internal/logger"
	"github.com/pixav/maxwell/internal/opctx"
	"github.com/pixav/maxwell/internal/port"
)

type RunnerOptions struct {
	DispatchInterval time.Duration
	ReapInterval     time.Duration
}

// Runner drives the two periodic loops of the orchestrator: the dispatch
// tick and the reap sweep. It owns the pause check so that pausing stops
// dispatch only; sweeps keep running and stuck work is still repaired while
// an operator investigates.
type Runner struct {
	dispatcher port.Dispatcher
	reaper     port.Reaper
	pause      port.PauseSwitch
	opts       RunnerOptions
}

func NewRunner(dispatcher port.Dispatcher, reaper port.Reaper, pause port.PauseSwitch, opts RunnerOptions) *Runner {
	if opts.DispatchInterval <= 0 {
		opts.DispatchInterval = 5 * time.Second
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = time.Minute
	}
	return &Runner{dispatcher: dispatcher, reaper: reaper, pause: pause, opts: opts}
}

// Run blocks until ctx is cancelled. A failed tick is logged and the loop
// carries on; every claim the failed tick already made is conditional in the
// store, so the next tick or sweep picks up exactly where it stopped.
func (r *Runner) Run(ctx context.Context) error {
	dispatchTicker := time.NewTicker(r.opts.DispatchInterval)
	defer dispatchTicker.Stop()
	reapTicker := time.NewTicker(r.opts.ReapInterval)
	defer reapTicker.Stop()

	logger.Infof(ctx, "orchestrator loop started, dispatching every %s, sweeping every %s", r.opts.DispatchInterval, r.opts.ReapInterval)

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-dispatchTicker.C:
			tick++
			r.dispatchTick(opctx.WithTick(ctx, tick))
		case <-reapTicker.C:
			r.reapTick(ctx)
		}
	}
}

func (r *Runner) dispatchTick(ctx context.Context) {
	paused, err := r.pause.Paused(ctx)
	if err != nil {
		// an unreadable flag must not stall the pipeline
		logger.Errorf(ctx, "failed reading pause flag: %v", err)
	}
	if paused {
		logger.Debug(ctx, "dispatch skipped, pipeline is paused")
		return
	}

	stats, err := r.dispatcher.RunOnce(ctx)
	if err != nil {
		logger.Errorf(ctx, "dispatch tick failed: %v", err)
		return
	}
	if stats.Downloads+stats.Uploads+stats.Verifies+stats.Deferred+stats.Denied > 0 {
		logger.Infof(ctx, "dispatched %d downloads, %d uploads, %d verifies (%d deferred, %d denied)",
			stats.Downloads, stats.Uploads, stats.Verifies, stats.Deferred, stats.Denied)
	}
}

func (r *Runner) reapTick(ctx context.Context) {
	stats, err := r.reaper.Sweep(ctx)
	if err != nil {
		logger.Errorf(ctx, "reap sweep failed: %v", err)
		return
	}
	if stats.Requeued+stats.Failed > 0 || stats.OrphanLeases+stats.CooldownsReleased+stats.VideosExpired > 0 {
		logger.Infof(ctx, "sweep requeued %d and failed %d tasks, reclaimed %d leases, lifted %d cooldowns, expired %d videos",
			stats.Requeued, stats.Failed, stats.OrphanLeases, stats.CooldownsReleased, stats.VideosExpired)
	}
}
