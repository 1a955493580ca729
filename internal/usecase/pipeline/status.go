package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pixav/maxwell/internal/port"
)

type StatusOptions struct {
	// CacheTTL bounds how stale a served snapshot may be.
	CacheTTL time.Duration
	// Queues maps stage names to broker queue names.
	Queues map[string]string
	// MaxQueueDepth is the admission ceiling reported per queue.
	MaxQueueDepth int
}

type statusSrv struct {
	tasks    port.TaskRepository
	accounts port.AccountRepository
	queues   port.QueueStats
	pause    port.PauseSwitch
	cache    port.StatusCache
	opts     StatusOptions
}

// compile-time check: *statusSrv must satisfy port.StatusReporter
var _ port.StatusReporter = (*statusSrv)(nil)

func NewStatusReporter(tasks port.TaskRepository, accounts port.AccountRepository, queues port.QueueStats, pause port.PauseSwitch, cache port.StatusCache, opts StatusOptions) port.StatusReporter {
	return &statusSrv{tasks: tasks, accounts: accounts, queues: queues, pause: pause, cache: cache, opts: opts}
}

// Status assembles the operational snapshot: task counts per state, the
// account pool, queue depths and the pause flag. Snapshots are cached for a
// short TTL; a cache failure degrades to a fresh assembly, never an error.
func (s *statusSrv) Status(ctx context.Context) (*port.StatusOutput, error) {
	cached, err := s.cache.GetStatusSnapshot(ctx)
	if err != nil {
		log.Printf("failed reading cached status snapshot: %v", err)
	}
	if cached != nil {
		return cached, nil
	}

	now := time.Now().UTC()

	counts, err := s.tasks.CountsByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed counting tasks: %w", err)
	}

	pool, err := s.accounts.PoolStats(ctx, 0, now)
	if err != nil {
		return nil, fmt.Errorf("failed gathering account pool stats: %w", err)
	}

	paused, err := s.pause.Paused(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed reading pause flag: %w", err)
	}

	queues := make(map[string]port.QueueStatus, len(s.opts.Queues))
	for _, queueName := range s.opts.Queues {
		depth, err := s.queues.PendingDepth(ctx, queueName)
		if err != nil {
			log.Printf("failed reading depth of queue %q: %v", queueName, err)
			continue
		}
		queues[queueName] = port.QueueStatus{
			Depth:   depth,
			Ceiling: s.opts.MaxQueueDepth,
			Admit:   depth < s.opts.MaxQueueDepth,
		}
	}

	out := &port.StatusOutput{
		GeneratedAt: now,
		Paused:      paused,
		Tasks:       counts,
		Accounts:    pool,
		Queues:      queues,
	}

	if err := s.cache.SetStatusSnapshot(ctx, out, s.opts.CacheTTL); err != nil {
		log.Printf("failed caching status snapshot: %v", err)
	}

	return out, nil
}
