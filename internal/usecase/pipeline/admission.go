package pipeline

import (
	"context"
	"log"

	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
)

type AdmissionOptions struct {
	// MaxQueueDepth is the hard ceiling: at or above it the stage is denied.
	MaxQueueDepth int
	// WarnQueueDepth only logs; dispatch continues.
	WarnQueueDepth int
	// MaxInFlightUploads additionally caps the upload stage on tasks already
	// in the uploading state. Zero disables the cap.
	MaxInFlightUploads int
	// Queues maps stage names to broker queue names.
	Queues map[string]string
}

type admitterSrv struct {
	tasks  port.TaskRepository
	queues port.QueueStats
	opts   AdmissionOptions
}

// compile-time check: *admitterSrv must satisfy port.AdmissionController
var _ port.AdmissionController = (*admitterSrv)(nil)

func NewAdmissionController(tasks port.TaskRepository, queues port.QueueStats, opts AdmissionOptions) port.AdmissionController {
	return &admitterSrv{tasks: tasks, queues: queues, opts: opts}
}

// ShouldAdmit fails open: an unmapped stage or an unreadable broker never
// stalls the pipeline, it only loses the backpressure signal for one tick.
func (s *admitterSrv) ShouldAdmit(ctx context.Context, stage string) bool {
	queueName, ok := s.opts.Queues[stage]
	if !ok {
		log.Printf("no queue mapped for stage %q, admitting", stage)
		return true
	}

	depth, err := s.queues.PendingDepth(ctx, queueName)
	if err != nil {
		log.Printf("failed reading depth of queue %q, admitting: %v", queueName, err)
		return true
	}
	if depth >= s.opts.MaxQueueDepth {
		log.Printf("queue %q at depth %d, ceiling %d reached, deferring %s dispatch", queueName, depth, s.opts.MaxQueueDepth, stage)
		return false
	}
	if depth >= s.opts.WarnQueueDepth {
		log.Printf("queue %q at depth %d, nearing ceiling %d", queueName, depth, s.opts.MaxQueueDepth)
	}

	if stage == StageUpload && s.opts.MaxInFlightUploads > 0 {
		inFlight, err := s.tasks.CountByState(ctx, model.TaskStateUploading)
		if err != nil {
			log.Printf("failed counting in-flight uploads, admitting: %v", err)
			return true
		}
		if inFlight >= s.opts.MaxInFlightUploads {
			log.Printf("%d uploads in flight, ceiling %d reached, deferring upload dispatch", inFlight, s.opts.MaxInFlightUploads)
			return false
		}
	}

	return true
}
