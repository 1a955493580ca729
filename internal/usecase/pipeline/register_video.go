package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
)

type videoRegistrarSrv struct {
	videos     port.VideoRepository
	tasks      port.TaskRepository
	genUUID    port.UUIDGen
	maxRetries int
}

// compile-time check: *videoRegistrarSrv must satisfy port.VideoRegistrar
var _ port.VideoRegistrar = (*videoRegistrarSrv)(nil)

func NewVideoRegistrar(videos port.VideoRepository, tasks port.TaskRepository, genUUID port.UUIDGen, maxRetries int) port.VideoRegistrar {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &videoRegistrarSrv{videos: videos, tasks: tasks, genUUID: genUUID, maxRetries: maxRetries}
}

// RegisterVideo admits a magnet into the pipeline. The magnet URI is the
// dedup key: one video row per magnet, at most one open task per video. A
// video whose previous task already finished may be registered again, which
// starts a fresh task against the existing row.
func (s *videoRegistrarSrv) RegisterVideo(ctx context.Context, in port.RegisterVideoInput) (*port.RegisterVideoOutput, error) {
	video, err := s.videos.FindByMagnet(ctx, in.MagnetURI)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed looking up magnet: %w", err)
	}

	if video != nil {
		open, err := s.tasks.HasOpenTask(ctx, video.ID)
		if err != nil {
			return nil, fmt.Errorf("failed checking for an open task on video #%s: %w", video.ID, err)
		}
		if open {
			return nil, ErrDuplicateOpenTask
		}
	} else {
		magnet := in.MagnetURI
		video = &model.Video{
			ID:        s.genUUID(),
			Title:     in.Title,
			MagnetURI: &magnet,
			Status:    model.VideoStatusDiscovered,
		}
		if err := s.videos.Create(ctx, video); err != nil {
			return nil, fmt.Errorf("failed creating video: %w", err)
		}
	}

	task := &model.Task{
		ID:         s.genUUID(),
		VideoID:    video.ID,
		State:      model.TaskStatePending,
		MaxRetries: s.maxRetries,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed creating task for video #%s: %w", video.ID, err)
	}

	log.Printf("registered video #%s with task #%s", video.ID, task.ID)
	return &port.RegisterVideoOutput{Video: video, Task: task}, nil
}
