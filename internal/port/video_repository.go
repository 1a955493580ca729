package port

import (
	"context"
	"time"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
)

// VideoRepository defines persistence operations for videos. The stage
// result setters are the collaborator writes named by the pipeline contract;
// coarse status mirroring on task transitions happens inside the task
// repository's transactions.
type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id db.UUID) (*model.Video, error)
	FindByMagnet(ctx context.Context, magnetURI string) (*model.Video, error)

	// SetDownloadResult is the download/remux stage's terminal write: the
	// local file location and size, optional probe metadata, status moved
	// to downloaded.
	SetDownloadResult(ctx context.Context, id db.UUID, localPath string, sizeBytes int64, metadata model.RawJSON) error
	// SetUploadResult is the verify stage's terminal write: the share
	// reference, status moved to available.
	SetUploadResult(ctx context.Context, id db.UUID, shareURL string) error

	// ExpireAvailableBefore retires available videos whose share reference
	// has been unused since before the cutoff.
	ExpireAvailableBefore(ctx context.Context, cutoff time.Time) (int64, error)

	CountByStatus(ctx context.Context, status model.VideoStatus) (int, error)
}
