package mariadb

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
)

type VideoRepository struct {
	db *sql.DB
}

// compile-time check: *VideoRepository must satisfy port.VideoRepository
var _ port.VideoRepository = (*VideoRepository)(nil)

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = `
      id, title, magnet_uri, local_path, size_bytes, share_url, status, metadata, created_at, updated_at
`

func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	log.Printf("creating database record for video #%s (%q)...", video.ID, video.Title)

	const query = `
      INSERT INTO videos
        (id, title, magnet_uri, local_path, size_bytes, share_url, status, metadata)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		video.ID, video.Title, video.MagnetURI, video.LocalPath,
		video.SizeBytes, video.ShareURL, video.Status, video.Metadata,
	)
	if err != nil {
		return err
	}

	return nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id db.UUID) (*model.Video, error) {
	const query = `
      SELECT` + videoColumns + `
      FROM videos
      WHERE id = ?
    `
	return scanVideo(r.db.QueryRowContext(ctx, query, id))
}

func (r *VideoRepository) FindByMagnet(ctx context.Context, magnetURI string) (*model.Video, error) {
	const query = `
      SELECT` + videoColumns + `
      FROM videos
      WHERE magnet_uri = ?
    `
	return scanVideo(r.db.QueryRowContext(ctx, query, magnetURI))
}

func (r *VideoRepository) SetDownloadResult(ctx context.Context, id db.UUID, localPath string, sizeBytes int64, metadata model.RawJSON) error {
	log.Printf("recording download result for video #%s at %q...", id, localPath)

	const query = `
      UPDATE videos
      SET local_path = ?,
          size_bytes = ?,
          metadata = COALESCE(?, metadata),
          status = 'downloaded'
      WHERE id = ?
    `
	_, err := r.db.ExecContext(ctx, query, localPath, sizeBytes, metadata, id)
	return err
}

func (r *VideoRepository) SetUploadResult(ctx context.Context, id db.UUID, shareURL string) error {
	log.Printf("recording upload result for video #%s...", id)

	const query = `
      UPDATE videos
      SET share_url = ?,
          status = 'available'
      WHERE id = ?
    `
	_, err := r.db.ExecContext(ctx, query, shareURL, id)
	return err
}

func (r *VideoRepository) ExpireAvailableBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
      UPDATE videos
      SET status = 'expired'
      WHERE status = 'available'
        AND share_url IS NOT NULL
        AND updated_at < ?
    `
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *VideoRepository) CountByStatus(ctx context.Context, status model.VideoStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM videos WHERE status = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, query, status).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanVideo(row rowScanner) (*model.Video, error) {
	var (
		video     model.Video
		magnetURI sql.NullString
		localPath sql.NullString
		sizeBytes sql.NullInt64
		shareURL  sql.NullString
	)
	if err := row.Scan(
		&video.ID, &video.Title, &magnetURI, &localPath, &sizeBytes,
		&shareURL, &video.Status, &video.Metadata,
		&video.CreatedAt, &video.UpdatedAt,
	); err != nil {
		return nil, err
	}
	video.MagnetURI = nullStringPtr(magnetURI)
	video.LocalPath = nullStringPtr(localPath)
	video.SizeBytes = nullInt64Ptr(sizeBytes)
	video.ShareURL = nullStringPtr(shareURL)
	return &video, nil
}
