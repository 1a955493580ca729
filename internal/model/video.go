package model

import (
	"time"

	"github.com/pixav/maxwell/internal/db"
)

type VideoStatus string

const (
	VideoStatusDiscovered  VideoStatus = "discovered"
	VideoStatusDownloading VideoStatus = "downloading"
	VideoStatusDownloaded  VideoStatus = "downloaded"
	VideoStatusUploading   VideoStatus = "uploading"
	VideoStatusAvailable   VideoStatus = "available"
	VideoStatusExpired     VideoStatus = "expired"
	VideoStatusFailed      VideoStatus = "failed"
)

// Video is the domain entity tracked across the whole pipeline. Its status
// is a coarser mirror of the owning task's state; local_path, size_bytes and
// share_url are written by the download and upload stages through their
// repository methods. MetadataJSON is collaborator payload, never inspected.
type Video struct {
	ID        db.UUID     `json:"id"`
	Title     string      `json:"title"`
	MagnetURI *string     `json:"magnet_uri,omitempty"`
	LocalPath *string     `json:"local_path,omitempty"`
	SizeBytes *int64      `json:"size_bytes,omitempty"`
	ShareURL  *string     `json:"share_url,omitempty"`
	Status    VideoStatus `json:"status"`
	Metadata  RawJSON     `json:"metadata,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
