package mock

import (
	"context"
	"time"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
)

// MockVideoRepo implements video repository operations for tests.
type MockVideoRepo struct {
	VideoRecord *model.Video

	GetErr    error
	CreateErr error
	Created   *model.Video

	FindOut    *model.Video
	FindErr    error
	FindMagnet string

	DownloadResultErr    error
	DownloadResultID     db.UUID
	DownloadResultPath   string
	DownloadResultSize   int64
	DownloadResultCalled bool

	UploadResultErr    error
	UploadResultID     db.UUID
	UploadResultURL    string
	UploadResultCalled bool

	ExpireOut    int64
	ExpireErr    error
	ExpireCutoff time.Time
	ExpireCalled bool

	CountOut int
	CountErr error
}

func (m *MockVideoRepo) Create(ctx context.Context, video *model.Video) error {
	m.Created = video
	return m.CreateErr
}

func (m *MockVideoRepo) GetByID(ctx context.Context, id db.UUID) (*model.Video, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.VideoRecord, nil
}

func (m *MockVideoRepo) FindByMagnet(ctx context.Context, magnetURI string) (*model.Video, error) {
	m.FindMagnet = magnetURI
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	return m.FindOut, nil
}

func (m *MockVideoRepo) SetDownloadResult(ctx context.Context, id db.UUID, localPath string, sizeBytes int64, metadata model.RawJSON) error {
	m.DownloadResultCalled = true
	m.DownloadResultID = id
	m.DownloadResultPath = localPath
	m.DownloadResultSize = sizeBytes
	return m.DownloadResultErr
}

func (m *MockVideoRepo) SetUploadResult(ctx context.Context, id db.UUID, shareURL string) error {
	m.UploadResultCalled = true
	m.UploadResultID = id
	m.UploadResultURL = shareURL
	return m.UploadResultErr
}

func (m *MockVideoRepo) ExpireAvailableBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.ExpireCalled = true
	m.ExpireCutoff = cutoff
	if m.ExpireErr != nil {
		return 0, m.ExpireErr
	}
	return m.ExpireOut, nil
}

func (m *MockVideoRepo) CountByStatus(ctx context.Context, status model.VideoStatus) (int, error) {
	return m.CountOut, m.CountErr
}
