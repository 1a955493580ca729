package mock

import (
	"context"

	"github.com/pixav/maxwell/internal/port"
)

// MockNotifier implements queue publishing for tests.
type MockNotifier struct {
	DownloadCalled bool
	Downloads      []port.DownloadDispatch
	DownloadErr    error

	UploadCalled bool
	Uploads      []port.UploadDispatch
	UploadErr    error

	VerifyCalled bool
	Verifies     []port.VerifyDispatch
	VerifyErr    error
}

func (m *MockNotifier) EnqueueDownload(ctx context.Context, n port.DownloadDispatch) error {
	m.DownloadCalled = true
	m.Downloads = append(m.Downloads, n)
	return m.DownloadErr
}

func (m *MockNotifier) EnqueueUpload(ctx context.Context, n port.UploadDispatch) error {
	m.UploadCalled = true
	m.Uploads = append(m.Uploads, n)
	return m.UploadErr
}

func (m *MockNotifier) EnqueueVerify(ctx context.Context, n port.VerifyDispatch) error {
	m.VerifyCalled = true
	m.Verifies = append(m.Verifies, n)
	return m.VerifyErr
}
