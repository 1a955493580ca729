package mock

import (
	"context"
	"time"

	"github.com/pixav/maxwell/internal/port"
)

// MockPauseSwitch implements port.PauseSwitch for tests.
type MockPauseSwitch struct {
	PausedOut    bool
	PausedErr    error
	PauseErr     error
	ResumeErr    error
	PauseCalled  bool
	ResumeCalled bool
}

func (m *MockPauseSwitch) Pause(ctx context.Context) error {
	m.PauseCalled = true
	return m.PauseErr
}

func (m *MockPauseSwitch) Resume(ctx context.Context) error {
	m.ResumeCalled = true
	return m.ResumeErr
}

func (m *MockPauseSwitch) Paused(ctx context.Context) (bool, error) {
	return m.PausedOut, m.PausedErr
}

// MockStatusCache implements port.StatusCache for tests.
type MockStatusCache struct {
	GetOut    *port.StatusOutput
	GetErr    error
	SetErr    error
	SetCalled bool
	SetTTL    time.Duration
	Stored    *port.StatusOutput
}

func (m *MockStatusCache) GetStatusSnapshot(ctx context.Context) (*port.StatusOutput, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.GetOut, nil
}

func (m *MockStatusCache) SetStatusSnapshot(ctx context.Context, out *port.StatusOutput, ttl time.Duration) error {
	m.SetCalled = true
	m.SetTTL = ttl
	m.Stored = out
	return m.SetErr
}
