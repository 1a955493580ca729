package mock

import (
	"context"
	"time"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
)

// MockLeaser implements port.AccountLeaser for tests.
type MockLeaser struct {
	AcquireOut   *model.Account
	AcquireErr   error
	AcquireSizes []int64

	ReleaseErr  error
	ReleasedIDs []db.UUID

	ExtendOut time.Time
	ExtendErr error
}

func (m *MockLeaser) Acquire(ctx context.Context, sizeBytes int64) (*model.Account, error) {
	m.AcquireSizes = append(m.AcquireSizes, sizeBytes)
	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}
	return m.AcquireOut, nil
}

func (m *MockLeaser) Release(ctx context.Context, accountID db.UUID) error {
	m.ReleasedIDs = append(m.ReleasedIDs, accountID)
	return m.ReleaseErr
}

func (m *MockLeaser) Extend(ctx context.Context, accountID, taskID db.UUID) (time.Time, error) {
	if m.ExtendErr != nil {
		return time.Time{}, m.ExtendErr
	}
	return m.ExtendOut, nil
}

// MockDispatcher implements port.Dispatcher for tests.
type MockDispatcher struct {
	Out    port.DispatchStats
	Err    error
	Called int
}

func (m *MockDispatcher) RunOnce(ctx context.Context) (port.DispatchStats, error) {
	m.Called++
	return m.Out, m.Err
}

// MockReaper implements port.Reaper for tests.
type MockReaper struct {
	Out    port.ReapStats
	Err    error
	Called int
}

func (m *MockReaper) Sweep(ctx context.Context) (port.ReapStats, error) {
	m.Called++
	return m.Out, m.Err
}

// MockAdmitter implements port.AdmissionController for tests.
type MockAdmitter struct {
	// Admit decides per stage; missing keys deny.
	Admit  map[string]bool
	Stages []string
}

func (m *MockAdmitter) ShouldAdmit(ctx context.Context, stage string) bool {
	m.Stages = append(m.Stages, stage)
	return m.Admit[stage]
}

// MockRegistrar implements port.VideoRegistrar for tests.
type MockRegistrar struct {
	Out    *port.RegisterVideoOutput
	Err    error
	In     port.RegisterVideoInput
	Called bool
}

func (m *MockRegistrar) RegisterVideo(ctx context.Context, in port.RegisterVideoInput) (*port.RegisterVideoOutput, error) {
	m.Called = true
	m.In = in
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Out, nil
}

// MockCanceller implements port.TaskCanceller for tests.
type MockCanceller struct {
	Err    error
	ID     db.UUID
	Reason string
	Called bool
}

func (m *MockCanceller) CancelTask(ctx context.Context, id db.UUID, reason string) error {
	m.Called = true
	m.ID = id
	m.Reason = reason
	return m.Err
}

// MockStatusReporter implements port.StatusReporter for tests.
type MockStatusReporter struct {
	Out    *port.StatusOutput
	Err    error
	Called bool
}

func (m *MockStatusReporter) Status(ctx context.Context) (*port.StatusOutput, error) {
	m.Called = true
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Out, nil
}

// MockAccountRegistrar implements port.AccountRegistrar for tests.
type MockAccountRegistrar struct {
	RegisterOut *model.Account
	RegisterErr error
	RegisterIn  port.RegisterAccountInput

	ListOut []*model.Account
	ListErr error
}

func (m *MockAccountRegistrar) RegisterAccount(ctx context.Context, in port.RegisterAccountInput) (*model.Account, error) {
	m.RegisterIn = in
	if m.RegisterErr != nil {
		return nil, m.RegisterErr
	}
	return m.RegisterOut, nil
}

func (m *MockAccountRegistrar) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.ListOut, nil
}
