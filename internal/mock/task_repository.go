package mock

import (
	"context"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
)

// MockTaskRepo implements task repository operations for tests.
type MockTaskRepo struct {
	TaskRecord *model.Task

	GetErr    error
	CreateErr error
	Created   *model.Task

	HasOpenOut bool
	HasOpenErr error

	CountOut int
	CountErr error

	CountsOut map[model.TaskState]int
	CountsErr error

	ClaimPendingOut    []port.DownloadDispatch
	ClaimPendingErr    error
	ClaimPendingCalled bool
	ClaimPendingQueue  string
	ClaimPendingLimit  int

	UploadReadyOut []port.UploadCandidate
	UploadReadyErr error

	// AttachOK decides per task whether the advance wins; missing keys lose.
	AttachOK     map[db.UUID]bool
	AttachErr    error
	AttachedIDs  []db.UUID
	AttachedAcct map[db.UUID]db.UUID

	ClaimVerifyOut    []port.VerifyDispatch
	ClaimVerifyErr    error
	ClaimVerifyCalled bool

	AdvanceErr    error
	AdvancedIDs   []db.UUID
	AdvancedFrom  []model.TaskState
	AdvancedTo    []model.TaskState
	MarkFailedErr error
	FailedID      db.UUID
	FailedReason  string

	StaleOut     map[model.TaskState][]port.StaleTask
	StaleErr     error
	StaleQueries []port.StaleQuery

	RequeueOK       bool
	RequeueErr      error
	RequeueRequests []port.RequeueRequest

	ExhaustOK  bool
	ExhaustErr error
	ExhaustIDs []db.UUID
}

func (m *MockTaskRepo) Create(ctx context.Context, task *model.Task) error {
	m.Created = task
	return m.CreateErr
}

func (m *MockTaskRepo) GetByID(ctx context.Context, id db.UUID) (*model.Task, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.TaskRecord, nil
}

func (m *MockTaskRepo) HasOpenTask(ctx context.Context, videoID db.UUID) (bool, error) {
	return m.HasOpenOut, m.HasOpenErr
}

func (m *MockTaskRepo) CountByState(ctx context.Context, state model.TaskState) (int, error) {
	return m.CountOut, m.CountErr
}

func (m *MockTaskRepo) CountsByState(ctx context.Context) (map[model.TaskState]int, error) {
	return m.CountsOut, m.CountsErr
}

func (m *MockTaskRepo) ClaimPendingBatch(ctx context.Context, queueName string, limit int) ([]port.DownloadDispatch, error) {
	m.ClaimPendingCalled = true
	m.ClaimPendingQueue = queueName
	m.ClaimPendingLimit = limit
	if m.ClaimPendingErr != nil {
		return nil, m.ClaimPendingErr
	}
	return m.ClaimPendingOut, nil
}

func (m *MockTaskRepo) ListUploadReady(ctx context.Context, limit int) ([]port.UploadCandidate, error) {
	if m.UploadReadyErr != nil {
		return nil, m.UploadReadyErr
	}
	return m.UploadReadyOut, nil
}

func (m *MockTaskRepo) AttachAccountAndAdvance(ctx context.Context, taskID, accountID db.UUID, queueName string) (bool, error) {
	m.AttachedIDs = append(m.AttachedIDs, taskID)
	if m.AttachedAcct == nil {
		m.AttachedAcct = make(map[db.UUID]db.UUID)
	}
	m.AttachedAcct[taskID] = accountID
	if m.AttachErr != nil {
		return false, m.AttachErr
	}
	return m.AttachOK[taskID], nil
}

func (m *MockTaskRepo) ClaimVerifyBatch(ctx context.Context, queueName string, limit int) ([]port.VerifyDispatch, error) {
	m.ClaimVerifyCalled = true
	if m.ClaimVerifyErr != nil {
		return nil, m.ClaimVerifyErr
	}
	return m.ClaimVerifyOut, nil
}

func (m *MockTaskRepo) AdvanceState(ctx context.Context, id db.UUID, from, to model.TaskState) error {
	m.AdvancedIDs = append(m.AdvancedIDs, id)
	m.AdvancedFrom = append(m.AdvancedFrom, from)
	m.AdvancedTo = append(m.AdvancedTo, to)
	return m.AdvanceErr
}

func (m *MockTaskRepo) MarkFailed(ctx context.Context, id db.UUID, reason string) error {
	m.FailedID = id
	m.FailedReason = reason
	return m.MarkFailedErr
}

func (m *MockTaskRepo) ListStale(ctx context.Context, q port.StaleQuery) ([]port.StaleTask, error) {
	m.StaleQueries = append(m.StaleQueries, q)
	if m.StaleErr != nil {
		return nil, m.StaleErr
	}
	return m.StaleOut[q.State], nil
}

func (m *MockTaskRepo) RequeueForRetry(ctx context.Context, req port.RequeueRequest) (bool, error) {
	m.RequeueRequests = append(m.RequeueRequests, req)
	if m.RequeueErr != nil {
		return false, m.RequeueErr
	}
	return m.RequeueOK, nil
}

func (m *MockTaskRepo) FailExhausted(ctx context.Context, id db.UUID, from model.TaskState, observedRetries int, reason string) (bool, error) {
	m.ExhaustIDs = append(m.ExhaustIDs, id)
	if m.ExhaustErr != nil {
		return false, m.ExhaustErr
	}
	return m.ExhaustOK, nil
}
