package mock

import (
	"context"
	"time"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
)

// MockAccountRepo implements account repository operations for tests.
type MockAccountRepo struct {
	AccountRecord *model.Account

	GetErr    error
	CreateErr error
	Created   *model.Account
	ListOut   []*model.Account
	ListErr   error

	ResetOut    int64
	ResetErr    error
	ResetCalled bool

	EligibleOut  []*model.Account
	EligibleErr  error
	EligibleSize int64

	// ClaimOK decides per account whether the claim wins; missing keys lose.
	ClaimOK    map[db.UUID]bool
	ClaimErr   error
	ClaimCalls []db.UUID

	ReleaseErr error
	ReleasedID db.UUID

	ExtendOK     bool
	ExtendErr    error
	ExtendCalled bool

	UsageErr       error
	UsageAccountID db.UUID
	UsageBytes     int64

	OrphanOut    int64
	OrphanErr    error
	OrphanCalled bool

	CooldownOut    int64
	CooldownErr    error
	CooldownCalled bool

	StatsOut port.PoolStats
	StatsErr error
}

func (m *MockAccountRepo) Create(ctx context.Context, acct *model.Account) error {
	m.Created = acct
	return m.CreateErr
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id db.UUID) (*model.Account, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.AccountRecord, nil
}

func (m *MockAccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.ListOut, nil
}

func (m *MockAccountRepo) ResetDueQuotas(ctx context.Context, now, nextReset time.Time) (int64, error) {
	m.ResetCalled = true
	if m.ResetErr != nil {
		return 0, m.ResetErr
	}
	return m.ResetOut, nil
}

func (m *MockAccountRepo) ListEligible(ctx context.Context, sizeBytes int64, now time.Time, limit int) ([]*model.Account, error) {
	m.EligibleSize = sizeBytes
	if m.EligibleErr != nil {
		return nil, m.EligibleErr
	}
	return m.EligibleOut, nil
}

func (m *MockAccountRepo) ClaimLease(ctx context.Context, id db.UUID, sizeBytes int64, now, expiresAt time.Time) (bool, error) {
	m.ClaimCalls = append(m.ClaimCalls, id)
	if m.ClaimErr != nil {
		return false, m.ClaimErr
	}
	return m.ClaimOK[id], nil
}

func (m *MockAccountRepo) ReleaseLease(ctx context.Context, id db.UUID) error {
	m.ReleasedID = id
	return m.ReleaseErr
}

func (m *MockAccountRepo) ExtendLease(ctx context.Context, accountID, taskID db.UUID, now, newExpiry time.Time) (bool, error) {
	m.ExtendCalled = true
	if m.ExtendErr != nil {
		return false, m.ExtendErr
	}
	return m.ExtendOK, nil
}

func (m *MockAccountRepo) ApplyUploadUsage(ctx context.Context, id db.UUID, uploadedBytes int64, now, nextReset time.Time) error {
	m.UsageAccountID = id
	m.UsageBytes = uploadedBytes
	return m.UsageErr
}

func (m *MockAccountRepo) ReleaseOrphanLeases(ctx context.Context, now time.Time) (int64, error) {
	m.OrphanCalled = true
	if m.OrphanErr != nil {
		return 0, m.OrphanErr
	}
	return m.OrphanOut, nil
}

func (m *MockAccountRepo) ReleaseDueCooldowns(ctx context.Context, now, nextReset time.Time) (int64, error) {
	m.CooldownCalled = true
	if m.CooldownErr != nil {
		return 0, m.CooldownErr
	}
	return m.CooldownOut, nil
}

func (m *MockAccountRepo) PoolStats(ctx context.Context, sizeBytes int64, now time.Time) (port.PoolStats, error) {
	if m.StatsErr != nil {
		return port.PoolStats{}, m.StatsErr
	}
	return m.StatsOut, nil
}
