package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/mock"
	"github.com/pixav/maxwell/internal/model"
)

func newEligibleAccount(id string) *model.Account {
	return &model.Account{
		ID:              db.UUID(uuid.MustParse(id)),
		Email:           "uploader@example.com",
		Status:          model.AccountStatusActive,
		DailyQuotaBytes: 10 << 30,
	}
}

func TestAcquire_NoEligibleAccount(t *testing.T) {
	accounts := &mock.MockAccountRepo{}
	svc := NewAccountLeaser(accounts, LeaseOptions{TTL: 30 * time.Minute})

	_, err := svc.Acquire(context.Background(), 1024)
	if !errors.Is(err, ErrNoEligibleAccount) {
		t.Fatalf("expected ErrNoEligibleAccount, got %v", err)
	}
	if !accounts.ResetCalled {
		t.Error("expected due quotas to be reset before selection")
	}
	if accounts.EligibleSize != 1024 {
		t.Errorf("expected eligibility checked for 1024 bytes, got %d", accounts.EligibleSize)
	}
}

func TestAcquire_ClaimsFirstCandidate(t *testing.T) {
	a1 := newEligibleAccount("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	accounts := &mock.MockAccountRepo{
		EligibleOut: []*model.Account{a1},
		ClaimOK:     map[db.UUID]bool{a1.ID: true},
	}
	svc := NewAccountLeaser(accounts, LeaseOptions{TTL: 30 * time.Minute})

	acct, err := svc.Acquire(context.Background(), 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.ID != a1.ID {
		t.Fatalf("expected account %s, got %s", a1.ID, acct.ID)
	}
	if acct.LeaseExpiresAt == nil {
		t.Fatal("expected lease expiry to be set on the returned account")
	}
	if until := time.Until(*acct.LeaseExpiresAt); until < 29*time.Minute || until > 31*time.Minute {
		t.Errorf("expected expiry about 30m out, got %s", until)
	}
	if len(accounts.ClaimCalls) != 1 {
		t.Errorf("expected exactly one claim, got %d", len(accounts.ClaimCalls))
	}
}

func TestAcquire_FallsThroughToSecondCandidate(t *testing.T) {
	a1 := newEligibleAccount("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	a2 := newEligibleAccount("11111111-2222-3333-4444-555555555555")
	accounts := &mock.MockAccountRepo{
		EligibleOut: []*model.Account{a1, a2},
		ClaimOK:     map[db.UUID]bool{a2.ID: true},
	}
	svc := NewAccountLeaser(accounts, LeaseOptions{TTL: 30 * time.Minute})

	acct, err := svc.Acquire(context.Background(), 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.ID != a2.ID {
		t.Fatalf("expected the race loser to fall through to account %s, got %s", a2.ID, acct.ID)
	}
	if len(accounts.ClaimCalls) != 2 {
		t.Errorf("expected two claims, got %d", len(accounts.ClaimCalls))
	}
}

func TestAcquire_GivesUpAfterAllRounds(t *testing.T) {
	a1 := newEligibleAccount("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	a2 := newEligibleAccount("11111111-2222-3333-4444-555555555555")
	accounts := &mock.MockAccountRepo{
		EligibleOut: []*model.Account{a1, a2},
	}
	svc := NewAccountLeaser(accounts, LeaseOptions{TTL: 30 * time.Minute, Candidates: 2, Rounds: 2})

	_, err := svc.Acquire(context.Background(), 1024)
	if !errors.Is(err, ErrNoEligibleAccount) {
		t.Fatalf("expected ErrNoEligibleAccount after losing every claim, got %v", err)
	}
	if len(accounts.ClaimCalls) != 4 {
		t.Errorf("expected 2 rounds of 2 claims, got %d", len(accounts.ClaimCalls))
	}
}

func TestAcquire_ResetError(t *testing.T) {
	accounts := &mock.MockAccountRepo{ResetErr: errors.New("db fail")}
	svc := NewAccountLeaser(accounts, LeaseOptions{TTL: 30 * time.Minute})

	_, err := svc.Acquire(context.Background(), 1024)
	if err == nil || !strings.Contains(err.Error(), "failed resetting due quotas") {
		t.Fatalf("expected reset error, got %v", err)
	}
}

func TestAcquire_ClaimError(t *testing.T) {
	a1 := newEligibleAccount("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	accounts := &mock.MockAccountRepo{
		EligibleOut: []*model.Account{a1},
		ClaimErr:    errors.New("db fail"),
	}
	svc := NewAccountLeaser(accounts, LeaseOptions{TTL: 30 * time.Minute})

	_, err := svc.Acquire(context.Background(), 1024)
	if err == nil || !strings.Contains(err.Error(), "failed claiming lease") {
		t.Fatalf("expected claim error, got %v", err)
	}
}

func TestRelease_Success(t *testing.T) {
	accounts := &mock.MockAccountRepo{}
	svc := NewAccountLeaser(accounts, LeaseOptions{TTL: 30 * time.Minute})

	id := db.UUID(uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"))
	if err := svc.Release(context.Background(), id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accounts.ReleasedID != id {
		t.Errorf("expected release of account %s, got %s", id, accounts.ReleasedID)
	}
}

func TestExtend_Success(t *testing.T) {
	accounts := &mock.MockAccountRepo{ExtendOK: true}
	svc := NewAccountLeaser(accounts, LeaseOptions{TTL: 30 * time.Minute})

	accountID := db.UUID(uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"))
	taskID := db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))
	expiry, err := svc.Extend(context.Background(), accountID, taskID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if until := time.Until(expiry); until < 29*time.Minute || until > 31*time.Minute {
		t.Errorf("expected new expiry about 30m out, got %s", until)
	}
}

func TestExtend_Lost(t *testing.T) {
	accounts := &mock.MockAccountRepo{ExtendOK: false}
	svc := NewAccountLeaser(accounts, LeaseOptions{TTL: 30 * time.Minute})

	accountID := db.UUID(uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"))
	taskID := db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))
	_, err := svc.Extend(context.Background(), accountID, taskID)
	if !errors.Is(err, ErrLeaseLost) {
		t.Fatalf("expected ErrLeaseLost, got %v", err)
	}
}

func TestNextUTCMidnight(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 59, 59, 0, time.UTC)
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if got := nextUTCMidnight(now); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}

	// non-UTC inputs roll over at the UTC boundary, not the local one
	paris := time.FixedZone("CET", 3600)
	now = time.Date(2026, 3, 15, 0, 30, 0, 0, paris)
	if got := nextUTCMidnight(now); !got.Equal(want) {
		t.Errorf("expected %s for zoned input, got %s", want, got)
	}
}
