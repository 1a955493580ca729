package mariadb

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
)

func TestAccountRepository_Create_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	acct := &model.Account{
		ID:              db.UUID(uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")),
		Email:           "uploader01@example.com",
		Status:          model.AccountStatusActive,
		DailyQuotaBytes: 20 << 30,
		QuotaResetAt:    time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(regexp.QuoteMeta(`
      INSERT INTO accounts
        (id, email, status, storage_instance_id, daily_uploaded_bytes, daily_quota_bytes, quota_reset_at)
      VALUES (?, ?, ?, ?, ?, ?, ?)
    `)).
		WithArgs(
			acct.ID,
			acct.Email,
			acct.Status,
			acct.StorageInstanceID,
			acct.DailyUploadedBytes,
			acct.DailyQuotaBytes,
			acct.QuotaResetAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), acct); err != nil {
		t.Errorf("Create() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_Create_ExecError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	acct := &model.Account{
		ID:    db.UUID(uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")),
		Email: "uploader01@example.com",
	}

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(errors.New("db.Exec failed"))

	err = repo.Create(context.Background(), acct)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "db.Exec failed" {
		t.Errorf("expected 'db.Exec failed', got %q", err.Error())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_ListEligible_OrderAndPredicate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	size := int64(2 << 30)

	// the full query text is pinned: the quota headroom check and the
	// NULLs-first LRU ordering are load-bearing
	expected := regexp.QuoteMeta(`
      SELECT` + accountColumns + `
      FROM accounts a
      JOIN storage_instances si ON si.id = a.storage_instance_id
      WHERE` + eligibilityPredicate + `
        AND si.health IN ('healthy', 'degraded')
      ORDER BY a.last_used_at IS NOT NULL, a.last_used_at ASC, a.id ASC
      LIMIT ?
    `)

	mockID := db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))
	mockSiID := db.UUID(uuid.MustParse("99999999-8888-7777-6666-555555555555"))
	idVal, _ := mockID.Value()
	siVal, _ := mockSiID.Value()

	rows := sqlmock.NewRows([]string{
		"id", "email", "status", "storage_instance_id",
		"daily_uploaded_bytes", "daily_quota_bytes", "quota_reset_at",
		"last_used_at", "cooldown_until", "lease_expires_at",
		"created_at", "updated_at",
	}).AddRow(
		idVal, "uploader01@example.com", "active", siVal,
		int64(0), int64(20<<30), now.Add(12*time.Hour),
		nil, nil, nil,
		now.Add(-48*time.Hour), now.Add(-time.Hour),
	)

	mock.ExpectQuery(expected).
		WithArgs(now, size, now, 3).
		WillReturnRows(rows)

	accounts, err := repo.ListEligible(context.Background(), size, now, 3)
	if err != nil {
		t.Fatalf("ListEligible() returned unexpected error: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	got := accounts[0]
	if got.ID != mockID {
		t.Errorf("expected account %s, got %s", mockID, got.ID)
	}
	if got.LastUsedAt != nil || got.CooldownUntil != nil || got.LeaseExpiresAt != nil {
		t.Error("expected nullable timestamps to be nil")
	}
	if got.StorageInstanceID == nil || *got.StorageInstanceID != mockSiID {
		t.Error("expected storage instance reference to round-trip")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_ClaimLease_Wins(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	mockID := db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiresAt := now.Add(30 * time.Minute)
	size := int64(1 << 30)

	mock.ExpectExec("UPDATE accounts a").
		WithArgs(expiresAt, now, mockID, now, size, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.ClaimLease(context.Background(), mockID, size, now, expiresAt)
	if err != nil {
		t.Fatalf("ClaimLease() returned unexpected error: %v", err)
	}
	if !claimed {
		t.Error("expected claim to win")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_ClaimLease_LosesRace(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	mockID := db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))
	now := time.Now().UTC()

	// the row no longer matches the eligibility predicate, so zero rows match
	mock.ExpectExec("UPDATE accounts a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.ClaimLease(context.Background(), mockID, 0, now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ClaimLease() returned unexpected error: %v", err)
	}
	if claimed {
		t.Error("expected claim to lose")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_ReleaseLease(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	mockID := db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))

	mock.ExpectExec(regexp.QuoteMeta(`
      UPDATE accounts
      SET lease_expires_at = NULL
      WHERE id = ?
    `)).
		WithArgs(mockID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ReleaseLease(context.Background(), mockID); err != nil {
		t.Errorf("ReleaseLease() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_ExtendLease_Lost(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	accountID := db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))
	taskID := db.UUID(uuid.MustParse("66666666-7777-8888-9999-aaaaaaaaaaaa"))
	now := time.Now().UTC()
	newExpiry := now.Add(30 * time.Minute)

	mock.ExpectExec("UPDATE accounts a").
		WithArgs(newExpiry, accountID, now, taskID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	extended, err := repo.ExtendLease(context.Background(), accountID, taskID, now, newExpiry)
	if err != nil {
		t.Fatalf("ExtendLease() returned unexpected error: %v", err)
	}
	if extended {
		t.Error("expected extension to fail once the lease is gone")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_ApplyUploadUsage_ClauseOrder(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	mockID := db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	nextReset := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	uploaded := int64(5 << 30)

	// pins the left-to-right SET order: cooldown_until and status must read
	// the old counters before daily_uploaded_bytes and quota_reset_at are
	// overwritten
	expected := regexp.QuoteMeta(`
      UPDATE accounts
      SET cooldown_until = CASE
            WHEN (CASE WHEN quota_reset_at <= ? THEN ? ELSE daily_uploaded_bytes + ? END) >= daily_quota_bytes
            THEN quota_reset_at
            ELSE NULL
          END,
          status = CASE
            WHEN (CASE WHEN quota_reset_at <= ? THEN ? ELSE daily_uploaded_bytes + ? END) >= daily_quota_bytes
            THEN 'cooldown'
            ELSE status
          END,
          daily_uploaded_bytes = CASE
            WHEN quota_reset_at <= ? THEN ?
            ELSE daily_uploaded_bytes + ?
          END,
          quota_reset_at = CASE
            WHEN quota_reset_at <= ? THEN ?
            ELSE quota_reset_at
          END,
          last_used_at = ?,
          lease_expires_at = NULL
      WHERE id = ?
    `)

	mock.ExpectExec(expected).
		WithArgs(
			now, uploaded, uploaded,
			now, uploaded, uploaded,
			now, uploaded, uploaded,
			now, nextReset,
			now,
			mockID,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ApplyUploadUsage(context.Background(), mockID, uploaded, now, nextReset); err != nil {
		t.Errorf("ApplyUploadUsage() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_ApplyUploadUsage_ClampsNegative(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	mockID := db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))
	now := time.Now().UTC()
	nextReset := now.Add(12 * time.Hour)

	mock.ExpectExec("UPDATE accounts").
		WithArgs(
			now, int64(0), int64(0),
			now, int64(0), int64(0),
			now, int64(0), int64(0),
			now, nextReset,
			now,
			mockID,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ApplyUploadUsage(context.Background(), mockID, -5, now, nextReset); err != nil {
		t.Errorf("ApplyUploadUsage() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_ResetDueQuotas(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	now := time.Now().UTC()
	nextReset := now.Add(10 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`
      UPDATE accounts
      SET daily_uploaded_bytes = 0, quota_reset_at = ?
      WHERE quota_reset_at <= ?
    `)).
		WithArgs(nextReset, now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ResetDueQuotas(context.Background(), now, nextReset)
	if err != nil {
		t.Fatalf("ResetDueQuotas() returned unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows reset, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_ReleaseOrphanLeases(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	now := time.Now().UTC()

	mock.ExpectExec("UPDATE accounts a").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.ReleaseOrphanLeases(context.Background(), now)
	if err != nil {
		t.Fatalf("ReleaseOrphanLeases() returned unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 leases released, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_ReleaseDueCooldowns(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	now := time.Now().UTC()
	nextReset := now.Add(6 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`
      UPDATE accounts
      SET status = 'active',
          cooldown_until = NULL,
          lease_expires_at = NULL,
          daily_uploaded_bytes = 0,
          quota_reset_at = ?
      WHERE status = 'cooldown'
        AND cooldown_until IS NOT NULL
        AND cooldown_until <= ?
    `)).
		WithArgs(nextReset, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.ReleaseDueCooldowns(context.Background(), now, nextReset)
	if err != nil {
		t.Fatalf("ReleaseDueCooldowns() returned unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 cooldown released, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_PoolStats(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"total", "active", "cooldown", "leased", "eligible"}).
		AddRow(10, 6, 3, 2, 4)

	mock.ExpectQuery("SELECT").
		WithArgs(now, now, int64(0), now).
		WillReturnRows(rows)

	stats, err := repo.PoolStats(context.Background(), 0, now)
	if err != nil {
		t.Fatalf("PoolStats() returned unexpected error: %v", err)
	}
	if stats.Total != 10 || stats.Active != 6 || stats.Cooldown != 3 || stats.Leased != 2 || stats.Eligible != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAccountRepository_GetByID_QueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewAccountRepository(sqlDB)

	mockID := db.UUID(uuid.MustParse("11111111-2222-3333-4444-555555555555"))

	mock.ExpectQuery("SELECT").
		WithArgs(mockID).
		WillReturnError(errors.New("db.QueryRow failed"))

	if _, err := repo.GetByID(context.Background(), mockID); err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
