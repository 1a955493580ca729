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

type AccountRepository struct {
	db *sql.DB
}

// compile-time check: *AccountRepository must satisfy port.AccountRepository
var _ port.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
      a.id, a.email, a.status, a.storage_instance_id,
      a.daily_uploaded_bytes, a.daily_quota_bytes, a.quota_reset_at,
      a.last_used_at, a.cooldown_until, a.lease_expires_at,
      a.created_at, a.updated_at
`

func (r *AccountRepository) Create(ctx context.Context, acct *model.Account) error {
	log.Printf("creating database record for account #%s (%s)...", acct.ID, acct.Email)

	const query = `
      INSERT INTO accounts
        (id, email, status, storage_instance_id, daily_uploaded_bytes, daily_quota_bytes, quota_reset_at)
      VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		acct.ID, acct.Email, acct.Status, acct.StorageInstanceID,
		acct.DailyUploadedBytes, acct.DailyQuotaBytes, acct.QuotaResetAt,
	)
	if err != nil {
		return err
	}

	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id db.UUID) (*model.Account, error) {
	const query = `
      SELECT` + accountColumns + `
      FROM accounts a
      WHERE a.id = ?
    `
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *AccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	const query = `
      SELECT` + accountColumns + `
      FROM accounts a
      ORDER BY a.email ASC
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var accounts []*model.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) ResetDueQuotas(ctx context.Context, now, nextReset time.Time) (int64, error) {
	const query = `
      UPDATE accounts
      SET daily_uploaded_bytes = 0, quota_reset_at = ?
      WHERE quota_reset_at <= ?
    `
	res, err := r.db.ExecContext(ctx, query, nextReset, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// eligibilityPredicate is the account half of the lease eligibility check.
// The storage health veto joins in separately because UPDATE and SELECT
// shapes differ.
const eligibilityPredicate = `
      a.status = 'active'
      AND (a.cooldown_until IS NULL OR a.cooldown_until <= ?)
      AND a.daily_uploaded_bytes < a.daily_quota_bytes
      AND a.daily_uploaded_bytes + ? <= a.daily_quota_bytes
      AND (a.lease_expires_at IS NULL OR a.lease_expires_at <= ?)
`

func (r *AccountRepository) ListEligible(ctx context.Context, sizeBytes int64, now time.Time, limit int) ([]*model.Account, error) {
	// last_used_at IS NOT NULL sorts never-used accounts first
	const query = `
      SELECT` + accountColumns + `
      FROM accounts a
      JOIN storage_instances si ON si.id = a.storage_instance_id
      WHERE` + eligibilityPredicate + `
        AND si.health IN ('healthy', 'degraded')
      ORDER BY a.last_used_at IS NOT NULL, a.last_used_at ASC, a.id ASC
      LIMIT ?
    `
	rows, err := r.db.QueryContext(ctx, query, now, sizeBytes, now, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var accounts []*model.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) ClaimLease(ctx context.Context, id db.UUID, sizeBytes int64, now, expiresAt time.Time) (bool, error) {
	// Re-checks the full eligibility predicate at write time: only the row
	// that still matches loses its free slot, so two claimers can never win
	// the same account.
	const query = `
      UPDATE accounts a
      JOIN storage_instances si ON si.id = a.storage_instance_id
      SET a.lease_expires_at = ?, a.last_used_at = ?
      WHERE a.id = ?
        AND` + eligibilityPredicate + `
        AND si.health IN ('healthy', 'degraded')
    `
	res, err := r.db.ExecContext(ctx, query, expiresAt, now, id, now, sizeBytes, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *AccountRepository) ReleaseLease(ctx context.Context, id db.UUID) error {
	log.Printf("releasing lease on account #%s...", id)

	const query = `
      UPDATE accounts
      SET lease_expires_at = NULL
      WHERE id = ?
    `
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *AccountRepository) ExtendLease(ctx context.Context, accountID, taskID db.UUID, now, newExpiry time.Time) (bool, error) {
	const query = `
      UPDATE accounts a
      SET a.lease_expires_at = ?
      WHERE a.id = ?
        AND a.lease_expires_at IS NOT NULL
        AND a.lease_expires_at > ?
        AND EXISTS (
          SELECT 1 FROM tasks t
          WHERE t.id = ? AND t.account_id = a.id AND t.state IN ('uploading', 'verifying')
        )
    `
	res, err := r.db.ExecContext(ctx, query, newExpiry, accountID, now, taskID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *AccountRepository) ApplyUploadUsage(ctx context.Context, id db.UUID, uploadedBytes int64, now, nextReset time.Time) error {
	log.Printf("recording %d uploaded bytes on account #%s...", uploadedBytes, id)

	if uploadedBytes < 0 {
		uploadedBytes = 0
	}

	// SET clauses evaluate left to right and later clauses see assigned
	// values, so the clauses reading daily_uploaded_bytes and quota_reset_at
	// must come before the ones writing them.
	const query = `
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
    `
	_, err := r.db.ExecContext(ctx, query,
		now, uploadedBytes, uploadedBytes,
		now, uploadedBytes, uploadedBytes,
		now, uploadedBytes, uploadedBytes,
		now, nextReset,
		now,
		id,
	)
	return err
}

func (r *AccountRepository) ReleaseOrphanLeases(ctx context.Context, now time.Time) (int64, error) {
	const query = `
      UPDATE accounts a
      SET a.lease_expires_at = NULL
      WHERE a.lease_expires_at IS NOT NULL
        AND a.lease_expires_at <= ?
        AND NOT EXISTS (
          SELECT 1 FROM tasks t
          WHERE t.account_id = a.id AND t.state IN ('uploading', 'verifying')
        )
    `
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *AccountRepository) ReleaseDueCooldowns(ctx context.Context, now, nextReset time.Time) (int64, error) {
	const query = `
      UPDATE accounts
      SET status = 'active',
          cooldown_until = NULL,
          lease_expires_at = NULL,
          daily_uploaded_bytes = 0,
          quota_reset_at = ?
      WHERE status = 'cooldown'
        AND cooldown_until IS NOT NULL
        AND cooldown_until <= ?
    `
	res, err := r.db.ExecContext(ctx, query, nextReset, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *AccountRepository) PoolStats(ctx context.Context, sizeBytes int64, now time.Time) (port.PoolStats, error) {
	const query = `
      SELECT
        COUNT(*),
        COALESCE(SUM(a.status = 'active'), 0),
        COALESCE(SUM(a.status = 'cooldown'), 0),
        COALESCE(SUM(a.lease_expires_at IS NOT NULL AND a.lease_expires_at > ?), 0),
        COALESCE(SUM(
          a.status = 'active'
          AND (a.cooldown_until IS NULL OR a.cooldown_until <= ?)
          AND a.daily_uploaded_bytes < a.daily_quota_bytes
          AND a.daily_uploaded_bytes + ? <= a.daily_quota_bytes
          AND (a.lease_expires_at IS NULL OR a.lease_expires_at <= ?)
          AND EXISTS (
            SELECT 1 FROM storage_instances si
            WHERE si.id = a.storage_instance_id AND si.health IN ('healthy', 'degraded')
          )
        ), 0)
      FROM accounts a
    `
	var stats port.PoolStats
	err := r.db.QueryRowContext(ctx, query, now, now, sizeBytes, now).Scan(
		&stats.Total, &stats.Active, &stats.Cooldown, &stats.Leased, &stats.Eligible,
	)
	if err != nil {
		return port.PoolStats{}, err
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		acct      model.Account
		storageID db.NullUUID
		lastUsed  sql.NullTime
		cooldown  sql.NullTime
		lease     sql.NullTime
	)
	if err := row.Scan(
		&acct.ID, &acct.Email, &acct.Status, &storageID,
		&acct.DailyUploadedBytes, &acct.DailyQuotaBytes, &acct.QuotaResetAt,
		&lastUsed, &cooldown, &lease,
		&acct.CreatedAt, &acct.UpdatedAt,
	); err != nil {
		return nil, err
	}
	acct.StorageInstanceID = nullUUIDPtr(storageID)
	acct.LastUsedAt = nullTimePtr(lastUsed)
	acct.CooldownUntil = nullTimePtr(cooldown)
	acct.LeaseExpiresAt = nullTimePtr(lease)
	return &acct, nil
}
