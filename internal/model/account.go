package model

import (
	"time"

	"github.com/pixav/maxwell/internal/db"
)

type AccountStatus string

const (
	AccountStatusActive     AccountStatus = "active"
	AccountStatusCooldown   AccountStatus = "cooldown"
	AccountStatusBanned     AccountStatus = "banned"
	AccountStatusUnverified AccountStatus = "unverified"
)

// Account is an external upload identity. The lease columns
// (lease_expires_at, last_used_at) are written by the lease manager; the
// usage counters are written through ApplyUploadUsage on behalf of the
// upload stage. Accounts are provisioned out-of-band and never deleted here.
type Account struct {
	ID                 db.UUID       `json:"id"`
	Email              string        `json:"email"`
	Status             AccountStatus `json:"status"`
	StorageInstanceID  *db.UUID      `json:"storage_instance_id,omitempty"`
	DailyUploadedBytes int64         `json:"daily_uploaded_bytes"`
	DailyQuotaBytes    int64         `json:"daily_quota_bytes"`
	QuotaResetAt       time.Time     `json:"quota_reset_at"`
	LastUsedAt         *time.Time    `json:"last_used_at,omitempty"`
	CooldownUntil      *time.Time    `json:"cooldown_until,omitempty"`
	LeaseExpiresAt     *time.Time    `json:"lease_expires_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// Leased reports whether the account holds an unexpired lease.
func (a *Account) Leased(now time.Time) bool {
	return a.LeaseExpiresAt != nil && a.LeaseExpiresAt.After(now)
}

// RemainingQuota returns how many bytes the account may still upload today.
func (a *Account) RemainingQuota() int64 {
	if a.DailyUploadedBytes >= a.DailyQuotaBytes {
		return 0
	}
	return a.DailyQuotaBytes - a.DailyUploadedBytes
}
