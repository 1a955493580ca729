package model

import (
	"time"

	"github.com/pixav/maxwell/internal/db"
)

type StorageHealth string

const (
	StorageHealthHealthy  StorageHealth = "healthy"
	StorageHealthDegraded StorageHealth = "degraded"
	StorageHealthFull     StorageHealth = "full"
	StorageHealthOffline  StorageHealth = "offline"
)

// Leasable reports whether accounts backed by this instance may be leased.
// used_bytes is the upload stage's to maintain; here health is only a veto.
func (h StorageHealth) Leasable() bool {
	return h == StorageHealthHealthy || h == StorageHealthDegraded
}

type StorageInstance struct {
	ID            db.UUID       `json:"id"`
	CapacityBytes int64         `json:"capacity_bytes"`
	UsedBytes     int64         `json:"used_bytes"`
	Health        StorageHealth `json:"health"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
