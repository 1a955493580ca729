package port

import (
	"context"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
)

// StorageInstanceRepository defines persistence operations for the physical
// capacity rows backing accounts. used_bytes belongs to the upload stage;
// the core only reads health as an eligibility veto.
type StorageInstanceRepository interface {
	Create(ctx context.Context, instance *model.StorageInstance) error
	GetByID(ctx context.Context, id db.UUID) (*model.StorageInstance, error)
}
