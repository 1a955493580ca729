package mariadb

import (
	"context"
	"database/sql"
	"log"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
)

type StorageInstanceRepository struct {
	db *sql.DB
}

// compile-time check: *StorageInstanceRepository must satisfy port.StorageInstanceRepository
var _ port.StorageInstanceRepository = (*StorageInstanceRepository)(nil)

func NewStorageInstanceRepository(db *sql.DB) *StorageInstanceRepository {
	return &StorageInstanceRepository{db: db}
}

func (r *StorageInstanceRepository) Create(ctx context.Context, instance *model.StorageInstance) error {
	log.Printf("creating database record for storage instance #%s...", instance.ID)

	const query = `
      INSERT INTO storage_instances
        (id, capacity_bytes, used_bytes, health)
      VALUES (?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		instance.ID, instance.CapacityBytes, instance.UsedBytes, instance.Health,
	)
	if err != nil {
		return err
	}

	return nil
}

func (r *StorageInstanceRepository) GetByID(ctx context.Context, id db.UUID) (*model.StorageInstance, error) {
	const query = `
      SELECT id, capacity_bytes, used_bytes, health, created_at, updated_at
      FROM storage_instances
      WHERE id = ?
    `
	row := r.db.QueryRowContext(ctx, query, id)

	var instance model.StorageInstance
	if err := row.Scan(
		&instance.ID, &instance.CapacityBytes, &instance.UsedBytes,
		&instance.Health, &instance.CreatedAt, &instance.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &instance, nil
}
