package mock

import (
	"context"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
)

// MockStorageInstanceRepo implements storage instance repository operations
// for tests.
type MockStorageInstanceRepo struct {
	InstanceRecord *model.StorageInstance

	GetErr    error
	CreateErr error
	Created   *model.StorageInstance
}

func (m *MockStorageInstanceRepo) Create(ctx context.Context, si *model.StorageInstance) error {
	m.Created = si
	return m.CreateErr
}

func (m *MockStorageInstanceRepo) GetByID(ctx context.Context, id db.UUID) (*model.StorageInstance, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.InstanceRecord, nil
}
