package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
)

type accountRegistrarSrv struct {
	accounts  port.AccountRepository
	instances port.StorageInstanceRepository
	genUUID   port.UUIDGen
}

// compile-time check: *accountRegistrarSrv must satisfy port.AccountRegistrar
var _ port.AccountRegistrar = (*accountRegistrarSrv)(nil)

func NewAccountRegistrar(accounts port.AccountRepository, instances port.StorageInstanceRepository, genUUID port.UUIDGen) port.AccountRegistrar {
	return &accountRegistrarSrv{accounts: accounts, instances: instances, genUUID: genUUID}
}

// RegisterAccount provisions an upload account, optionally with a dedicated
// storage instance when a capacity is given. The account starts active with
// an untouched daily window ending at the next UTC midnight.
func (s *accountRegistrarSrv) RegisterAccount(ctx context.Context, in port.RegisterAccountInput) (*model.Account, error) {
	now := time.Now().UTC()

	var instanceID *db.UUID
	if in.StorageCapacityBytes > 0 {
		instance := &model.StorageInstance{
			ID:            s.genUUID(),
			CapacityBytes: in.StorageCapacityBytes,
			Health:        model.StorageHealthHealthy,
		}
		if err := s.instances.Create(ctx, instance); err != nil {
			return nil, fmt.Errorf("failed creating storage instance: %w", err)
		}
		instanceID = &instance.ID
	}

	acct := &model.Account{
		ID:                s.genUUID(),
		Email:             in.Email,
		Status:            model.AccountStatusActive,
		StorageInstanceID: instanceID,
		DailyQuotaBytes:   in.DailyQuotaBytes,
		QuotaResetAt:      nextUTCMidnight(now),
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		return nil, fmt.Errorf("failed creating account: %w", err)
	}

	log.Printf("registered account #%s (%s)", acct.ID, acct.Email)
	return acct, nil
}

func (s *accountRegistrarSrv) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed listing accounts: %w", err)
	}
	return accounts, nil
}
