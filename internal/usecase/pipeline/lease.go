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

type LeaseOptions struct {
	// TTL bounds how long a claim survives without an Extend.
	TTL time.Duration
	// Candidates is how many eligible accounts each claim round fetches.
	Candidates int
	// Rounds caps how often Acquire refreshes the candidate list after
	// losing every claim in it.
	Rounds int
}

type accountLeaserSrv struct {
	accounts port.AccountRepository
	opts     LeaseOptions
}

// compile-time check: *accountLeaserSrv must satisfy port.AccountLeaser
var _ port.AccountLeaser = (*accountLeaserSrv)(nil)

func NewAccountLeaser(accounts port.AccountRepository, opts LeaseOptions) port.AccountLeaser {
	if opts.Candidates <= 0 {
		opts.Candidates = 3
	}
	if opts.Rounds <= 0 {
		opts.Rounds = 3
	}
	return &accountLeaserSrv{accounts: accounts, opts: opts}
}

// Acquire picks the least recently used eligible account and claims it with a
// conditional update. Losing a claim to a concurrent acquirer is not an
// error: the next candidate is tried, and the candidate list refreshed up to
// opts.Rounds times before giving up with ErrNoEligibleAccount.
func (s *accountLeaserSrv) Acquire(ctx context.Context, sizeBytes int64) (*model.Account, error) {
	now := time.Now().UTC()

	// roll over lapsed daily windows first so yesterday's exhausted
	// accounts compete again
	if _, err := s.accounts.ResetDueQuotas(ctx, now, nextUTCMidnight(now)); err != nil {
		return nil, fmt.Errorf("failed resetting due quotas: %w", err)
	}

	for round := 0; round < s.opts.Rounds; round++ {
		candidates, err := s.accounts.ListEligible(ctx, sizeBytes, now, s.opts.Candidates)
		if err != nil {
			return nil, fmt.Errorf("failed listing eligible accounts: %w", err)
		}
		if len(candidates) == 0 {
			return nil, ErrNoEligibleAccount
		}

		for _, acct := range candidates {
			expiresAt := now.Add(s.opts.TTL)
			claimed, err := s.accounts.ClaimLease(ctx, acct.ID, sizeBytes, now, expiresAt)
			if err != nil {
				return nil, fmt.Errorf("failed claiming lease on account #%s: %w", acct.ID, err)
			}
			if !claimed {
				// lost to a concurrent acquirer, try the next candidate
				continue
			}

			acct.LeaseExpiresAt = &expiresAt
			acct.LastUsedAt = &now
			log.Printf("leased account #%s (%s) until %s", acct.ID, acct.Email, expiresAt.Format(time.RFC3339))
			return acct, nil
		}
	}

	return nil, ErrNoEligibleAccount
}

func (s *accountLeaserSrv) Release(ctx context.Context, accountID db.UUID) error {
	if err := s.accounts.ReleaseLease(ctx, accountID); err != nil {
		return fmt.Errorf("failed releasing lease on account #%s: %w", accountID, err)
	}
	return nil
}

// Extend pushes the lease expiry forward, but only while the lease is still
// live and taskID is an in-flight upload or verify bound to the account. A
// caller getting ErrLeaseLost must stop using the account.
func (s *accountLeaserSrv) Extend(ctx context.Context, accountID, taskID db.UUID) (time.Time, error) {
	now := time.Now().UTC()
	newExpiry := now.Add(s.opts.TTL)

	extended, err := s.accounts.ExtendLease(ctx, accountID, taskID, now, newExpiry)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed extending lease on account #%s: %w", accountID, err)
	}
	if !extended {
		return time.Time{}, ErrLeaseLost
	}
	return newExpiry, nil
}
