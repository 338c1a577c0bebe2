package store

import (
	"context"
	"fmt"

	"github.com/roach88/gpl/internal/address"
	"github.com/roach88/gpl/internal/ir"
	"github.com/roach88/gpl/internal/lifecycle"
)

// CreateUser stores a user record at the address derived from salt.
// The authority pays for the slot. Returns ADDRESS_ALREADY_IN_USE if the
// salt was already used.
func (s *Store) CreateUser(ctx context.Context, authority ir.Address, salt ir.Hash) (ir.Address, ir.User, error) {
	addr, bump, err := address.UserAddress(salt)
	if err != nil {
		return ir.Address{}, ir.User{}, err
	}
	user := ir.User{Authority: authority, RandomHash: salt, Bump: bump}
	data, err := user.MarshalBinary()
	if err != nil {
		return ir.Address{}, ir.User{}, err
	}

	err = s.Atomically(ctx, func(tx lifecycle.Tx) error {
		if err := tx.Allocate(ctx, addr, ir.AccountUser, ir.UserLen, authority); err != nil {
			return err
		}
		return tx.Write(ctx, addr, data)
	})
	if err != nil {
		return ir.Address{}, ir.User{}, fmt.Errorf("create user: %w", err)
	}
	return addr, user, nil
}

// Load returns the account at addr outside of any unit of work.
func (s *Store) Load(ctx context.Context, addr ir.Address) (ir.Account, error) {
	return loadAccount(ctx, s.db, addr)
}

// LoadUser loads and decodes the user at addr.
func (s *Store) LoadUser(ctx context.Context, addr ir.Address) (ir.User, error) {
	acct, err := s.Load(ctx, addr)
	if err != nil {
		return ir.User{}, err
	}
	if acct.Kind != ir.AccountUser {
		return ir.User{}, ir.NewAddressError(ir.ErrCodeInvalidUserAddress, "account is not a user", addr)
	}
	var user ir.User
	if err := user.UnmarshalBinary(acct.Data); err != nil {
		return ir.User{}, fmt.Errorf("decode user %s: %w", addr.Short(), err)
	}
	return user, nil
}

// LoadProfile loads and decodes the profile at addr.
func (s *Store) LoadProfile(ctx context.Context, addr ir.Address) (ir.Profile, error) {
	acct, err := s.Load(ctx, addr)
	if err != nil {
		return ir.Profile{}, err
	}
	if acct.Kind != ir.AccountProfile {
		return ir.Profile{}, ir.NewAddressError(ir.ErrCodeInvalidProfileAddress, "account is not a profile", addr)
	}
	var profile ir.Profile
	if err := profile.UnmarshalBinary(acct.Data); err != nil {
		return ir.Profile{}, ir.NewAddressError(ir.ErrCodeInvalidProfileAddress,
			fmt.Sprintf("corrupt profile record: %v", err), addr)
	}
	return profile, nil
}

// Reclaimed returns the total bytes reclaimed to beneficiary.
func (s *Store) Reclaimed(ctx context.Context, beneficiary ir.Address) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(size), 0) FROM reclaims WHERE beneficiary = ?
	`, beneficiary.String()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum reclaims: %w", err)
	}
	return total, nil
}
