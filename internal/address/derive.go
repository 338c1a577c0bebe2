// Package address derives record addresses deterministically.
//
// A derived address is SHA-256 over a domain prefix, length-prefixed seeds,
// and a one-byte index. The first index (counting up from 0) whose digest is
// not a valid x-only secp256k1 public key wins. Because no private key can
// correspond to such a digest, a derived address can never be claimed by an
// external key holder, and any party holding the seeds can recompute it
// without a directory lookup.
package address

import (
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/roach88/gpl/internal/ir"
)

// Record kind tags. Each is the first seed of its derivation.
const (
	TagUser    = "user"
	TagProfile = "profile"
)

// Seed limits. The tag counts as a seed.
const (
	MaxSeedLen = 32
	MaxSeeds   = 16
)

var (
	// ErrSeedTooLong is returned when a single seed exceeds MaxSeedLen.
	ErrSeedTooLong = errors.New("address: seed exceeds 32 bytes")

	// ErrTooManySeeds is returned when more than MaxSeeds seeds are given.
	ErrTooManySeeds = errors.New("address: more than 16 seeds")

	// ErrOnCurve is returned by Create when the digest is a valid public key.
	ErrOnCurve = errors.New("address: digest is a valid public key")
)

// IsOnCurve reports whether a is a valid x-only secp256k1 public key,
// i.e. whether some private key controls it.
func IsOnCurve(a ir.Address) bool {
	_, err := schnorr.ParsePubKey(a[:])
	return err == nil
}

// Create computes the address for a fixed index.
// Fails with ErrOnCurve if that index does not yield a derived address.
func Create(index uint8, tag string, components ...[]byte) (ir.Address, error) {
	seeds, err := seedList(tag, components)
	if err != nil {
		return ir.Address{}, err
	}
	addr := digest(seeds, index)
	if IsOnCurve(addr) {
		return ir.Address{}, ErrOnCurve
	}
	return addr, nil
}

// Find searches indices 0..255 and returns the first derived address
// together with the index that produced it.
func Find(tag string, components ...[]byte) (ir.Address, uint8, error) {
	seeds, err := seedList(tag, components)
	if err != nil {
		return ir.Address{}, 0, err
	}
	for i := 0; i <= math.MaxUint8; i++ {
		addr := digest(seeds, uint8(i))
		if !IsOnCurve(addr) {
			return addr, uint8(i), nil
		}
	}
	return ir.Address{}, 0, ir.NewError(ir.ErrCodeDerivationExhausted,
		fmt.Sprintf("no valid index for tag %q", tag))
}

// Verify re-derives with the stored index and compares. No search is done.
func Verify(addr ir.Address, index uint8, tag string, components ...[]byte) bool {
	derived, err := Create(index, tag, components...)
	return err == nil && derived == addr
}

// UserAddress derives a user's address from its random salt.
func UserAddress(randomHash ir.Hash) (ir.Address, uint8, error) {
	return Find(TagUser, randomHash[:])
}

// ProfileAddress derives the single profile slot for (ns, user).
func ProfileAddress(ns ir.Namespace, user ir.Address) (ir.Address, uint8, error) {
	if !ns.Valid() {
		return ir.Address{}, 0, ir.NewError(ir.ErrCodeInvalidNamespace,
			fmt.Sprintf("unknown namespace tag %d", uint8(ns)))
	}
	return Find(TagProfile, ns.Seed(), user[:])
}

// VerifyUser checks that u lives at addr.
func VerifyUser(addr ir.Address, u ir.User) bool {
	return Verify(addr, u.Bump, TagUser, u.RandomHash[:])
}

// VerifyProfile checks that p lives at addr under the given user.
func VerifyProfile(addr ir.Address, p ir.Profile, user ir.Address) bool {
	if !p.Namespace.Valid() {
		return false
	}
	return Verify(addr, p.Bump, TagProfile, p.Namespace.Seed(), user[:])
}

func seedList(tag string, components [][]byte) ([][]byte, error) {
	seeds := make([][]byte, 0, len(components)+1)
	seeds = append(seeds, []byte(tag))
	seeds = append(seeds, components...)
	if len(seeds) > MaxSeeds {
		return nil, ErrTooManySeeds
	}
	for _, s := range seeds {
		if len(s) > MaxSeedLen {
			return nil, ErrSeedTooLong
		}
	}
	return seeds, nil
}

// digest hashes the length-prefixed seeds and index under DomainAddress.
// The length prefix keeps ("ab","c") and ("a","bc") apart.
func digest(seeds [][]byte, index uint8) ir.Address {
	buf := make([]byte, 0, len(seeds)*(MaxSeedLen+1)+1)
	for _, s := range seeds {
		buf = append(buf, byte(len(s)))
		buf = append(buf, s...)
	}
	buf = append(buf, index)
	return ir.Address(ir.HashWithDomain(ir.DomainAddress, buf))
}
