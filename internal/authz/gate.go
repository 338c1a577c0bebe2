// Package authz verifies the Profile → User → Authority ownership chain.
//
// The gate is a pure predicate over plain values. It reads nothing from
// storage and has no side effects; the lifecycle manager loads the records
// and calls it at every mutating entry point.
package authz

import (
	"fmt"

	"github.com/roach88/gpl/internal/address"
	"github.com/roach88/gpl/internal/ir"
)

// AuthorizeCreate checks, in order: the namespace is known, the user
// record re-derives to userAddr, and authority owns the user.
func AuthorizeCreate(ns ir.Namespace, userAddr ir.Address, user ir.User, authority ir.Address) error {
	if !ns.Valid() {
		return ir.NewError(ir.ErrCodeInvalidNamespace, fmt.Sprintf("unknown namespace tag %d", uint8(ns)))
	}
	return authorizeUser(userAddr, user, authority)
}

// AuthorizeDelete checks, in order: the user record re-derives to
// userAddr, authority owns the user, and the profile references that user.
func AuthorizeDelete(profile ir.Profile, userAddr ir.Address, user ir.User, authority ir.Address) error {
	if err := authorizeUser(userAddr, user, authority); err != nil {
		return err
	}
	if profile.User != userAddr {
		return ir.NewAddressError(ir.ErrCodeProfileUserMismatch,
			fmt.Sprintf("profile belongs to user %s", profile.User.Short()), userAddr)
	}
	return nil
}

func authorizeUser(userAddr ir.Address, user ir.User, authority ir.Address) error {
	if !address.VerifyUser(userAddr, user) {
		return ir.NewAddressError(ir.ErrCodeInvalidUserAddress,
			"user record does not derive to supplied address", userAddr)
	}
	if authority != user.Authority {
		return ir.NewAddressError(ir.ErrCodeUnauthorized,
			fmt.Sprintf("authority %s does not own user", authority.Short()), userAddr)
	}
	return nil
}
