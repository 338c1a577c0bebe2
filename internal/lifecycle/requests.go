package lifecycle

import (
	"fmt"

	"github.com/roach88/gpl/internal/ir"
)

// CreateRequest asks for the profile slot of (Namespace, User).
type CreateRequest struct {
	Namespace ir.Namespace
	User      ir.Address

	// Nonce is copied into the signed message so that callers can make
	// otherwise identical requests distinguishable. Optional.
	Nonce string
}

// Message returns the canonical bytes the authority signs.
func (r CreateRequest) Message() ([]byte, error) {
	if !r.Namespace.Valid() {
		return nil, ir.NewError(ir.ErrCodeInvalidNamespace, fmt.Sprintf("unknown namespace tag %d", uint8(r.Namespace)))
	}
	return ir.MarshalCanonical(map[string]any{
		"op":        "create_profile",
		"namespace": r.Namespace.String(),
		"user":      r.User.String(),
		"nonce":     r.Nonce,
	})
}

// DeleteRequest asks to destroy the profile at Profile owned by User.
type DeleteRequest struct {
	Profile ir.Address
	User    ir.Address
	Nonce   string
}

// Message returns the canonical bytes the authority signs.
func (r DeleteRequest) Message() ([]byte, error) {
	return ir.MarshalCanonical(map[string]any{
		"op":      "delete_profile",
		"profile": r.Profile.String(),
		"user":    r.User.String(),
		"nonce":   r.Nonce,
	})
}
