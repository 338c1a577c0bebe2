package testutil

import (
	"bytes"

	"github.com/roach88/gpl/internal/credential"
	"github.com/roach88/gpl/internal/ir"
)

// Keypair returns a deterministic keypair whose secret is fill repeated.
// fill must be non-zero. Panics on error.
func Keypair(fill byte) *credential.Keypair {
	kp, err := credential.FromBytes(bytes.Repeat([]byte{fill}, 32))
	if err != nil {
		panic(err)
	}
	return kp
}

// Salt returns a deterministic user salt.
func Salt(fill byte) ir.Hash {
	var h ir.Hash
	h[0] = 0x5a
	h[31] = fill
	return h
}

// Signable is anything with a canonical signed message, such as
// lifecycle.CreateRequest and lifecycle.DeleteRequest.
type Signable interface {
	Message() ([]byte, error)
}

// Sign signs req's message with kp. Panics on error.
func Sign(kp *credential.Keypair, req Signable) credential.Caller {
	msg, err := req.Message()
	if err != nil {
		panic(err)
	}
	caller, err := kp.Sign(msg)
	if err != nil {
		panic(err)
	}
	return caller
}
