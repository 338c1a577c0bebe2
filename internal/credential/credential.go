// Package credential proves that a caller controls an authority address.
//
// Authorities are BIP-340 x-only secp256k1 keys. A caller presents its
// authority address and a schnorr signature over the domain-separated
// digest of the request message; the Verifier checks the pair before the
// authorization gate runs.
package credential

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/roach88/gpl/internal/ir"
)

// Caller is a claimed authority plus its proof.
type Caller struct {
	Authority ir.Address
	Signature []byte
}

// Verifier checks that a caller signed message.
// Implementations return an *ir.Error with ErrCodeSignatureInvalid on failure.
type Verifier interface {
	VerifySigner(caller Caller, message []byte) error
}

// Digest returns the 32-byte value that is actually signed.
func Digest(message []byte) [32]byte {
	return ir.HashWithDomain(ir.DomainRequest, message)
}

// Keypair is an authority's signing key.
type Keypair struct {
	priv *btcec.PrivateKey
}

// Generate creates a new random keypair.
func Generate() (*Keypair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Keypair{priv: priv}, nil
}

// FromBytes builds a keypair from a 32-byte secret scalar.
func FromBytes(secret []byte) (*Keypair, error) {
	if len(secret) != 32 {
		return nil, fmt.Errorf("secret key must be 32 bytes, got %d", len(secret))
	}
	priv, _ := btcec.PrivKeyFromBytes(secret)
	if priv.Key.IsZero() {
		return nil, fmt.Errorf("secret key is zero modulo the curve order")
	}
	return &Keypair{priv: priv}, nil
}

// ParseHex decodes a hex secret key as produced by Hex.
func ParseHex(s string) (*Keypair, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse secret key: %w", err)
	}
	return FromBytes(raw)
}

// Hex returns the secret key as hex. Treat the result as sensitive.
func (k *Keypair) Hex() string {
	return hex.EncodeToString(k.priv.Serialize())
}

// Address returns the authority address controlled by this key.
func (k *Keypair) Address() ir.Address {
	var a ir.Address
	copy(a[:], schnorr.SerializePubKey(k.priv.PubKey()))
	return a
}

// Sign produces a Caller proving control of Address over message.
func (k *Keypair) Sign(message []byte) (Caller, error) {
	digest := Digest(message)
	sig, err := schnorr.Sign(k.priv, digest[:])
	if err != nil {
		return Caller{}, fmt.Errorf("sign request: %w", err)
	}
	return Caller{Authority: k.Address(), Signature: sig.Serialize()}, nil
}

// SchnorrVerifier verifies BIP-340 signatures.
type SchnorrVerifier struct{}

// VerifySigner implements Verifier.
func (SchnorrVerifier) VerifySigner(caller Caller, message []byte) error {
	pub, err := schnorr.ParsePubKey(caller.Authority[:])
	if err != nil {
		return ir.NewAddressError(ir.ErrCodeSignatureInvalid, "authority is not a public key", caller.Authority)
	}
	sig, err := schnorr.ParseSignature(caller.Signature)
	if err != nil {
		return ir.NewAddressError(ir.ErrCodeSignatureInvalid, fmt.Sprintf("malformed signature: %v", err), caller.Authority)
	}
	digest := Digest(message)
	if !sig.Verify(digest[:], pub) {
		return ir.NewAddressError(ir.ErrCodeSignatureInvalid, "signature does not match authority", caller.Authority)
	}
	return nil
}
