package ir

import "crypto/sha256"

// Domain prefixes for hashed identities. The version suffix allows a
// future algorithm migration.
const (
	DomainAddress = "gpl/address/v1"
	DomainRequest = "gpl/request/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func HashWithDomain(domain string, data []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
