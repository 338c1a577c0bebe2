package ir

import "fmt"

// Fixed record layouts.
//
//	User:    [authority:32][random_hash:32][bump:1]
//	Profile: [namespace:1][bump:1][user:32]
const (
	UserLen    = AddressLen + 32 + 1
	ProfileLen = 1 + 1 + AddressLen
)

// User is owned by the storage runtime and only read by the core.
// Its address is always derive("user", RandomHash) at index Bump.
type User struct {
	Authority  Address `json:"authority"`
	RandomHash Hash    `json:"random_hash"`
	Bump       uint8   `json:"bump"`
}

// MarshalBinary encodes the fixed user layout.
func (u User) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, UserLen)
	b = append(b, u.Authority[:]...)
	b = append(b, u.RandomHash[:]...)
	b = append(b, u.Bump)
	return b, nil
}

// UnmarshalBinary decodes the fixed user layout.
func (u *User) UnmarshalBinary(b []byte) error {
	if len(b) != UserLen {
		return fmt.Errorf("user record must be %d bytes, got %d", UserLen, len(b))
	}
	copy(u.Authority[:], b[:AddressLen])
	copy(u.RandomHash[:], b[AddressLen:AddressLen+32])
	u.Bump = b[UserLen-1]
	return nil
}

// Profile is created and destroyed only by the lifecycle manager.
// Its address is always derive("profile", Namespace, User) at index Bump.
// Namespace and User never change for the lifetime of the record.
type Profile struct {
	Namespace Namespace `json:"namespace"`
	Bump      uint8     `json:"bump"`
	User      Address   `json:"user"`
}

// MarshalBinary encodes the fixed profile layout.
func (p Profile) MarshalBinary() ([]byte, error) {
	if !p.Namespace.Valid() {
		return nil, NewError(ErrCodeInvalidNamespace, fmt.Sprintf("unknown namespace tag %d", uint8(p.Namespace)))
	}
	b := make([]byte, 0, ProfileLen)
	b = append(b, byte(p.Namespace), p.Bump)
	b = append(b, p.User[:]...)
	return b, nil
}

// UnmarshalBinary decodes the fixed profile layout.
func (p *Profile) UnmarshalBinary(b []byte) error {
	if len(b) != ProfileLen {
		return fmt.Errorf("profile record must be %d bytes, got %d", ProfileLen, len(b))
	}
	ns := Namespace(b[0])
	if !ns.Valid() {
		return NewError(ErrCodeInvalidNamespace, fmt.Sprintf("unknown namespace tag %d", b[0]))
	}
	p.Namespace = ns
	p.Bump = b[1]
	copy(p.User[:], b[2:])
	return nil
}

// AccountKind tags what a stored account holds.
type AccountKind string

const (
	AccountUser    AccountKind = "user"
	AccountProfile AccountKind = "profile"
)

// Account is a raw storage slot as the runtime sees it.
type Account struct {
	Address Address     `json:"address"`
	Kind    AccountKind `json:"kind"`
	Payer   Address     `json:"payer"`
	Data    []byte      `json:"data"`
}
