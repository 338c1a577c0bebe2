package lifecycle

import (
	"context"

	"github.com/roach88/gpl/internal/ir"
)

// Runtime is the storage collaborator. It persists accounts, enforces
// address uniqueness, and appends events.
type Runtime interface {
	// Atomically runs fn as one unit of work. If fn returns an error every
	// write made through tx is discarded, events included.
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the view of storage inside a unit of work.
//
// Load returns an *ir.Error with ErrCodeAccountNotFound for an empty slot.
// Allocate returns an *ir.Error with ErrCodeAddressAlreadyInUse for an
// occupied slot.
type Tx interface {
	Load(ctx context.Context, addr ir.Address) (ir.Account, error)
	Allocate(ctx context.Context, addr ir.Address, kind ir.AccountKind, size int, payer ir.Address) error
	Write(ctx context.Context, addr ir.Address, data []byte) error

	// Reclaim zeroes and frees the slot, crediting its deposit to
	// beneficiary. Returns the number of bytes released.
	Reclaim(ctx context.Context, addr ir.Address, beneficiary ir.Address) (int, error)

	EventSink
}

// EventSink is the append-only event log. The core never reads it.
type EventSink interface {
	Append(ctx context.Context, opID string, ev ir.Event) error
}
