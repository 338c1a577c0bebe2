package testutil

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/gpl/internal/address"
	"github.com/roach88/gpl/internal/ir"
	"github.com/roach88/gpl/internal/lifecycle"
)

// RecordedEvent is an event as committed to the in-memory log.
type RecordedEvent struct {
	Seq   int64
	OpID  string
	Event ir.Event
}

// MemRuntime is an in-memory lifecycle.Runtime for tests.
//
// Each unit of work runs against a private copy of the accounts and a
// private event buffer; both are published only when the unit returns nil.
//
// Thread-safety: units of work are serialized by an internal mutex.
type MemRuntime struct {
	mu       sync.Mutex
	accounts map[ir.Address]ir.Account
	events   []RecordedEvent
	refunds  map[ir.Address]int
	seq      int64

	// FailAppend, when non-nil, is returned by every Append.
	FailAppend error
}

var _ lifecycle.Runtime = (*MemRuntime)(nil)

// NewMemRuntime creates an empty runtime.
func NewMemRuntime() *MemRuntime {
	return &MemRuntime{
		accounts: make(map[ir.Address]ir.Account),
		refunds:  make(map[ir.Address]int),
	}
}

// Atomically implements lifecycle.Runtime.
func (r *MemRuntime) Atomically(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memTx{
		rt:       r,
		accounts: maps.Clone(r.accounts),
		refunds:  make(map[ir.Address]int),
	}
	if err := fn(tx); err != nil {
		return err
	}

	r.accounts = tx.accounts
	for addr, n := range tx.refunds {
		r.refunds[addr] += n
	}
	for _, ev := range tx.events {
		r.seq++
		ev.Seq = r.seq
		r.events = append(r.events, ev)
	}
	return nil
}

// PutUser stores a user record at its derived address.
func (r *MemRuntime) PutUser(authority ir.Address, salt ir.Hash) (ir.Address, error) {
	addr, bump, err := address.UserAddress(salt)
	if err != nil {
		return ir.Address{}, err
	}
	data, err := ir.User{Authority: authority, RandomHash: salt, Bump: bump}.MarshalBinary()
	if err != nil {
		return ir.Address{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[addr]; ok {
		return ir.Address{}, ir.NewAddressError(ir.ErrCodeAddressAlreadyInUse, "user already exists", addr)
	}
	r.accounts[addr] = ir.Account{Address: addr, Kind: ir.AccountUser, Payer: authority, Data: data}
	return addr, nil
}

// PutAccount stores a raw account, bypassing every check. Used to build
// tampered or stale states.
func (r *MemRuntime) PutAccount(acct ir.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[acct.Address] = acct
}

// Account returns the committed account at addr.
func (r *MemRuntime) Account(addr ir.Address) (ir.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[addr]
	if ok {
		acct.Data = slices.Clone(acct.Data)
	}
	return acct, ok
}

// AccountCount returns the number of committed accounts.
func (r *MemRuntime) AccountCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

// Recorded returns every committed event in log order.
func (r *MemRuntime) Recorded() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Events returns the committed event values in log order.
func (r *MemRuntime) Events() []ir.Event {
	recorded := r.Recorded()
	out := make([]ir.Event, len(recorded))
	for i, rec := range recorded {
		out[i] = rec.Event
	}
	return out
}

// Refunded returns the bytes reclaimed to beneficiary so far.
func (r *MemRuntime) Refunded(beneficiary ir.Address) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refunds[beneficiary]
}

type memTx struct {
	rt       *MemRuntime
	accounts map[ir.Address]ir.Account
	events   []RecordedEvent
	refunds  map[ir.Address]int
}

func (tx *memTx) Load(_ context.Context, addr ir.Address) (ir.Account, error) {
	acct, ok := tx.accounts[addr]
	if !ok {
		return ir.Account{}, ir.NewAddressError(ir.ErrCodeAccountNotFound, "no account", addr)
	}
	acct.Data = slices.Clone(acct.Data)
	return acct, nil
}

func (tx *memTx) Allocate(_ context.Context, addr ir.Address, kind ir.AccountKind, size int, payer ir.Address) error {
	if _, ok := tx.accounts[addr]; ok {
		return ir.NewAddressError(ir.ErrCodeAddressAlreadyInUse, "account already allocated", addr)
	}
	tx.accounts[addr] = ir.Account{Address: addr, Kind: kind, Payer: payer, Data: make([]byte, size)}
	return nil
}

func (tx *memTx) Write(_ context.Context, addr ir.Address, data []byte) error {
	acct, ok := tx.accounts[addr]
	if !ok {
		return ir.NewAddressError(ir.ErrCodeAccountNotFound, "write to unallocated account", addr)
	}
	if len(data) != len(acct.Data) {
		return fmt.Errorf("write %d bytes into %d-byte account %s", len(data), len(acct.Data), addr.Short())
	}
	acct.Data = slices.Clone(data)
	tx.accounts[addr] = acct
	return nil
}

func (tx *memTx) Reclaim(_ context.Context, addr ir.Address, beneficiary ir.Address) (int, error) {
	acct, ok := tx.accounts[addr]
	if !ok {
		return 0, ir.NewAddressError(ir.ErrCodeAccountNotFound, "reclaim of unallocated account", addr)
	}
	delete(tx.accounts, addr)
	tx.refunds[beneficiary] += len(acct.Data)
	return len(acct.Data), nil
}

func (tx *memTx) Append(_ context.Context, opID string, ev ir.Event) error {
	if tx.rt.FailAppend != nil {
		return tx.rt.FailAppend
	}
	tx.events = append(tx.events, RecordedEvent{OpID: opID, Event: ev})
	return nil
}
