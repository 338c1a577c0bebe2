package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/gpl/internal/ir"
	"github.com/roach88/gpl/internal/lifecycle"
)

var _ lifecycle.Runtime = (*Store)(nil)

// Atomically runs fn inside one transaction. The transaction commits only
// if fn returns nil.
func (s *Store) Atomically(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	return nil
}

// sqlTx implements lifecycle.Tx over a *sql.Tx.
type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Load(ctx context.Context, addr ir.Address) (ir.Account, error) {
	return loadAccount(ctx, t.tx, addr)
}

func (t *sqlTx) Allocate(ctx context.Context, addr ir.Address, kind ir.AccountKind, size int, payer ir.Address) error {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts (address, kind, payer, size, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(address) DO NOTHING
	`,
		addr.String(),
		string(kind),
		payer.String(),
		size,
		make([]byte, size),
	)
	if err != nil {
		return fmt.Errorf("allocate %s: %w", addr.Short(), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("allocate %s: rows affected: %w", addr.Short(), err)
	}
	if rowsAffected == 0 {
		return ir.NewAddressError(ir.ErrCodeAddressAlreadyInUse, "account already allocated", addr)
	}
	return nil
}

func (t *sqlTx) Write(ctx context.Context, addr ir.Address, data []byte) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE accounts SET data = ?
		WHERE address = ? AND size = ?
	`, data, addr.String(), len(data))
	if err != nil {
		return fmt.Errorf("write %s: %w", addr.Short(), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write %s: rows affected: %w", addr.Short(), err)
	}
	if rowsAffected == 0 {
		// Either the slot is missing or the layout size differs.
		if _, err := loadAccount(ctx, t.tx, addr); err != nil {
			return err
		}
		return fmt.Errorf("write %s: %d bytes do not match allocated size", addr.Short(), len(data))
	}
	return nil
}

func (t *sqlTx) Reclaim(ctx context.Context, addr ir.Address, beneficiary ir.Address) (int, error) {
	acct, err := loadAccount(ctx, t.tx, addr)
	if err != nil {
		return 0, err
	}

	if _, err := t.tx.ExecContext(ctx, `DELETE FROM accounts WHERE address = ?`, addr.String()); err != nil {
		return 0, fmt.Errorf("reclaim %s: delete: %w", addr.Short(), err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO reclaims (address, beneficiary, size)
		VALUES (?, ?, ?)
	`, addr.String(), beneficiary.String(), len(acct.Data))
	if err != nil {
		return 0, fmt.Errorf("reclaim %s: record refund: %w", addr.Short(), err)
	}

	return len(acct.Data), nil
}

func (t *sqlTx) Append(ctx context.Context, opID string, ev ir.Event) error {
	payload, err := ir.MarshalEvent(ev)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO events (op_id, kind, profile, payload)
		VALUES (?, ?, ?, ?)
	`, opID, string(ev.Kind()), eventProfile(ev).String(), string(payload))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func eventProfile(ev ir.Event) ir.Address {
	switch e := ev.(type) {
	case ir.ProfileCreated:
		return e.Profile
	case ir.ProfileDeleted:
		return e.Profile
	default:
		return ir.Address{}
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadAccount(ctx context.Context, q querier, addr ir.Address) (ir.Account, error) {
	var (
		kind, payer string
		data        []byte
	)
	err := q.QueryRowContext(ctx, `
		SELECT kind, payer, data FROM accounts WHERE address = ?
	`, addr.String()).Scan(&kind, &payer, &data)
	if err == sql.ErrNoRows {
		return ir.Account{}, ir.NewAddressError(ir.ErrCodeAccountNotFound, "no account", addr)
	}
	if err != nil {
		return ir.Account{}, fmt.Errorf("load %s: %w", addr.Short(), err)
	}

	payerAddr, err := ir.ParseAddress(payer)
	if err != nil {
		return ir.Account{}, fmt.Errorf("load %s: %w", addr.Short(), err)
	}
	return ir.Account{
		Address: addr,
		Kind:    ir.AccountKind(kind),
		Payer:   payerAddr,
		Data:    data,
	}, nil
}
