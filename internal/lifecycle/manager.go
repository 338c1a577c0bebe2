package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/gpl/internal/address"
	"github.com/roach88/gpl/internal/authz"
	"github.com/roach88/gpl/internal/credential"
	"github.com/roach88/gpl/internal/ir"
)

// Manager orchestrates profile create and delete.
//
// Manager holds no mutable state; it is safe for concurrent use as long
// as the Runtime is.
type Manager struct {
	runtime  Runtime
	verifier credential.Verifier
	clock    Clock
	opIDs    OpIDGenerator
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithVerifier overrides the signer verifier (default SchnorrVerifier).
func WithVerifier(v credential.Verifier) Option {
	return func(m *Manager) { m.verifier = v }
}

// WithClock overrides the timestamp source (default SystemClock).
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithOpIDGenerator overrides the operation id source (default UUIDv7).
func WithOpIDGenerator(g OpIDGenerator) Option {
	return func(m *Manager) { m.opIDs = g }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager over the given runtime.
func NewManager(rt Runtime, opts ...Option) *Manager {
	m := &Manager{
		runtime:  rt,
		verifier: credential.SchnorrVerifier{},
		clock:    SystemClock{},
		opIDs:    UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateResult describes a newly active profile.
type CreateResult struct {
	OpID    string            `json:"op_id"`
	Address ir.Address        `json:"address"`
	Profile ir.Profile        `json:"profile"`
	Event   ir.ProfileCreated `json:"event"`
}

// DeleteResult describes a destroyed profile.
type DeleteResult struct {
	OpID    string            `json:"op_id"`
	Address ir.Address        `json:"address"`
	Profile ir.Profile        `json:"profile"`
	Event   ir.ProfileDeleted `json:"event"`

	// Reclaimed is the number of storage bytes returned to the authority.
	Reclaimed int `json:"reclaimed"`
}

// Create allocates the profile for (req.Namespace, req.User) on behalf of
// caller and emits ProfileCreated.
func (m *Manager) Create(ctx context.Context, req CreateRequest, caller credential.Caller) (CreateResult, error) {
	opID := m.opIDs.Generate()
	log := m.logger.With("op_id", opID, "op", "create_profile", "user", req.User.Short())

	res, err := m.create(ctx, opID, req, caller)
	if err != nil {
		m.logRejection(ctx, log, err)
		return CreateResult{}, fmt.Errorf("create profile: %w", err)
	}

	log.InfoContext(ctx, "profile created",
		"profile", res.Address.Short(),
		"namespace", res.Profile.Namespace.String(),
		"bump", res.Profile.Bump,
	)
	return res, nil
}

func (m *Manager) create(ctx context.Context, opID string, req CreateRequest, caller credential.Caller) (CreateResult, error) {
	msg, err := req.Message()
	if err != nil {
		return CreateResult{}, err
	}
	if err := m.verifier.VerifySigner(caller, msg); err != nil {
		return CreateResult{}, err
	}

	addr, bump, err := address.ProfileAddress(req.Namespace, req.User)
	if err != nil {
		return CreateResult{}, err
	}

	profile := ir.Profile{Namespace: req.Namespace, Bump: bump, User: req.User}
	data, err := profile.MarshalBinary()
	if err != nil {
		return CreateResult{}, err
	}

	var ev ir.ProfileCreated
	err = m.runtime.Atomically(ctx, func(tx Tx) error {
		if _, err := tx.Load(ctx, addr); err == nil {
			return ir.NewAddressError(ir.ErrCodeAddressAlreadyInUse, "profile already exists", addr)
		} else if !ir.IsCode(err, ir.ErrCodeAccountNotFound) {
			return err
		}

		user, err := loadUser(ctx, tx, req.User)
		if err != nil {
			return err
		}
		if err := authz.AuthorizeCreate(req.Namespace, req.User, user, caller.Authority); err != nil {
			return err
		}

		if err := tx.Allocate(ctx, addr, ir.AccountProfile, ir.ProfileLen, caller.Authority); err != nil {
			return err
		}
		if err := tx.Write(ctx, addr, data); err != nil {
			return err
		}

		ev = ir.ProfileCreated{
			Profile:   addr,
			Bump:      bump,
			Namespace: req.Namespace,
			User:      req.User,
			Timestamp: m.clock.Now(),
		}
		return tx.Append(ctx, opID, ev)
	})
	if err != nil {
		return CreateResult{}, err
	}

	return CreateResult{OpID: opID, Address: addr, Profile: profile, Event: ev}, nil
}

// Delete destroys the profile at req.Profile on behalf of caller, emits
// ProfileDeleted, and reclaims the storage to the caller's authority.
func (m *Manager) Delete(ctx context.Context, req DeleteRequest, caller credential.Caller) (DeleteResult, error) {
	opID := m.opIDs.Generate()
	log := m.logger.With("op_id", opID, "op", "delete_profile",
		"profile", req.Profile.Short(), "user", req.User.Short())

	res, err := m.delete(ctx, opID, req, caller)
	if err != nil {
		m.logRejection(ctx, log, err)
		return DeleteResult{}, fmt.Errorf("delete profile: %w", err)
	}

	log.InfoContext(ctx, "profile deleted",
		"namespace", res.Profile.Namespace.String(),
		"reclaimed", res.Reclaimed,
	)
	return res, nil
}

func (m *Manager) delete(ctx context.Context, opID string, req DeleteRequest, caller credential.Caller) (DeleteResult, error) {
	msg, err := req.Message()
	if err != nil {
		return DeleteResult{}, err
	}
	if err := m.verifier.VerifySigner(caller, msg); err != nil {
		return DeleteResult{}, err
	}

	var (
		profile   ir.Profile
		ev        ir.ProfileDeleted
		reclaimed int
	)
	err = m.runtime.Atomically(ctx, func(tx Tx) error {
		var err error
		profile, err = loadProfile(ctx, tx, req.Profile)
		if err != nil {
			return err
		}

		// The slot must be the one derived from the record's own fields.
		// Whether that user is the supplied one is the gate's question.
		if !address.VerifyProfile(req.Profile, profile, profile.User) {
			return ir.NewAddressError(ir.ErrCodeInvalidProfileAddress,
				"profile record does not derive to supplied address", req.Profile)
		}

		user, err := loadUser(ctx, tx, req.User)
		if err != nil {
			return err
		}
		if err := authz.AuthorizeDelete(profile, req.User, user, caller.Authority); err != nil {
			return err
		}

		ev = ir.ProfileDeleted{
			Profile:   req.Profile,
			Namespace: profile.Namespace,
			User:      req.User,
			Timestamp: m.clock.Now(),
		}
		if err := tx.Append(ctx, opID, ev); err != nil {
			return err
		}

		reclaimed, err = tx.Reclaim(ctx, req.Profile, caller.Authority)
		return err
	})
	if err != nil {
		return DeleteResult{}, err
	}

	return DeleteResult{
		OpID:      opID,
		Address:   req.Profile,
		Profile:   profile,
		Event:     ev,
		Reclaimed: reclaimed,
	}, nil
}

func (m *Manager) logRejection(ctx context.Context, log *slog.Logger, err error) {
	if code := ir.CodeOf(err); code != "" {
		log.WarnContext(ctx, "operation rejected", "code", string(code), "error", err)
		return
	}
	log.ErrorContext(ctx, "operation failed", "error", err)
}

func loadUser(ctx context.Context, tx Tx, addr ir.Address) (ir.User, error) {
	acct, err := tx.Load(ctx, addr)
	if err != nil {
		return ir.User{}, err
	}
	if acct.Kind != ir.AccountUser {
		return ir.User{}, ir.NewAddressError(ir.ErrCodeInvalidUserAddress,
			fmt.Sprintf("account holds a %s, not a user", acct.Kind), addr)
	}
	var user ir.User
	if err := user.UnmarshalBinary(acct.Data); err != nil {
		return ir.User{}, fmt.Errorf("decode user %s: %w", addr.Short(), err)
	}
	return user, nil
}

func loadProfile(ctx context.Context, tx Tx, addr ir.Address) (ir.Profile, error) {
	acct, err := tx.Load(ctx, addr)
	if err != nil {
		return ir.Profile{}, err
	}
	if acct.Kind != ir.AccountProfile {
		return ir.Profile{}, ir.NewAddressError(ir.ErrCodeInvalidProfileAddress,
			fmt.Sprintf("account holds a %s, not a profile", acct.Kind), addr)
	}
	// A record that does not decode cannot derive to any address.
	var profile ir.Profile
	if err := profile.UnmarshalBinary(acct.Data); err != nil {
		return ir.Profile{}, ir.NewAddressError(ir.ErrCodeInvalidProfileAddress,
			fmt.Sprintf("corrupt profile record: %v", err), addr)
	}
	return profile, nil
}
