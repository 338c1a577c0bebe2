package lifecycle_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gpl/internal/address"
	"github.com/roach88/gpl/internal/credential"
	"github.com/roach88/gpl/internal/ir"
	"github.com/roach88/gpl/internal/lifecycle"
	"github.com/roach88/gpl/internal/testutil"
)

const baseTime = int64(1_700_000_000)

type env struct {
	rt    *testutil.MemRuntime
	mgr   *lifecycle.Manager
	owner *credential.Keypair
	user  ir.Address
}

func newEnv(t *testing.T) *env {
	t.Helper()
	rt := testutil.NewMemRuntime()
	owner := testutil.Keypair(0x01)
	user, err := rt.PutUser(owner.Address(), testutil.Salt(1))
	require.NoError(t, err)

	mgr := lifecycle.NewManager(rt,
		lifecycle.WithClock(testutil.NewFixedClock(baseTime, 1)),
		lifecycle.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return &env{rt: rt, mgr: mgr, owner: owner, user: user}
}

func (e *env) create(t *testing.T, ns ir.Namespace, signer *credential.Keypair) (lifecycle.CreateResult, error) {
	t.Helper()
	req := lifecycle.CreateRequest{Namespace: ns, User: e.user}
	return e.mgr.Create(context.Background(), req, testutil.Sign(signer, req))
}

func (e *env) delete(t *testing.T, profile, user ir.Address, signer *credential.Keypair) (lifecycle.DeleteResult, error) {
	t.Helper()
	req := lifecycle.DeleteRequest{Profile: profile, User: user}
	return e.mgr.Delete(context.Background(), req, testutil.Sign(signer, req))
}

func TestCreateProfile(t *testing.T) {
	e := newEnv(t)

	res, err := e.create(t, ir.NamespacePersonal, e.owner)
	require.NoError(t, err)

	wantAddr, wantBump, err := address.ProfileAddress(ir.NamespacePersonal, e.user)
	require.NoError(t, err)
	assert.Equal(t, wantAddr, res.Address)
	assert.Equal(t, ir.Profile{Namespace: ir.NamespacePersonal, Bump: wantBump, User: e.user}, res.Profile)
	assert.NotEmpty(t, res.OpID)

	acct, ok := e.rt.Account(res.Address)
	require.True(t, ok)
	assert.Equal(t, ir.AccountProfile, acct.Kind)
	assert.Equal(t, e.owner.Address(), acct.Payer, "authority pays for the slot")
	require.Len(t, acct.Data, ir.ProfileLen)

	var stored ir.Profile
	require.NoError(t, stored.UnmarshalBinary(acct.Data))
	assert.Equal(t, res.Profile, stored)

	recorded := e.rt.Recorded()
	require.Len(t, recorded, 1, "exactly one event per create")
	assert.Equal(t, res.OpID, recorded[0].OpID)
	assert.Equal(t, ir.ProfileCreated{
		Profile:   wantAddr,
		Bump:      wantBump,
		Namespace: ir.NamespacePersonal,
		User:      e.user,
		Timestamp: baseTime,
	}, recorded[0].Event)
	assert.Equal(t, res.Event, recorded[0].Event)
}

func TestCreateTwiceFailsAddressInUse(t *testing.T) {
	e := newEnv(t)

	first, err := e.create(t, ir.NamespacePersonal, e.owner)
	require.NoError(t, err)
	before, _ := e.rt.Account(first.Address)

	_, err = e.create(t, ir.NamespacePersonal, e.owner)
	require.Error(t, err)
	assert.ErrorIs(t, err, ir.ErrAddressAlreadyInUse)

	after, ok := e.rt.Account(first.Address)
	require.True(t, ok)
	assert.Equal(t, before, after, "original record must be unchanged")
	assert.Len(t, e.rt.Events(), 1, "failed create emits no event")
}

func TestCreateEachNamespaceGetsOwnSlot(t *testing.T) {
	e := newEnv(t)

	seen := make(map[ir.Address]bool)
	for _, ns := range ir.Namespaces() {
		res, err := e.create(t, ns, e.owner)
		require.NoError(t, err, ns.String())
		assert.False(t, seen[res.Address])
		seen[res.Address] = true
	}
	assert.Len(t, e.rt.Events(), len(ir.Namespaces()))
}

func TestCreateUnauthorized(t *testing.T) {
	e := newEnv(t)
	intruder := testutil.Keypair(0x02)

	_, err := e.create(t, ir.NamespacePersonal, intruder)
	require.Error(t, err)
	assert.ErrorIs(t, err, ir.ErrUnauthorized)

	assert.Equal(t, 1, e.rt.AccountCount(), "only the user account exists")
	assert.Empty(t, e.rt.Events())
}

func TestCreateForgedSignature(t *testing.T) {
	e := newEnv(t)
	intruder := testutil.Keypair(0x02)

	req := lifecycle.CreateRequest{Namespace: ir.NamespacePersonal, User: e.user}
	caller := testutil.Sign(intruder, req)
	caller.Authority = e.owner.Address()

	_, err := e.mgr.Create(context.Background(), req, caller)
	assert.ErrorIs(t, err, ir.ErrSignatureInvalid)
	assert.Equal(t, 1, e.rt.AccountCount())
	assert.Empty(t, e.rt.Events())
}

func TestCreateInvalidNamespace(t *testing.T) {
	e := newEnv(t)

	req := lifecycle.CreateRequest{Namespace: ir.Namespace(9), User: e.user}
	_, err := e.mgr.Create(context.Background(), req, credential.Caller{Authority: e.owner.Address()})
	assert.ErrorIs(t, err, ir.ErrInvalidNamespace)
	assert.Equal(t, 1, e.rt.AccountCount())
	assert.Empty(t, e.rt.Events())
}

func TestCreateUnknownUser(t *testing.T) {
	e := newEnv(t)
	missing, _, err := address.UserAddress(testutil.Salt(99))
	require.NoError(t, err)

	req := lifecycle.CreateRequest{Namespace: ir.NamespaceGaming, User: missing}
	_, err = e.mgr.Create(context.Background(), req, testutil.Sign(e.owner, req))
	assert.ErrorIs(t, err, ir.ErrAccountNotFound)
	assert.Empty(t, e.rt.Events())
}

func TestCreateUserAddressMismatch(t *testing.T) {
	e := newEnv(t)
	orig, ok := e.rt.Account(e.user)
	require.True(t, ok)

	// Same user bytes stored at an address they do not derive to.
	fake, _, err := address.UserAddress(testutil.Salt(42))
	require.NoError(t, err)
	e.rt.PutAccount(ir.Account{Address: fake, Kind: ir.AccountUser, Payer: orig.Payer, Data: orig.Data})

	req := lifecycle.CreateRequest{Namespace: ir.NamespaceGaming, User: fake}
	_, err = e.mgr.Create(context.Background(), req, testutil.Sign(e.owner, req))
	assert.ErrorIs(t, err, ir.ErrInvalidUserAddress)
	assert.Empty(t, e.rt.Events())
}

func TestCreateRejectsProfileAsUser(t *testing.T) {
	e := newEnv(t)
	res, err := e.create(t, ir.NamespacePersonal, e.owner)
	require.NoError(t, err)

	req := lifecycle.CreateRequest{Namespace: ir.NamespaceGaming, User: res.Address}
	_, err = e.mgr.Create(context.Background(), req, testutil.Sign(e.owner, req))
	assert.ErrorIs(t, err, ir.ErrInvalidUserAddress)
}

func TestDeleteProfile(t *testing.T) {
	e := newEnv(t)
	created, err := e.create(t, ir.NamespaceDegen, e.owner)
	require.NoError(t, err)

	res, err := e.delete(t, created.Address, e.user, e.owner)
	require.NoError(t, err)
	assert.Equal(t, created.Address, res.Address)
	assert.Equal(t, ir.ProfileLen, res.Reclaimed)
	assert.Equal(t, ir.ProfileLen, e.rt.Refunded(e.owner.Address()), "storage returns to the authority")

	_, ok := e.rt.Account(created.Address)
	assert.False(t, ok, "record must be gone")

	events := e.rt.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ir.ProfileDeleted{
		Profile:   created.Address,
		Namespace: ir.NamespaceDegen,
		User:      e.user,
		Timestamp: baseTime + 1,
	}, events[1])
	assert.Equal(t, res.Event, events[1])
}

func TestDeleteUnauthorized(t *testing.T) {
	e := newEnv(t)
	created, err := e.create(t, ir.NamespaceDegen, e.owner)
	require.NoError(t, err)

	_, err = e.delete(t, created.Address, e.user, testutil.Keypair(0x02))
	assert.ErrorIs(t, err, ir.ErrUnauthorized)

	_, ok := e.rt.Account(created.Address)
	assert.True(t, ok, "record must survive")
	assert.Len(t, e.rt.Events(), 1)
}

func TestDeleteProfileUserMismatch(t *testing.T) {
	e := newEnv(t)
	otherUser, err := e.rt.PutUser(e.owner.Address(), testutil.Salt(2))
	require.NoError(t, err)

	created, err := e.create(t, ir.NamespacePersonal, e.owner)
	require.NoError(t, err)

	_, err = e.delete(t, created.Address, otherUser, e.owner)
	assert.ErrorIs(t, err, ir.ErrProfileUserMismatch)

	_, ok := e.rt.Account(created.Address)
	assert.True(t, ok)
	assert.Len(t, e.rt.Events(), 1)
}

func TestDeleteInvalidProfileAddress(t *testing.T) {
	e := newEnv(t)
	created, err := e.create(t, ir.NamespacePersonal, e.owner)
	require.NoError(t, err)
	acct, _ := e.rt.Account(created.Address)

	// Copy the personal profile into the gaming slot.
	gamingAddr, _, err := address.ProfileAddress(ir.NamespaceGaming, e.user)
	require.NoError(t, err)
	acct.Address = gamingAddr
	e.rt.PutAccount(acct)

	_, err = e.delete(t, gamingAddr, e.user, e.owner)
	assert.ErrorIs(t, err, ir.ErrInvalidProfileAddress)
	assert.Len(t, e.rt.Events(), 1)
}

func TestDeleteRejectsUserAsProfile(t *testing.T) {
	e := newEnv(t)
	_, err := e.delete(t, e.user, e.user, e.owner)
	assert.ErrorIs(t, err, ir.ErrInvalidProfileAddress)
}

func TestDeleteCorruptProfileRecord(t *testing.T) {
	e := newEnv(t)
	created, err := e.create(t, ir.NamespacePersonal, e.owner)
	require.NoError(t, err)
	acct, _ := e.rt.Account(created.Address)

	acct.Data = append([]byte(nil), acct.Data...)
	acct.Data[0] = 9
	e.rt.PutAccount(acct)

	_, err = e.delete(t, created.Address, e.user, e.owner)
	assert.ErrorIs(t, err, ir.ErrInvalidProfileAddress)
	assert.False(t, ir.IsCode(err, ir.ErrCodeInvalidNamespace))
	_, ok := e.rt.Account(created.Address)
	assert.True(t, ok)
	assert.Len(t, e.rt.Events(), 1)
}

func TestDeleteChecksAddressBeforeUser(t *testing.T) {
	e := newEnv(t)
	missing := ir.Address{0x42}

	// A profile claiming a user that was never stored, parked in a slot
	// it does not derive to.
	slot := ir.Address{0xaa}
	data, err := ir.Profile{Namespace: ir.NamespaceDegen, Bump: 0, User: missing}.MarshalBinary()
	require.NoError(t, err)
	e.rt.PutAccount(ir.Account{Address: slot, Kind: ir.AccountProfile, Payer: e.owner.Address(), Data: data})

	_, err = e.delete(t, slot, missing, e.owner)
	assert.ErrorIs(t, err, ir.ErrInvalidProfileAddress)
	assert.Empty(t, e.rt.Events())
}

func TestDeleteMissingProfile(t *testing.T) {
	e := newEnv(t)
	addr, _, err := address.ProfileAddress(ir.NamespacePersonal, e.user)
	require.NoError(t, err)

	_, err = e.delete(t, addr, e.user, e.owner)
	assert.ErrorIs(t, err, ir.ErrAccountNotFound)
	assert.Empty(t, e.rt.Events())
}

func TestRecreateAfterDelete(t *testing.T) {
	e := newEnv(t)
	first, err := e.create(t, ir.NamespacePersonal, e.owner)
	require.NoError(t, err)
	_, err = e.delete(t, first.Address, e.user, e.owner)
	require.NoError(t, err)

	second, err := e.create(t, ir.NamespacePersonal, e.owner)
	require.NoError(t, err)
	assert.Equal(t, first.Address, second.Address, "same inputs yield same address")
	assert.Equal(t, first.Profile.Bump, second.Profile.Bump, "same inputs yield same index")

	events := e.rt.Events()
	require.Len(t, events, 3)
	assert.Equal(t, ir.KindProfileCreated, events[0].Kind())
	assert.Equal(t, ir.KindProfileDeleted, events[1].Kind())
	assert.Equal(t, ir.KindProfileCreated, events[2].Kind())
}

func TestSinkFailureRollsBack(t *testing.T) {
	e := newEnv(t)
	created, err := e.create(t, ir.NamespacePersonal, e.owner)
	require.NoError(t, err)

	sinkDown := errors.New("sink down")
	e.rt.FailAppend = sinkDown

	_, err = e.create(t, ir.NamespaceGaming, e.owner)
	assert.ErrorIs(t, err, sinkDown)
	gamingAddr, _, _ := address.ProfileAddress(ir.NamespaceGaming, e.user)
	_, ok := e.rt.Account(gamingAddr)
	assert.False(t, ok, "create must not allocate when the event cannot be appended")

	_, err = e.delete(t, created.Address, e.user, e.owner)
	assert.ErrorIs(t, err, sinkDown)
	_, ok = e.rt.Account(created.Address)
	assert.True(t, ok, "delete must not reclaim when the event cannot be appended")
	assert.Equal(t, 0, e.rt.Refunded(e.owner.Address()))

	assert.Len(t, e.rt.Events(), 1)
}

func TestConcurrentCreatesAtMostOneSucceeds(t *testing.T) {
	e := newEnv(t)
	req := lifecycle.CreateRequest{Namespace: ir.NamespaceProfessional, User: e.user}
	caller := testutil.Sign(e.owner, req)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		inUse     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.mgr.Create(context.Background(), req, caller)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if ir.IsCode(err, ir.ErrCodeAddressAlreadyInUse) {
				inUse++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, inUse)
	assert.Len(t, e.rt.Events(), 1)
}

func TestCreateCanceledContext(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := lifecycle.CreateRequest{Namespace: ir.NamespacePersonal, User: e.user}
	_, err := e.mgr.Create(ctx, req, testutil.Sign(e.owner, req))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, e.rt.Events())
}

func TestRequestMessagesAreCanonical(t *testing.T) {
	user := ir.Address{0x01}
	msg, err := lifecycle.CreateRequest{Namespace: ir.NamespaceGaming, User: user, Nonce: "n1"}.Message()
	require.NoError(t, err)
	assert.Equal(t,
		`{"namespace":"gaming","nonce":"n1","op":"create_profile","user":"`+user.String()+`"}`,
		string(msg))

	msg, err = lifecycle.DeleteRequest{Profile: user, User: user}.Message()
	require.NoError(t, err)
	assert.Equal(t,
		`{"nonce":"","op":"delete_profile","profile":"`+user.String()+`","user":"`+user.String()+`"}`,
		string(msg))
}
