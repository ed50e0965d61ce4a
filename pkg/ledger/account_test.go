package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marate/pkg/ledger"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	ctx := context.Background()

	user, err := eng.Register(ctx, "  carol  ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)
	assert.False(t, user.Protected)

	p, err := eng.Authenticate(ctx, "carol", "secret1")
	require.NoError(t, err)
	assert.Equal(t, ledger.RoleUser, p.Role)

	_, err = eng.Authenticate(ctx, "carol", "wrong")
	assert.ErrorIs(t, err, ledger.ErrInvalidCredentials)
	_, err = eng.Authenticate(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ledger.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	ctx := context.Background()

	var verr *ledger.ValidationError
	_, err := eng.Register(ctx, "", "secret1")
	require.ErrorAs(t, err, &verr)
	_, err = eng.Register(ctx, "carol", "short")
	require.ErrorAs(t, err, &verr)

	_, err = eng.Register(ctx, "carol", "secret1")
	require.NoError(t, err)
	_, err = eng.Register(ctx, "carol", "secret2")
	var cerr *ledger.ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestChangeUsername(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	_, alice := seedPrincipals(t, eng)
	ctx := context.Background()

	// collision with an existing different user surfaces directly
	var cerr *ledger.ConflictError
	_, err := eng.ChangeUsername(ctx, alice, "admin")
	require.ErrorAs(t, err, &cerr)

	// renaming to your own current name is a no-op, not a conflict
	same, err := eng.ChangeUsername(ctx, alice, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", same.Username)

	renamed, err := eng.ChangeUsername(ctx, alice, "alicia")
	require.NoError(t, err)
	assert.Equal(t, "alicia", renamed.Username)
	assert.Equal(t, alice.UserID, renamed.UserID)

	// the new identity is immediately live
	_, err = eng.Authenticate(ctx, "alice", "password1")
	assert.ErrorIs(t, err, ledger.ErrInvalidCredentials)
	p, err := eng.Authenticate(ctx, "alicia", "password1")
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, p.UserID)
}

func TestChangePassword(t *testing.T) {
	eng, _ := newTestEngine(t, &fakeRenderer{})
	_, alice := seedPrincipals(t, eng)
	ctx := context.Background()

	var verr *ledger.ValidationError
	require.ErrorAs(t, eng.ChangePassword(ctx, alice, "wrong", "newpassword", "newpassword"), &verr)
	require.ErrorAs(t, eng.ChangePassword(ctx, alice, "password1", "tiny", "tiny"), &verr)
	require.ErrorAs(t, eng.ChangePassword(ctx, alice, "password1", "newpassword", "different"), &verr)

	require.NoError(t, eng.ChangePassword(ctx, alice, "password1", "newpassword", "newpassword"))
	_, err := eng.Authenticate(ctx, "alice", "password1")
	assert.ErrorIs(t, err, ledger.ErrInvalidCredentials)
	_, err = eng.Authenticate(ctx, "alice", "newpassword")
	require.NoError(t, err)
}

func TestSeedAdminIdempotent(t *testing.T) {
	eng, store := newTestEngine(t, &fakeRenderer{})
	ctx := context.Background()

	require.NoError(t, eng.SeedAdmin(ctx, "admin", "admin123"))
	require.NoError(t, eng.SeedAdmin(ctx, "admin", "otherpassword"))

	// the second seed must not rotate the existing credentials
	p, err := eng.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, ledger.RoleAdmin, p.Role)

	admin, err := store.UserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.Protected)
}
