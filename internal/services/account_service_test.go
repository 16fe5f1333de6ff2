package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bookstore/internal/domain"
	"bookstore/internal/repos"
	"bookstore/internal/services"
	"bookstore/internal/token"
	"bookstore/internal/validate"
)

func newAccounts(t *testing.T) (*services.AuthService, *services.UserService, *services.TransactionService) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	users := repos.NewUserRepo(db)
	txs := repos.NewTransactionRepo(db)
	auth := services.NewAuthService(users, token.NewIssuer("test-secret", time.Hour))
	return auth, services.NewUserService(users, txs),
		services.NewTransactionService(txs, repos.NewBookRepo(db), repos.NewInventoryRepo(db))
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	auth, _, _ := newAccounts(t)
	ctx := context.Background()

	u, err := auth.Register(ctx, services.RegisterInput{
		Email: "Carol@Example.com", Password: "Sup3r$ecret", FullName: "Carol",
	})
	require.NoError(t, err)
	require.Equal(t, "carol@example.com", u.Email)
	require.Equal(t, domain.RoleUser, u.Role)
	require.True(t, u.Active)

	_, err = auth.Register(ctx, services.RegisterInput{
		Email: "carol@example.com", Password: "Sup3r$ecret", FullName: "Carol 2",
	})
	require.ErrorIs(t, err, services.ErrEmailTaken)

	_, err = auth.Login(ctx, "carol@example.com", "wrong")
	require.ErrorIs(t, err, services.ErrBadCreds)
	_, err = auth.Login(ctx, "nobody@example.com", "Sup3r$ecret")
	require.ErrorIs(t, err, services.ErrBadCreds)

	sess, err := auth.Login(ctx, "CAROL@example.com", "Sup3r$ecret")
	require.NoError(t, err)
	require.Equal(t, "bearer", sess.TokenType)

	got, err := auth.Authenticate(ctx, "Bearer "+sess.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = auth.Authenticate(ctx, "Bearer garbage")
	require.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	auth, _, _ := newAccounts(t)
	_, err := auth.Register(context.Background(), services.RegisterInput{Email: "bad", Password: "weak"})
	var verr validate.Errors
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr, "email")
	require.Contains(t, verr, "password")
	require.Contains(t, verr, "full_name")
}

func TestDeactivatedUserCannotLogin(t *testing.T) {
	auth, users, _ := newAccounts(t)
	ctx := context.Background()

	sess, err := auth.Login(ctx, "bob@bookstore.test", "Passw0rd!")
	require.NoError(t, err)

	_, err = users.SetActive(ctx, "u-admin", "u-bob", false)
	require.NoError(t, err)

	_, err = auth.Login(ctx, "bob@bookstore.test", "Passw0rd!")
	require.ErrorIs(t, err, services.ErrInactive)
	_, err = auth.Authenticate(ctx, sess.Token)
	require.ErrorIs(t, err, services.ErrInactive, "existing tokens stop working")

	_, err = users.SetActive(ctx, "u-admin", "u-admin", false)
	require.ErrorIs(t, err, services.ErrForbidden, "admins cannot lock themselves out")
}

func TestProfileAndPassword(t *testing.T) {
	auth, users, _ := newAccounts(t)
	ctx := context.Background()

	u, err := users.UpdateProfile(ctx, "u-alice", services.ProfileInput{FullName: " Alice R. ", Phone: "555-0100"})
	require.NoError(t, err)
	require.Equal(t, "Alice R.", u.FullName)
	require.Equal(t, "555-0100", u.Phone)

	err = users.ChangePassword(ctx, "u-alice", services.PasswordInput{Current: "nope", New: "N3w$ecret"})
	require.ErrorIs(t, err, services.ErrBadCreds)

	require.NoError(t, users.ChangePassword(ctx, "u-alice", services.PasswordInput{Current: "Passw0rd!", New: "N3w$ecret"}))
	_, err = auth.Login(ctx, "alice@bookstore.test", "N3w$ecret")
	require.NoError(t, err)
}

func TestDeleteUserWithOpenTransaction(t *testing.T) {
	_, users, txs := newAccounts(t)
	ctx := context.Background()
	admin, err := users.Get(ctx, "u-admin")
	require.NoError(t, err)

	tx, err := txs.Create(ctx, "u-bob", buy(item("bk-dune", 1)))
	require.NoError(t, err)

	require.ErrorIs(t, users.Delete(ctx, "u-admin", "u-bob"), services.ErrUserHasOpen)

	_, err = txs.Cancel(ctx, admin, tx.ID, "")
	require.NoError(t, err)
	require.NoError(t, users.Delete(ctx, "u-admin", "u-bob"))

	_, err = users.Get(ctx, "u-bob")
	require.ErrorIs(t, err, services.ErrNotFound)
	require.ErrorIs(t, users.Delete(ctx, "u-admin", "u-admin"), services.ErrForbidden)
}

func TestListUsersFilter(t *testing.T) {
	_, users, _ := newAccounts(t)
	ctx := context.Background()

	all, err := users.List(ctx, nil, 0, 50)
	require.NoError(t, err)
	require.Len(t, all, 3)

	_, err = users.SetActive(ctx, "u-admin", "u-bob", false)
	require.NoError(t, err)
	active := true
	list, err := users.List(ctx, &active, 0, 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestAdminUpdateAccount(t *testing.T) {
	_, users, _ := newAccounts(t)
	ctx := context.Background()

	name, role := " Robert ", "admin"
	u, err := users.UpdateAccount(ctx, "u-admin", "u-bob", services.AccountPatch{FullName: &name, Role: &role})
	require.NoError(t, err)
	require.Equal(t, "Robert", u.FullName)
	require.Equal(t, domain.RoleAdmin, u.Role)
	require.True(t, u.Active)

	off := false
	u, err = users.UpdateAccount(ctx, "u-admin", "u-bob", services.AccountPatch{IsActive: &off})
	require.NoError(t, err)
	require.False(t, u.Active)
	require.Equal(t, "Robert", u.FullName)

	bad := "OWNER"
	_, err = users.UpdateAccount(ctx, "u-admin", "u-alice", services.AccountPatch{Role: &bad})
	var verr validate.Errors
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr, "role")

	blank := "  "
	_, err = users.UpdateAccount(ctx, "u-admin", "u-alice", services.AccountPatch{FullName: &blank})
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr, "full_name")

	demote := domain.RoleUser
	_, err = users.UpdateAccount(ctx, "u-admin", "u-admin", services.AccountPatch{Role: &demote})
	require.ErrorIs(t, err, services.ErrForbidden)
	_, err = users.UpdateAccount(ctx, "u-admin", "u-admin", services.AccountPatch{IsActive: &off})
	require.ErrorIs(t, err, services.ErrForbidden)
	phone := "555-0199"
	u, err = users.UpdateAccount(ctx, "u-admin", "u-admin", services.AccountPatch{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, "555-0199", u.Phone)

	_, err = users.UpdateAccount(ctx, "u-admin", "u-nobody", services.AccountPatch{Phone: &phone})
	require.ErrorIs(t, err, services.ErrNotFound)
}
