package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"my-blog/pkg/common/config"
	"my-blog/pkg/common/database/dbtest"
	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/common/metrics"
	"my-blog/pkg/core/auth/password"
	"my-blog/pkg/core/auth/token"
	userdao "my-blog/pkg/core/user/repository/dao/impl"
	"my-blog/pkg/core/user/service"
)

type fixture struct {
	users   *service.UserService
	repo    *userdao.GormUserRepository
	tokens  *token.Service
	metrics *metrics.Metrics
}

func setup(t *testing.T) fixture {
	t.Helper()

	db := dbtest.New(t)
	repo := userdao.NewGormUserRepository(db.Gorm())

	hasher, err := password.NewBcryptHasher(bcrypt.MinCost, 2)
	require.NoError(t, err)

	tokens, err := token.NewService(config.JWTAuthConfig{
		Secret:         "user-service-secret",
		ExpireDuration: time.Hour,
		Issuer:         "my-blog",
		SigningMethod:  "HS256",
	})
	require.NoError(t, err)

	m := metrics.New()
	users, err := service.NewUserService(repo, hasher, tokens, m)
	require.NoError(t, err)

	return fixture{users: users, repo: repo, tokens: tokens, metrics: m}
}

func TestNewUserService_RequiresDependencies(t *testing.T) {
	hasher, err := password.NewBcryptHasher(bcrypt.MinCost, 1)
	require.NoError(t, err)

	_, err = service.NewUserService(nil, hasher, nil, nil)
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	user, err := f.users.Register(ctx, service.RegisterInput{
		Username: "  ann ",
		Email:    " Ann@X.com",
		Password: "pw1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ann", user.Username)
	assert.Equal(t, "ann@x.com", user.Email)
	assert.Empty(t, user.PasswordHash, "hash must never leave the service")

	stored, err := f.repo.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw1")))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthEventCounter("register", "success")))

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.users.Register(ctx, service.RegisterInput{
			Username: "ann2",
			Email:    "ANN@x.com",
			Password: "pw2",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateEntry)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthEventCounter("register", "duplicate_email")))
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, in := range []service.RegisterInput{
			{Username: " ", Email: "x@x.com", Password: "pw"},
			{Username: "x", Email: "", Password: "pw"},
			{Username: "x", Email: "y@x.com", Password: ""},
		} {
			_, err := f.users.Register(ctx, in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	registered, err := f.users.Register(ctx, service.RegisterInput{Username: "ann", Email: "ann@x.com", Password: "pw1"})
	require.NoError(t, err)

	t.Run("success issues a token for the user", func(t *testing.T) {
		result, err := f.users.Login(ctx, service.LoginInput{Email: "ANN@x.com ", Password: "pw1"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.True(t, result.ExpiresAt.After(time.Now()))
		assert.Equal(t, registered.ID, result.User.ID)
		assert.Empty(t, result.User.PasswordHash)

		identity, err := f.tokens.Verify(result.Token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, identity.SubjectID)
		assert.Equal(t, "ann@x.com", identity.SubjectEmail)
	})

	t.Run("wrong password", func(t *testing.T) {
		result, err := f.users.Login(ctx, service.LoginInput{Email: "ann@x.com", Password: "nope"})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		assert.Empty(t, result.Token)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthEventCounter("login", "invalid_credentials")))
	})

	t.Run("unknown email", func(t *testing.T) {
		result, err := f.users.Login(ctx, service.LoginInput{Email: "nobody@x.com", Password: "pw1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		assert.Empty(t, result.Token)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthEventCounter("login", "not_found")))
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthEventCounter("login", "success")))
}

func TestLogin_PasswordLongerThanBcryptLimit(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	pw := strings.Repeat("a", password.MaxPasswordBytes)
	_, err := f.users.Register(ctx, service.RegisterInput{Username: "ann", Email: "ann@x.com", Password: pw})
	require.NoError(t, err)

	result, err := f.users.Login(ctx, service.LoginInput{Email: "ann@x.com", Password: pw + "-not-my-password"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.Empty(t, result.Token)

	result, err = f.users.Login(ctx, service.LoginInput{Email: "ann@x.com", Password: pw})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	registered, err := f.users.Register(ctx, service.RegisterInput{Username: "ann", Email: "ann@x.com", Password: "pw1"})
	require.NoError(t, err)

	me, err := f.users.Me(ctx, token.Identity{SubjectID: registered.ID, SubjectEmail: registered.Email})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, me.ID)
	assert.Equal(t, "ann", me.Username)
	assert.Empty(t, me.PasswordHash)

	_, err = f.users.Me(ctx, token.Identity{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// token outliving its user
	_, err = f.users.Me(ctx, token.Identity{SubjectID: "6f1c8a8e-1c1b-4e55-9a51-0e2f9f0b7d10"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
