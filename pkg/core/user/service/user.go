package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	"github.com/samber/oops"

	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/common/metrics"
	"my-blog/pkg/core/auth/password"
	"my-blog/pkg/core/auth/token"
	"my-blog/pkg/core/user/model"
	"my-blog/pkg/core/user/repository/dao"
)

// TokenIssuer is satisfied by *token.Service.
type TokenIssuer interface {
	Issue(subjectID, subjectEmail string) (string, time.Time, error)
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// LoginResult never carries the password hash: User is scrubbed.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

// UserService handles registration, login and profile lookup.
type UserService struct {
	users     dao.UserRepository
	hasher    password.Hasher
	tokens    TokenIssuer
	metrics   *metrics.Metrics
	dummyHash string
}

// NewUserService wires the service. It computes one throwaway hash up front,
// used to make unknown-email logins cost the same as wrong-password ones.
func NewUserService(users dao.UserRepository, hasher password.Hasher, tokens TokenIssuer, m *metrics.Metrics) (*UserService, error) {
	switch {
	case users == nil:
		return nil, oops.Errorf("user repository is required")
	case hasher == nil:
		return nil, oops.Errorf("password hasher is required")
	case tokens == nil:
		return nil, oops.Errorf("token issuer is required")
	}

	dummy, err := hasher.Hash(context.Background(), uuid.NewString())
	if err != nil {
		return nil, oops.In("user_service").Code("AUTH_DUMMY_HASH").Wrap(err)
	}

	return &UserService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   m,
		dummyHash: dummy,
	}, nil
}

// Register creates an account. No token is issued; the user logs in next.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Username == "" {
		return model.User{}, apperrors.NewValidationError("username is required", nil)
	}
	if in.Email == "" {
		return model.User{}, apperrors.NewValidationError("email is required", nil)
	}

	// 检查邮箱重复
	exists, err := s.users.IsEmailExists(ctx, in.Email)
	if err != nil {
		s.metrics.AuthEvent("register", "error")
		return model.User{}, err
	}
	if exists {
		s.metrics.AuthEvent("register", "duplicate_email")
		return model.User{}, oops.In("user_service").
			Code("AUTH_DUPLICATE_EMAIL").
			With("email", in.Email).
			Wrap(apperrors.ErrDuplicateEmail)
	}

	// 密码加密
	hashed, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		s.metrics.AuthEvent("register", "error")
		return model.User{}, err
	}

	user := model.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashed,
	}
	// the unique index still catches a concurrent registration
	if err := s.users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			s.metrics.AuthEvent("register", "duplicate_email")
		} else {
			s.metrics.AuthEvent("register", "error")
		}
		return model.User{}, err
	}

	s.metrics.AuthEvent("register", "success")
	hlog.CtxInfof(ctx, "user registered id=%s", user.ID)
	return scrub(user), nil
}

// Login checks the credentials and issues a token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	email := normalizeEmail(in.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			s.metrics.AuthEvent("login", "error")
			return LoginResult{}, err
		}
		// same bcrypt cost as a real comparison
		_, _ = s.hasher.Verify(ctx, in.Password, s.dummyHash)
		s.metrics.AuthEvent("login", "not_found")
		return LoginResult{}, err
	}

	ok, err := s.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		s.metrics.AuthEvent("login", "error")
		return LoginResult{}, oops.In("user_service").Code("AUTH_LOGIN_FAILED").With("user_id", user.ID).Wrap(err)
	}
	if !ok {
		s.metrics.AuthEvent("login", "invalid_credentials")
		return LoginResult{}, oops.In("user_service").
			Code("AUTH_INVALID_CREDENTIALS").
			With("user_id", user.ID).
			Wrap(apperrors.ErrInvalidCredentials)
	}

	signed, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.metrics.AuthEvent("login", "error")
		return LoginResult{}, oops.In("user_service").Code("AUTH_LOGIN_FAILED").With("operation", "issue token").Wrap(err)
	}

	s.metrics.AuthEvent("login", "success")
	return LoginResult{Token: signed, ExpiresAt: expiresAt, User: scrub(user)}, nil
}

// Me returns the public profile of the authenticated caller.
func (s *UserService) Me(ctx context.Context, identity token.Identity) (model.User, error) {
	if identity.SubjectID == "" {
		return model.User{}, apperrors.ErrUnauthorized
	}
	user, err := s.users.QueryByID(ctx, identity.SubjectID)
	if err != nil {
		return model.User{}, err
	}
	return scrub(user), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scrub(u model.User) model.User {
	u.PasswordHash = ""
	return u
}
