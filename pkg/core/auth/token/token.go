// Package token issues and verifies the signed bearer tokens handed out at
// login. Tokens are self-contained: the server keeps no session state and
// expiry is the only way a token stops being valid.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"my-blog/pkg/common/config"
	apperrors "my-blog/pkg/common/errors"
)

// Identity is what a verified token says about its bearer.
type Identity struct {
	SubjectID    string
	SubjectEmail string
}

// Claims is the JWT payload.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService fails fast with ErrConfiguration rather than signing with an
// empty key.
func NewService(cfg config.JWTAuthConfig, opts ...Option) (*Service, error) {
	if cfg.Secret == "" {
		return nil, oops.In("token").Code("CONFIG_INVALID").Wrapf(apperrors.ErrConfiguration, "jwt signing secret is required")
	}
	if cfg.ExpireDuration <= 0 {
		return nil, oops.In("token").Code("CONFIG_INVALID").Wrapf(apperrors.ErrConfiguration, "token ttl must be positive")
	}

	alg := strings.ToUpper(cfg.SigningMethod)
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, oops.In("token").
			Code("CONFIG_INVALID").
			With("algorithm", cfg.SigningMethod).
			Wrapf(apperrors.ErrConfiguration, "unsupported jwt algorithm")
	}

	s := &Service{
		secret: []byte(cfg.Secret),
		method: method,
		ttl:    cfg.ExpireDuration,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL is the lifetime given to tokens by Issue.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the subject with the configured ttl.
func (s *Service) Issue(subjectID, subjectEmail string) (string, time.Time, error) {
	return s.IssueWithTTL(subjectID, subjectEmail, s.ttl)
}

// IssueWithTTL signs a token expiring ttl from now. The returned expiry is
// truncated to whole seconds, as stored in the token.
func (s *Service) IssueWithTTL(subjectID, subjectEmail string, ttl time.Duration) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, oops.In("token").Code("CONFIG_INVALID").Wrapf(apperrors.ErrConfiguration, "jwt signing secret is not set")
	}
	if subjectID == "" || ttl <= 0 {
		return "", time.Time{}, apperrors.NewValidationError("token subject and positive ttl are required", nil)
	}

	now := s.now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))
	claims := Claims{
		Email: subjectEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: expiresAt,
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, oops.In("token").Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, expiresAt.Time, nil
}

// Verify checks signature, algorithm, issuer and expiry. Expired tokens give
// ErrExpiredToken, everything else ErrInvalidToken. There is no leeway.
func (s *Service) Verify(tokenString string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, oops.In("token").Code("TOKEN_EXPIRED").Wrap(apperrors.ErrExpiredToken)
	case err != nil:
		return Identity{}, oops.In("token").Code("TOKEN_INVALID").With("reason", err.Error()).Wrap(apperrors.ErrInvalidToken)
	case claims.Subject == "":
		return Identity{}, oops.In("token").Code("TOKEN_INVALID").With("reason", "missing subject").Wrap(apperrors.ErrInvalidToken)
	}

	return Identity{SubjectID: claims.Subject, SubjectEmail: claims.Email}, nil
}
