package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"
	"github.com/samber/oops"

	"my-blog/pkg/common/config"
	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/common/metrics"
	"my-blog/pkg/core/auth/guard"
	"my-blog/pkg/core/auth/token"
)

// IdentityKey is where AuthMiddleware stores the verified token.Identity.
const IdentityKey = "identity"

// guardErrKey carries the guard's rejection from IdentityHandler to Unauthorized.
const guardErrKey = "auth_guard_error"

// AuthMiddleware 验证 Bearer 令牌, 失败统一返回 401
//
// hertz-contrib/jwt extracts the header and checks algorithm, signature and
// exp; the guard then resolves the identity with the issuer and subject
// checks of the token service. Whatever fails, the client sees the same 401.
func AuthMiddleware(cfg config.JWTAuthConfig, g *guard.Guard, m *metrics.Metrics) (app.HandlerFunc, error) {
	if cfg.Secret == "" {
		return nil, oops.In("auth_middleware").Code("CONFIG_INVALID").Wrapf(apperrors.ErrConfiguration, "jwt signing secret is required")
	}
	authMiddleware, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:            cfg.Issuer,
		SigningAlgorithm: cfg.SigningMethod,
		Key:              []byte(cfg.Secret),
		Timeout:          cfg.ExpireDuration,
		TokenLookup:      "header: Authorization",
		TokenHeadName:    "Bearer",
		IdentityKey:      IdentityKey,
		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			identity, err := g.Authenticate(string(c.GetHeader("Authorization")))
			if err != nil {
				c.Set(guardErrKey, err)
				return nil
			}
			return identity
		},
		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			identity, ok := data.(token.Identity)
			if !ok || identity.SubjectID == "" {
				return false
			}
			m.AuthEvent("verify", "success")
			return true
		},
		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			m.AuthEvent("verify", "rejected")
			_ = c.Error(rejection(c, code, message))
		},
	})
	if err != nil {
		return nil, oops.In("auth_middleware").Code("CONFIG_INVALID").Wrapf(apperrors.ErrConfiguration, "jwt middleware: %v", err)
	}
	return authMiddleware.MiddlewareFunc(), nil
}

// rejection always wraps ErrUnauthorized: a 403 from the authorizator or a 400
// for a malformed exp claim are reported as 401 like everything else.
func rejection(c *app.RequestContext, code int, message string) error {
	if v, ok := c.Get(guardErrKey); ok {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return oops.In("auth_middleware").
		Code("AUTH_UNAUTHORIZED").
		With("cause", message, "jwt_status", code).
		Wrap(apperrors.ErrUnauthorized)
}

// IdentityFrom returns the identity set by AuthMiddleware.
func IdentityFrom(ctx *app.RequestContext) (token.Identity, error) {
	v, ok := ctx.Get(IdentityKey)
	if !ok {
		return token.Identity{}, apperrors.ErrUnauthorized
	}
	identity, ok := v.(token.Identity)
	if !ok || identity.SubjectID == "" {
		return token.Identity{}, apperrors.ErrUnauthorized
	}
	return identity, nil
}
