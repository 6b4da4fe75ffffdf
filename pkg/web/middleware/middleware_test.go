package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"my-blog/pkg/common/config"
	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/common/metrics"
	"my-blog/pkg/core/auth/guard"
	"my-blog/pkg/core/auth/token"
	"my-blog/pkg/web/middleware"
)

func ok(_ context.Context, c *app.RequestContext) {
	c.String(http.StatusOK, "ok")
}

func TestErrorHandlerMiddleware(t *testing.T) {
	h := server.New()
	h.Use(middleware.RecoveryMiddleware(), middleware.ErrorHandlerMiddleware())
	h.GET("/forbidden", func(_ context.Context, c *app.RequestContext) {
		_ = c.Error(apperrors.ErrNotFoundOrForbidden)
	})
	h.GET("/internal", func(_ context.Context, c *app.RequestContext) {
		_ = c.Error(errors.New("dial tcp 10.0.0.1:3306: connection refused"))
	})
	h.GET("/panic", func(_ context.Context, _ *app.RequestContext) {
		panic("boom")
	})

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/forbidden", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"post not found or not yours"}`, w.Body.String())

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/internal", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestSecurityCheckMiddleware(t *testing.T) {
	h := server.New()
	h.Use(middleware.SecurityCheckMiddleware(config.SecurityConfig{
		MaxBodySize:    16,
		AllowedMethods: []string{"GET", "POST"},
	}))
	h.GET("/", ok)
	h.POST("/", ok)
	h.PATCH("/", ok)

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/?q=hello", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/?q=%3Cscript%3Ealert(1)%3C/script%3E", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := strings.Repeat("x", 64)
	w = ut.PerformRequest(h.Engine, http.MethodPost, "/", &ut.Body{Body: strings.NewReader(body), Len: len(body)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = ut.PerformRequest(h.Engine, http.MethodPatch, "/", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestIdentityFrom_WithoutAuth(t *testing.T) {
	c := app.NewContext(0)
	_, err := middleware.IdentityFrom(c)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.JWTAuthConfig{
		Secret:         "middleware-secret",
		ExpireDuration: time.Hour,
		Issuer:         "my-blog",
		SigningMethod:  "HS256",
	}
	tokens, err := token.NewService(cfg)
	require.NoError(t, err)

	auth, err := middleware.AuthMiddleware(cfg, guard.New(tokens), metrics.New())
	require.NoError(t, err)

	h := server.New()
	h.Use(middleware.ErrorHandlerMiddleware())
	h.GET("/me", auth, func(_ context.Context, c *app.RequestContext) {
		identity, err := middleware.IdentityFrom(c)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.String(http.StatusOK, identity.SubjectID)
	})

	valid, _, err := tokens.Issue("u-1", "ann@x.com")
	require.NoError(t, err)

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/me", nil,
		ut.Header{Key: "Authorization", Value: "Bearer " + valid})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", w.Body.String())

	// signed with the right key, so only the issuer check rejects it
	foreignCfg := cfg
	foreignCfg.Issuer = "someone-else"
	foreign, err := token.NewService(foreignCfg)
	require.NoError(t, err)
	wrongIssuer, _, err := foreign.Issue("u-1", "ann@x.com")
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Token " + valid,
		"garbage":      "Bearer garbage",
		"wrong issuer": "Bearer " + wrongIssuer,
	} {
		t.Run(name, func(t *testing.T) {
			var headers []ut.Header
			if header != "" {
				headers = append(headers, ut.Header{Key: "Authorization", Value: header})
			}
			w := ut.PerformRequest(h.Engine, http.MethodGet, "/me", nil, headers...)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
		})
	}
}

func TestAuthMiddleware_RequiresKey(t *testing.T) {
	_, err := middleware.AuthMiddleware(config.JWTAuthConfig{SigningMethod: "HS256"}, guard.New(nil), nil)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}
