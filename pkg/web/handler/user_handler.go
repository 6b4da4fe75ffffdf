// ----------- pkg/web/handler/user_handler.go -----------
package handler

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	hzte "github.com/cloudwego/hertz/pkg/common/errors"
	"github.com/cloudwego/hertz/pkg/common/utils"

	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/core/user/service"
	"my-blog/pkg/web/middleware"
	"my-blog/pkg/web/model"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Register(ctx context.Context, c *app.RequestContext) {
	var req model.RegisterReq
	if err := c.BindAndValidate(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, utils.H{
		"message": "user registered successfully",
		"user":    model.NewUserRes(user),
	})
}

func (h *UserHandler) Login(ctx context.Context, c *app.RequestContext) {
	var req model.LoginReq
	if err := c.BindAndValidate(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.users.Login(ctx, service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, utils.H{
		"message":    "login successful",
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       model.NewUserRes(result.User),
	})
}

// Me 当前登录用户信息
func (h *UserHandler) Me(ctx context.Context, c *app.RequestContext) {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.users.Me(ctx, identity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.H{"user": model.NewUserRes(user)})
}

// 统一的参数绑定错误
func bindError(c *app.RequestContext, err error) {
	c.Error(apperrors.NewValidationError("invalid request body", err)).SetType(hzte.ErrorTypeBind)
}
