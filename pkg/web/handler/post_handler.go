package handler

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"my-blog/pkg/core/post/service"
	"my-blog/pkg/web/middleware"
	"my-blog/pkg/web/model"
)

type PostHandler struct {
	posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// List 公开的文章列表
func (h *PostHandler) List(ctx context.Context, c *app.RequestContext) {
	posts, err := h.posts.ListAll(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.H{"posts": model.NewPostList(posts)})
}

// View 公开的单篇文章
func (h *PostHandler) View(ctx context.Context, c *app.RequestContext) {
	post, err := h.posts.View(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.H{"post": model.NewPostRes(post)})
}

func (h *PostHandler) Create(ctx context.Context, c *app.RequestContext) {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.PostReq
	if err := c.BindAndValidate(&req); err != nil {
		bindError(c, err)
		return
	}

	post, err := h.posts.Create(ctx, identity, req.Input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, utils.H{
		"message": "post created successfully",
		"post":    model.NewPostRes(post),
	})
}

func (h *PostHandler) ListMine(ctx context.Context, c *app.RequestContext) {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	posts, err := h.posts.ListMine(ctx, identity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.H{"posts": model.NewPostList(posts)})
}

func (h *PostHandler) GetMine(ctx context.Context, c *app.RequestContext) {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	post, err := h.posts.GetMine(ctx, identity, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.H{"post": model.NewPostRes(post)})
}

func (h *PostHandler) Update(ctx context.Context, c *app.RequestContext) {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.PostReq
	if err := c.BindAndValidate(&req); err != nil {
		bindError(c, err)
		return
	}

	post, err := h.posts.Update(ctx, identity, c.Param("id"), req.Input())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.H{
		"message": "post updated",
		"post":    model.NewPostRes(post),
	})
}

func (h *PostHandler) Delete(ctx context.Context, c *app.RequestContext) {
	identity, err := middleware.IdentityFrom(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.posts.Delete(ctx, identity, c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, utils.H{"message": "post deleted"})
}
