package dao

import (
	"context"

	"my-blog/pkg/core/post/model"
)

// PostRepository 文章持久化. The *AndOwner methods only ever touch rows whose
// owner_id matches.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (model.Post, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (model.Post, error)
	FindByOwner(ctx context.Context, ownerID string) ([]model.Post, error) // 按创建时间倒序
	FindAll(ctx context.Context) ([]model.Post, error)                     // 按创建时间倒序
	UpdateByIDAndOwner(ctx context.Context, id, ownerID string, changes model.PostChanges) (model.Post, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (int64, error)
}
