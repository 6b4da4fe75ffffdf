package dao

import (
	"context"

	"my-blog/pkg/core/user/model"
)

// UserRepository is the credential store.
type UserRepository interface {
	QueryByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error) // 返回含密码哈希的完整记录
	IsEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *model.User) error
}
