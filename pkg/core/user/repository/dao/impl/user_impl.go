package dao

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"gorm.io/gorm"

	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/core/user/model"
	"my-blog/pkg/core/user/repository/dao"
)

type GormUserRepository struct {
	db *gorm.DB
}

var _ dao.UserRepository = (*GormUserRepository)(nil)

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// QueryByID 不返回密码哈希
func (r *GormUserRepository) QueryByID(ctx context.Context, id string) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Select("id", "username", "email", "created_at", "updated_at").
		Where("id = ?", id).
		First(&user).
		Error
	if err != nil {
		return model.User{}, userError(err, "user query failed").With("user_id", id).Wrap(translate(err))
	}
	return user, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).
		Error
	if err != nil {
		return model.User{}, userError(err, "credential lookup failed").With("email", email).Wrap(translate(err))
	}
	return user, nil
}

// Check email existence
func (r *GormUserRepository) IsEmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Count(&count).
		Error
	if err != nil {
		return false, userError(err, "failed to check email").Wrap(translate(err))
	}
	return count > 0, nil
}

// Create new user with transaction
func (r *GormUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return userError(err, "user creation failed").With("email", user.Email).Wrap(translate(err))
		}
		return nil
	})
}

// translate maps driver errors onto the user vocabulary: the only unique
// column besides the primary key is email.
func translate(err error) error {
	wrapped := apperrors.WrapGormError(err)
	switch {
	case errors.Is(wrapped, apperrors.ErrNotFound):
		return apperrors.ErrUserNotFound
	case errors.Is(wrapped, apperrors.ErrDuplicateEntry):
		return apperrors.ErrDuplicateEmail
	default:
		return wrapped
	}
}

func userError(err error, op string) oops.OopsErrorBuilder {
	code := "USER_DB_FAILED"
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		code = "USER_NOT_FOUND"
	case apperrors.IsDuplicateError(err):
		code = "USER_DUPLICATE_EMAIL"
	}
	return oops.In("user_repository").Code(code).With("operation", op)
}
