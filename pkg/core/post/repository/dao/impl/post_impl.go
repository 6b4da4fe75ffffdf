package dao

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/core/post/model"
	"my-blog/pkg/core/post/repository/dao"
)

type GormPostRepository struct {
	db *gorm.DB
}

var _ dao.PostRepository = (*GormPostRepository)(nil)

func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) Create(ctx context.Context, post *model.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return postError(err, "post creation failed").With("owner_id", post.OwnerID).Wrap(translate(err))
	}
	return nil
}

func (r *GormPostRepository) FindByID(ctx context.Context, id string) (model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if err != nil {
		return model.Post{}, postError(err, "post query failed").With("post_id", id).Wrap(translate(err))
	}
	return post, nil
}

func (r *GormPostRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&post).
		Error
	if err != nil {
		return model.Post{}, postError(err, "owned post query failed").
			With("post_id", id, "owner_id", ownerID).
			Wrap(translate(err))
	}
	return post, nil
}

func (r *GormPostRepository) FindByOwner(ctx context.Context, ownerID string) ([]model.Post, error) {
	posts := make([]model.Post, 0)
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&posts).
		Error
	if err != nil {
		return nil, postError(err, "owner posts query failed").With("owner_id", ownerID).Wrap(translate(err))
	}
	return posts, nil
}

func (r *GormPostRepository) FindAll(ctx context.Context) ([]model.Post, error) {
	posts := make([]model.Post, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, postError(err, "feed query failed").Wrap(translate(err))
	}
	return posts, nil
}

// UpdateByIDAndOwner locks the owned row, applies the changes and returns the
// updated post. A missing or foreign row is ErrPostNotFound.
func (r *GormPostRepository) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, changes model.PostChanges) (model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			First(&post).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"title":      changes.Title,
			"content":    changes.Content,
			"updated_at": changes.UpdatedAt,
		}
		if changes.Image != nil {
			updates["image"] = *changes.Image
		}
		if changes.Status != nil {
			updates["status"] = *changes.Status
		}

		if err := tx.Model(&model.Post{}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&post).Error
	})
	if err != nil {
		return model.Post{}, postError(err, "post update failed").
			With("post_id", id, "owner_id", ownerID).
			Wrap(translate(err))
	}
	return post, nil
}

// DeleteByIDAndOwner returns the number of rows removed: 0 when the post is
// missing or belongs to someone else.
func (r *GormPostRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Post{})
	if result.Error != nil {
		return 0, postError(result.Error, "post delete failed").
			With("post_id", id, "owner_id", ownerID).
			Wrap(translate(result.Error))
	}
	return result.RowsAffected, nil
}

func translate(err error) error {
	wrapped := apperrors.WrapGormError(err)
	if errors.Is(wrapped, apperrors.ErrNotFound) {
		return apperrors.ErrPostNotFound
	}
	return wrapped
}

func postError(err error, op string) oops.OopsErrorBuilder {
	code := "POST_DB_FAILED"
	if errors.Is(err, gorm.ErrRecordNotFound) {
		code = "POST_NOT_FOUND"
	}
	return oops.In("post_repository").Code(code).With("operation", op)
}
