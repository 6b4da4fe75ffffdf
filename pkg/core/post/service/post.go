package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/oops"

	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/core/auth/token"
	"my-blog/pkg/core/post/model"
	"my-blog/pkg/core/post/repository/dao"
)

const maxTitleLength = 255

// PostInput is the client-editable part of a post.
type PostInput struct {
	Title   string
	Content string
	Image   *string
	Status  *model.Status
}

func (in PostInput) normalize() (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, apperrors.NewValidationError("title is required", nil)
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLength {
		return in, apperrors.NewValidationError("title is too long", nil)
	}
	if strings.TrimSpace(in.Content) == "" {
		return in, apperrors.NewValidationError("content is required", nil)
	}
	if in.Image != nil {
		image := strings.TrimSpace(*in.Image)
		if image != "" && !isValidURL(image) {
			return in, apperrors.NewValidationError("image must be a valid http(s) url", nil)
		}
		in.Image = &image
	}
	if in.Status != nil && !in.Status.Valid() {
		return in, apperrors.NewValidationError("status must be draft or published", nil)
	}
	return in, nil
}

func isValidURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// PostService implements the post operations. Everything that acts on a post
// "as mine" goes through the owner-scoped repository calls, so a post owned
// by someone else looks exactly like a post that does not exist.
type PostService struct {
	posts dao.PostRepository
	now   func() time.Time
}

type Option func(*PostService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *PostService) {
		s.now = now
	}
}

func NewPostService(posts dao.PostRepository, opts ...Option) *PostService {
	s := &PostService{
		posts: posts,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new post owned by the caller.
func (s *PostService) Create(ctx context.Context, identity token.Identity, in PostInput) (model.Post, error) {
	if identity.SubjectID == "" {
		return model.Post{}, apperrors.ErrUnauthorized
	}
	in, err := in.normalize()
	if err != nil {
		return model.Post{}, err
	}

	now := s.now()
	post := model.Post{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Status:    model.StatusPublished,
		OwnerID:   identity.SubjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Image != nil {
		post.Image = *in.Image
	}
	if in.Status != nil {
		post.Status = *in.Status
	}

	if err := s.posts.Create(ctx, &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

// ListAll is the public feed, newest first. No ownership check.
func (s *PostService) ListAll(ctx context.Context) ([]model.Post, error) {
	return s.posts.FindAll(ctx)
}

// View is the public single-post read. No ownership check.
func (s *PostService) View(ctx context.Context, postID string) (model.Post, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return model.Post{}, oops.In("post_service").Code("POST_NOT_FOUND").With("post_id", postID).Wrap(apperrors.ErrPostNotFound)
	}
	return s.posts.FindByID(ctx, postID)
}

// ListMine returns the caller's posts, newest first.
func (s *PostService) ListMine(ctx context.Context, identity token.Identity) ([]model.Post, error) {
	if identity.SubjectID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return s.posts.FindByOwner(ctx, identity.SubjectID)
}

// AuthorizeOwnerAction loads postID on behalf of identity. A missing post, a
// malformed id and a post owned by someone else all yield
// ErrNotFoundOrForbidden.
func (s *PostService) AuthorizeOwnerAction(ctx context.Context, identity token.Identity, postID string) (model.Post, error) {
	if identity.SubjectID == "" {
		return model.Post{}, apperrors.ErrUnauthorized
	}
	if _, err := uuid.Parse(postID); err != nil {
		return model.Post{}, denied(postID, identity, nil)
	}

	post, err := s.posts.FindByIDAndOwner(ctx, postID, identity.SubjectID)
	if err != nil {
		return model.Post{}, ownerScoped(postID, identity, err)
	}
	return post, nil
}

// GetMine is the owner-only single read.
func (s *PostService) GetMine(ctx context.Context, identity token.Identity, postID string) (model.Post, error) {
	return s.AuthorizeOwnerAction(ctx, identity, postID)
}

// Update replaces title and content and, when given, image and status.
// Concurrent updates by the owner are last-writer-wins.
func (s *PostService) Update(ctx context.Context, identity token.Identity, postID string, in PostInput) (model.Post, error) {
	if _, err := s.AuthorizeOwnerAction(ctx, identity, postID); err != nil {
		return model.Post{}, err
	}
	in, err := in.normalize()
	if err != nil {
		return model.Post{}, err
	}

	post, err := s.posts.UpdateByIDAndOwner(ctx, postID, identity.SubjectID, model.PostChanges{
		Title:     in.Title,
		Content:   in.Content,
		Image:     in.Image,
		Status:    in.Status,
		UpdatedAt: s.now(),
	})
	if err != nil {
		// deleted between the check and the update
		return model.Post{}, ownerScoped(postID, identity, err)
	}
	return post, nil
}

// Delete removes an owned post. Deleting twice gives ErrNotFoundOrForbidden
// the second time, same as deleting someone else's post.
func (s *PostService) Delete(ctx context.Context, identity token.Identity, postID string) error {
	if identity.SubjectID == "" {
		return apperrors.ErrUnauthorized
	}
	if _, err := uuid.Parse(postID); err != nil {
		return denied(postID, identity, nil)
	}

	n, err := s.posts.DeleteByIDAndOwner(ctx, postID, identity.SubjectID)
	if err != nil {
		return err
	}
	if n == 0 {
		return denied(postID, identity, nil)
	}
	return nil
}

// ownerScoped collapses a not-found from an owner-scoped query into
// ErrNotFoundOrForbidden and passes every other error through.
func ownerScoped(postID string, identity token.Identity, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return denied(postID, identity, err)
	}
	return err
}

func denied(postID string, identity token.Identity, cause error) error {
	b := oops.In("post_service").
		Code("POST_NOT_FOUND_OR_FORBIDDEN").
		With("post_id", postID, "subject_id", identity.SubjectID)
	if cause != nil {
		b = b.With("cause", cause.Error())
	}
	return b.Wrap(apperrors.ErrNotFoundOrForbidden)
}
