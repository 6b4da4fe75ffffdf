package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"my-blog/pkg/common/database/dbtest"
	apperrors "my-blog/pkg/common/errors"
	"my-blog/pkg/core/auth/token"
	"my-blog/pkg/core/post/model"
	postdao "my-blog/pkg/core/post/repository/dao/impl"
	"my-blog/pkg/core/post/service"
)

type stepClock struct{ now time.Time }

// Now advances a second per call so creation order is observable.
func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

var (
	ann = token.Identity{SubjectID: uuid.NewString(), SubjectEmail: "ann@x.com"}
	bob = token.Identity{SubjectID: uuid.NewString(), SubjectEmail: "bob@x.com"}
)

func newService(t *testing.T) *service.PostService {
	t.Helper()
	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	repo := postdao.NewGormPostRepository(dbtest.New(t).Gorm())
	return service.NewPostService(repo, service.WithClock(clock.Now))
}

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	ctx := context.Background()
	posts := newService(t)

	t.Run("owner is the caller and status defaults to published", func(t *testing.T) {
		post, err := posts.Create(ctx, ann, service.PostInput{Title: " Hello ", Content: "World"})
		require.NoError(t, err)
		assert.NotEmpty(t, post.ID)
		assert.Equal(t, ann.SubjectID, post.OwnerID)
		assert.Equal(t, "Hello", post.Title)
		assert.Equal(t, model.StatusPublished, post.Status)
		assert.False(t, post.CreatedAt.IsZero())
	})

	t.Run("image and draft status", func(t *testing.T) {
		post, err := posts.Create(ctx, ann, service.PostInput{
			Title:   "Draft",
			Content: "wip",
			Image:   ptr("https://img.example.com/a.png"),
			Status:  ptr(model.StatusDraft),
		})
		require.NoError(t, err)
		assert.Equal(t, "https://img.example.com/a.png", post.Image)
		assert.Equal(t, model.StatusDraft, post.Status)
	})

	t.Run("validation", func(t *testing.T) {
		tests := map[string]service.PostInput{
			"missing title":   {Content: "x"},
			"blank title":     {Title: "   ", Content: "x"},
			"long title":      {Title: strings.Repeat("t", 256), Content: "x"},
			"missing content": {Title: "x"},
			"bad image":       {Title: "x", Content: "x", Image: ptr("javascript:alert(1)")},
			"relative image":  {Title: "x", Content: "x", Image: ptr("/a.png")},
			"unknown status":  {Title: "x", Content: "x", Status: ptr(model.Status("archived"))},
		}
		for name, in := range tests {
			_, err := posts.Create(ctx, ann, in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput, name)
		}
	})

	t.Run("anonymous caller", func(t *testing.T) {
		_, err := posts.Create(ctx, token.Identity{}, service.PostInput{Title: "x", Content: "x"})
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	posts := newService(t)

	for _, c := range []struct {
		who   token.Identity
		title string
	}{
		{ann, "a1"},
		{bob, "b1"},
		{ann, "a2"},
	} {
		_, err := posts.Create(ctx, c.who, service.PostInput{Title: c.title, Content: "body"})
		require.NoError(t, err)
	}

	all, err := posts.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "b1", "a1"}, titlesOf(all))

	mine, err := posts.ListMine(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, titlesOf(mine))
	for _, p := range mine {
		assert.Equal(t, ann.SubjectID, p.OwnerID)
	}

	none, err := posts.ListMine(ctx, token.Identity{SubjectID: uuid.NewString()})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOwnership(t *testing.T) {
	ctx := context.Background()
	posts := newService(t)

	post, err := posts.Create(ctx, ann, service.PostInput{Title: "Hello", Content: "World"})
	require.NoError(t, err)
	missing := uuid.NewString()

	t.Run("owner can read", func(t *testing.T) {
		got, err := posts.GetMine(ctx, ann, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ID, got.ID)
	})

	t.Run("foreign, missing and malformed ids look the same", func(t *testing.T) {
		for _, id := range []string{post.ID, missing, "not-a-uuid"} {
			caller := bob
			if id != post.ID {
				caller = ann
			}

			_, err := posts.GetMine(ctx, caller, id)
			assert.ErrorIs(t, err, apperrors.ErrNotFoundOrForbidden, id)

			_, err = posts.Update(ctx, caller, id, service.PostInput{Title: "x", Content: "y"})
			assert.ErrorIs(t, err, apperrors.ErrNotFoundOrForbidden, id)

			err = posts.Delete(ctx, caller, id)
			assert.ErrorIs(t, err, apperrors.ErrNotFoundOrForbidden, id)
		}

		// bob's attempts left the post alone
		got, err := posts.View(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hello", got.Title)
		assert.Equal(t, "World", got.Content)
	})

	t.Run("ownership is checked before input", func(t *testing.T) {
		_, err := posts.Update(ctx, bob, post.ID, service.PostInput{})
		assert.ErrorIs(t, err, apperrors.ErrNotFoundOrForbidden)
	})

	t.Run("owner updates", func(t *testing.T) {
		updated, err := posts.Update(ctx, ann, post.ID, service.PostInput{
			Title:   "Hello again",
			Content: "Edited",
			Status:  ptr(model.StatusDraft),
		})
		require.NoError(t, err)
		assert.Equal(t, "Hello again", updated.Title)
		assert.Equal(t, "Edited", updated.Content)
		assert.Equal(t, model.StatusDraft, updated.Status)
		assert.Equal(t, ann.SubjectID, updated.OwnerID)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

		_, err = posts.Update(ctx, ann, post.ID, service.PostInput{Title: "", Content: "x"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("delete twice", func(t *testing.T) {
		require.NoError(t, posts.Delete(ctx, ann, post.ID))

		err := posts.Delete(ctx, ann, post.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFoundOrForbidden)

		_, err = posts.View(ctx, post.ID)
		assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		_, err := posts.AuthorizeOwnerAction(ctx, token.Identity{}, post.ID)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		assert.ErrorIs(t, posts.Delete(ctx, token.Identity{}, post.ID), apperrors.ErrUnauthorized)
	})
}

func TestView(t *testing.T) {
	ctx := context.Background()
	posts := newService(t)

	post, err := posts.Create(ctx, bob, service.PostInput{Title: "Public", Content: "read me"})
	require.NoError(t, err)

	got, err := posts.View(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.SubjectID, got.OwnerID)

	_, err = posts.View(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrNotFoundOrForbidden)
}

func titlesOf(posts []model.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}
