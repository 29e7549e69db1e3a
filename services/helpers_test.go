package services

import (
	"context"
	"testing"

	"github.com/rpupo63/myblog-backend/database/memory"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memory.Store
	posts    *PostService
	comments *CommentService
	taxonomy *TaxonomyService
	author   *models.User
	other    *models.User
	admin    *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()
	store := memory.New()

	f := &fixture{
		store:    store,
		posts:    NewPostService(store, NewCountSync(logger), logger),
		comments: NewCommentService(store, false, logger),
		taxonomy: NewTaxonomyService(store, NewCountSync(logger), logger),
		author:   &models.User{Username: "author", Email: "author@example.com"},
		other:    &models.User{Username: "other", Email: "other@example.com"},
		admin:    &models.User{Username: "admin", Email: "admin@example.com", IsStaff: true},
	}
	for _, u := range []*models.User{f.author, f.other, f.admin} {
		require.NoError(t, store.Users().Add(ctx, u))
	}
	for _, name := range []string{"x", "y"} {
		_, err := f.taxonomy.Create(ctx, KindClassification, name, "")
		require.NoError(t, err)
	}
	for _, name := range []string{"go", "web", "db"} {
		_, err := f.taxonomy.Create(ctx, KindTag, name, "")
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) createPost(t *testing.T, title string, input PostInput) *models.Post {
	t.Helper()
	input.Title = &title
	if input.Content == nil {
		content := "content of " + title
		input.Content = &content
	}
	post, err := f.posts.Create(context.Background(), f.author, input)
	require.NoError(t, err)
	return post
}

func (f *fixture) count(t *testing.T, kind TaxonomyKind, name string) int {
	t.Helper()
	entry, err := f.taxonomy.Get(context.Background(), kind, name)
	require.NoError(t, err)
	return entry.ItemCount
}

func ptr[T any](v T) *T {
	return &v
}
