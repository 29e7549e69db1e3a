package services

import (
	"context"
	"testing"
	"time"

	"github.com/rpupo63/myblog-backend/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	entries map[string]string
	sets    int
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, html string) error {
	c.entries[key] = html
	c.sets++
	return nil
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(nil, zerolog.Nop())

	t.Run("markdown", func(t *testing.T) {
		out, err := r.Render("# Title\n\nsome *emphasis* and ~~strike~~")
		require.NoError(t, err)
		assert.Contains(t, out, `<h1 id="title">Title</h1>`)
		assert.Contains(t, out, "<em>emphasis</em>")
		assert.Contains(t, out, "<del>strike</del>")
	})

	t.Run("strips scripts", func(t *testing.T) {
		out, err := r.Render("hello <script>alert(1)</script>")
		require.NoError(t, err)
		assert.NotContains(t, out, "<script>")
		assert.NotContains(t, out, "</script>")
	})

	t.Run("strips javascript links", func(t *testing.T) {
		out, err := r.Render("[click](javascript:alert(1))")
		require.NoError(t, err)
		assert.NotContains(t, out, "javascript:")
	})
}

func TestRenderer_RenderPostUsesCache(t *testing.T) {
	cache := &mapCache{entries: map[string]string{}}
	r := NewRenderer(cache, zerolog.Nop())
	post := &models.Post{ID: 7, Content: "**bold**", UpdatedAt: time.Unix(100, 0)}

	first := r.RenderPost(context.Background(), post)
	assert.Contains(t, first, "<strong>bold</strong>")
	assert.Equal(t, 1, cache.sets)

	cache.entries[renderCacheKey(post)] = "<p>cached</p>"
	assert.Equal(t, "<p>cached</p>", r.RenderPost(context.Background(), post))

	post.UpdatedAt = time.Unix(200, 0)
	assert.Contains(t, r.RenderPost(context.Background(), post), "<strong>bold</strong>")
	assert.Equal(t, 2, cache.sets)
}
