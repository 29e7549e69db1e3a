package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns post markdown into sanitized HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  RenderCache
	logger zerolog.Logger
}

// NewRenderer builds a renderer. cache may be nil.
func NewRenderer(cache RenderCache, logger zerolog.Logger) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	return &Renderer{
		md:     md,
		policy: policy,
		cache:  cache,
		logger: logger.With().Str("service", "markdown").Logger(),
	}
}

func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", errs.NewRenderError(err)
	}
	return string(r.policy.SanitizeBytes(buf.Bytes())), nil
}

// RenderPost renders post content, consulting the cache first. Cache errors
// are logged and otherwise ignored; a render failure yields "".
func (r *Renderer) RenderPost(ctx context.Context, post *models.Post) string {
	key := renderCacheKey(post)

	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("render cache read failed")
		} else if ok {
			return cached
		}
	}

	rendered, err := r.Render(post.Content)
	if err != nil {
		r.logger.Error().Err(err).Uint("postID", post.ID).Msg("failed to render post")
		return ""
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, rendered); err != nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("render cache write failed")
		}
	}
	return rendered
}

// renderCacheKey changes whenever the post is saved, so stale entries simply expire.
func renderCacheKey(post *models.Post) string {
	return fmt.Sprintf("post-html:%d:%d", post.ID, post.UpdatedAt.UnixNano())
}
