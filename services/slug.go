package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/models"
)

const (
	fallbackSlug  = "post"
	maxSlugLength = 255
)

// Slugify lowercases s, keeps ASCII letters and digits, and collapses every
// other run of characters into a single "-".
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// EnsureSlug gives post a unique slug derived from its title when it has none.
// An existing slug is never replaced. Collisions with other posts get a
// numeric suffix: hello-world, hello-world-1, hello-world-2, ...
func EnsureSlug(ctx context.Context, posts database.PostRepository, post *models.Post) error {
	if post.Slug != "" {
		return nil
	}

	base := Slugify(post.Title)
	if base == "" {
		base = fallbackSlug
	}

	candidate := truncateSlug(base, "")
	for n := 1; ; n++ {
		taken, err := posts.SlugTaken(ctx, candidate, post.ID)
		if err != nil {
			return err
		}
		if !taken {
			post.Slug = candidate
			return nil
		}
		candidate = truncateSlug(base, fmt.Sprintf("-%d", n))
	}
}

// truncateSlug keeps base+suffix within the column limit by shortening base.
func truncateSlug(base, suffix string) string {
	if len(base)+len(suffix) > maxSlugLength {
		base = strings.TrimSuffix(base[:maxSlugLength-len(suffix)], "-")
	}
	return base + suffix
}
