package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rpupo63/myblog-backend/config"
)

// GetBaseURL retrieves the public site URL from configuration, without a trailing slash
func GetBaseURL(cfg map[string]string) string {
	return strings.TrimSuffix(config.GetString(cfg, "BASE_URL", ""), "/")
}

// BuildPostURL constructs the public URL of a post from the site base URL and its slug
// Returns an empty string when either part is missing.
func BuildPostURL(baseURL, slug string) string {
	if baseURL == "" || slug == "" {
		return ""
	}
	return fmt.Sprintf("%s/posts/%s", strings.TrimSuffix(baseURL, "/"), url.PathEscape(slug))
}

// JoinURL appends path segments to a base URL, collapsing duplicate slashes at the joins
func JoinURL(base string, segments ...string) string {
	out := strings.TrimSuffix(base, "/")
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		out += "/" + s
	}
	return out
}
