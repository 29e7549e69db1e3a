package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostHandler_CreateAndGet(t *testing.T) {
	a := newTestAPI(t)

	t.Run("anonymous create is rejected", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/posts", nil, map[string]any{"title": "Hi", "content": "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing content", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/posts", a.author, map[string]any{"title": "Hi"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "content", decode(t, rec)["field"])
	})

	t.Run("title too long", func(t *testing.T) {
		long := make([]rune, 201)
		for i := range long {
			long[i] = 'a'
		}
		rec := a.do(t, http.MethodPost, "/posts", a.author, map[string]any{"title": string(long), "content": "x"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "title", decode(t, rec)["field"])
	})

	created := a.createPost(t, a.author, map[string]any{
		"title":          "Hello World",
		"classification": "news",
		"tags":           []string{"go"},
	})
	assert.Equal(t, "hello-world", created["slug"])
	assert.Equal(t, "https://blog.example.com/posts/hello-world", created["url"])
	assert.Equal(t, "news", created["classification"])

	t.Run("get by slug renders html and counts the view", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/posts/hello-world", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Contains(t, body["contentHtml"], "<h1")
		assert.Contains(t, body["contentHtml"], "<em>text</em>")
		assert.EqualValues(t, 1, body["viewsCount"])
	})

	t.Run("get by id", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, idPath("/posts", idOf(t, created)), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello-world", decode(t, rec)["slug"])
	})

	t.Run("duplicate title conflicts", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/posts", a.other, map[string]any{"title": "Hello World", "content": "x"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown post", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/posts/nope", nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("counts follow the post", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/classifications/news", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, decode(t, rec)["itemCount"])

		rec = a.do(t, http.MethodGet, "/tags/go", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, decode(t, rec)["itemCount"])
	})
}

func TestPostHandler_Update(t *testing.T) {
	a := newTestAPI(t)
	created := a.createPost(t, a.author, map[string]any{"title": "Draft One", "classification": "news"})
	path := idPath("/posts", idOf(t, created))

	t.Run("put requires the full representation", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, path, a.author, map[string]any{"title": "Draft One"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "content", decode(t, rec)["field"])
	})

	t.Run("patch by another user is forbidden", func(t *testing.T) {
		rec := a.do(t, http.MethodPatch, path, a.other, map[string]any{"summary": "nope"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("patch keeps the slug unless one is sent", func(t *testing.T) {
		rec := a.do(t, http.MethodPatch, path, a.author, map[string]any{"title": "Renamed", "classification": "guides"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "Renamed", body["title"])
		assert.Equal(t, "draft-one", body["slug"])

		news := decode(t, a.do(t, http.MethodGet, "/classifications/news", nil, nil))
		guides := decode(t, a.do(t, http.MethodGet, "/classifications/guides", nil, nil))
		assert.EqualValues(t, 0, news["itemCount"])
		assert.EqualValues(t, 1, guides["itemCount"])
	})

	t.Run("admin may edit any post", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, path, a.admin, map[string]any{
			"title":   "Edited",
			"content": "new body",
			"slug":    "Custom Slug",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "custom-slug", decode(t, rec)["slug"])
	})

	t.Run("invalid status", func(t *testing.T) {
		rec := a.do(t, http.MethodPatch, path, a.author, map[string]any{"status": 7})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "status", decode(t, rec)["field"])
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := a.do(t, http.MethodPatch, path, a.author, "not an object")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPostHandler_Delete(t *testing.T) {
	a := newTestAPI(t)
	created := a.createPost(t, a.author, map[string]any{"title": "Short Lived", "tags": []string{"web"}})
	path := idPath("/posts", idOf(t, created))

	rec := a.do(t, http.MethodDelete, path, a.other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodDelete, path, a.author, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	web := decode(t, a.do(t, http.MethodGet, "/tags/web", nil, nil))
	assert.EqualValues(t, 0, web["itemCount"])
}

func TestPostHandler_List(t *testing.T) {
	a := newTestAPI(t)
	a.createPost(t, a.author, map[string]any{"title": "First", "tags": []string{"go"}, "classification": "news"})
	a.createPost(t, a.author, map[string]any{"title": "Second", "tags": []string{"web"}, "isPinned": true})
	a.createPost(t, a.author, map[string]any{"title": "Third", "tags": []string{"go", "web"}})
	a.createPost(t, a.author, map[string]any{"title": "Hidden", "visible": false})

	titles := func(list []any) []string {
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, item.(map[string]any)["title"].(string))
		}
		return out
	}

	tests := []struct {
		name  string
		query string
		user  bool
		want  []string
	}{
		{name: "default ordering pins first", query: "", want: []string{"Second", "Third", "First"}},
		{name: "author sees hidden posts", query: "", user: true, want: []string{"Second", "Hidden", "Third", "First"}},
		{name: "tags any of", query: "?tags=go", want: []string{"Third", "First"}},
		{name: "repeated tags", query: "?tags=go&tags=web", want: []string{"Second", "Third", "First"}},
		{name: "classification", query: "?classification=news,guides", want: []string{"First"}},
		{name: "pinned only", query: "?is_pinned=1", want: []string{"Second"}},
		{name: "oldest first", query: "?ordering=created_at", want: []string{"First", "Second", "Third"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := a.other
			if tt.user {
				user = a.author
			}
			rec := a.do(t, http.MethodGet, "/posts"+tt.query, user, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			list := items(t, rec)
			assert.Equal(t, tt.want, titles(list))
			assert.EqualValues(t, len(tt.want), decode(t, rec)["total"])
		})
	}

	t.Run("invalid filters", func(t *testing.T) {
		for query, field := range map[string]string{
			"?ordering=title":  "ordering",
			"?is_pinned=maybe": "is_pinned",
			"?status=9":        "status",
			"?start=yesterday": "start",
			"?end=2024-13-01":  "end",
		} {
			rec := a.do(t, http.MethodGet, "/posts"+query, nil, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code, query)
			assert.Equal(t, field, decode(t, rec)["field"], query)
		}
	})
}

func TestPostHandler_HiddenPost(t *testing.T) {
	a := newTestAPI(t)
	a.createPost(t, a.author, map[string]any{"title": "Secret", "visible": false})

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/posts/secret", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/posts/secret", a.other, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/posts/secret", a.author, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/posts/secret", a.admin, nil).Code)
}

func TestPostHandler_Tags(t *testing.T) {
	a := newTestAPI(t)
	a.createPost(t, a.author, map[string]any{"title": "Tagged"})

	tagCount := func(name string) any {
		return decode(t, a.do(t, http.MethodGet, "/tags/"+name, nil, nil))["itemCount"]
	}

	rec := a.do(t, http.MethodPost, "/posts/tagged/tags", a.author, map[string]any{"tags": []string{"go", "web"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode(t, rec)["tags"], 2)
	assert.EqualValues(t, 1, tagCount("go"))
	assert.EqualValues(t, 1, tagCount("web"))

	rec = a.do(t, http.MethodPost, "/posts/tagged/tags", a.author, map[string]any{"tags": []string{"missing"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "tags", decode(t, rec)["field"])

	rec = a.do(t, http.MethodDelete, "/posts/tagged/tags", a.author, map[string]any{"tags": []string{"go"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["tags"], 1)
	assert.EqualValues(t, 0, tagCount("go"))

	rec = a.do(t, http.MethodDelete, "/posts/tagged/tags", a.author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["tags"])
	assert.EqualValues(t, 0, tagCount("web"))

	rec = a.do(t, http.MethodPost, "/posts/tagged/tags", a.other, map[string]any{"tags": []string{"go"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
