package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRoutes_Permissions(t *testing.T) {
	a := newTestAPI(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/admin/comments"},
		{http.MethodGet, "/admin/comments/1"},
		{http.MethodPost, "/admin/posts/publish"},
		{http.MethodPost, "/admin/classifications"},
		{http.MethodPost, "/admin/taxonomy/recount"},
		{http.MethodGet, "/admin/users"},
		{http.MethodGet, "/admin/storage-preference"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, a.do(t, p.method, p.path, nil, nil).Code)
			assert.Equal(t, http.StatusForbidden, a.do(t, p.method, p.path, a.author, nil).Code)
		})
	}
}

func TestAdminHandler_PostBatches(t *testing.T) {
	a := newTestAPI(t)
	one := idOf(t, a.createPost(t, a.author, map[string]any{"title": "One"}))
	two := idOf(t, a.createPost(t, a.author, map[string]any{"title": "Two"}))

	batch := func(action string, ids ...uint) int64 {
		rec := a.do(t, http.MethodPost, "/admin/posts/"+action, a.admin, map[string]any{"ids": ids})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return int64(decode(t, rec)["affected"].(float64))
	}

	assert.EqualValues(t, 2, batch("publish", one, two))
	assert.EqualValues(t, 1, batch("pin", two))

	rec := a.do(t, http.MethodGet, "/posts?status=1&is_pinned=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := items(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Two", list[0].(map[string]any)["title"])

	assert.EqualValues(t, 1, batch("unpublish", one))
	assert.EqualValues(t, 1, batch("unpin", two))

	rec = a.do(t, http.MethodPatch, idPath("/posts", one), a.author, map[string]any{"slug": "hand-made"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, batch("rebuild-slug", one, two))
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/posts/one", nil, nil).Code)

	t.Run("ids required", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/admin/posts/publish", a.admin, map[string]any{"ids": []uint{}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ids", decode(t, rec)["field"])
	})
}

func TestAdminHandler_CommentBatches(t *testing.T) {
	a := newTestAPI(t)
	a.createPost(t, a.author, map[string]any{"title": "Talk"})
	c := idOf(t, a.comment(t, "talk", map[string]any{"content": "hello"}))

	for _, tt := range []struct {
		action string
		check  func(body map[string]any)
	}{
		{"approve", func(body map[string]any) { assert.EqualValues(t, 1, body["status"]) }},
		{"retract", func(body map[string]any) { assert.EqualValues(t, 0, body["status"]) }},
		{"ban", func(body map[string]any) { assert.Equal(t, true, body["banned"]) }},
		{"unban", func(body map[string]any) { assert.Equal(t, false, body["banned"]) }},
	} {
		rec := a.do(t, http.MethodPost, "/admin/comments/"+tt.action, a.admin, map[string]any{"ids": []uint{c}})
		require.Equal(t, http.StatusOK, rec.Code, tt.action)

		rec = a.do(t, http.MethodGet, "/admin/comments?post=1", a.admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := items(t, rec)
		require.Len(t, list, 1)
		tt.check(list[0].(map[string]any))
	}
}

func TestAdminHandler_Taxonomy(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/admin/tags", a.admin, map[string]any{"name": "rust", "color": "#dea584"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "rust", decode(t, rec)["name"])

	rec = a.do(t, http.MethodPost, "/admin/tags", a.admin, map[string]any{"name": "rust"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/admin/classifications", a.admin, map[string]any{"color": "red"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name", decode(t, rec)["field"])

	rec = a.do(t, http.MethodPut, "/admin/tags/rust", a.admin, map[string]any{"color": "orange"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "orange", decode(t, rec)["color"])

	a.createPost(t, a.author, map[string]any{"title": "Rusty", "tags": []string{"rust"}, "classification": "news"})

	rec = a.do(t, http.MethodDelete, "/admin/tags/rust", a.admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/tags/rust", nil, nil).Code)

	post := decode(t, a.do(t, http.MethodGet, "/posts/rusty", nil, nil))
	assert.Empty(t, post["tags"])

	rec = a.do(t, http.MethodDelete, "/admin/classifications/news", a.admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	post = decode(t, a.do(t, http.MethodGet, "/posts/rusty", nil, nil))
	assert.Nil(t, post["classification"])

	rec = a.do(t, http.MethodGet, "/classifications", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, items(t, rec), 1)

	rec = a.do(t, http.MethodPost, "/admin/taxonomy/recount", a.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["affected"])
}

func TestAdminHandler_Users(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/admin/users", a.admin, map[string]any{"username": "newbie", "email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decode(t, rec)["field"])

	rec = a.do(t, http.MethodPost, "/admin/users", a.admin, map[string]any{"username": "newbie", "email": "New@Example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "new@example.com", created["email"])

	rec = a.do(t, http.MethodPost, "/admin/users", a.admin, map[string]any{"username": "newbie", "email": "again@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodGet, "/admin/users", a.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, items(t, rec), 4)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodDelete, idPath("/admin/users", a.admin.ID), a.admin, nil).Code)

	a.createPost(t, a.author, map[string]any{"title": "Orphan"})
	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, idPath("/admin/users", a.author.ID), a.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, idPath("/admin/users", a.author.ID), a.admin, nil).Code)

	post := decode(t, a.do(t, http.MethodGet, "/posts/orphan", nil, nil))
	assert.Nil(t, post["authorId"])
}

func TestAdminHandler_StoragePreference(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/admin/storage-preference", a.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["useObjectStorage"])
	assert.Equal(t, false, body["objectStorageReady"])

	rec = a.do(t, http.MethodPut, "/admin/storage-preference", a.admin, map[string]any{"cdnDomain": "cdn.example.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "useObjectStorage", decode(t, rec)["field"])

	rec = a.do(t, http.MethodPut, "/admin/storage-preference", a.admin, map[string]any{
		"useObjectStorage": true,
		"cdnDomain":        " cdn.example.com ",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, true, body["useObjectStorage"])
	assert.Equal(t, "cdn.example.com", body["cdnDomain"])
}
