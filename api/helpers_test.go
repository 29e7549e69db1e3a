package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rpupo63/myblog-backend/database/memory"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/rpupo63/myblog-backend/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake-image-data")

type testAPI struct {
	router    http.Handler
	store     *memory.Store
	svc       Services
	tokens    *services.Tokens
	mediaRoot string

	author *models.User
	other  *models.User
	admin  *models.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()
	store := memory.New()
	store.SetClock(tickingClock())
	countSync := services.NewCountSync(logger)
	tokens := services.NewTokens("test-secret", "myblog", time.Hour)
	root := t.TempDir()
	media := services.NewMediaService(root, "/media", nil, store.StoragePreference(), logger)

	svc := Services{
		Posts:    services.NewPostService(store, countSync, logger),
		Comments: services.NewCommentService(store, false, logger),
		Taxonomy: services.NewTaxonomyService(store, countSync, logger),
		Users:    services.NewUserService(store, tokens, media, logger),
		Media:    media,
		Renderer: services.NewRenderer(nil, logger),
	}

	cfg := map[string]string{
		"MEDIA_ROOT":    root,
		"BASE_URL":      "https://blog.example.com/",
		"MAX_UPLOAD_MB": "1",
	}

	a := &testAPI{
		router:    newRouter(svc, withConfig(cfg), withStartupTime(time.Now())),
		store:     store,
		svc:       svc,
		tokens:    tokens,
		mediaRoot: root,
		author:    &models.User{Username: "author", Email: "author@example.com"},
		other:     &models.User{Username: "other", Email: "other@example.com"},
		admin:     &models.User{Username: "admin", Email: "admin@example.com", IsStaff: true},
	}
	for _, u := range []*models.User{a.author, a.other, a.admin} {
		require.NoError(t, store.Users().Add(ctx, u))
	}
	for _, name := range []string{"news", "guides"} {
		_, err := svc.Taxonomy.Create(ctx, services.KindClassification, name, "")
		require.NoError(t, err)
	}
	for _, name := range []string{"go", "web"} {
		_, err := svc.Taxonomy.Create(ctx, services.KindTag, name, "")
		require.NoError(t, err)
	}
	return a
}

// tickingClock advances one second per call so creation order is unambiguous.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

// do sends body as JSON. A nil user sends no Authorization header.
func (a *testAPI) do(t *testing.T, method, path string, user *models.User, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(t, user))
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) upload(t *testing.T, path string, user *models.User, files ...[]byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, data := range files {
		part, err := mw.CreateFormFile(uploadField, "upload-"+strconv.Itoa(i))
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(t, user))
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := a.tokens.Issue(user)
	require.NoError(t, err)
	return token
}

// createPost creates a post through the API and returns its decoded body.
func (a *testAPI) createPost(t *testing.T, user *models.User, body map[string]any) map[string]any {
	t.Helper()
	if _, ok := body["content"]; !ok {
		body["content"] = "# Heading\n\nSome *text*."
	}
	rec := a.do(t, http.MethodPost, "/posts", user, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func items(t *testing.T, rec *httptest.ResponseRecorder) []any {
	t.Helper()
	body := decode(t, rec)
	list, ok := body["items"].([]any)
	require.True(t, ok, "items missing in %s", rec.Body.String())
	return list
}

func idOf(t *testing.T, body map[string]any) uint {
	t.Helper()
	id, ok := body["id"].(float64)
	require.True(t, ok, "id missing in %v", body)
	return uint(id)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func idPath(prefix string, id uint) string {
	return prefix + "/" + itoa(id)
}
