package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// imageExtensions maps the sniffed content types we accept to file extensions.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

const mirrorConcurrency = 4

// Upload is one file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// StoredFile describes where an upload ended up. URL is the object-storage
// URL when mirroring succeeded, otherwise the local media URL.
type StoredFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	LocalURL    string `json:"localUrl"`
	URL         string `json:"url"`

	path string
}

type MediaService struct {
	root     string
	mediaURL string
	storage  *ObjectStorage
	prefs    database.StoragePreferenceRepository
	logger   zerolog.Logger
}

// NewMediaService stores files under root and serves them at mediaURL. storage may be nil.
func NewMediaService(root, mediaURL string, storage *ObjectStorage, prefs database.StoragePreferenceRepository, logger zerolog.Logger) *MediaService {
	return &MediaService{
		root:     root,
		mediaURL: mediaURL,
		storage:  storage,
		prefs:    prefs,
		logger:   logger.With().Str("service", "media").Logger(),
	}
}

// SaveImages validates and stores every upload locally, then mirrors them to
// object storage when enabled. Mirroring failures only cost the CDN URL.
func (m *MediaService) SaveImages(ctx context.Context, uploads []Upload) ([]*StoredFile, error) {
	if len(uploads) == 0 {
		return nil, errs.NewMissingRequiredFieldError("file")
	}

	stored := make([]*StoredFile, 0, len(uploads))
	for _, upload := range uploads {
		file, err := m.saveLocal(upload)
		if err != nil {
			return nil, err
		}
		stored = append(stored, file)
	}

	if err := m.mirror(ctx, stored); err != nil {
		m.logger.Warn().Err(err).Msg("object storage mirroring incomplete, using local URLs")
	}
	return stored, nil
}

func (m *MediaService) SaveImage(ctx context.Context, upload Upload) (*StoredFile, error) {
	files, err := m.SaveImages(ctx, []Upload{upload})
	if err != nil {
		return nil, err
	}
	return files[0], nil
}

func (m *MediaService) saveLocal(upload Upload) (*StoredFile, error) {
	contentType := http.DetectContentType(upload.Data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, errs.NewUnsupportedMediaTypeError(contentType, []string{"image/jpeg", "image/png", "image/gif", "image/webp"})
	}

	name := uuid.NewString() + ext
	dir := filepath.Join(m.root, "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.NewInternalErrorWithCause("could not prepare media directory", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, upload.Data, 0o644); err != nil {
		return nil, errs.NewInternalErrorWithCause("could not store upload", err)
	}

	localURL := JoinURL(m.mediaURL, "images", name)
	m.logger.Info().Str("file", name).Str("original", upload.Filename).Int("bytes", len(upload.Data)).Msg("upload stored")
	return &StoredFile{
		Name:        "images/" + name,
		ContentType: contentType,
		Size:        len(upload.Data),
		LocalURL:    localURL,
		URL:         localURL,
		path:        path,
	}, nil
}

// mirror uploads files concurrently when the environment and the stored
// preference allow it. A failed upload keeps the local URL of that file and
// does not stop the others.
func (m *MediaService) mirror(ctx context.Context, files []*StoredFile) error {
	if m.storage == nil {
		return nil
	}
	pref, err := m.prefs.Get(ctx)
	if err != nil {
		return fmt.Errorf("read storage preference: %w", err)
	}
	if !pref.UseObjectStorage {
		return nil
	}

	var (
		g      errgroup.Group
		failed atomic.Int32
	)
	g.SetLimit(mirrorConcurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			data, err := os.ReadFile(file.path)
			if err != nil {
				failed.Add(1)
				return fmt.Errorf("read %s: %w", file.Name, err)
			}
			key := m.storage.Key(file.Name)
			if err := m.storage.Upload(ctx, key, data, file.ContentType); err != nil {
				failed.Add(1)
				return fmt.Errorf("upload %s: %w", key, err)
			}
			file.URL = m.storage.PublicURL(key, pref.CDNDomain)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%d of %d files not mirrored, first error: %w", failed.Load(), len(files), err)
	}
	return nil
}

// Preference returns the object-storage preference, creating it on first use.
func (m *MediaService) Preference(ctx context.Context) (*models.StoragePreference, error) {
	pref, err := m.prefs.Get(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "storage preference", err)
	}
	return pref, nil
}

func (m *MediaService) SetPreference(ctx context.Context, useObjectStorage bool, cdnDomain string) (*models.StoragePreference, error) {
	pref := &models.StoragePreference{
		UseObjectStorage: useObjectStorage,
		CDNDomain:        strings.TrimSpace(cdnDomain),
	}
	if err := m.prefs.Save(ctx, pref); err != nil {
		return nil, errs.NewDatabaseError("save", "storage preference", err)
	}
	if useObjectStorage && m.storage == nil {
		m.logger.Warn().Msg("object storage enabled but OBJECT_STORAGE_* settings are incomplete; uploads stay local")
	}
	return pref, nil
}

// ObjectStorageReady reports whether the environment allows mirroring at all.
func (m *MediaService) ObjectStorageReady() bool {
	return m.storage != nil
}
