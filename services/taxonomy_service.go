package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/rs/zerolog"
)

const maxTaxonomyField = 32

// TaxonomyKind selects classifications or tags.
type TaxonomyKind string

const (
	KindClassification TaxonomyKind = "classification"
	KindTag            TaxonomyKind = "tag"
)

type TaxonomyService struct {
	store  database.Store
	sync   CountSync
	logger zerolog.Logger
}

func NewTaxonomyService(store database.Store, sync CountSync, logger zerolog.Logger) *TaxonomyService {
	return &TaxonomyService{
		store:  store,
		sync:   sync,
		logger: logger.With().Str("service", "taxonomy").Logger(),
	}
}

func (s *TaxonomyService) repo(kind TaxonomyKind) database.TaxonomyRepository {
	if kind == KindTag {
		return s.store.Tags()
	}
	return s.store.Classifications()
}

func (s *TaxonomyService) List(ctx context.Context, kind TaxonomyKind) ([]*models.Taxonomy, error) {
	entries, err := s.repo(kind).FindAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError("list", string(kind), err)
	}
	return entries, nil
}

func (s *TaxonomyService) Get(ctx context.Context, kind TaxonomyKind, name string) (*models.Taxonomy, error) {
	entry, err := s.repo(kind).FindByName(ctx, name)
	if err != nil {
		return nil, errs.NewDatabaseError("find", string(kind), err)
	}
	return entry, nil
}

func (s *TaxonomyService) Create(ctx context.Context, kind TaxonomyKind, name, color string) (*models.Taxonomy, error) {
	entry := &models.Taxonomy{Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
	if entry.Name == "" {
		return nil, errs.NewMissingRequiredFieldError("name")
	}
	if err := checkTaxonomyLength(entry); err != nil {
		return nil, err
	}
	if err := s.repo(kind).Add(ctx, entry); err != nil {
		return nil, errs.NewDatabaseError("create", string(kind), err)
	}
	return entry, nil
}

// Update changes the color of an entry.
func (s *TaxonomyService) Update(ctx context.Context, kind TaxonomyKind, name, color string) (*models.Taxonomy, error) {
	entry := &models.Taxonomy{Name: name, Color: strings.TrimSpace(color)}
	if err := checkTaxonomyLength(entry); err != nil {
		return nil, err
	}
	if err := s.repo(kind).Update(ctx, entry); err != nil {
		return nil, errs.NewDatabaseError("update", string(kind), err)
	}
	return s.Get(ctx, kind, name)
}

// Delete removes an entry. Posts lose the classification or the tag.
func (s *TaxonomyService) Delete(ctx context.Context, kind TaxonomyKind, name string) error {
	if err := s.repo(kind).Delete(ctx, name); err != nil {
		return errs.NewDatabaseError("delete", string(kind), err)
	}
	s.logger.Info().Str("kind", string(kind)).Str("name", name).Msg("taxonomy entry deleted")
	return nil
}

// Recount repairs every cached count and returns how many changed.
func (s *TaxonomyService) Recount(ctx context.Context) (int, error) {
	changed, err := s.sync.RecountAll(ctx, s.store)
	if err != nil {
		return changed, errs.NewDatabaseError("recount", "taxonomy", err)
	}
	return changed, nil
}

func checkTaxonomyLength(entry *models.Taxonomy) error {
	if utf8.RuneCountInString(entry.Name) > maxTaxonomyField {
		return errs.NewInvalidFieldError("name", "must be at most 32 characters")
	}
	if utf8.RuneCountInString(entry.Color) > maxTaxonomyField {
		return errs.NewInvalidFieldError("color", "must be at most 32 characters")
	}
	return nil
}
