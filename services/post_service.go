package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/rs/zerolog"
)

const maxTitleLength = 200

// PostInput carries the writable fields of a post. Nil fields are left unchanged.
// An empty Classification clears it.
type PostInput struct {
	Title          *string
	Slug           *string
	Content        *string
	Summary        *string
	CoverImage     *string
	Status         *models.Status
	Visible        *bool
	IsPinned       *bool
	Classification *string
	Tags           *[]string
}

type PostService struct {
	store  database.Store
	sync   CountSync
	logger zerolog.Logger
}

func NewPostService(store database.Store, sync CountSync, logger zerolog.Logger) *PostService {
	return &PostService{
		store:  store,
		sync:   sync,
		logger: logger.With().Str("service", "posts").Logger(),
	}
}

// List returns the posts matching filter that viewer may see.
func (s *PostService) List(ctx context.Context, viewer *models.User, filter database.PostFilter) ([]*models.Post, error) {
	filter.IncludeHidden = viewer.IsAdmin()
	filter.ViewerID = nil
	if viewer != nil {
		filter.ViewerID = &viewer.ID
	}

	posts, err := s.store.Posts().FindAll(ctx, filter)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "posts", err)
	}
	return posts, nil
}

// Get resolves a slug-or-id key and counts the view.
func (s *PostService) Get(ctx context.Context, viewer *models.User, key string) (*models.Post, error) {
	post, err := s.find(ctx, s.store, key)
	if err != nil {
		return nil, err
	}
	if !canSee(viewer, post) {
		return nil, errs.NewNotFound("post")
	}

	if err := s.store.Posts().IncrementViews(ctx, post.ID); err != nil {
		s.logger.Warn().Err(err).Uint("postID", post.ID).Msg("failed to count view")
	} else {
		post.ViewsCount++
	}
	return post, nil
}

// Resolve looks up a post visible to viewer without counting a view.
func (s *PostService) Resolve(ctx context.Context, viewer *models.User, key string) (*models.Post, error) {
	post, err := s.find(ctx, s.store, key)
	if err != nil {
		return nil, err
	}
	if !canSee(viewer, post) {
		return nil, errs.NewNotFound("post")
	}
	return post, nil
}

// find treats an all-digit key as an id and anything else as a slug.
func (s *PostService) find(ctx context.Context, store database.Store, key string) (*models.Post, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errs.NewNotFound("post")
	}

	var (
		post *models.Post
		err  error
	)
	if id, convErr := strconv.ParseUint(key, 10, 64); convErr == nil {
		post, err = store.Posts().FindByID(ctx, uint(id))
	} else {
		post, err = store.Posts().FindBySlug(ctx, key)
	}
	if err != nil {
		return nil, errs.NewDatabaseError("find", "post", err)
	}
	return post, nil
}

func (s *PostService) Create(ctx context.Context, actor *models.User, input PostInput) (*models.Post, error) {
	if actor == nil {
		return nil, errs.NewMissingTokenError()
	}
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return nil, errs.NewMissingRequiredFieldError("title")
	}
	if input.Content == nil || strings.TrimSpace(*input.Content) == "" {
		return nil, errs.NewMissingRequiredFieldError("content")
	}

	post := &models.Post{Visible: true, AuthorID: &actor.ID}
	var tags []string
	if err := s.apply(ctx, s.store, post, input); err != nil {
		return nil, err
	}
	if input.Tags != nil {
		tags = dedupe(*input.Tags)
	}

	err := s.store.Transaction(ctx, func(tx database.Store) error {
		if err := s.checkTags(ctx, tx, tags); err != nil {
			return err
		}
		if err := EnsureSlug(ctx, tx.Posts(), post); err != nil {
			return err
		}
		if err := tx.Posts().Add(ctx, post); err != nil {
			return err
		}
		if err := tx.Posts().AddTags(ctx, post.ID, tags); err != nil {
			return err
		}
		s.sync.RecomputeClassifications(ctx, tx, post.ClassificationOrEmpty())
		s.sync.RecomputeTags(ctx, tx, tags...)
		return nil
	})
	if err != nil {
		return nil, errs.NewDatabaseError("create", "post", err)
	}

	s.logger.Info().Uint("postID", post.ID).Str("slug", post.Slug).Msg("post created")
	return s.reload(ctx, post.ID)
}

func (s *PostService) Update(ctx context.Context, actor *models.User, key string, input PostInput) (*models.Post, error) {
	var postID uint
	err := s.store.Transaction(ctx, func(tx database.Store) error {
		post, err := s.findForWrite(ctx, tx, actor, key)
		if err != nil {
			return err
		}
		postID = post.ID

		oldClassification := post.ClassificationOrEmpty()
		oldTags := models.TagNames(post.Tags)

		var newTags []string
		if input.Tags != nil {
			newTags = dedupe(*input.Tags)
			if err := s.checkTags(ctx, tx, newTags); err != nil {
				return err
			}
		}

		if input.Slug != nil && strings.TrimSpace(*input.Slug) != "" {
			slug := Slugify(*input.Slug)
			if slug == "" {
				return errs.NewInvalidFieldError("slug", "slug must contain letters or digits")
			}
			taken, err := tx.Posts().SlugTaken(ctx, slug, post.ID)
			if err != nil {
				return err
			}
			if taken {
				return errs.NewUniqueConstraintViolationError("post", "slug", nil)
			}
			post.Slug = slug
		}
		input.Slug = nil

		if err := s.apply(ctx, tx, post, input); err != nil {
			return err
		}
		if input.Title != nil && strings.TrimSpace(post.Title) == "" {
			return errs.NewMissingRequiredFieldError("title")
		}
		if err := EnsureSlug(ctx, tx.Posts(), post); err != nil {
			return err
		}
		if err := tx.Posts().Update(ctx, post); err != nil {
			return err
		}

		if newClassification := post.ClassificationOrEmpty(); newClassification != oldClassification {
			s.sync.RecomputeClassifications(ctx, tx, oldClassification, newClassification)
		}

		if input.Tags != nil && !sameSet(oldTags, newTags) {
			if err := tx.Posts().ClearTags(ctx, post.ID); err != nil {
				return err
			}
			if err := tx.Posts().AddTags(ctx, post.ID, newTags); err != nil {
				return err
			}
			s.sync.RecomputeTags(ctx, tx, union(oldTags, newTags)...)
		}
		return nil
	})
	if err != nil {
		return nil, errs.NewDatabaseError("update", "post", err)
	}
	return s.reload(ctx, postID)
}

func (s *PostService) Delete(ctx context.Context, actor *models.User, key string) error {
	err := s.store.Transaction(ctx, func(tx database.Store) error {
		post, err := s.findForWrite(ctx, tx, actor, key)
		if err != nil {
			return err
		}
		classification := post.ClassificationOrEmpty()
		tags := models.TagNames(post.Tags)

		if err := tx.Posts().Delete(ctx, post.ID); err != nil {
			return err
		}
		s.sync.RecomputeClassifications(ctx, tx, classification)
		s.sync.RecomputeTags(ctx, tx, tags...)
		return nil
	})
	if err != nil {
		return errs.NewDatabaseError("delete", "post", err)
	}
	return nil
}

// AddTags attaches tags to a post and recomputes the added tags.
func (s *PostService) AddTags(ctx context.Context, actor *models.User, key string, names []string) (*models.Post, error) {
	return s.changeTags(ctx, actor, key, func(tx database.Store, post *models.Post) ([]string, error) {
		names = dedupe(names)
		if err := s.checkTags(ctx, tx, names); err != nil {
			return nil, err
		}
		return names, tx.Posts().AddTags(ctx, post.ID, names)
	})
}

// RemoveTags detaches tags from a post and recomputes the removed tags.
func (s *PostService) RemoveTags(ctx context.Context, actor *models.User, key string, names []string) (*models.Post, error) {
	return s.changeTags(ctx, actor, key, func(tx database.Store, post *models.Post) ([]string, error) {
		names = dedupe(names)
		return names, tx.Posts().RemoveTags(ctx, post.ID, names)
	})
}

// ClearTags detaches every tag. The affected set is captured before the
// associations are gone.
func (s *PostService) ClearTags(ctx context.Context, actor *models.User, key string) (*models.Post, error) {
	return s.changeTags(ctx, actor, key, func(tx database.Store, post *models.Post) ([]string, error) {
		before, err := tx.Posts().TagNames(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		return before, tx.Posts().ClearTags(ctx, post.ID)
	})
}

// SetTags replaces the tag set and recomputes both the old and new tags.
func (s *PostService) SetTags(ctx context.Context, actor *models.User, key string, names []string) (*models.Post, error) {
	return s.changeTags(ctx, actor, key, func(tx database.Store, post *models.Post) ([]string, error) {
		names = dedupe(names)
		if err := s.checkTags(ctx, tx, names); err != nil {
			return nil, err
		}
		before, err := tx.Posts().TagNames(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		if err := tx.Posts().ClearTags(ctx, post.ID); err != nil {
			return nil, err
		}
		return union(before, names), tx.Posts().AddTags(ctx, post.ID, names)
	})
}

func (s *PostService) changeTags(ctx context.Context, actor *models.User, key string, change func(database.Store, *models.Post) ([]string, error)) (*models.Post, error) {
	var postID uint
	err := s.store.Transaction(ctx, func(tx database.Store) error {
		post, err := s.findForWrite(ctx, tx, actor, key)
		if err != nil {
			return err
		}
		postID = post.ID

		affected, err := change(tx, post)
		if err != nil {
			return err
		}
		s.sync.RecomputeTags(ctx, tx, affected...)
		return nil
	})
	if err != nil {
		return nil, errs.NewDatabaseError("update tags of", "post", err)
	}
	return s.reload(ctx, postID)
}

// Publish sets the selected posts to published.
func (s *PostService) Publish(ctx context.Context, ids []uint) (int64, error) {
	return s.store.Posts().SetStatus(ctx, ids, models.StatusPublished)
}

// Unpublish sets the selected posts back to draft.
func (s *PostService) Unpublish(ctx context.Context, ids []uint) (int64, error) {
	return s.store.Posts().SetStatus(ctx, ids, models.StatusDraft)
}

func (s *PostService) Pin(ctx context.Context, ids []uint) (int64, error) {
	return s.store.Posts().SetPinned(ctx, ids, true)
}

func (s *PostService) Unpin(ctx context.Context, ids []uint) (int64, error) {
	return s.store.Posts().SetPinned(ctx, ids, false)
}

// RebuildSlugs clears and re-derives the slug of each selected post from its title.
func (s *PostService) RebuildSlugs(ctx context.Context, ids []uint) (int64, error) {
	var rebuilt int64
	err := s.store.Transaction(ctx, func(tx database.Store) error {
		posts, err := tx.Posts().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, post := range posts {
			old := post.Slug
			post.Slug = ""
			if err := EnsureSlug(ctx, tx.Posts(), post); err != nil {
				return err
			}
			if post.Slug == old {
				continue
			}
			if err := tx.Posts().Update(ctx, post); err != nil {
				return err
			}
			rebuilt++
		}
		return nil
	})
	if err != nil {
		return 0, errs.NewDatabaseError("rebuild slugs of", "posts", err)
	}
	return rebuilt, nil
}

func (s *PostService) findForWrite(ctx context.Context, tx database.Store, actor *models.User, key string) (*models.Post, error) {
	if actor == nil {
		return nil, errs.NewMissingTokenError()
	}
	post, err := s.find(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, post) {
		return nil, errs.NewNotFound("post")
	}
	if !isAuthor(actor, post.AuthorID) && !actor.IsAdmin() {
		return nil, errs.NewForbiddenError("only the author or an administrator may modify this post")
	}
	return post, nil
}

// apply copies the set fields of input onto post, validating references.
func (s *PostService) apply(ctx context.Context, store database.Store, post *models.Post, input PostInput) error {
	if input.Title != nil {
		post.Title = strings.TrimSpace(*input.Title)
		if utf8.RuneCountInString(post.Title) > maxTitleLength {
			return errs.NewInvalidFieldError("title", "must be at most 200 characters")
		}
	}
	if input.Slug != nil {
		post.Slug = Slugify(*input.Slug)
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	if input.Summary != nil {
		post.Summary = *input.Summary
	}
	if input.CoverImage != nil {
		post.CoverImage = *input.CoverImage
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return errs.NewInvalidFieldError("status", "status must be 0 (draft), 1 (published) or 2 (deleted)")
		}
		post.Status = *input.Status
	}
	if input.Visible != nil {
		post.Visible = *input.Visible
	}
	if input.IsPinned != nil {
		post.IsPinned = *input.IsPinned
	}
	if input.Classification != nil {
		name := strings.TrimSpace(*input.Classification)
		if name == "" {
			post.ClassificationName = nil
		} else {
			if _, err := store.Classifications().FindByName(ctx, name); err != nil {
				if errs.IsNotFound(err) {
					return errs.NewInvalidFieldError("classification", "unknown classification "+name)
				}
				return err
			}
			post.ClassificationName = &name
		}
		post.Classification = nil
	}
	return nil
}

func (s *PostService) checkTags(ctx context.Context, store database.Store, names []string) error {
	for _, name := range names {
		if _, err := store.Tags().FindByName(ctx, name); err != nil {
			if errs.IsNotFound(err) {
				return errs.NewInvalidFieldError("tags", "unknown tag "+name)
			}
			return err
		}
	}
	return nil
}

func (s *PostService) reload(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.store.Posts().FindByID(ctx, id)
	if err != nil {
		return nil, errs.NewDatabaseError("reload", "post", err)
	}
	return post, nil
}

func canSee(viewer *models.User, post *models.Post) bool {
	return post.Visible || viewer.IsAdmin() || (viewer != nil && isAuthor(viewer, post.AuthorID))
}

func isAuthor(user *models.User, authorID *uint) bool {
	return user != nil && authorID != nil && *authorID == user.ID
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func union(a, b []string) []string {
	return dedupe(append(append([]string{}, a...), b...))
}

func sameSet(a, b []string) bool {
	a, b = dedupe(a), dedupe(b)
	if len(a) != len(b) {
		return false
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
