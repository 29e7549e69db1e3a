package database

import (
	"context"
	"time"

	"github.com/rpupo63/myblog-backend/models"
	"gorm.io/gorm"
)

// PostFilter narrows post listings. Zero values mean "no constraint".
type PostFilter struct {
	Classifications []string
	Tags            []string
	Status          *models.Status
	Pinned          *bool
	Start           *time.Time
	End             *time.Time
	Ordering        string

	// Hidden posts are returned only when IncludeHidden is set or they
	// belong to ViewerID.
	IncludeHidden bool
	ViewerID      *uint
}

// Orderings accepted by PostFilter.Ordering.
var PostOrderings = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"is_pinned":   "is_pinned ASC",
	"-is_pinned":  "is_pinned DESC",
	"status":      "status ASC",
	"-status":     "status DESC",
}

// CommentFilter narrows comment listings.
type CommentFilter struct {
	PostID   *uint
	ParentID *uint
	RootOnly bool
	Banned   *bool
}

type PostRepository interface {
	FindAll(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	FindByID(ctx context.Context, id uint) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindByIDs(ctx context.Context, ids []uint) ([]*models.Post, error)
	SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	Add(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
	SetStatus(ctx context.Context, ids []uint, status models.Status) (int64, error)
	SetPinned(ctx context.Context, ids []uint, pinned bool) (int64, error)

	TagNames(ctx context.Context, postID uint) ([]string, error)
	AddTags(ctx context.Context, postID uint, names []string) error
	RemoveTags(ctx context.Context, postID uint, names []string) error
	ClearTags(ctx context.Context, postID uint) error
}

// CommentRepository exposes two read paths: the *Visible methods hide
// banned comments, the others return everything.
type CommentRepository interface {
	FindVisible(ctx context.Context, filter CommentFilter) ([]*models.Comment, error)
	FindAll(ctx context.Context, filter CommentFilter) ([]*models.Comment, error)
	FindVisibleByID(ctx context.Context, id uint) (*models.Comment, error)
	FindByID(ctx context.Context, id uint) (*models.Comment, error)
	FindReplies(ctx context.Context, parentIDs []uint, includeBanned bool) (map[uint][]*models.Comment, error)
	Add(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
	SetBanned(ctx context.Context, ids []uint, banned bool) (int64, error)
	SetStatus(ctx context.Context, ids []uint, status models.Status) (int64, error)
}

// TaxonomyRepository serves both classifications and tags.
type TaxonomyRepository interface {
	FindAll(ctx context.Context) ([]*models.Taxonomy, error)
	FindByName(ctx context.Context, name string) (*models.Taxonomy, error)
	Add(ctx context.Context, entry *models.Taxonomy) error
	Update(ctx context.Context, entry *models.Taxonomy) error
	Delete(ctx context.Context, name string) error
	CountPosts(ctx context.Context, name string) (int64, error)
	SetItemCount(ctx context.Context, name string, count int) error
}

type UserRepository interface {
	FindAll(ctx context.Context) ([]*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Add(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
}

type StoragePreferenceRepository interface {
	Get(ctx context.Context) (*models.StoragePreference, error)
	Save(ctx context.Context, pref *models.StoragePreference) error
}

// Store is the persistence boundary used by the services.
type Store interface {
	Posts() PostRepository
	Comments() CommentRepository
	Classifications() TaxonomyRepository
	Tags() TaxonomyRepository
	Users() UserRepository
	StoragePreference() StoragePreferenceRepository

	// Transaction runs fn against a Store bound to a single transaction.
	Transaction(ctx context.Context, fn func(Store) error) error
}

type Database struct {
	db                    *gorm.DB
	postRepo              *PostRepo
	commentRepo           *CommentRepo
	classificationRepo    *TaxonomyRepo
	tagRepo               *TaxonomyRepo
	userRepo              *UserRepo
	storagePreferenceRepo *StoragePreferenceRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:                    db,
		postRepo:              NewPostRepo(db),
		commentRepo:           NewCommentRepo(db),
		classificationRepo:    NewClassificationRepo(db),
		tagRepo:               NewTagRepo(db),
		userRepo:              NewUserRepo(db),
		storagePreferenceRepo: NewStoragePreferenceRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) Posts() PostRepository {
	return d.postRepo
}

func (d Database) Comments() CommentRepository {
	return d.commentRepo
}

func (d Database) Classifications() TaxonomyRepository {
	return d.classificationRepo
}

func (d Database) Tags() TaxonomyRepository {
	return d.tagRepo
}

func (d Database) Users() UserRepository {
	return d.userRepo
}

func (d Database) StoragePreference() StoragePreferenceRepository {
	return d.storagePreferenceRepo
}

func (d Database) Transaction(ctx context.Context, fn func(Store) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
