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

const maxCommentLength = 5000

// CommentInput describes a new comment. ParentID is optional; Status defaults to draft.
type CommentInput struct {
	PostID   uint
	Content  string
	ParentID *uint
	Status   *models.Status
}

// CommentUpdate carries moderator edits. Nil fields are left unchanged;
// DetachParent turns a reply into a top-level comment.
type CommentUpdate struct {
	Content      *string
	Status       *models.Status
	Banned       *bool
	ParentID     *uint
	DetachParent bool
}

type CommentService struct {
	store          database.Store
	allowAnonymous bool
	logger         zerolog.Logger
}

func NewCommentService(store database.Store, allowAnonymous bool, logger zerolog.Logger) *CommentService {
	return &CommentService{
		store:          store,
		allowAnonymous: allowAnonymous,
		logger:         logger.With().Str("service", "comments").Logger(),
	}
}

// Create validates and stores a comment. Nothing is persisted when validation fails.
func (s *CommentService) Create(ctx context.Context, actor *models.User, input CommentInput) (*models.Comment, error) {
	if actor == nil && !s.allowAnonymous {
		return nil, errs.NewMissingTokenError()
	}

	content, err := validateCommentContent(input.Content)
	if err != nil {
		return nil, err
	}

	post, err := s.store.Posts().FindByID(ctx, input.PostID)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "post", err)
	}
	if !canSee(actor, post) {
		return nil, errs.NewNotFound("post")
	}

	if input.ParentID != nil {
		if err := s.checkParent(ctx, post.ID, *input.ParentID, 0); err != nil {
			return nil, err
		}
	}

	comment := &models.Comment{
		Content:  content,
		Status:   models.StatusDraft,
		PostID:   post.ID,
		ParentID: input.ParentID,
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, errs.NewInvalidFieldError("status", "status must be 0 (draft), 1 (published) or 2 (deleted)")
		}
		comment.Status = *input.Status
	}
	if actor != nil {
		comment.AuthorID = &actor.ID
	}

	if err := s.store.Comments().Add(ctx, comment); err != nil {
		return nil, errs.NewDatabaseError("create", "comment", err)
	}
	s.logger.Info().Uint("commentID", comment.ID).Uint("postID", post.ID).Msg("comment created")
	return comment, nil
}

// checkParent requires the parent to exist, be visible and sit on postID.
// A non-zero self rejects parents that descend from the comment being moved.
func (s *CommentService) checkParent(ctx context.Context, postID, parentID, self uint) error {
	parent, err := s.store.Comments().FindVisibleByID(ctx, parentID)
	if err != nil {
		if errs.IsNotFound(err) {
			return errs.NewInvalidFieldError("parent", "parent comment does not exist")
		}
		return errs.NewDatabaseError("find", "comment", err)
	}
	if parent.PostID != postID {
		return errs.NewCommentPostMismatchError(postID, parent.PostID)
	}
	if self == 0 {
		return nil
	}

	for cursor := parent; ; {
		if cursor.ID == self {
			return errs.NewCommentParentCycleError(self)
		}
		if cursor.ParentID == nil {
			return nil
		}
		next, err := s.store.Comments().FindByID(ctx, *cursor.ParentID)
		if err != nil {
			return errs.NewDatabaseError("find", "comment", err)
		}
		cursor = next
	}
}

// ListVisible returns non-banned comments.
func (s *CommentService) ListVisible(ctx context.Context, filter database.CommentFilter) ([]*models.Comment, error) {
	comments, err := s.store.Comments().FindVisible(ctx, filter)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "comments", err)
	}
	return comments, nil
}

// ListAll returns comments including banned ones, for moderators.
func (s *CommentService) ListAll(ctx context.Context, filter database.CommentFilter) ([]*models.Comment, error) {
	comments, err := s.store.Comments().FindAll(ctx, filter)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "comments", err)
	}
	return comments, nil
}

// GetVisible treats banned comments as missing.
func (s *CommentService) GetVisible(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.store.Comments().FindVisibleByID(ctx, id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "comment", err)
	}
	return comment, nil
}

func (s *CommentService) GetAny(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.store.Comments().FindByID(ctx, id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "comment", err)
	}
	return comment, nil
}

// Tree returns the top-level comments of a post with replies down to depth.
func (s *CommentService) Tree(ctx context.Context, postID uint, depth int, includeBanned bool) ([]*CommentNode, error) {
	filter := database.CommentFilter{PostID: &postID, RootOnly: true}

	var (
		roots []*models.Comment
		err   error
	)
	if includeBanned {
		roots, err = s.store.Comments().FindAll(ctx, filter)
	} else {
		roots, err = s.store.Comments().FindVisible(ctx, filter)
	}
	if err != nil {
		return nil, errs.NewDatabaseError("list", "comments", err)
	}

	nodes, err := buildTree(ctx, s.store.Comments(), roots, depth, includeBanned)
	if err != nil {
		return nil, errs.NewDatabaseError("load replies of", "comments", err)
	}
	return nodes, nil
}

// Update applies moderator edits. The post of a comment never changes.
func (s *CommentService) Update(ctx context.Context, actor *models.User, id uint, update CommentUpdate) (*models.Comment, error) {
	if !actor.IsAdmin() {
		return nil, errs.NewInsufficientRoleError("admin")
	}

	comment, err := s.store.Comments().FindByID(ctx, id)
	if err != nil {
		return nil, errs.NewDatabaseError("find", "comment", err)
	}

	if update.Content != nil {
		content, err := validateCommentContent(*update.Content)
		if err != nil {
			return nil, err
		}
		comment.Content = content
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, errs.NewInvalidFieldError("status", "status must be 0 (draft), 1 (published) or 2 (deleted)")
		}
		comment.Status = *update.Status
	}
	if update.Banned != nil {
		comment.Banned = *update.Banned
	}
	switch {
	case update.DetachParent:
		comment.ParentID = nil
	case update.ParentID != nil:
		if err := s.checkParent(ctx, comment.PostID, *update.ParentID, comment.ID); err != nil {
			return nil, err
		}
		parentID := *update.ParentID
		comment.ParentID = &parentID
	}

	if err := s.store.Comments().Update(ctx, comment); err != nil {
		return nil, errs.NewDatabaseError("update", "comment", err)
	}
	return comment, nil
}

// Delete removes a comment with its whole reply subtree.
func (s *CommentService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if actor == nil {
		return errs.NewMissingTokenError()
	}
	comment, err := s.store.Comments().FindByID(ctx, id)
	if err != nil {
		return errs.NewDatabaseError("find", "comment", err)
	}
	if !actor.IsAdmin() && !isAuthor(actor, comment.AuthorID) {
		return errs.NewForbiddenError("only the author or an administrator may delete this comment")
	}
	if err := s.store.Comments().Delete(ctx, id); err != nil {
		return errs.NewDatabaseError("delete", "comment", err)
	}
	return nil
}

func (s *CommentService) Ban(ctx context.Context, ids []uint) (int64, error) {
	return s.store.Comments().SetBanned(ctx, ids, true)
}

func (s *CommentService) Unban(ctx context.Context, ids []uint) (int64, error) {
	return s.store.Comments().SetBanned(ctx, ids, false)
}

// Approve publishes the selected comments.
func (s *CommentService) Approve(ctx context.Context, ids []uint) (int64, error) {
	return s.store.Comments().SetStatus(ctx, ids, models.StatusPublished)
}

// Retract moves the selected comments back to draft.
func (s *CommentService) Retract(ctx context.Context, ids []uint) (int64, error) {
	return s.store.Comments().SetStatus(ctx, ids, models.StatusDraft)
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errs.NewMissingRequiredFieldError("content")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", errs.NewInvalidFieldError("content", "must be at most 5000 characters")
	}
	return content, nil
}
