package api

import (
	"context"
	"strings"

	"github.com/rpupo63/myblog-backend/models"
	"github.com/rpupo63/myblog-backend/services"
)

// Services bundles the domain services the HTTP layer depends on.
type Services struct {
	Posts    *services.PostService
	Comments *services.CommentService
	Taxonomy *services.TaxonomyService
	Users    *services.UserService
	Media    *services.MediaService
	Renderer *services.Renderer
}

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	postHandler     postHandler
	commentHandler  commentHandler
	taxonomyHandler taxonomyHandler
	uploadHandler   uploadHandler
	userHandler     userHandler
	adminHandler    adminHandler
	healthHandler   healthHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal Server Error"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

// listResponse wraps collection responses
type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Total: len(items)}
}

// batchResponse reports how many rows a batch action touched
type batchResponse struct {
	Affected int64 `json:"affected" example:"3"`
}

// postRequest is the writable representation of a post. Fields left out of a
// PATCH body are not changed.
type postRequest struct {
	Title          *string   `json:"title" validate:"omitempty,max=200"`
	Slug           *string   `json:"slug" validate:"omitempty,max=255"`
	Content        *string   `json:"content"`
	Summary        *string   `json:"summary"`
	CoverImage     *string   `json:"coverImage" validate:"omitempty,max=2048"`
	Status         *int      `json:"status" validate:"omitempty,oneof=0 1 2"`
	Visible        *bool     `json:"visible"`
	IsPinned       *bool     `json:"isPinned"`
	Classification *string   `json:"classification" validate:"omitempty,max=32"`
	Tags           *[]string `json:"tags" validate:"omitempty,dive,max=32"`
}

func (p postRequest) toInput() services.PostInput {
	return services.PostInput{
		Title:          p.Title,
		Slug:           p.Slug,
		Content:        p.Content,
		Summary:        p.Summary,
		CoverImage:     p.CoverImage,
		Status:         toStatus(p.Status),
		Visible:        p.Visible,
		IsPinned:       p.IsPinned,
		Classification: p.Classification,
		Tags:           p.Tags,
	}
}

// missingForReplace names the first field a full replacement must carry.
func (p postRequest) missingForReplace() string {
	switch {
	case p.Title == nil || strings.TrimSpace(*p.Title) == "":
		return "title"
	case p.Content == nil || strings.TrimSpace(*p.Content) == "":
		return "content"
	}
	return ""
}

type commentRequest struct {
	Post    uint   `json:"post"`
	Content string `json:"content" validate:"required,max=5000"`
	Parent  *uint  `json:"parent"`
	Status  *int   `json:"status" validate:"omitempty,oneof=0 1 2"`
}

func (c commentRequest) toInput(postID uint) services.CommentInput {
	return services.CommentInput{
		PostID:   postID,
		Content:  c.Content,
		ParentID: c.Parent,
		Status:   toStatus(c.Status),
	}
}

type commentUpdateRequest struct {
	Content      *string `json:"content" validate:"omitempty,max=5000"`
	Status       *int    `json:"status" validate:"omitempty,oneof=0 1 2"`
	Banned       *bool   `json:"banned"`
	Parent       *uint   `json:"parent"`
	DetachParent bool    `json:"detachParent"`
}

func (c commentUpdateRequest) toUpdate() services.CommentUpdate {
	return services.CommentUpdate{
		Content:      c.Content,
		Status:       toStatus(c.Status),
		Banned:       c.Banned,
		ParentID:     c.Parent,
		DetachParent: c.DetachParent,
	}
}

type tagsRequest struct {
	Tags []string `json:"tags" validate:"dive,max=32"`
}

type idsRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1"`
}

type taxonomyRequest struct {
	Name  string `json:"name" validate:"required,max=32"`
	Color string `json:"color" validate:"max=32"`
}

type taxonomyUpdateRequest struct {
	Color string `json:"color" validate:"max=32"`
}

type userRequest struct {
	Username    string `json:"username" validate:"required,max=150"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Signature   string `json:"signature"`
	IsStaff     bool   `json:"isStaff"`
	IsSuperuser bool   `json:"isSuperuser"`
}

type storagePreferenceRequest struct {
	UseObjectStorage *bool  `json:"useObjectStorage" validate:"required"`
	CDNDomain        string `json:"cdnDomain" validate:"max=255"`
}

type storagePreferenceResponse struct {
	*models.StoragePreference
	ObjectStorageReady bool `json:"objectStorageReady"`
}

// postView is the read representation of a post
type postView struct {
	*models.Post
	ContentHTML string `json:"contentHtml,omitempty"`
	URL         string `json:"url"`
}

func toStatus(v *int) *models.Status {
	if v == nil {
		return nil
	}
	s := models.Status(*v)
	return &s
}

// postPresenter turns posts into their read representation.
type postPresenter struct {
	renderer *services.Renderer
	baseURL  string
}

func (p postPresenter) view(ctx context.Context, post *models.Post, withHTML bool) postView {
	view := postView{Post: post, URL: services.BuildPostURL(p.baseURL, post.Slug)}
	if withHTML && p.renderer != nil {
		view.ContentHTML = p.renderer.RenderPost(ctx, post)
	}
	return view
}

func (p postPresenter) views(ctx context.Context, posts []*models.Post) []postView {
	out := make([]postView, 0, len(posts))
	for _, post := range posts {
		out = append(out, p.view(ctx, post, false))
	}
	return out
}
