package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/rpupo63/myblog-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type postHandler struct {
	responder Responder
	logger    zerolog.Logger
	posts     *services.PostService
	comments  *services.CommentService
	presenter postPresenter
}

func newPostHandler(posts *services.PostService, comments *services.CommentService, presenter postPresenter) postHandler {
	logger := log.With().Str("handlerName", "postHandler").Logger()
	return postHandler{
		responder: NewResponder(logger),
		logger:    logger,
		posts:     posts,
		comments:  comments,
		presenter: presenter,
	}
}

// @Summary List posts
// @Description Lists posts visible to the caller, newest pinned first unless an ordering is given
// @Tags posts
// @Produce json
// @Param classification query string false "Comma separated classification names"
// @Param tags query string false "Comma separated tag names (any of)"
// @Param status query int false "0 draft, 1 published, 2 deleted"
// @Param is_pinned query string false "true/1/false/0"
// @Param start query string false "RFC3339 lower bound on createdAt"
// @Param end query string false "RFC3339 upper bound on createdAt"
// @Param ordering query string false "created_at, -created_at, is_pinned, -is_pinned, status, -status"
// @Success 200 {object} listResponse[postView]
// @Failure 400 {object} ErrorResponse
// @Router /posts [get]
func (h postHandler) listPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parsePostFilter(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		posts, err := h.posts.List(r.Context(), ctxGetUser(r.Context()), filter)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, newListResponse(h.presenter.views(r.Context(), posts)))
	}
}

// @Summary Get a post
// @Description Returns a post by id or slug with rendered HTML and counts the view
// @Tags posts
// @Produce json
// @Param key path string true "Post id or slug"
// @Success 200 {object} postView
// @Failure 404 {object} ErrorResponse
// @Router /posts/{key} [get]
func (h postHandler) getPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := h.posts.Get(r.Context(), ctxGetUser(r.Context()), chi.URLParam(r, "key"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, h.presenter.view(r.Context(), post, true))
	}
}

// @Summary Create a post
// @Description Creates a post authored by the caller
// @Tags posts
// @Accept json
// @Produce json
// @Param post body postRequest true "Post"
// @Success 201 {object} postView
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /posts [post]
func (h postHandler) createPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postRequest
		if err := decodeJSON(w, r, "post", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if field := req.missingForReplace(); field != "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError(field))
			return
		}

		post, err := h.posts.Create(r.Context(), ctxGetUser(r.Context()), req.toInput())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteStatusJSON(w, http.StatusCreated, h.presenter.view(r.Context(), post, true))
	}
}

// @Summary Update a post
// @Description PUT replaces the writable fields (title and content required), PATCH changes only the fields sent
// @Tags posts
// @Accept json
// @Produce json
// @Param key path string true "Post id or slug"
// @Param post body postRequest true "Post"
// @Success 200 {object} postView
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{key} [put]
// @Router /posts/{key} [patch]
func (h postHandler) updatePost(replace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postRequest
		if err := decodeJSON(w, r, "post", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if replace {
			if field := req.missingForReplace(); field != "" {
				h.responder.WriteError(w, errs.NewMissingRequiredFieldError(field))
				return
			}
		}

		post, err := h.posts.Update(r.Context(), ctxGetUser(r.Context()), chi.URLParam(r, "key"), req.toInput())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, h.presenter.view(r.Context(), post, true))
	}
}

// @Summary Delete a post
// @Description Deletes a post with all of its comments
// @Tags posts
// @Param key path string true "Post id or slug"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{key} [delete]
func (h postHandler) deletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.posts.Delete(r.Context(), ctxGetUser(r.Context()), chi.URLParam(r, "key")); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}

// @Summary Comment tree of a post
// @Description Top-level comments of the post with replies down to the requested depth
// @Tags comments
// @Produce json
// @Param key path string true "Post id or slug"
// @Param depth query int false "Levels to return, root level counts as 1 (default 2)"
// @Success 200 {object} listResponse[services.CommentNode]
// @Failure 404 {object} ErrorResponse
// @Router /posts/{key}/comments [get]
func (h postHandler) getCommentTree(includeBanned bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := h.posts.Resolve(r.Context(), ctxGetUser(r.Context()), chi.URLParam(r, "key"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		depth := services.ParseDepth(r.URL.Query().Get("depth"))
		tree, err := h.comments.Tree(r.Context(), post.ID, depth, includeBanned)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, newListResponse(tree))
	}
}

// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param key path string true "Post id or slug"
// @Param comment body commentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{key}/comments [post]
func (h postHandler) createComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commentRequest
		if err := decodeJSON(w, r, "comment", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.posts.Resolve(r.Context(), ctxGetUser(r.Context()), chi.URLParam(r, "key"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comment, err := h.comments.Create(r.Context(), ctxGetUser(r.Context()), req.toInput(post.ID))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteStatusJSON(w, http.StatusCreated, comment)
	}
}

// @Summary Attach tags
// @Tags posts
// @Accept json
// @Produce json
// @Param key path string true "Post id or slug"
// @Param tags body tagsRequest true "Tag names"
// @Success 200 {object} postView
// @Router /posts/{key}/tags [post]
func (h postHandler) addTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tagsRequest
		if err := decodeJSON(w, r, "tags", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.posts.AddTags(r.Context(), ctxGetUser(r.Context()), chi.URLParam(r, "key"), req.Tags)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, h.presenter.view(r.Context(), post, false))
	}
}

// @Summary Detach tags
// @Description Removes the listed tags; an empty list or empty body removes every tag
// @Tags posts
// @Accept json
// @Produce json
// @Param key path string true "Post id or slug"
// @Param tags body tagsRequest false "Tag names"
// @Success 200 {object} postView
// @Router /posts/{key}/tags [delete]
func (h postHandler) removeTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tagsRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, "tags", &req); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}

		actor := ctxGetUser(r.Context())
		key := chi.URLParam(r, "key")

		var (
			post *models.Post
			err  error
		)
		if len(req.Tags) == 0 {
			post, err = h.posts.ClearTags(r.Context(), actor, key)
		} else {
			post, err = h.posts.RemoveTags(r.Context(), actor, key, req.Tags)
		}
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, h.presenter.view(r.Context(), post, false))
	}
}

// parsePostFilter reads the list filters from the query string.
func parsePostFilter(r *http.Request) (database.PostFilter, error) {
	q := r.URL.Query()
	filter := database.PostFilter{
		Classifications: queryList(r, "classification"),
		Tags:            queryList(r, "tags"),
	}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		n, err := strconv.Atoi(raw)
		status := models.Status(n)
		if err != nil || !status.Valid() {
			return filter, errs.NewInvalidFieldError("status", "must be 0, 1 or 2")
		}
		filter.Status = &status
	}

	pinned, err := queryBool(r, "is_pinned")
	if err != nil {
		return filter, err
	}
	filter.Pinned = pinned

	for name, dst := range map[string]**time.Time{"start": &filter.Start, "end": &filter.End} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errs.NewInvalidFieldError(name, "must be an RFC3339 timestamp")
		}
		*dst = &t
	}

	if ordering := strings.TrimSpace(q.Get("ordering")); ordering != "" {
		if _, ok := database.PostOrderings[ordering]; !ok {
			return filter, errs.NewInvalidFieldError("ordering", "unsupported ordering")
		}
		filter.Ordering = ordering
	}

	return filter, nil
}
