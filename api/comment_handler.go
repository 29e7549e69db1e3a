package api

import (
	"net/http"

	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type commentHandler struct {
	responder Responder
	logger    zerolog.Logger
	comments  *services.CommentService
}

func newCommentHandler(comments *services.CommentService) commentHandler {
	logger := log.With().Str("handlerName", "commentHandler").Logger()
	return commentHandler{
		responder: NewResponder(logger),
		logger:    logger,
		comments:  comments,
	}
}

// @Summary List comments
// @Description Lists non-banned comments, newest first
// @Tags comments
// @Produce json
// @Param post query int false "Post id"
// @Param parent query int false "Parent comment id"
// @Success 200 {object} listResponse[models.Comment]
// @Failure 400 {object} ErrorResponse
// @Router /comments [get]
func (h commentHandler) listComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseCommentFilter(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comments, err := h.comments.ListVisible(r.Context(), filter)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, newListResponse(comments))
	}
}

// @Summary Get a comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment id"
// @Success 200 {object} models.Comment
// @Failure 404 {object} ErrorResponse
// @Router /comments/{id} [get]
func (h commentHandler) getComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comment, err := h.comments.GetVisible(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, comment)
	}
}

// @Summary Create a comment
// @Description Creates a comment on a post, optionally replying to another comment of the same post
// @Tags comments
// @Accept json
// @Produce json
// @Param comment body commentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /comments [post]
func (h commentHandler) createComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commentRequest
		if err := decodeJSON(w, r, "comment", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if req.Post == 0 {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("post"))
			return
		}

		comment, err := h.comments.Create(r.Context(), ctxGetUser(r.Context()), req.toInput(req.Post))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteStatusJSON(w, http.StatusCreated, comment)
	}
}

// @Summary Moderate a comment
// @Description Edits content, status, ban flag or parent. Administrators only.
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment id"
// @Param comment body commentUpdateRequest true "Changes"
// @Success 200 {object} models.Comment
// @Failure 403 {object} ErrorResponse
// @Router /comments/{id} [put]
// @Router /comments/{id} [patch]
func (h commentHandler) updateComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req commentUpdateRequest
		if err := decodeJSON(w, r, "comment", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comment, err := h.comments.Update(r.Context(), ctxGetUser(r.Context()), id, req.toUpdate())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, comment)
	}
}

// @Summary Delete a comment
// @Description Deletes a comment and all replies below it
// @Tags comments
// @Param id path int true "Comment id"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /comments/{id} [delete]
func (h commentHandler) deleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.comments.Delete(r.Context(), ctxGetUser(r.Context()), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}

func parseCommentFilter(r *http.Request) (database.CommentFilter, error) {
	var filter database.CommentFilter

	postID, err := queryUint(r, "post")
	if err != nil {
		return filter, err
	}
	parentID, err := queryUint(r, "parent")
	if err != nil {
		return filter, err
	}

	filter.PostID = postID
	filter.ParentID = parentID
	return filter, nil
}
