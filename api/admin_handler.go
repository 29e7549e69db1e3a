package api

import (
	"context"
	"net/http"

	"github.com/rpupo63/myblog-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// batchAction applies one moderation or publishing change to a set of ids.
type batchAction func(ctx context.Context, ids []uint) (int64, error)

type adminHandler struct {
	responder Responder
	logger    zerolog.Logger
	posts     *services.PostService
	comments  *services.CommentService
	media     *services.MediaService
}

func newAdminHandler(posts *services.PostService, comments *services.CommentService, media *services.MediaService) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()
	return adminHandler{
		responder: NewResponder(logger),
		logger:    logger,
		posts:     posts,
		comments:  comments,
		media:     media,
	}
}

// @Summary List all comments
// @Description Lists comments including banned ones
// @Tags admin
// @Produce json
// @Param post query int false "Post id"
// @Param parent query int false "Parent comment id"
// @Param banned query string false "true/1/false/0"
// @Success 200 {object} listResponse[models.Comment]
// @Router /admin/comments [get]
func (h adminHandler) listAllComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseCommentFilter(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		banned, err := queryBool(r, "banned")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		filter.Banned = banned

		comments, err := h.comments.ListAll(r.Context(), filter)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, newListResponse(comments))
	}
}

// @Summary Get any comment
// @Description Returns a comment by id even when it is banned
// @Tags admin
// @Produce json
// @Param id path int true "Comment id"
// @Success 200 {object} models.Comment
// @Failure 404 {object} ErrorResponse
// @Router /admin/comments/{id} [get]
func (h adminHandler) getComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comment, err := h.comments.GetAny(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, comment)
	}
}

// @Summary Run a batch action
// @Description Applies ban, unban, approve or retract to comments, or publish, unpublish, pin, unpin or rebuild-slug to posts
// @Tags admin
// @Accept json
// @Produce json
// @Param ids body idsRequest true "Selected ids"
// @Success 200 {object} batchResponse
// @Failure 400 {object} ErrorResponse
// @Router /admin/comments/{action} [post]
// @Router /admin/posts/{action} [post]
func (h adminHandler) batch(name string, action batchAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req idsRequest
		if err := decodeJSON(w, r, "ids", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		affected, err := action(r.Context(), req.IDs)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("action", name).Int("selected", len(req.IDs)).Int64("affected", affected).Msg("batch action applied")
		h.responder.WriteJSON(w, batchResponse{Affected: affected})
	}
}

// @Summary Object storage preference
// @Tags admin
// @Produce json
// @Success 200 {object} storagePreferenceResponse
// @Router /admin/storage-preference [get]
func (h adminHandler) getStoragePreference() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pref, err := h.media.Preference(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, storagePreferenceResponse{pref, h.media.ObjectStorageReady()})
	}
}

// @Summary Change the object storage preference
// @Tags admin
// @Accept json
// @Produce json
// @Param preference body storagePreferenceRequest true "Preference"
// @Success 200 {object} storagePreferenceResponse
// @Router /admin/storage-preference [put]
func (h adminHandler) updateStoragePreference() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req storagePreferenceRequest
		if err := decodeJSON(w, r, "storage preference", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		pref, err := h.media.SetPreference(r.Context(), *req.UseObjectStorage, req.CDNDomain)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, storagePreferenceResponse{pref, h.media.ObjectStorageReady()})
	}
}
