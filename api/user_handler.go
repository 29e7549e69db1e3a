package api

import (
	"net/http"

	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type userHandler struct {
	responder Responder
	logger    zerolog.Logger
	users     *services.UserService
	maxBytes  int64
}

func newUserHandler(users *services.UserService, maxUploadBytes int64) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()
	return userHandler{
		responder: NewResponder(logger),
		logger:    logger,
		users:     users,
		maxBytes:  maxUploadBytes,
	}
}

// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h userHandler) getMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxGetUser(r.Context())
		if user == nil {
			h.responder.WriteError(w, errs.NewMissingTokenError())
			return
		}
		h.responder.WriteJSON(w, user)
	}
}

// @Summary Replace the avatar of the current user
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /users/me/avatar [post]
func (h userHandler) uploadAvatar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploads, err := readUploads(w, r, h.maxBytes)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.users.SetAvatar(r.Context(), ctxGetUser(r.Context()), uploads[0])
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, user)
	}
}

// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} listResponse[models.User]
// @Router /admin/users [get]
func (h userHandler) listUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.users.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, newListResponse(users))
	}
}

// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body userRequest true "User"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/users [post]
func (h userHandler) createUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userRequest
		if err := decodeJSON(w, r, "user", &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.users.Create(r.Context(), services.UserInput{
			Username:    req.Username,
			Email:       req.Email,
			Signature:   req.Signature,
			IsStaff:     req.IsStaff,
			IsSuperuser: req.IsSuperuser,
		})
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteStatusJSON(w, http.StatusCreated, user)
	}
}

// @Summary Delete a user
// @Description Posts and comments of the user remain without an author
// @Tags users
// @Param id path int true "User id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /admin/users/{id} [delete]
func (h userHandler) deleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if actor := ctxGetUser(r.Context()); actor != nil && actor.ID == id {
			h.responder.WriteError(w, errs.NewForbiddenError("administrators cannot delete their own account"))
			return
		}

		if err := h.users.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}
