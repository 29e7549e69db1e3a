package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/myblog-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type taxonomyHandler struct {
	responder Responder
	logger    zerolog.Logger
	taxonomy  *services.TaxonomyService
}

func newTaxonomyHandler(taxonomy *services.TaxonomyService) taxonomyHandler {
	logger := log.With().Str("handlerName", "taxonomyHandler").Logger()
	return taxonomyHandler{
		responder: NewResponder(logger),
		logger:    logger,
		taxonomy:  taxonomy,
	}
}

// @Summary List classifications or tags
// @Description Returns every entry with its cached post count
// @Tags taxonomy
// @Produce json
// @Success 200 {object} listResponse[models.Taxonomy]
// @Router /classifications [get]
// @Router /tags [get]
func (h taxonomyHandler) listEntries(kind services.TaxonomyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := h.taxonomy.List(r.Context(), kind)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, newListResponse(entries))
	}
}

// @Summary Get a classification or tag
// @Tags taxonomy
// @Produce json
// @Param name path string true "Name"
// @Success 200 {object} models.Taxonomy
// @Failure 404 {object} ErrorResponse
// @Router /classifications/{name} [get]
// @Router /tags/{name} [get]
func (h taxonomyHandler) getEntry(kind services.TaxonomyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := h.taxonomy.Get(r.Context(), kind, nameParam(r))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, entry)
	}
}

// @Summary Create a classification or tag
// @Tags taxonomy
// @Accept json
// @Produce json
// @Param entry body taxonomyRequest true "Entry"
// @Success 201 {object} models.Taxonomy
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/classifications [post]
// @Router /admin/tags [post]
func (h taxonomyHandler) createEntry(kind services.TaxonomyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req taxonomyRequest
		if err := decodeJSON(w, r, string(kind), &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entry, err := h.taxonomy.Create(r.Context(), kind, req.Name, req.Color)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteStatusJSON(w, http.StatusCreated, entry)
	}
}

// @Summary Change the color of a classification or tag
// @Tags taxonomy
// @Accept json
// @Produce json
// @Param name path string true "Name"
// @Param entry body taxonomyUpdateRequest true "Color"
// @Success 200 {object} models.Taxonomy
// @Failure 404 {object} ErrorResponse
// @Router /admin/classifications/{name} [put]
// @Router /admin/tags/{name} [put]
func (h taxonomyHandler) updateEntry(kind services.TaxonomyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req taxonomyUpdateRequest
		if err := decodeJSON(w, r, string(kind), &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entry, err := h.taxonomy.Update(r.Context(), kind, nameParam(r), req.Color)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, entry)
	}
}

// @Summary Delete a classification or tag
// @Description Posts keep existing without the deleted classification or tag
// @Tags taxonomy
// @Param name path string true "Name"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /admin/classifications/{name} [delete]
// @Router /admin/tags/{name} [delete]
func (h taxonomyHandler) deleteEntry(kind services.TaxonomyKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.taxonomy.Delete(r.Context(), kind, nameParam(r)); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteNoContent(w)
	}
}

// @Summary Recount classification and tag usage
// @Tags taxonomy
// @Produce json
// @Success 200 {object} batchResponse
// @Router /admin/taxonomy/recount [post]
func (h taxonomyHandler) recount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changed, err := h.taxonomy.Recount(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.logger.Info().Int("changed", changed).Msg("taxonomy counts recomputed")
		h.responder.WriteJSON(w, batchResponse{Affected: int64(changed)})
	}
}

func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
