package api

import (
	"time"

	"github.com/rpupo63/myblog-backend/config"
	"github.com/rpupo63/myblog-backend/services"
)

const defaultMaxUploadMB = 10

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(svc Services, c map[string]string, startupTime time.Time) *routeHandlers {
	maxUploadBytes := int64(config.GetInt(c, "MAX_UPLOAD_MB", defaultMaxUploadMB)) << 20
	presenter := postPresenter{renderer: svc.Renderer, baseURL: services.GetBaseURL(c)}

	return &routeHandlers{
		postHandler:     newPostHandler(svc.Posts, svc.Comments, presenter),
		commentHandler:  newCommentHandler(svc.Comments),
		taxonomyHandler: newTaxonomyHandler(svc.Taxonomy),
		uploadHandler:   newUploadHandler(svc.Media, maxUploadBytes),
		userHandler:     newUserHandler(svc.Users, maxUploadBytes),
		adminHandler:    newAdminHandler(svc.Posts, svc.Comments, svc.Media),
		healthHandler:   newHealthHandler(startupTime),
	}
}
