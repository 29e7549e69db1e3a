package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/myblog-backend/services"
)

// setupPublicRoutes registers the reader and author endpoints. Reads are open;
// writes need an authenticated user.
func setupPublicRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware) {
	posts := handlers.postHandler
	comments := handlers.commentHandler
	taxonomy := handlers.taxonomyHandler

	r.Get("/health", handlers.healthHandler.health())

	r.Get("/posts", posts.listPosts())
	r.Get("/posts/{key}", posts.getPost())
	r.Get("/posts/{key}/comments", posts.getCommentTree(false))
	r.Post("/posts/{key}/comments", posts.createComment())

	r.Get("/comments", comments.listComments())
	r.Post("/comments", comments.createComment())
	r.Get("/comments/{id}", comments.getComment())

	r.Get("/classifications", taxonomy.listEntries(services.KindClassification))
	r.Get("/classifications/{name}", taxonomy.getEntry(services.KindClassification))
	r.Get("/tags", taxonomy.listEntries(services.KindTag))
	r.Get("/tags/{name}", taxonomy.getEntry(services.KindTag))

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.requireUser)

		r.Post("/posts", posts.createPost())
		r.Put("/posts/{key}", posts.updatePost(true))
		r.Patch("/posts/{key}", posts.updatePost(false))
		r.Delete("/posts/{key}", posts.deletePost())
		r.Post("/posts/{key}/tags", posts.addTags())
		r.Delete("/posts/{key}/tags", posts.removeTags())

		r.Put("/comments/{id}", comments.updateComment())
		r.Patch("/comments/{id}", comments.updateComment())
		r.Delete("/comments/{id}", comments.deleteComment())

		r.Post("/uploads", handlers.uploadHandler.uploadImages())
		r.Get("/users/me", handlers.userHandler.getMe())
		r.Post("/users/me/avatar", handlers.userHandler.uploadAvatar())
	})
}

// setupAdminRoutes registers the staff-only endpoints under /admin.
func setupAdminRoutes(r chi.Router, handlers *routeHandlers, auth authMiddleware, svc Services) {
	admin := handlers.adminHandler
	taxonomy := handlers.taxonomyHandler
	users := handlers.userHandler

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.requireAdmin)

		r.Get("/comments", admin.listAllComments())
		r.Get("/comments/{id}", admin.getComment())
		r.Post("/comments/ban", admin.batch("ban", svc.Comments.Ban))
		r.Post("/comments/unban", admin.batch("unban", svc.Comments.Unban))
		r.Post("/comments/approve", admin.batch("approve", svc.Comments.Approve))
		r.Post("/comments/retract", admin.batch("retract", svc.Comments.Retract))

		r.Get("/posts/{key}/comments", handlers.postHandler.getCommentTree(true))
		r.Post("/posts/publish", admin.batch("publish", svc.Posts.Publish))
		r.Post("/posts/unpublish", admin.batch("unpublish", svc.Posts.Unpublish))
		r.Post("/posts/pin", admin.batch("pin", svc.Posts.Pin))
		r.Post("/posts/unpin", admin.batch("unpin", svc.Posts.Unpin))
		r.Post("/posts/rebuild-slug", admin.batch("rebuild-slug", svc.Posts.RebuildSlugs))

		for prefix, kind := range map[string]services.TaxonomyKind{
			"/classifications": services.KindClassification,
			"/tags":            services.KindTag,
		} {
			r.Post(prefix, taxonomy.createEntry(kind))
			r.Put(prefix+"/{name}", taxonomy.updateEntry(kind))
			r.Delete(prefix+"/{name}", taxonomy.deleteEntry(kind))
		}
		r.Post("/taxonomy/recount", taxonomy.recount())

		r.Get("/users", users.listUsers())
		r.Post("/users", users.createUser())
		r.Delete("/users/{id}", users.deleteUser())

		r.Get("/storage-preference", admin.getStoragePreference())
		r.Put("/storage-preference", admin.updateStoragePreference())
	})
}
