package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/partsinventory/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// NewRouter registers every route and the shared middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.accessLogMiddleware)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware(h.renderError))

		r.Get("/", h.index)
		r.Route("/users", func(r chi.Router) {
			r.Get("/login", h.loginPage)
			r.Post("/login", h.loginSubmit)
			r.Post("/logout", h.logoutSubmit)
			r.Get("/register", h.registerPage)
			r.Post("/register", h.registerSubmit)

			r.Group(func(r chi.Router) {
				r.Use(h.requireLogin())
				r.Get("/", h.usersPage)
				r.Get("/{id}", h.userPage)
				r.Post("/{id}/update", h.updateUserSubmit)
			})
			r.With(h.requireAdminPage()).Post("/{id}/delete", h.deleteUserSubmit)
		})
		r.With(h.requireLogin()).Get("/part-categories", h.categoriesPage)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(h.sessionMiddleware(func(w http.ResponseWriter, r *http.Request, err error) {
			h.writeMappedError(w, r, "resolve_session", err)
		}))

		r.Post("/session", h.createSession)
		r.With(h.requireAPIAuth()).Get("/session", h.currentSession)
		r.Delete("/session", h.deleteSession)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.apiRegister)
			r.Group(func(r chi.Router) {
				r.Use(h.requireAPIAuth())
				r.Get("/", h.apiListUsers)
				r.Get("/{id}", h.apiGetUser)
				r.Patch("/{id}", h.apiUpdateUser)
			})
			r.With(h.requireAPIRole(models.RoleAdmin)).Delete("/{id}", h.apiDeleteUser)
		})

		r.Route("/part-categories", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(h.requireAPIAuth())
				r.Get("/", h.apiListCategories)
				r.Post("/", h.apiCreateCategory)
				r.Get("/{id}", h.apiGetCategory)
			})
			r.With(h.requireAPIRole(models.RoleAdmin)).Delete("/{id}", h.apiDeleteCategory)
		})
	})

	return r
}
