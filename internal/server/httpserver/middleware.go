package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/logging"
	"github.com/dmitrijs2005/partsinventory/internal/server/auth"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
	"github.com/google/uuid"
)

const loginPath = "/users/login"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(common.RequestIDHeaderName)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, reqID)
		ctx := logging.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.log.Error(r.Context(), "panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if r.statusCode == 0 {
		r.statusCode = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(payload)
	r.bytes += n
	return n, err
}

func (h *Handler) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		elapsed := time.Since(start)
		if h.observer != nil {
			h.observer.ObserveHTTP(r.Method, statusCode, elapsed)
		}

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", statusCode,
			"bytes", recorder.bytes,
			"duration_ms", elapsed.Milliseconds(),
		}
		switch {
		case statusCode >= 500:
			h.log.Error(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			h.log.Warn(r.Context(), "http request completed", fields...)
		default:
			h.log.Info(r.Context(), "http request completed", fields...)
		}
	})
}

// sessionMiddleware resolves the session cookie into a request identity.
// Invalid sessions continue anonymously with the cookie cleared; store
// failures are handed to fail.
func (h *Handler) sessionMiddleware(fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(h.cookie.Name)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := h.sessions.Resolve(r.Context(), c.Value)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
			case errors.Is(err, common.ErrSessionInvalid):
				h.clearSessionCookie(w)
				next.ServeHTTP(w, r)
			default:
				fail(w, r, err)
			}
		})
	}
}

func gate(check func(*models.Identity) error, deny func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := check(IdentityFromContext(r.Context())); err != nil {
				deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requireRoleCheck(role models.Role) func(*models.Identity) error {
	return func(id *models.Identity) error { return auth.RequireRole(id, role) }
}

// requireLogin gates browser routes: anonymous requests go to the login page.
func (h *Handler) requireLogin() func(http.Handler) http.Handler {
	return gate(auth.RequireAuthenticated, h.denyPage)
}

func (h *Handler) requireAdminPage() func(http.Handler) http.Handler {
	return gate(requireRoleCheck(models.RoleAdmin), h.denyPage)
}

func (h *Handler) requireAPIAuth() func(http.Handler) http.Handler {
	return gate(auth.RequireAuthenticated, h.denyAPI)
}

func (h *Handler) requireAPIRole(role models.Role) func(http.Handler) http.Handler {
	return gate(requireRoleCheck(role), h.denyAPI)
}

func (h *Handler) denyPage(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrUnauthenticated) {
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}
	h.renderError(w, r, err)
}

func (h *Handler) denyAPI(w http.ResponseWriter, r *http.Request, err error) {
	h.writeMappedError(w, r, "authorize", err)
}
