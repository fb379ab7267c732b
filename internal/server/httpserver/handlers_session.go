package httpserver

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/server/auth"
	"github.com/dmitrijs2005/partsinventory/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// readLogin accepts the login form or an equivalent JSON body.
func readLogin(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	var req loginRequest
	if isJSON(r) {
		err := decodeBody(w, r, &req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}

// login runs the credential check detached from client cancellation so a
// disconnect never interrupts hashing or leaves a half-written session.
func (h *Handler) login(ctx context.Context, req loginRequest) (*services.LoginResult, error) {
	return h.sessions.Login(context.WithoutCancel(ctx), req.Username, req.Password)
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	if IdentityFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "login", nil)
}

func (h *Handler) loginSubmit(w http.ResponseWriter, r *http.Request) {
	req, err := readLogin(w, r)
	if err != nil {
		h.setFlash(w, flashError, auth.PublicFailureMessage)
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}

	out, err := h.login(r.Context(), req)
	switch {
	case err == nil:
		h.setSessionCookie(w, out)
		http.Redirect(w, r, "/", http.StatusFound)
	case errors.Is(err, common.ErrInvalidCredentials):
		h.setFlash(w, flashError, auth.PublicFailureMessage)
		http.Redirect(w, r, loginPath, http.StatusFound)
	default:
		h.renderError(w, r, err)
	}
}

func (h *Handler) logoutSubmit(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), h.sessionToken(r)); err != nil {
		h.renderError(w, r, err)
		return
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeBadRequest(w, r, "create_session", err)
		return
	}

	out, err := h.login(r.Context(), req)
	if err != nil {
		h.writeMappedError(w, r, "create_session", err)
		return
	}
	h.setSessionCookie(w, out)
	writeSuccess(w, http.StatusOK, map[string]any{
		"user":       out.Identity,
		"expires_at": out.Session.ExpiresAt,
	})
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"user": IdentityFromContext(r.Context())})
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), h.sessionToken(r)); err != nil {
		h.writeMappedError(w, r, "delete_session", err)
		return
	}
	h.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "logged out")
}
