package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/server/models"
	"github.com/dmitrijs2005/partsinventory/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Admin     any    `json:"admin"`
}

func (req registerRequest) input() services.RegisterInput {
	in := services.RegisterInput{
		UserName:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}
	if req.Admin != nil {
		admin := services.ParseAdminFlag(req.Admin)
		in.Admin = &admin
	}
	return in
}

type updateRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Admin     any     `json:"admin"`
}

func (req updateRequest) input() services.UpdateInput {
	in := services.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	}
	if req.Admin != nil {
		admin := services.ParseAdminFlag(req.Admin)
		in.Admin = &admin
	}
	return in
}

func registerInputFromForm(form url.Values) services.RegisterInput {
	in := services.RegisterInput{
		UserName:  form.Get("username"),
		Password:  form.Get("password"),
		FirstName: form.Get("first_name"),
		LastName:  form.Get("last_name"),
		Email:     form.Get("email"),
	}
	if _, ok := form["admin"]; ok {
		admin := services.ParseAdminFlag(form.Get("admin"))
		in.Admin = &admin
	}
	return in
}

// updateInputFromForm treats blank text fields as unchanged. An unchecked
// admin box is only meaningful when an admin submits the form.
func updateInputFromForm(form url.Values, requester *models.Identity) services.UpdateInput {
	var in services.UpdateInput
	optional := func(key string) *string {
		v := strings.TrimSpace(form.Get(key))
		if v == "" {
			return nil
		}
		return &v
	}
	in.FirstName = optional("first_name")
	in.LastName = optional("last_name")
	in.Email = optional("email")
	if p := form.Get("password"); p != "" {
		in.Password = &p
	}
	if _, ok := form["admin"]; ok || requester.IsAdmin() {
		admin := services.ParseAdminFlag(form.Get("admin"))
		in.Admin = &admin
	}
	return in
}

func publicUsers(list []*models.User) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(list))
	for _, u := range list {
		out = append(out, u.Public())
	}
	return out
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", nil)
}

func (h *Handler) registerSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}
	in := registerInputFromForm(r.PostForm)
	requester := IdentityFromContext(r.Context())

	u, err := h.users.Register(r.Context(), requester, in)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			in.Password = ""
			h.render(w, r, http.StatusBadRequest, "register", &in, verr.Messages()...)
			return
		}
		h.renderError(w, r, err)
		return
	}

	if requester == nil {
		h.setFlash(w, flashSuccess, "Account created, please log in")
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}
	h.setFlash(w, flashSuccess, "User "+u.UserName+" created")
	http.Redirect(w, r, "/users/"+u.ID, http.StatusFound)
}

func (h *Handler) usersPage(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "users", publicUsers(list))
}

func (h *Handler) userPage(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "user", u.Public())
}

func (h *Handler) updateUserSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}
	requester := IdentityFromContext(r.Context())

	_, err := h.users.Update(r.Context(), requester, id, updateInputFromForm(r.PostForm, requester))
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			h.setFlash(w, flashError, strings.Join(verr.Messages(), "; "))
			http.Redirect(w, r, "/users/"+id, http.StatusFound)
			return
		}
		h.renderError(w, r, err)
		return
	}
	h.setFlash(w, flashSuccess, "User updated")
	http.Redirect(w, r, "/users/"+id, http.StatusFound)
}

func (h *Handler) deleteUserSubmit(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.renderError(w, r, err)
		return
	}
	h.setFlash(w, flashSuccess, "User deleted")
	http.Redirect(w, r, "/users", http.StatusFound)
}

func (h *Handler) apiRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeBadRequest(w, r, "register_user", err)
		return
	}
	u, err := h.users.Register(r.Context(), IdentityFromContext(r.Context()), req.input())
	if err != nil {
		h.writeMappedError(w, r, "register_user", err)
		return
	}
	writeSuccess(w, http.StatusCreated, u.Public())
}

func (h *Handler) apiListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		h.writeMappedError(w, r, "list_users", err)
		return
	}
	writeSuccess(w, http.StatusOK, publicUsers(list))
}

func (h *Handler) apiGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeMappedError(w, r, "get_user", err)
		return
	}
	writeSuccess(w, http.StatusOK, u.Public())
}

func (h *Handler) apiUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeBadRequest(w, r, "update_user", err)
		return
	}
	u, err := h.users.Update(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.writeMappedError(w, r, "update_user", err)
		return
	}
	writeSuccess(w, http.StatusOK, u.Public())
}

func (h *Handler) apiDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeMappedError(w, r, "delete_user", err)
		return
	}
	writeMessage(w, http.StatusOK, "user deleted")
}
