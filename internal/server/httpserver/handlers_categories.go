package httpserver

import (
	"net/http"

	"github.com/dmitrijs2005/partsinventory/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) categoriesPage(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "categories", list)
}

func (h *Handler) apiListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.categories.List(r.Context())
	if err != nil {
		h.writeMappedError(w, r, "list_categories", err)
		return
	}
	writeSuccess(w, http.StatusOK, list)
}

func (h *Handler) apiGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeMappedError(w, r, "get_category", err)
		return
	}
	writeSuccess(w, http.StatusOK, c)
}

func (h *Handler) apiCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in services.CategoryInput
	if err := decodeBody(w, r, &in); err != nil {
		h.writeBadRequest(w, r, "create_category", err)
		return
	}
	c, err := h.categories.Create(r.Context(), IdentityFromContext(r.Context()), in)
	if err != nil {
		h.writeMappedError(w, r, "create_category", err)
		return
	}
	writeSuccess(w, http.StatusCreated, c)
}

func (h *Handler) apiDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeMappedError(w, r, "delete_category", err)
		return
	}
	writeMessage(w, http.StatusOK, "category deleted")
}
