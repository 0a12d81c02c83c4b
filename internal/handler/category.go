package handler

import (
	"net/http"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/service"
)

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	categories, err := h.svc.ListCategories(r.Context(), userID, models.TransactionType(r.URL.Query().Get("type")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, categories)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	category, err := h.svc.GetCategory(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, category)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var in service.CategoryInput
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	category, err := h.svc.CreateCategory(r.Context(), userID, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, category)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var patch service.CategoryPatch
	if err := decodeBody(r, &patch); err != nil {
		h.respondError(w, r, err)
		return
	}
	category, err := h.svc.UpdateCategory(r.Context(), userID, id, patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, category)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), userID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Category deleted successfully"})
}

// SeedDefaultCategories creates the default categories for the caller
func (h *Handler) SeedDefaultCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	categories, err := h.svc.SeedDefaultCategories(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, categories)
}
