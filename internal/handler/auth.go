package handler

import (
	"net/http"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/service"
)

// authResponse is the profile with a fresh token
type authResponse struct {
	*models.User
	Token string `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.svc.Register(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, authResponse{User: res.User, Token: res.Token})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, authResponse{User: res.User, Token: res.Token})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var in service.ProfileInput
	if err := decodeBody(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	user, err := h.svc.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, user)
}

// Balance converts the user's balance into the currency query parameter
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.svc.ConvertBalance(r.Context(), userID, r.URL.Query().Get("currency"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}
