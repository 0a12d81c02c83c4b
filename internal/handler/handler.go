package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/finance-tracker/internal/middleware"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Pagination describes one page of a list response
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// envelope is the body of every API response
type envelope struct {
	Success    bool             `json:"success"`
	Data       interface{}      `json:"data,omitempty"`
	Message    string           `json:"message,omitempty"`
	Balance    *decimal.Decimal `json:"balance,omitempty"`
	Pagination *Pagination      `json:"pagination,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func statusOf(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation, models.KindInvalidCategory:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindProtected:
		return http.StatusForbidden
	case models.KindConflict:
		return http.StatusConflict
	case models.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// respondError maps err to its status code. Internal errors are logged and hidden.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var e *models.Error
	if errors.As(err, &e) && e.Kind != models.KindInternal {
		writeJSON(w, statusOf(e.Kind), envelope{Message: e.Message})
		return
	}
	h.log.WithFields(logrus.Fields{
		"request_id": middleware.RequestIDFromContext(r.Context()),
		"path":       r.URL.Path,
	}).WithError(err).Error("Request failed")
	writeJSON(w, http.StatusInternalServerError, envelope{Message: "Server Error"})
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.WrapError(models.KindValidation, err, "Invalid request body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewError(models.KindValidation, "Invalid id")
	}
	return id, nil
}

// currentUser returns the id put in the context by the auth middleware
func currentUser(r *http.Request) (int64, error) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return 0, models.ErrUnauthorized
	}
	return id, nil
}

// Health reports whether the store is reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.log.WithError(err).Warn("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, envelope{Message: "Store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "ok"})
}
