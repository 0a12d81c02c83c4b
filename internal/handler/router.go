package handler

import (
	"net/http"

	"github.com/Dan9191/finance-tracker/internal/metrics"
	"github.com/Dan9191/finance-tracker/internal/middleware"
	"github.com/gorilla/mux"
)

// NewRouter wires every API route
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Logging(h.log), middleware.Recover(h.log))

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	// Public routes
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	// Protected routes
	private := api.NewRoute().Subrouter()
	private.Use(middleware.AuthMiddleware(h.svc))
	private.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
	private.HandleFunc("/auth/profile", h.UpdateProfile).Methods(http.MethodPut)
	private.HandleFunc("/auth/balance", h.Balance).Methods(http.MethodGet)

	private.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)
	private.HandleFunc("/categories", h.CreateCategory).Methods(http.MethodPost)
	private.HandleFunc("/categories/defaults", h.SeedDefaultCategories).Methods(http.MethodPost)
	private.HandleFunc("/categories/{id:[0-9]+}", h.GetCategory).Methods(http.MethodGet)
	private.HandleFunc("/categories/{id:[0-9]+}", h.UpdateCategory).Methods(http.MethodPut)
	private.HandleFunc("/categories/{id:[0-9]+}", h.DeleteCategory).Methods(http.MethodDelete)

	private.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	private.HandleFunc("/transactions", h.CreateTransaction).Methods(http.MethodPost)
	private.HandleFunc("/transactions/stats", h.Stats).Methods(http.MethodGet)
	private.HandleFunc("/transactions/{id:[0-9]+}", h.GetTransaction).Methods(http.MethodGet)
	private.HandleFunc("/transactions/{id:[0-9]+}", h.UpdateTransaction).Methods(http.MethodPut)
	private.HandleFunc("/transactions/{id:[0-9]+}", h.DeleteTransaction).Methods(http.MethodDelete)

	return r
}
