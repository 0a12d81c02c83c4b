package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Dan9191/finance-tracker/internal/models"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	requestIDKey contextKey = "request_id"
)

// Authenticator resolves a bearer token to a user id
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (int64, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller's user id in the request context.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}
			userID, err := auth.Authenticate(r.Context(), token)
			if errors.Is(err, models.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, unauthorizedMessage(err))
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Server Error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// WithUserID returns a copy of ctx carrying userID
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func unauthorizedMessage(err error) string {
	var e *models.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Not authorized, token failed"
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": message})
}
