package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/pkg/respond"
)

type contextKey string

const userIDKey contextKey = "userID"

// Authenticator проверяет access-токен.
type Authenticator interface {
	Authenticate(access string) (int64, error)
}

// RequireAuth пропускает запрос дальше только с валидным Bearer-токеном
// и кладет id пользователя в контекст.
func RequireAuth(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respond.Error(w, r, http.StatusUnauthorized, "authentication credentials were not provided")
				return
			}

			userID, err := auth.Authenticate(token)
			if err != nil {
				logger.Debug("rejected token", zap.Error(err))
				respond.Error(w, r, http.StatusUnauthorized, "token is invalid or expired")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
