package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	resp "pricewatch/internal/lib/api/response"
	"pricewatch/internal/lib/jwt"
)

type contextKey string

const UserIDKey contextKey = "user_id"

func Middleware(parser *jwt.Parser) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Missing authorization"))
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			userID, err := parser.ParseToken(token)
			if err != nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID достаёт идентификатор пользователя, положенный Middleware.
func UserID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserIDKey).(string)
	return uid, ok
}
