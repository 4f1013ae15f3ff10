package middleware

import (
	"context"
	"errors"
	"net/http"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/utils"
)

// AuthMiddleware puts the token's user into the request context. Claims are
// trusted as signed; the store is not consulted.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := utils.ExtractClaims(r)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, utils.ErrNoToken) {
				msg = "no token provided"
			}
			utils.WriteError(w, http.StatusUnauthorized, "unauthorized", msg)
			return
		}

		user := &domain.User{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  claims.Role,
		}
		ctx := context.WithValue(r.Context(), domain.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
