package middleware

import (
	"net/http"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/utils"
)

// AdminMiddleware rejects users without the admin role.
// Must run after AuthMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
		if !ok || user == nil {
			utils.WriteError(w, http.StatusUnauthorized, "unauthorized", "no user in request")
			return
		}
		if user.Role != domain.RoleAdmin {
			utils.WriteError(w, http.StatusForbidden, "forbidden", "admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin chains AuthMiddleware and AdminMiddleware.
func RequireAdmin(h http.HandlerFunc) http.Handler {
	return AuthMiddleware(AdminMiddleware(h))
}
