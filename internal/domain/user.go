package domain

type ContextKey string

const UserContextKey ContextKey = "user"

// User is the identity decoded from an access token. Only admins reach the
// reporting routes.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
