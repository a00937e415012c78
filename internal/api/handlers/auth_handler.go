package handlers

import (
	"net/http"

	middleware "github.com/markdave123-py/Slidewise/internal/api/middlewares"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// UserInfo echoes the verified caller. The route sits behind Auth.Required.
func (h *AuthHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		Unauthorized(w, r, "missing or invalid token")
		return
	}
	claim := func(name string) any { return id.Claims[name] }
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        id.UserID,
		"email":          claim("email"),
		"email_verified": claim("email_verified"),
		"name":           claim("name"),
	})
}
