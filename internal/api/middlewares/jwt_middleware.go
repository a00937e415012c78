package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/models"
)

type ctxKey int

const identityKey ctxKey = iota

// Unauthorized writes the 401 response. Handlers set it so the middleware
// shares their error envelope.
type Unauthorized func(w http.ResponseWriter, r *http.Request, msg string)

// Auth validates bearer tokens and stores the caller identity on the request.
type Auth struct {
	verifier     core.TokenVerifier
	unauthorized Unauthorized
}

// NewAuth builds the middleware. A nil verifier treats every caller as
// anonymous and rejects routes that require a user.
func NewAuth(verifier core.TokenVerifier, unauthorized Unauthorized) *Auth {
	return &Auth{verifier: verifier, unauthorized: unauthorized}
}

// Required rejects requests without a valid bearer token.
func (a *Auth) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			a.unauthorized(w, r, "missing or invalid token")
			return
		}
		if a.verifier == nil {
			a.unauthorized(w, r, "authentication is not configured")
			return
		}
		id, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			a.unauthorized(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// Optional attaches the identity when a valid token is sent and lets the
// request through as anonymous otherwise. A token that fails verification is
// still rejected so clients notice expired sessions.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" || a.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}
		id, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			a.unauthorized(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// IdentityFromContext returns the verified caller, if any.
func IdentityFromContext(ctx context.Context) (*core.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*core.Identity)
	return id, ok && id != nil
}

// UserIDFromContext returns the caller's user id, or the anonymous owner.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := IdentityFromContext(ctx); ok {
		return id.UserID
	}
	return models.AnonymousOwner
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *core.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
