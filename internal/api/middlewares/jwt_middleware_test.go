package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/models"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (*core.Identity, error) {
	if token == "good" {
		return &core.Identity{UserID: "user-1"}, nil
	}
	return nil, errors.New("bad token")
}

func unauthorized(w http.ResponseWriter, _ *http.Request, msg string) {
	http.Error(w, msg, http.StatusUnauthorized)
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserIDFromContext(r.Context())))
	})
}

func serve(h http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequired(t *testing.T) {
	h := NewAuth(fakeVerifier{}, unauthorized).Required(echoUser())

	rec := serve(h, "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer bad").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Basic abc").Code)
}

func TestRequiredWithoutVerifier(t *testing.T) {
	h := NewAuth(nil, unauthorized).Required(echoUser())
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer good").Code)
}

func TestOptional(t *testing.T) {
	h := NewAuth(fakeVerifier{}, unauthorized).Optional(echoUser())

	rec := serve(h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.AnonymousOwner, rec.Body.String())

	rec = serve(h, "bearer good")
	assert.Equal(t, "user-1", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer bad").Code)

	anon := NewAuth(nil, unauthorized).Optional(echoUser())
	assert.Equal(t, models.AnonymousOwner, serve(anon, "Bearer whatever").Body.String())
}
