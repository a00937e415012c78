package core

import (
	"context"
	"time"

	"github.com/markdave123-py/Slidewise/internal/models"
)

// DeckStore owns the authoritative state of every generated deck.
// Implementations hand out copies; mutating a returned Deck never changes stored state.
type DeckStore interface {
	Create(ctx context.Context, deck *models.Deck) (id string, err error)
	Get(ctx context.Context, id string) (*models.Deck, error)
	// Update merges patch into the stored deck. A patch that changes a render
	// input without a fresh RenderedBinary is rejected with ErrRenderRequired.
	Update(ctx context.Context, id string, patch models.DeckPatch) (*models.Deck, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Deck, error)
	// DeleteOlderThan removes decks created before cutoff and returns them.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Deck, error)
	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
	// Enabled is false when no backend is configured and every call fails
	// with ErrStorageDisabled.
	Enabled() bool
}

// ImageSearcher finds stock images.
type ImageSearcher interface {
	Search(ctx context.Context, query string, page, perPage int) (*ImageSearchResult, error)
	Lookup(ctx context.Context, id string) (*models.ImageCandidate, error)
}

// ImageSearchResult is one page of search hits.
type ImageSearchResult struct {
	Images  []models.ImageCandidate `json:"images"`
	Total   int                     `json:"total"`
	Page    int                     `json:"page"`
	PerPage int                     `json:"per_page"`
}

// Identity is a verified bearer token.
type Identity struct {
	UserID string         `json:"user_id"`
	Claims map[string]any `json:"claims"`
}

// TokenVerifier validates bearer tokens against an identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
