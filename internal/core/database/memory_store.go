package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/models"
)

var _ core.DeckStore = (*MemoryStore)(nil)

// MemoryStore keeps decks in process memory. Decks are copied on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	decks map[string]*models.Deck
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{decks: make(map[string]*models.Deck), now: func() time.Time { return time.Now().UTC() }}
}

func (s *MemoryStore) Create(_ context.Context, deck *models.Deck) (string, error) {
	if deck == nil {
		return "", fmt.Errorf("%w: nil deck", core.ErrValidation)
	}
	d := deck.Clone()
	prepareNew(d, uuid.NewString(), s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.decks[d.ID] = d
	return d.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decks[id]
	if !ok {
		return nil, fmt.Errorf("deck %s: %w", id, core.ErrNotFound)
	}
	return d.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, patch models.DeckPatch) (*models.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.decks[id]
	if !ok {
		return nil, fmt.Errorf("deck %s: %w", id, core.ErrNotFound)
	}
	next := cur.Clone()
	if err := applyPatch(next, patch, s.now()); err != nil {
		return nil, err
	}
	s.decks[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decks[id]; !ok {
		return fmt.Errorf("deck %s: %w", id, core.ErrNotFound)
	}
	delete(s.decks, id)
	return nil
}

// ListByOwner returns the owner's decks, newest first. limit <= 0 means all.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string, limit int) ([]*models.Deck, error) {
	s.mu.RLock()
	var out []*models.Deck
	for _, d := range s.decks {
		if d.OwnerID == ownerID {
			out = append(out, d.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) ([]*models.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []*models.Deck
	for id, d := range s.decks {
		if d.CreatedAt.Before(cutoff) {
			removed = append(removed, d)
			delete(s.decks, id)
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error { return nil }
