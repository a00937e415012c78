// Package db persists decks, in Postgres or in memory.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/Slidewise/internal/config"
	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/models"
)

var _ core.DeckStore = (*DatabaseClient)(nil)

// DatabaseClient stores decks in Postgres through the pgx stdlib driver.
type DatabaseClient struct {
	db *sql.DB
}

// NewDeckStore picks Postgres when DATABASE_URL is set and memory otherwise.
func NewDeckStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (core.DeckStore, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL is empty; decks are kept in memory")
		return NewMemoryStore(), nil
	}
	return NewDatabaseClient(ctx, cfg)
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnLifetime)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Health pings the database.
func (c *DatabaseClient) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

const deckColumns = `id, owner_id, topic, theme, brand_colors, outline, image_refs, content_sources,
	rendered_binary, render_fingerprint, version, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row rowScanner) (*models.Deck, error) {
	var (
		d                                     models.Deck
		brand, outline, refs, sources, binary []byte
	)
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Topic, &d.Theme, &brand, &outline, &refs, &sources,
		&binary, &d.RenderFingerprint, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{{brand, &d.BrandColors}, {outline, &d.Outline}, {refs, &d.ImageRefs}, {sources, &d.ContentSources}} {
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode deck %s: %w", d.ID, err)
		}
	}
	d.RenderedBinary = binary
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}

type deckJSON struct {
	brand, outline, refs, sources []byte
}

func encodeDeck(d *models.Deck) (deckJSON, error) {
	var (
		out deckJSON
		err error
	)
	brand := d.BrandColors
	if brand == nil {
		brand = []string{}
	}
	refs := d.ImageRefs
	if refs == nil {
		refs = models.ImageRefs{}
	}
	sources := d.ContentSources
	if sources == nil {
		sources = []models.ContentSourceSummary{}
	}
	if out.brand, err = json.Marshal(brand); err != nil {
		return out, err
	}
	if out.outline, err = json.Marshal(d.Outline); err != nil {
		return out, err
	}
	if out.refs, err = json.Marshal(refs); err != nil {
		return out, err
	}
	if out.sources, err = json.Marshal(sources); err != nil {
		return out, err
	}
	return out, nil
}

func (c *DatabaseClient) Create(ctx context.Context, deck *models.Deck) (string, error) {
	if deck == nil {
		return "", fmt.Errorf("%w: nil deck", core.ErrValidation)
	}
	d := deck.Clone()
	// Postgres keeps microseconds.
	prepareNew(d, uuid.NewString(), time.Now().UTC().Truncate(time.Microsecond))

	enc, err := encodeDeck(d)
	if err != nil {
		return "", fmt.Errorf("encode deck: %w", err)
	}
	const q = `
		INSERT INTO decks (` + deckColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := c.db.ExecContext(ctx, q,
		d.ID, d.OwnerID, d.Topic, d.Theme, enc.brand, enc.outline, enc.refs, enc.sources,
		nonNil(d.RenderedBinary), d.RenderFingerprint, d.Version, d.CreatedAt, d.UpdatedAt); err != nil {
		return "", fmt.Errorf("insert deck: %w", err)
	}
	return d.ID, nil
}

func (c *DatabaseClient) Get(ctx context.Context, id string) (*models.Deck, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("deck %s: %w", id, core.ErrNotFound)
	}
	d, err := scanDeck(c.db.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deck %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}
	return d, nil
}

// Update locks the row, merges the patch and writes it back in one transaction.
func (c *DatabaseClient) Update(ctx context.Context, id string, patch models.DeckPatch) (*models.Deck, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("deck %s: %w", id, core.ErrNotFound)
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	d, err := scanDeck(tx.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deck %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock deck: %w", err)
	}
	if err := applyPatch(d, patch, time.Now().UTC().Truncate(time.Microsecond)); err != nil {
		return nil, err
	}

	enc, err := encodeDeck(d)
	if err != nil {
		return nil, fmt.Errorf("encode deck: %w", err)
	}
	const q = `
		UPDATE decks
		SET theme = $2, outline = $3, image_refs = $4, rendered_binary = $5,
		    render_fingerprint = $6, version = $7, updated_at = $8
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, q, d.ID, d.Theme, enc.outline, enc.refs, nonNil(d.RenderedBinary),
		d.RenderFingerprint, d.Version, d.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update deck: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return d, nil
}

func (c *DatabaseClient) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("deck %s: %w", id, core.ErrNotFound)
	}
	res, err := c.db.ExecContext(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deck %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (c *DatabaseClient) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Deck, error) {
	q := `SELECT ` + deckColumns + ` FROM decks WHERE owner_id = $1 ORDER BY created_at DESC, id`
	args := []any{ownerID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()
	return collectDecks(rows)
}

func (c *DatabaseClient) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Deck, error) {
	rows, err := c.db.QueryContext(ctx, `DELETE FROM decks WHERE created_at < $1 RETURNING `+deckColumns, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete expired decks: %w", err)
	}
	defer rows.Close()
	return collectDecks(rows)
}

func collectDecks(rows *sql.Rows) ([]*models.Deck, error) {
	var out []*models.Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
