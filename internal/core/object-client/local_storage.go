package objectclient

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	cfg "github.com/markdave123-py/Slidewise/internal/config"
	"github.com/markdave123-py/Slidewise/internal/core"
)

var _ core.ObjectClient = (*LocalStorage)(nil)

// LocalStorage keeps objects on the local filesystem and serves them under baseURL.
type LocalStorage struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
	disabled bool
}

func NewLocalStorage(cfg *cfg.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		logger.Warn().Msg("LOCAL_STORAGE_PATH is not set; slide images will be skipped")
		return &LocalStorage{log: logger, disabled: true}, nil
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage directory: %w", err)
	}

	s := &LocalStorage{
		basePath: filepath.Clean(basePath),
		baseURL:  strings.TrimSuffix(strings.TrimSpace(cfg.LocalStorageBaseURL), "/"),
		log:      logger,
	}
	logger.Info().Str("path", basePath).Str("base_url", s.baseURL).Msg("local storage initialized")
	return s, nil
}

// Root is the directory objects live under, for serving them over HTTP.
func (l *LocalStorage) Root() string { return l.basePath }

func (l *LocalStorage) ensureEnabled() error {
	if l.disabled {
		return core.ErrStorageDisabled
	}
	return nil
}

// path resolves key under basePath and refuses keys that escape it.
func (l *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("%w: empty object key", core.ErrValidation)
	}
	return filepath.Join(l.basePath, clean), nil
}

func (l *LocalStorage) UploadFile(_ context.Context, key string, data []byte, _ string) (string, error) {
	if err := l.ensureEnabled(); err != nil {
		return "", err
	}
	full, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	l.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("file stored")

	if l.baseURL == "" {
		return "file://" + full, nil
	}
	rel, err := filepath.Rel(l.basePath, full)
	if err != nil {
		return "", fmt.Errorf("resolve url: %w", err)
	}
	return l.baseURL + "/" + filepath.ToSlash(rel), nil
}

func (l *LocalStorage) GetFile(_ context.Context, key string) ([]byte, error) {
	if err := l.ensureEnabled(); err != nil {
		return nil, err
	}
	full, err := l.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("object %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// DeleteFile removes a file; missing files are not an error.
func (l *LocalStorage) DeleteFile(_ context.Context, key string) error {
	if err := l.ensureEnabled(); err != nil {
		return err
	}
	full, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (l *LocalStorage) Enabled() bool { return !l.disabled }

// Health checks the storage directory is writable.
func (l *LocalStorage) Health(_ context.Context) error {
	if l.disabled {
		return nil
	}
	check := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(check, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(check)
	return nil
}
