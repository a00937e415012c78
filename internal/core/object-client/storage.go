// Package objectclient stores slide media in S3 or on the local filesystem.
package objectclient

import (
	"context"

	"github.com/rs/zerolog"

	cfg "github.com/markdave123-py/Slidewise/internal/config"
	"github.com/markdave123-py/Slidewise/internal/core"
)

// New returns the backend selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *cfg.Config, log zerolog.Logger) (core.ObjectClient, error) {
	if cfg.IsLocalStorage() {
		return NewLocalStorage(cfg, log)
	}
	return NewS3Client(ctx, cfg, log)
}
