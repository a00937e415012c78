package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/core/imagery"
	"github.com/markdave123-py/Slidewise/internal/core/ingestion_engine"
	"github.com/markdave123-py/Slidewise/internal/models"
)

// ErrExtraction means an upload was accepted but no text came out of it.
var ErrExtraction = errors.New("failed to extract text from document")

var uploadTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// RobotsChecker reports whether a URL may be scraped.
type RobotsChecker interface {
	Check(ctx context.Context, rawURL string) ingestion_engine.RobotsDecision
}

// UploadResult is the extracted text of one uploaded document.
type UploadResult struct {
	SourceID string `json:"source_id"`
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// SourceService handles uploaded source documents and robots checks.
type SourceService struct {
	extractor      core.DocumentExtractor
	store          core.ObjectClient
	robots         RobotsChecker
	storageTimeout time.Duration
	log            zerolog.Logger
}

// NewSourceService builds the service. store may be nil, in which case
// uploads are extracted but not kept.
func NewSourceService(extractor core.DocumentExtractor, store core.ObjectClient, robots RobotsChecker, storageTimeout time.Duration, log zerolog.Logger) *SourceService {
	return &SourceService{
		extractor:      extractor,
		store:          store,
		robots:         robots,
		storageTimeout: storageTimeout,
		log:            log.With().Str("component", "sources").Logger(),
	}
}

// Upload extracts the text of a PDF or DOCX file. The original is kept in
// object storage when it is available; failing to keep it is not an error.
func (s *SourceService) Upload(ctx context.Context, ownerID, filename string, data []byte) (*UploadResult, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil, fmt.Errorf("%w: No file selected", core.ErrValidation)
	}
	contentType, ok := uploadTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return nil, fmt.Errorf("%w: Only PDF and DOCX files are supported", core.ErrValidation)
	}
	if contentType == uploadTypes[".pdf"] && !mimetype.Detect(data).Is(contentType) {
		return nil, fmt.Errorf("%w: file is not a valid PDF", core.ErrValidation)
	}

	text, err := s.extractor.ExtractText(ctx, data, contentType)
	if err != nil || strings.TrimSpace(text) == "" {
		s.log.Warn().Err(err).Str("filename", filename).Msg("text extraction failed")
		return nil, ErrExtraction
	}

	if ownerID == "" {
		ownerID = models.AnonymousOwner
	}
	res := &UploadResult{
		SourceID: uuid.NewString(),
		Text:     text,
		Filename: filename,
	}
	if s.store != nil {
		ext := filepath.Ext(filename)
		stem := imagery.SanitizeTopic(strings.TrimSuffix(filename, ext))
		key := fmt.Sprintf("users/%s/sources/%s/%s%s", imagery.SanitizeTopic(ownerID), res.SourceID, stem, strings.ToLower(ext))
		sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
		_, err := s.store.UploadFile(sctx, key, data, contentType)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("could not keep uploaded source")
		}
	}

	s.log.Info().Str("source_id", res.SourceID).Str("filename", filename).Int("chars", len([]rune(text))).Msg("source extracted")
	return res, nil
}

// RobotsCheck validates rawURL and reports whether robots.txt allows it.
func (s *SourceService) RobotsCheck(ctx context.Context, rawURL string) (ingestion_engine.RobotsDecision, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ingestion_engine.RobotsDecision{}, fmt.Errorf("%w: URL parameter is required", core.ErrValidation)
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return ingestion_engine.RobotsDecision{}, fmt.Errorf("%w: Invalid URL format. Must start with http:// or https://", core.ErrValidation)
	}
	return s.robots.Check(ctx, rawURL), nil
}
