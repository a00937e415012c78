package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/core/ingestion_engine"
)

type fakeExtractor struct {
	text string
	err  error
	ct   string
}

func (f *fakeExtractor) ExtractText(_ context.Context, _ []byte, contentType string) (string, error) {
	f.ct = contentType
	return f.text, f.err
}

type fakeObjects struct {
	keys []string
	err  error
}

func (f *fakeObjects) UploadFile(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "http://media/" + key, nil
}

func (f *fakeObjects) GetFile(context.Context, string) ([]byte, error) { return nil, core.ErrNotFound }
func (f *fakeObjects) DeleteFile(context.Context, string) error { return nil }
func (f *fakeObjects) Enabled() bool { return true }

type fakeRobots struct{ allowed bool }

func (f fakeRobots) Check(_ context.Context, rawURL string) ingestion_engine.RobotsDecision {
	return ingestion_engine.RobotsDecision{Allowed: f.allowed, Message: "checked " + rawURL}
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF")

func TestUploadPDF(t *testing.T) {
	ext := &fakeExtractor{text: "Extracted body"}
	objs := &fakeObjects{}
	svc := NewSourceService(ext, objs, fakeRobots{}, time.Second, zerolog.Nop())

	res, err := svc.Upload(context.Background(), "u1", "Annual Report 2024.PDF", pdfBytes)
	require.NoError(t, err)
	assert.Equal(t, "Extracted body", res.Text)
	assert.Equal(t, "Annual Report 2024.PDF", res.Filename)
	assert.NotEmpty(t, res.SourceID)
	assert.Equal(t, "application/pdf", ext.ct)
	assert.Equal(t, []string{"users/u1/sources/" + res.SourceID + "/Annual_Report_2024.pdf"}, objs.keys)
}

func TestUploadStorageFailureIsNotFatal(t *testing.T) {
	svc := NewSourceService(&fakeExtractor{text: "x"}, &fakeObjects{err: errors.New("down")}, fakeRobots{}, time.Second, zerolog.Nop())
	res, err := svc.Upload(context.Background(), "", "a.pdf", pdfBytes)
	require.NoError(t, err)
	assert.Equal(t, "x", res.Text)
}

func TestUploadRejects(t *testing.T) {
	svc := NewSourceService(&fakeExtractor{text: "x"}, nil, fakeRobots{}, time.Second, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Upload(ctx, "u1", "", pdfBytes)
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.Upload(ctx, "u1", "notes.txt", []byte("hello"))
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.Upload(ctx, "u1", "fake.pdf", []byte("plain text pretending"))
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestUploadExtractionFailure(t *testing.T) {
	ctx := context.Background()
	svc := NewSourceService(&fakeExtractor{text: "   "}, nil, fakeRobots{}, time.Second, zerolog.Nop())
	_, err := svc.Upload(ctx, "u1", "a.pdf", pdfBytes)
	assert.ErrorIs(t, err, ErrExtraction)

	svc = NewSourceService(&fakeExtractor{err: errors.New("corrupt")}, nil, fakeRobots{}, time.Second, zerolog.Nop())
	_, err = svc.Upload(ctx, "u1", "a.docx", []byte("PK"))
	assert.ErrorIs(t, err, ErrExtraction)
}

func TestRobotsCheck(t *testing.T) {
	svc := NewSourceService(&fakeExtractor{}, nil, fakeRobots{allowed: true}, time.Second, zerolog.Nop())
	ctx := context.Background()

	d, err := svc.RobotsCheck(ctx, " https://example.com/page ")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, "checked https://example.com/page", d.Message)

	_, err = svc.RobotsCheck(ctx, "")
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = svc.RobotsCheck(ctx, "ftp://example.com")
	assert.ErrorIs(t, err, core.ErrValidation)
}
