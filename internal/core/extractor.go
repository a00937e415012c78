package core

import "context"

// DocumentExtractor defines the interface for extracting text from uploaded documents.
type DocumentExtractor interface {
	// ExtractText returns the plain text of data. The contentType hint picks the parser.
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}
