package loader

import (
	"bytes"
	"fmt"
	"io"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
	"github.com/robbyt/go-polygrade/internal/helpers"
)

// FromBytes implements the Loader interface for an in-memory byte slice, such as a WASM
// checker module or an uploaded problem document.
type FromBytes struct {
	content   []byte
	sourceURL *url.URL
}

// NewFromBytes creates a Loader over content. Text content made only of whitespace is
// rejected; binary content is accepted as is.
func NewFromBytes(content []byte) (*FromBytes, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrSourceNotAvailable)
	}
	if isText(content) && len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("%w: content contains only whitespace", ErrSourceNotAvailable)
	}

	u, err := url.Parse("bytes://inline/" + helpers.SHA256Bytes(content)[:8])
	if err != nil {
		return nil, fmt.Errorf("failed to create source URL: %w", err)
	}
	return &FromBytes{content: content, sourceURL: u}, nil
}

func (l *FromBytes) String() string {
	return fmt.Sprintf("loader.FromBytes{Bytes: %d}", len(l.content))
}

func (l *FromBytes) GetReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(l.content)), nil
}

func (l *FromBytes) GetSourceURL() *url.URL {
	return l.sourceURL
}

// MIMEType reports the detected content type, e.g. "application/wasm" for a checker module.
func (l *FromBytes) MIMEType() string {
	return mimetype.Detect(l.content).String()
}

// isText reports whether the detected type is text/plain or one of its descendants.
func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
