package loader

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/robbyt/go-polygrade/internal/helpers"
)

// FromString implements the Loader interface for string content.
type FromString struct {
	content   string
	sourceURL *url.URL
}

// NewFromString creates a new loader from string content.
// The content is trimmed of whitespace and must be non-empty.
func NewFromString(content string) (*FromString, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrSourceNotAvailable)
	}

	u, err := url.Parse("string://inline/" + helpers.SHA256(content)[:8])
	if err != nil {
		return nil, fmt.Errorf("failed to create source URL: %w", err)
	}

	return &FromString{
		content:   content,
		sourceURL: u,
	}, nil
}

// NewFromStringBase64 decodes base64 content, falling back to the raw string when the
// input is not valid base64.
func NewFromStringBase64(content string) (Loader, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrSourceNotAvailable)
	}

	if decoded, err := base64.StdEncoding.DecodeString(content); err == nil && len(decoded) > 0 {
		return NewFromBytes(decoded)
	}
	return NewFromString(content)
}

func (l *FromString) String() string {
	return fmt.Sprintf("loader.FromString{Chars: %d}", len(l.content))
}

func (l *FromString) GetReader() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(l.content)), nil
}

func (l *FromString) GetSourceURL() *url.URL {
	return l.sourceURL
}
