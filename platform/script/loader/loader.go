// Package loader reads problem documents, submissions and checker modules from strings,
// byte slices, local files or HTTP endpoints.
package loader

import (
	"errors"
	"io"
	"net/url"
)

var (
	ErrSourceNotAvailable = errors.New("source not available")
	ErrSchemeUnsupported  = errors.New("unsupported URL scheme")
)

// Loader is an interface used to load problem documents, submissions and plugins.
type Loader interface {
	GetReader() (io.ReadCloser, error)
	GetSourceURL() *url.URL
}

// ReadAll drains a Loader.
func ReadAll(l Loader) ([]byte, error) {
	r, err := l.GetReader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return io.ReadAll(r)
}
