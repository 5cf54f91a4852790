package loader

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

// FromDisk loads content from an absolute path on the local filesystem.
type FromDisk struct {
	path      string
	sourceURL *url.URL
}

// NewFromDisk creates a loader for path, which must be absolute and must not be a directory.
// The file is opened on every GetReader call, so edits are picked up.
func NewFromDisk(path string) (*FromDisk, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is empty", ErrSourceNotAvailable)
	}
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("%w: path must be absolute: %s", ErrSourceNotAvailable, path)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceNotAvailable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotAvailable, path)
	}

	return &FromDisk{
		path:      path,
		sourceURL: &url.URL{Scheme: "file", Path: filepath.ToSlash(path)},
	}, nil
}

func (l *FromDisk) String() string {
	return fmt.Sprintf("loader.FromDisk{Path: %s}", l.path)
}

func (l *FromDisk) GetReader() (io.ReadCloser, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceNotAvailable, err)
	}
	return f, nil
}

func (l *FromDisk) GetSourceURL() *url.URL {
	return l.sourceURL
}
