package loader

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// InferLoader picks a loader for input:
//   - string: http/https URLs load over HTTP, file URLs and paths load from disk, anything
//     else is inline content (base64 decoded when possible)
//   - []byte: FromBytes
//   - Loader: returned as is
func InferLoader(input any) (Loader, error) {
	switch v := input.(type) {
	case string:
		return inferFromString(v)
	case []byte:
		return NewFromBytes(v)
	case Loader:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported input type: %T", input)
	}
}

func inferFromString(input string) (Loader, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty string input", ErrSourceNotAvailable)
	}

	// multi-line input is always inline content, never a path or URL
	if !strings.ContainsAny(input, "\n\r") {
		if parsed, err := url.Parse(input); err == nil && parsed.Scheme != "" && parsed.Opaque == "" {
			switch parsed.Scheme {
			case "http", "https":
				return NewFromHTTP(input)
			case "file":
				return fromPath(parsed.Path)
			}
		}
		if filepath.IsAbs(input) || strings.HasPrefix(input, "./") || strings.HasPrefix(input, "../") {
			return fromPath(input)
		}
	}

	return NewFromStringBase64(input)
}

func fromPath(path string) (Loader, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve relative path %q: %w", path, err)
		}
		path = abs
	}
	return NewFromDisk(path)
}
