package loader

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPOptions configures a FromHTTP loader.
type HTTPOptions struct {
	Timeout            time.Duration
	Headers            map[string]string
	InsecureSkipVerify bool
}

// DefaultHTTPOptions returns a 30 second timeout and no extra headers.
func DefaultHTTPOptions() *HTTPOptions {
	return &HTTPOptions{
		Timeout: 30 * time.Second,
		Headers: make(map[string]string),
	}
}

// WithTimeout returns a copy of the options with a new timeout.
func (o *HTTPOptions) WithTimeout(d time.Duration) *HTTPOptions {
	c := o.clone()
	c.Timeout = d
	return c
}

// WithBearerToken returns a copy of the options that sends an Authorization header.
func (o *HTTPOptions) WithBearerToken(token string) *HTTPOptions {
	c := o.clone()
	c.Headers["Authorization"] = "Bearer " + token
	return c
}

func (o *HTTPOptions) clone() *HTTPOptions {
	c := *o
	c.Headers = make(map[string]string, len(o.Headers))
	for k, v := range o.Headers {
		c.Headers[k] = v
	}
	return &c
}

// FromHTTP loads content with a GET request. Every GetReader call fetches again.
type FromHTTP struct {
	url       string
	sourceURL *url.URL
	options   *HTTPOptions
	client    *http.Client
}

// NewFromHTTP creates a loader for an http or https URL with default options.
func NewFromHTTP(rawURL string) (*FromHTTP, error) {
	return NewFromHTTPWithOptions(rawURL, DefaultHTTPOptions())
}

// NewFromHTTPWithOptions creates a loader for an http or https URL.
func NewFromHTTPWithOptions(rawURL string, options *HTTPOptions) (*FromHTTP, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrSchemeUnsupported, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	if options == nil {
		options = DefaultHTTPOptions()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if options.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &FromHTTP{
		url:       rawURL,
		sourceURL: u,
		options:   options,
		client: &http.Client{
			Timeout:   options.Timeout,
			Transport: transport,
		},
	}, nil
}

func (l *FromHTTP) String() string {
	return fmt.Sprintf("loader.FromHTTP{URL: %s}", l.url)
}

func (l *FromHTTP) GetReader() (io.ReadCloser, error) {
	return l.GetReaderWithContext(context.Background())
}

// GetReaderWithContext fetches the URL, honouring ctx.
func (l *FromHTTP) GetReaderWithContext(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range l.options.Headers {
		req.Header.Set(k, v)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceNotAvailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrSourceNotAvailable, resp.StatusCode, l.url)
	}
	return resp.Body, nil
}

func (l *FromHTTP) GetSourceURL() *url.URL {
	return l.sourceURL
}
