package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/massimosiani/prophet/internal/types"
)

// DAV talks to one host over the WebDAV-like HTTP protocol the application
// servers expose: PROPFIND for listings, GET for content, POST to overwrite.
type DAV struct {
	cfg        types.HostConfig
	scheme     string
	httpClient *http.Client
}

// NewDAV creates a transport for the given host configuration.
func NewDAV(cfg types.HostConfig) *DAV {
	return &DAV{
		cfg:    cfg,
		scheme: "https",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// List issues a depth-1 PROPFIND for the given path and returns the raw
// multi-status body.
func (d *DAV) List(ctx context.Context, p string) ([]byte, error) {
	req, err := d.newRequest(ctx, "PROPFIND", p, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Depth", "1")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", p, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 207 Multi-Status is the expected success code for PROPFIND.
	if resp.StatusCode != http.StatusMultiStatus && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing %s: unexpected status %s", p, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading listing %s: %w", p, err)
	}
	return data, nil
}

// Get fetches the content of a single resource as text.
func (d *DAV) Get(ctx context.Context, p string) (string, error) {
	req, err := d.newRequest(ctx, http.MethodGet, p, nil)
	if err != nil {
		return "", err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", p, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %s", p, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}
	return string(data), nil
}

// Post overwrites the resource at the given path with body.
func (d *DAV) Post(ctx context.Context, p, body string) error {
	req, err := d.newRequest(ctx, http.MethodPost, p, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting %s: %w", p, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("posting %s: unexpected status %s", p, resp.Status)
	}
	return nil
}

// newRequest builds a request against the host, joining the path onto the
// configured root and applying basic auth when credentials are configured.
func (d *DAV) newRequest(ctx context.Context, method, p string, body io.Reader) (*http.Request, error) {
	u := url.URL{
		Scheme: d.scheme,
		Host:   d.cfg.Hostname,
		Path:   joinPath(d.cfg.RootPath, p),
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building %s request for %s: %w", method, p, err)
	}

	if d.cfg.Username != "" {
		req.SetBasicAuth(d.cfg.Username, d.cfg.Password)
	}
	if d.cfg.ProtocolVersion != "" {
		req.Header.Set("X-Protocol-Version", d.cfg.ProtocolVersion)
	}
	return req, nil
}

// joinPath joins a root path and a relative path with single slashes.
// Absolute paths already under the root are kept as-is. Listing hrefs are
// expected to be server-relative; an href returned as a full URL is reduced
// to its path component.
func joinPath(root, p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	if strings.HasPrefix(p, root) {
		return p
	}
	root = strings.TrimSuffix(root, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return root + p
}
