// Package transport defines the wire operations the core needs from a remote
// application server and provides the WebDAV-style HTTP implementation.
package transport

import "context"

// Transport is the minimal surface the core uses to talk to one host.
// List returns the raw bytes of a multi-status directory listing, Get the
// raw content of a single resource, and Post overwrites a resource with the
// given body. Implementations own connection handling and auth; callers own
// retry policy, if any.
type Transport interface {
	List(ctx context.Context, path string) ([]byte, error)
	Get(ctx context.Context, path string) (string, error)
	Post(ctx context.Context, path, body string) error
}
