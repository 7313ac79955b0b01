// Package client provides the per-host remote client: one transport session
// bound to an immutable host configuration.
package client

import (
	"context"

	"github.com/massimosiani/prophet/internal/listing"
	"github.com/massimosiani/prophet/internal/transport"
	"github.com/massimosiani/prophet/internal/types"
)

// Remote wraps one host's transport operations behind a stable hostname
// identity. It performs no retry or backoff; a failed call fails the calling
// operation once, and transport errors propagate unchanged.
type Remote struct {
	cfg types.HostConfig
	t   transport.Transport
}

// New creates a remote client for the given host configuration and transport.
func New(cfg types.HostConfig, t transport.Transport) *Remote {
	return &Remote{cfg: cfg, t: t}
}

// NewDAV creates a remote client using the default WebDAV HTTP transport.
func NewDAV(cfg types.HostConfig) *Remote {
	return New(cfg, transport.NewDAV(cfg))
}

// Config returns the client's immutable host configuration.
func (r *Remote) Config() types.HostConfig {
	return r.cfg
}

// Hostname returns the client's identity.
func (r *Remote) Hostname() string {
	return r.cfg.Hostname
}

// List fetches the raw directory listing for a path relative to the host.
func (r *Remote) List(ctx context.Context, path string) ([]byte, error) {
	return r.t.List(ctx, path)
}

// Get fetches the content of a single remote resource.
func (r *Remote) Get(ctx context.Context, path string) (string, error) {
	return r.t.Get(ctx, path)
}

// Post overwrites the remote resource at path with body.
func (r *Remote) Post(ctx context.Context, path, body string) error {
	return r.t.Post(ctx, path, body)
}

// Logs lists the host's working folder and parses it into descriptors.
func (r *Remote) Logs(ctx context.Context) ([]types.LogFile, error) {
	data, err := r.List(ctx, r.cfg.WorkingFolder)
	if err != nil {
		return nil, err
	}
	return listing.Parse(data, r.cfg.Hostname), nil
}
