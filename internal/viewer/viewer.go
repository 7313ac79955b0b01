// Package viewer implements the operations behind opening and clearing a
// remote log file.
package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/massimosiani/prophet/internal/listing"
	"github.com/massimosiani/prophet/internal/registry"
	"github.com/massimosiani/prophet/internal/transform"
	"github.com/massimosiani/prophet/internal/types"
)

// now is overridable in tests.
var now = time.Now

// Viewer composes the registry with the content transformer.
type Viewer struct {
	reg *registry.Registry
}

// New creates a viewer over the given registry.
func New(reg *registry.Registry) *Viewer {
	return &Viewer{reg: reg}
}

// OpenLog fetches a log file from its owning client and returns the
// transformed text for display.
func (v *Viewer) OpenLog(ctx context.Context, file *types.FileNode) (string, error) {
	c, err := v.reg.Lookup(file.File.Hostname)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", file.File.Filename, err)
	}

	raw, err := c.Get(ctx, file.File.RemotePath)
	if err != nil {
		return "", fmt.Errorf("fetching %s from %s: %w", file.File.Filename, file.File.Hostname, err)
	}

	return transform.Apply(raw, c.Config().RootPath), nil
}

// CleanLog overwrites the remote log with a single timestamped placeholder
// line. The per-instance qualifier is stripped from the remote path so the
// canonical resource is cleared. Errors are reported, not retried.
func (v *Viewer) CleanLog(ctx context.Context, file *types.FileNode) error {
	c, err := v.reg.Lookup(file.File.Hostname)
	if err != nil {
		return fmt.Errorf("cleaning %s: %w", file.File.Filename, err)
	}

	body := fmt.Sprintf("log cleaned by prophet - %s\n", now().UTC().Format(time.RFC1123))
	path := listing.StripInstanceQualifier(file.File.RemotePath)

	if err := c.Post(ctx, path, body); err != nil {
		return fmt.Errorf("cleaning %s on %s: %w", file.File.Filename, file.File.Hostname, err)
	}
	return nil
}
