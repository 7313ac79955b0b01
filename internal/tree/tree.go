// Package tree projects the client registry as a two-level hierarchy: hosts
// at the root, their log files beneath, newest first. A user-settable
// substring filter narrows the projected file names without mutating the
// underlying descriptors.
package tree

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/massimosiani/prophet/internal/listing"
	"github.com/massimosiani/prophet/internal/registry"
	"github.com/massimosiani/prophet/internal/types"
)

// Event asks the consumer to recompute a subtree. A nil Node means
// "recompute from the root".
type Event struct {
	Node *types.Node
}

// Model is the hierarchy and filter model over a registry.
type Model struct {
	reg *registry.Registry

	mu     sync.Mutex
	filter string
	subs   map[chan Event]struct{}
}

// New creates a model over the given registry.
func New(reg *registry.Registry) *Model {
	return &Model{
		reg:  reg,
		subs: make(map[chan Event]struct{}),
	}
}

// RootNodes returns one host node per currently registered client, sorted by
// hostname. Display labels are the hostname's first dot-separated label,
// falling back to "noName".
func (m *Model) RootNodes() []types.Node {
	clients := m.reg.Snapshot()

	nodes := make([]types.Node, 0, len(clients))
	for _, c := range clients {
		nodes = append(nodes, types.Node{
			Kind: types.KindHost,
			Host: &types.HostNode{
				Hostname: c.Hostname(),
				Label:    hostLabel(c.Hostname()),
			},
		})
	}
	return nodes
}

// hostLabel derives a display label from a hostname.
func hostLabel(hostname string) string {
	label, _, _ := strings.Cut(hostname, ".")
	if label == "" {
		return "noName"
	}
	return label
}

// Children lists the log files under a host node: one listing call, parsed,
// filtered, and sorted by modification time descending. A transport failure
// affects only this host's expansion.
func (m *Model) Children(ctx context.Context, host *types.HostNode) ([]types.Node, error) {
	c, err := m.reg.Lookup(host.Hostname)
	if err != nil {
		return nil, fmt.Errorf("expanding %s: %w", host.Hostname, err)
	}

	files, err := c.Logs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing logs for %s: %w", host.Hostname, err)
	}

	m.mu.Lock()
	filter := m.filter
	m.mu.Unlock()

	if filter != "" {
		kept := files[:0]
		for _, f := range files {
			if strings.Contains(f.Filename, filter) {
				kept = append(kept, f)
			}
		}
		files = kept
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})

	nodes := make([]types.Node, 0, len(files))
	for _, f := range files {
		nodes = append(nodes, types.Node{
			Kind: types.KindFile,
			File: &types.FileNode{
				File: f,
				Icon: listing.IconClass(f.Filename),
			},
		})
	}
	return nodes, nil
}

// SetFilter replaces the current filename filter and triggers a refresh.
// An empty string clears filtering.
func (m *Model) SetFilter(text string) {
	m.mu.Lock()
	m.filter = text
	m.mu.Unlock()
	m.Refresh(nil)
}

// Filter returns the current filename filter.
func (m *Model) Filter() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// Refresh notifies subscribers to recompute the given subtree; nil means
// from the root.
func (m *Model) Refresh(node *types.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- Event{Node: node}:
		default:
		}
	}
}

// Subscribe registers a refresh listener. Notifications are best-effort and
// not deduplicated; consumers debounce if desired. The returned function
// unsubscribes.
func (m *Model) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	return ch, func() {
		m.mu.Lock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
}

// Forward relays registry refresh events to the model's subscribers until
// the registry event stream closes. Registry changes always invalidate the
// whole tree.
func (m *Model) Forward(events <-chan registry.Event) {
	for range events {
		m.Refresh(nil)
	}
}
