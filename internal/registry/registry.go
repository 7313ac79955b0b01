// Package registry maintains the set of active remote clients in response to
// a dynamic stream of host configuration sources. The hostname→client mapping
// is the only mutable shared state in the core; the registry is its sole
// writer and every mutation runs under one lock, so at most one client exists
// per hostname at any instant.
package registry

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/massimosiani/prophet/internal/client"
	"github.com/massimosiani/prophet/internal/types"
)

// ErrClosed is returned by operations on a registry that has been torn down.
var ErrClosed = errors.New("registry closed")

// ErrNoClient is returned when an operation names a hostname with no active
// client, typically a race between a user action and a concurrent removal.
var ErrNoClient = errors.New("no active client for host")

// Event is a refresh notification. Hostname names the client whose lifecycle
// changed; empty means "recompute from the root".
type Event struct {
	Hostname string
}

// Factory builds a remote client from a resolved host configuration.
type Factory func(types.HostConfig) *client.Remote

// Registry owns the hostname→client mapping. Each configuration source is
// tracked from subscription to removal; the source that first resolves a
// hostname owns that client (first-wins), and only the owning source's
// removal tears the client down. Cleanup per source runs exactly once.
type Registry struct {
	factory Factory
	log     *zap.Logger

	mu      sync.Mutex
	closed  bool
	clients map[string]*client.Remote // hostname -> client
	owners  map[string]string         // source ID -> owned hostname ("" if first-wins lost)
	subs    map[chan Event]struct{}
}

// New creates an empty registry. A nil factory defaults to the WebDAV
// transport; a nil logger disables logging.
func New(factory Factory, log *zap.Logger) *Registry {
	if factory == nil {
		factory = client.NewDAV
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		factory: factory,
		log:     log,
		clients: make(map[string]*client.Remote),
		owners:  make(map[string]string),
		subs:    make(map[chan Event]struct{}),
	}
}

// Add records that the given source resolved a host configuration.
// First resolution of a new hostname creates and registers a client and
// triggers a refresh. A second source resolving an already-registered
// hostname is ignored. Re-resolution from the same source is a refresh
// trigger unless the hostname changed, in which case the old client is
// removed and the new one created.
func (r *Registry) Add(sourceID string, cfg types.HostConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	if owned, tracked := r.owners[sourceID]; tracked {
		if owned == cfg.Hostname {
			// Same hostname re-resolved: no registry change, refresh only.
			r.notifyLocked(Event{Hostname: cfg.Hostname})
			return nil
		}
		if owned != "" {
			delete(r.clients, owned)
			r.log.Info("client removed", zap.String("host", owned), zap.String("source", sourceID))
			r.notifyLocked(Event{})
		}
	}

	if _, exists := r.clients[cfg.Hostname]; exists {
		// First-wins: the existing client stays, this source owns nothing.
		r.owners[sourceID] = ""
		r.log.Debug("duplicate hostname ignored",
			zap.String("host", cfg.Hostname), zap.String("source", sourceID))
		return nil
	}

	r.clients[cfg.Hostname] = r.factory(cfg)
	r.owners[sourceID] = cfg.Hostname
	r.log.Info("client registered", zap.String("host", cfg.Hostname), zap.String("source", sourceID))
	r.notifyLocked(Event{Hostname: cfg.Hostname})
	return nil
}

// Remove runs the cleanup for the given source. It removes the source's
// owned client, if any, and is a no-op for unknown or non-owning sources, so
// cleanup is attributed correctly and runs at most once per source.
func (r *Registry) Remove(sourceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	owned, tracked := r.owners[sourceID]
	if !tracked {
		return nil
	}
	delete(r.owners, sourceID)

	if owned == "" {
		return nil
	}

	delete(r.clients, owned)
	r.log.Info("client removed", zap.String("host", owned), zap.String("source", sourceID))
	r.notifyLocked(Event{})
	return nil
}

// Lookup returns the active client for a hostname.
func (r *Registry) Lookup(hostname string) (*client.Remote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	c, ok := r.clients[hostname]
	if !ok {
		return nil, ErrNoClient
	}
	return c, nil
}

// Snapshot returns the current clients sorted by hostname. Callers receive
// an independent slice; the registry remains the sole writer of its state.
func (r *Registry) Snapshot() []*client.Remote {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make([]*client.Remote, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].Hostname() < clients[j].Hostname()
	})
	return clients
}

// Subscribe registers a refresh listener. Notifications are best-effort:
// bursts are not deduplicated and a slow listener misses intermediate
// events rather than blocking registry mutation. The returned function
// unsubscribes.
func (r *Registry) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)

	r.mu.Lock()
	if !r.closed {
		r.subs[ch] = struct{}{}
	} else {
		close(ch)
	}
	r.mu.Unlock()

	return ch, func() {
		r.mu.Lock()
		if _, ok := r.subs[ch]; ok {
			delete(r.subs, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
}

// Close tears down every remaining client and subscription. Subsequent
// operations fail with ErrClosed. Close is idempotent.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	for host := range r.clients {
		r.log.Info("client removed", zap.String("host", host))
	}
	r.clients = make(map[string]*client.Remote)
	r.owners = make(map[string]string)

	for ch := range r.subs {
		close(ch)
	}
	r.subs = make(map[chan Event]struct{})
}

// notifyLocked delivers an event to all subscribers without blocking.
// Callers hold r.mu.
func (r *Registry) notifyLocked(ev Event) {
	for ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
