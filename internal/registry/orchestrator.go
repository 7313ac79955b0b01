package registry

import (
	"go.uber.org/zap"

	"github.com/massimosiani/prophet/internal/config"
	"github.com/massimosiani/prophet/internal/types"
)

// Resolver turns a source identity into a host configuration. Resolution
// failure means the source is present but not (yet) configured.
type Resolver func(sourceID string) (types.HostConfig, error)

// Orchestrator consumes the dynamic stream of configuration sources and
// drives the registry: subscribe on appearance, reconcile one registry entry
// per resolution, run the matching cleanup on disappearance, and tear
// everything down when the stream completes.
type Orchestrator struct {
	reg     *Registry
	resolve Resolver
	log     *zap.Logger
}

// NewOrchestrator creates an orchestrator over the given registry. A nil
// resolver defaults to loading host configuration files.
func NewOrchestrator(reg *Registry, resolve Resolver, log *zap.Logger) *Orchestrator {
	if resolve == nil {
		resolve = config.LoadHost
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{reg: reg, resolve: resolve, log: log}
}

// Run processes source events until the stream is closed, then closes the
// registry so no clients outlive the configuration stream. Registry mutation
// stays serialized: Run is the only goroutine issuing Add and Remove for
// these sources.
func (o *Orchestrator) Run(events <-chan config.SourceEvent) {
	for ev := range events {
		o.handle(ev)
	}
	o.log.Info("configuration stream completed, tearing down")
	o.reg.Close()
}

// handle reconciles one registry entry for one source event.
func (o *Orchestrator) handle(ev config.SourceEvent) {
	switch ev.Op {
	case config.SourceAdded, config.SourceChanged:
		cfg, err := o.resolve(ev.ID)
		if err != nil {
			// An unresolvable source keeps no client: a source that never
			// resolved stays absent, a previously resolved one is invalidated
			// and its client torn down.
			o.log.Debug("source not configured", zap.String("source", ev.ID), zap.Error(err))
			if err := o.reg.Remove(ev.ID); err != nil {
				o.log.Warn("removing invalidated client", zap.String("source", ev.ID), zap.Error(err))
			}
			return
		}
		if err := o.reg.Add(ev.ID, cfg); err != nil {
			o.log.Warn("registering client", zap.String("source", ev.ID), zap.Error(err))
		}
	case config.SourceRemoved:
		if err := o.reg.Remove(ev.ID); err != nil {
			o.log.Warn("removing client", zap.String("source", ev.ID), zap.Error(err))
		}
	}
}

// Bootstrap resolves an initial set of sources into the registry without a
// watch loop. One-shot commands use this to mirror the current directory
// state.
func (o *Orchestrator) Bootstrap(sourceIDs []string) {
	for _, id := range sourceIDs {
		o.handle(config.SourceEvent{ID: id, Op: config.SourceAdded})
	}
}
