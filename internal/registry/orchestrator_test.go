package registry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/massimosiani/prophet/internal/config"
	"github.com/massimosiani/prophet/internal/types"
)

// mapResolver resolves source IDs from a fixed table; absent IDs fail like
// an unconfigured source.
func mapResolver(table map[string]types.HostConfig) Resolver {
	return func(sourceID string) (types.HostConfig, error) {
		cfg, ok := table[sourceID]
		if !ok {
			return types.HostConfig{}, fmt.Errorf("source %s not configured", sourceID)
		}
		return cfg, nil
	}
}

func TestOrchestratorLifecycle(t *testing.T) {
	r := New(fakeFactory, nil)
	resolve := mapResolver(map[string]types.HostConfig{
		"one.yaml": hostCfg("one.example.com"),
		"two.yaml": hostCfg("two.example.com"),
	})

	events := make(chan config.SourceEvent)
	done := make(chan struct{})
	go func() {
		NewOrchestrator(r, resolve, nil).Run(events)
		close(done)
	}()

	step := func(ev config.SourceEvent) {
		events <- ev
		// A second event is only consumed after the first is handled, so a
		// no-op removal acts as a barrier.
		events <- config.SourceEvent{ID: "barrier", Op: config.SourceRemoved}
	}

	step(config.SourceEvent{ID: "one.yaml", Op: config.SourceAdded})
	if _, err := r.Lookup("one.example.com"); err != nil {
		t.Errorf("after add: %v", err)
	}

	// Unresolvable sources never produce a client.
	step(config.SourceEvent{ID: "broken.yaml", Op: config.SourceAdded})
	if got := len(r.Snapshot()); got != 1 {
		t.Errorf("Snapshot has %d clients after broken source, want 1", got)
	}

	step(config.SourceEvent{ID: "two.yaml", Op: config.SourceAdded})
	if got := len(r.Snapshot()); got != 2 {
		t.Errorf("Snapshot has %d clients, want 2", got)
	}

	step(config.SourceEvent{ID: "one.yaml", Op: config.SourceRemoved})
	if _, err := r.Lookup("one.example.com"); !errors.Is(err, ErrNoClient) {
		t.Errorf("after remove: %v, want ErrNoClient", err)
	}
	if _, err := r.Lookup("two.example.com"); err != nil {
		t.Errorf("sibling client affected by removal: %v", err)
	}

	// Stream completion tears everything down.
	close(events)
	<-done

	if _, err := r.Lookup("two.example.com"); !errors.Is(err, ErrClosed) {
		t.Errorf("after stream completion: %v, want ErrClosed", err)
	}
}

func TestOrchestratorSourceInvalidation(t *testing.T) {
	r := New(fakeFactory, nil)

	table := map[string]types.HostConfig{
		"one.yaml": hostCfg("one.example.com"),
		"two.yaml": hostCfg("two.example.com"),
	}

	events := make(chan config.SourceEvent)
	done := make(chan struct{})
	go func() {
		NewOrchestrator(r, mapResolver(table), nil).Run(events)
		close(done)
	}()

	step := func(ev config.SourceEvent) {
		events <- ev
		events <- config.SourceEvent{ID: "barrier", Op: config.SourceRemoved}
	}

	step(config.SourceEvent{ID: "one.yaml", Op: config.SourceAdded})
	step(config.SourceEvent{ID: "two.yaml", Op: config.SourceAdded})
	if _, err := r.Lookup("one.example.com"); err != nil {
		t.Fatalf("after add: %v", err)
	}

	// The file is rewritten to something unresolvable; its client must go.
	delete(table, "one.yaml")
	step(config.SourceEvent{ID: "one.yaml", Op: config.SourceChanged})

	if _, err := r.Lookup("one.example.com"); !errors.Is(err, ErrNoClient) {
		t.Errorf("after invalidation: %v, want ErrNoClient", err)
	}
	if _, err := r.Lookup("two.example.com"); err != nil {
		t.Errorf("sibling client affected by invalidation: %v", err)
	}

	// A later valid rewrite re-registers the same source.
	table["one.yaml"] = hostCfg("one.example.com")
	step(config.SourceEvent{ID: "one.yaml", Op: config.SourceChanged})
	if _, err := r.Lookup("one.example.com"); err != nil {
		t.Errorf("after re-resolution: %v", err)
	}

	close(events)
	<-done
}

func TestOrchestratorBootstrap(t *testing.T) {
	r := New(fakeFactory, nil)
	defer r.Close()

	resolve := mapResolver(map[string]types.HostConfig{
		"one.yaml": hostCfg("one.example.com"),
		"two.yaml": hostCfg("two.example.com"),
	})

	NewOrchestrator(r, resolve, nil).Bootstrap([]string{"one.yaml", "missing.yaml", "two.yaml"})

	if got := len(r.Snapshot()); got != 2 {
		t.Errorf("Snapshot has %d clients, want 2", got)
	}
}
