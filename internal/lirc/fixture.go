package lirc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/nadzzz/lircbridge/internal/catalog"
	"github.com/nadzzz/lircbridge/internal/macro"
)

// Fixture is a Driver that reads its catalog from a file and only logs
// transmissions. It is meant for development machines without an IR
// blaster. The file is a JSON or YAML mapping of remote name to a list of
// command names.
type Fixture struct {
	path    string
	remotes atomic.Pointer[catalog.Catalog]

	mu     sync.Mutex
	closed bool
}

// NewFixture creates a fixture driver for path. Call Reload to read it.
func NewFixture(path string) *Fixture {
	f := &Fixture{path: path}
	empty := catalog.Catalog{}
	f.remotes.Store(&empty)
	return f
}

// Remotes returns the catalog read by the last Reload.
func (f *Fixture) Remotes() catalog.Catalog {
	return *f.remotes.Load()
}

// Reload re-reads the fixture file.
func (f *Fixture) Reload(_ context.Context) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("reading fixture: %w", err)
	}
	var next catalog.Catalog
	if err := yaml.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("parsing fixture %s: %w", f.path, err)
	}
	if next == nil {
		next = catalog.Catalog{}
	}
	f.remotes.Store(&next)
	slog.Info("fixture catalog loaded", "path", f.path, "remotes", len(next))
	return nil
}

func (f *Fixture) log(mode macro.Mode, remote, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	slog.Info("fixture transmission", "directive", Directive(mode), "remote", remote, "command", command)
	return nil
}

func (f *Fixture) SendOnce(remote, command string) error {
	return f.log(macro.ModeOnce, remote, command)
}

func (f *Fixture) SendStart(remote, command string) error {
	return f.log(macro.ModeStart, remote, command)
}

func (f *Fixture) SendStop(remote, command string) error {
	return f.log(macro.ModeStop, remote, command)
}

func (f *Fixture) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}
