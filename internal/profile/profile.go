// Package profile loads the IR profile: macros, blacklists and repeaters
// for the configured remotes. The file format is the lirc_web config.json
// layout; it is decoded with the YAML decoder so that macro order and key
// case survive.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/nadzzz/lircbridge/internal/catalog"
	"github.com/nadzzz/lircbridge/internal/macro"
)

// Profile is an immutable snapshot of the IR configuration.
type Profile struct {
	Macros     *macro.Table               `yaml:"macros"`
	Blacklists catalog.Blacklist          `yaml:"blacklists"`
	Repeaters  map[string]map[string]bool `yaml:"repeaters"`
	// Socket optionally overrides the lircd socket from the service config.
	Socket string `yaml:"socket"`

	// Source is the file the profile was read from, empty for defaults.
	Source string `yaml:"-"`
}

// Empty returns a profile with no macros and no restrictions.
func Empty() *Profile {
	t, _ := macro.NewTable()
	return &Profile{Macros: t}
}

// Parse decodes a profile document.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	if p.Macros == nil {
		p.Macros, _ = macro.NewTable()
	}
	return &p, nil
}

// LoadFirst reads the first existing file from paths. Missing files are
// skipped; if none exist the empty profile is returned.
func LoadFirst(paths ...string) (*Profile, error) {
	for _, raw := range paths {
		path := os.ExpandEnv(raw)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("profile not found", "path", path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading profile %s: %w", path, err)
		}
		p, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		p.Source = path
		return p, nil
	}
	return Empty(), nil
}

// Store holds the current profile. Reload swaps in a whole new snapshot,
// so readers never observe a partially applied update.
type Store struct {
	paths   []string
	current atomic.Pointer[Profile]
}

// NewStore returns a store serving p until the first Reload.
// A nil p is treated as the empty profile.
func NewStore(p *Profile, paths ...string) *Store {
	if p == nil {
		p = Empty()
	}
	s := &Store{paths: paths}
	s.current.Store(p)
	return s
}

// Snapshot returns the current profile. Callers must not modify it.
func (s *Store) Snapshot() *Profile {
	return s.current.Load()
}

// Reload re-reads the profile from the store's paths. On error the
// previous snapshot stays in place.
func (s *Store) Reload() (*Profile, error) {
	p, err := LoadFirst(s.paths...)
	if err != nil {
		return nil, err
	}
	s.current.Store(p)
	if p.Source == "" {
		slog.Warn("no profile file found, serving without macros or blacklists", "paths", s.paths)
	} else {
		slog.Info("profile loaded", "path", p.Source, "macros", p.Macros.Len(), "blacklists", len(p.Blacklists))
	}
	return p, nil
}

// Replace swaps in p directly.
func (s *Store) Replace(p *Profile) {
	s.current.Store(p)
}
