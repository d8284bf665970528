// Package catalog holds the set of remotes and commands known to the IR
// driver, and the per-remote blacklists that hide commands from clients.
package catalog

import "slices"

// Catalog maps a remote name to its commands, in the order the driver
// reported them.
type Catalog map[string][]string

// Blacklist maps a remote name to the commands that must not be exposed.
type Blacklist map[string][]string

// Has reports whether command is blacklisted for remote.
// Matching is exact string equality.
func (b Blacklist) Has(remote, command string) bool {
	return slices.Contains(b[remote], command)
}

// Filter returns the commands of c that are not blacklisted. The input
// catalog is never modified and relative command order is preserved.
// A nil blacklist, or a remote without an entry, passes through unchanged.
func Filter(c Catalog, b Blacklist) Catalog {
	out := make(Catalog, len(c))
	for remote, commands := range c {
		blocked, ok := b[remote]
		if !ok {
			out[remote] = slices.Clone(commands)
			continue
		}
		kept := make([]string, 0, len(commands))
		for _, cmd := range commands {
			if !slices.Contains(blocked, cmd) {
				kept = append(kept, cmd)
			}
		}
		out[remote] = kept
	}
	return out
}

// Clone returns a deep copy of c.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for remote, commands := range c {
		out[remote] = slices.Clone(commands)
	}
	return out
}

// Remotes returns the remote names in sorted order.
func (c Catalog) Remotes() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
