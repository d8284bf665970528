// Package macro implements named, ordered sequences of IR transmissions:
// the table they are configured in, the fuzzy resolver that maps a spoken
// phrase to one of them, and the executor that sends their steps.
package macro

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Mode selects which driver transmission a step uses.
type Mode string

const (
	ModeOnce  Mode = "once"
	ModeStart Mode = "start"
	ModeStop  Mode = "stop"
)

// Step is one transmission inside a macro.
type Step struct {
	Remote  string `yaml:"remote" json:"remote"`
	Command string `yaml:"command" json:"command"`
	Mode    Mode   `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// UnmarshalYAML accepts either the compact ["remote", "command"] pair or a
// mapping with remote, command and an optional mode.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var pair []string
		if err := node.Decode(&pair); err != nil {
			return fmt.Errorf("line %d: macro step: %w", node.Line, err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("line %d: macro step must be [remote, command], got %d elements", node.Line, len(pair))
		}
		if pair[0] == "delay" {
			return fmt.Errorf("line %d: delay steps are not supported", node.Line)
		}
		*s = Step{Remote: pair[0], Command: pair[1], Mode: ModeOnce}
	case yaml.MappingNode:
		type plain Step
		var p plain
		if err := node.Decode(&p); err != nil {
			return fmt.Errorf("line %d: macro step: %w", node.Line, err)
		}
		*s = Step(p)
		if s.Mode == "" {
			s.Mode = ModeOnce
		}
	default:
		return fmt.Errorf("line %d: macro step must be a list or a mapping", node.Line)
	}
	switch s.Mode {
	case ModeOnce, ModeStart, ModeStop:
	default:
		return fmt.Errorf("line %d: unknown macro step mode %q", node.Line, s.Mode)
	}
	if s.Remote == "" || s.Command == "" {
		return fmt.Errorf("line %d: macro step needs a remote and a command", node.Line)
	}
	return nil
}

// MarshalJSON writes once-steps in the compact pair form used by the web UI.
func (s Step) MarshalJSON() ([]byte, error) {
	if s.Mode == "" || s.Mode == ModeOnce {
		return json.Marshal([]string{s.Remote, s.Command})
	}
	type plain Step
	return json.Marshal(plain(s))
}

// Macro is a named step sequence.
type Macro struct {
	Name  string
	Steps []Step
}

// Table is an ordered set of macros. Order is the configuration order and
// decides ties during resolution; names are unique and case-sensitive.
type Table struct {
	macros []Macro
	index  map[string]int
}

// NewTable builds a table from macros in the given order.
func NewTable(macros ...Macro) (*Table, error) {
	t := &Table{index: make(map[string]int, len(macros))}
	for _, m := range macros {
		if err := t.add(m); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) add(m Macro) error {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, dup := t.index[m.Name]; dup {
		return fmt.Errorf("duplicate macro %q", m.Name)
	}
	t.index[m.Name] = len(t.macros)
	t.macros = append(t.macros, m)
	return nil
}

// Len returns the number of macros. A nil table is empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.macros)
}

// All returns the macros in table order.
func (t *Table) All() []Macro {
	if t == nil {
		return nil
	}
	return t.macros
}

// Lookup returns the macro with exactly the given name.
func (t *Table) Lookup(name string) (Macro, bool) {
	if t == nil {
		return Macro{}, false
	}
	i, ok := t.index[name]
	if !ok {
		return Macro{}, false
	}
	return t.macros[i], true
}

// UnmarshalYAML decodes a mapping of macro name to step list, keeping the
// document order of the keys.
func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: macros must be a mapping", node.Line)
	}
	*t = Table{index: make(map[string]int, len(node.Content)/2)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var steps []Step
		if err := val.Decode(&steps); err != nil {
			return fmt.Errorf("macro %q: %w", key.Value, err)
		}
		if err := t.add(Macro{Name: key.Value, Steps: steps}); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON writes the table as a JSON object in table order.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range t.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(m.Name)
		if err != nil {
			return nil, err
		}
		steps := m.Steps
		if steps == nil {
			steps = []Step{}
		}
		body, err := json.Marshal(steps)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
