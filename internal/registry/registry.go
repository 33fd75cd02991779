// Package registry holds the list of job boards a collector run polls.
//
// The file is a JSON or YAML sequence where each entry is either a bare board
// handle or an object {handle, api}. Both shapes are preserved on write-back.
// Entries of any other shape are kept verbatim with an empty handle; the
// collector skips them.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"jobhunt-ingest/internal/fsutil"
)

type Entry struct {
	Handle string
	API    string // optional explicit listing endpoint

	object bool // read as {handle, api}; written back the same way

	// unsupported entries, written back untouched
	raw  json.RawMessage
	node *yaml.Node
}

// Unsupported reports an entry that was neither a handle nor an object.
func (e Entry) Unsupported() bool { return e.raw != nil || e.node != nil }

// NewEntry builds an entry that is written back as a bare handle when api is empty.
func NewEntry(handle, api string) Entry {
	return Entry{Handle: handle, API: api, object: api != ""}
}

type entryObject struct {
	Handle string `json:"handle" yaml:"handle"`
	API    string `json:"api,omitempty" yaml:"api,omitempty"`
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = Entry{Handle: strings.TrimSpace(s)}
		return nil
	}
	if len(b) > 0 && b[0] == '{' {
		var o entryObject
		if err := json.Unmarshal(b, &o); err != nil {
			return err
		}
		*e = Entry{Handle: strings.TrimSpace(o.Handle), API: strings.TrimSpace(o.API), object: true}
		return nil
	}
	*e = Entry{raw: append(json.RawMessage(nil), b...)}
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	if !e.object && e.API == "" {
		return json.Marshal(e.Handle)
	}
	return json.Marshal(entryObject{Handle: e.Handle, API: e.API})
}

func (e *Entry) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*e = Entry{Handle: strings.TrimSpace(n.Value)}
		return nil
	case yaml.MappingNode:
		var o entryObject
		if err := n.Decode(&o); err != nil {
			return err
		}
		*e = Entry{Handle: strings.TrimSpace(o.Handle), API: strings.TrimSpace(o.API), object: true}
		return nil
	default:
		*e = Entry{node: n}
		return nil
	}
}

func (e Entry) MarshalYAML() (any, error) {
	if e.node != nil {
		return e.node, nil
	}
	if e.raw != nil {
		var v any
		if err := json.Unmarshal(e.raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	if !e.object && e.API == "" {
		return e.Handle, nil
	}
	return entryObject{Handle: e.Handle, API: e.API}, nil
}

// Registry is an ordered list of entries. Methods never mutate the receiver.
type Registry []Entry

// UnmarshalYAML decodes entries one by one so null items reach Entry
// instead of being zeroed by the decoder.
func (r *Registry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: registry must be a sequence", n.Line)
	}
	out := make(Registry, 0, len(n.Content))
	for _, item := range n.Content {
		var e Entry
		if item.ShortTag() == "!!null" {
			e = Entry{node: item}
		} else if err := item.Decode(&e); err != nil {
			return err
		}
		out = append(out, e)
	}
	*r = out
	return nil
}

func (r Registry) Handles() []string {
	out := make([]string, 0, len(r))
	for _, e := range r {
		out = append(out, e.Handle)
	}
	return out
}

// Without returns a copy of r minus every entry whose handle is listed.
func (r Registry) Without(handles ...string) Registry {
	drop := make(map[string]bool, len(handles))
	for _, h := range handles {
		drop[h] = true
	}
	out := make(Registry, 0, len(r))
	for _, e := range r {
		if drop[e.Handle] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ConfigError means the registry could not be used at all. It is fatal for a run.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("registry %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

// Load reads a registry file. Any failure is reported as *ConfigError.
func Load(path string) (Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return Parse(path, b)
}

// Parse decodes b using the format implied by path's extension.
func Parse(path string, b []byte) (Registry, error) {
	var reg Registry
	var err error
	if isYAML(path) {
		err = yaml.Unmarshal(b, &reg)
	} else {
		if len(bytes.TrimSpace(b)) == 0 {
			err = errors.New("empty file")
		} else {
			err = json.Unmarshal(b, &reg)
		}
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return reg, nil
}

// Save writes reg back to path atomically, keeping the previous file as .bak.
func Save(path string, reg Registry) error {
	if reg == nil {
		reg = Registry{}
	}
	var b []byte
	var err error
	if isYAML(path) {
		b, err = yaml.Marshal(reg)
	} else {
		b, err = json.MarshalIndent(reg, "", "  ")
		b = append(b, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	return fsutil.WriteFileAtomic(path, b, true)
}
