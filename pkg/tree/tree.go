// Package tree provides the canonical path-based accessors for the global state tree.
//
// Reads and writes never mutate their input: Set copies only the maps along the
// addressed path, so every untouched subtree stays referentially identical.
package tree

import (
	"fmt"
	"strings"

	"github.com/aretw0/reschema/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Path addresses a node in the state tree.
type Path []string

// ParsePath splits a dotted namespace ("foo.bar") into a Path.
// Empty segments are dropped.
func ParsePath(s string) Path {
	var p Path
	for _, seg := range strings.Split(s, ".") {
		if seg = strings.TrimSpace(seg); seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// Append returns a new path with the segments added.
func (p Path) Append(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// String renders the path in dotted form.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Get resolves the State stored at path.
// It reports false when any segment is missing or is not a mapping.
func Get(root domain.State, path Path) (domain.State, bool) {
	node := root
	for _, seg := range path {
		if node == nil {
			return nil, false
		}
		child, ok := domain.AsState(node[seg])
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, node != nil
}

// Set returns a copy of root with value stored at path.
// Intermediate mappings are created as needed; siblings are shared with root.
func Set(root domain.State, path Path, value domain.State) domain.State {
	if len(path) == 0 {
		return value
	}

	out := root.Clone()
	child, _ := domain.AsState(out[path[0]])
	out[path[0]] = Set(child, path[1:], value)
	return out
}

// Decode maps a slice onto a typed value using its mapstructure tags.
func Decode(slice domain.State, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(slice)); err != nil {
		return fmt.Errorf("failed to decode slice: %w", err)
	}
	return nil
}
