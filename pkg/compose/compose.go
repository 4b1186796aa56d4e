// Package compose merges compiled schemas under one namespace of the global
// state tree.
package compose

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/reschema/internal/logging"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/reducer"
	"github.com/aretw0/reschema/pkg/schema"
	"github.com/aretw0/reschema/pkg/tree"
)

// Option configures Combine.
type Option func(*options)

type options struct {
	namespace string
	strict    bool
	logger    *slog.Logger
}

// WithNamespace sets the dotted namespace all schemas are bound to.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithStrictNames rejects schemas that share a name.
// By default the later schema replaces the earlier one and a warning is logged.
func WithStrictNames() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Composition is a set of schemas bound to one namespace.
type Composition struct {
	namespace string
	path      tree.Path
	order     []string
	schemas   map[string]*schema.Schema
	reducer   domain.Reducer
}

// Combine rebinds every schema to the namespace and merges their reducers and
// initial states. The inputs are not modified.
func Combine(schemas []*schema.Schema, opts ...Option) (*Composition, error) {
	o := &options{namespace: schema.DefaultNamespace}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}

	c := &Composition{
		namespace: o.namespace,
		path:      tree.ParsePath(o.namespace),
		schemas:   make(map[string]*schema.Schema, len(schemas)),
	}

	for _, s := range schemas {
		if s == nil {
			continue
		}
		name := s.Name()
		if _, exists := c.schemas[name]; exists {
			if o.strict {
				return nil, fmt.Errorf("%w: %q", domain.ErrSchemaCollision, name)
			}
			o.logger.Warn("schema name collision, later schema replaces earlier one",
				"schema", name,
				"namespace", o.namespace,
			)
		} else {
			c.order = append(c.order, name)
		}
		c.schemas[name] = s.WithNamespace(o.namespace)
	}

	reducers := make([]domain.Reducer, 0, len(c.order))
	for _, name := range c.order {
		reducers = append(reducers, c.schemas[name].Reducer())
	}
	c.reducer = reducer.Chain(reducers...)

	o.logger.Debug("schemas combined", "namespace", o.namespace, "schemas", len(c.order))
	return c, nil
}

// Namespace returns the dotted namespace.
func (c *Composition) Namespace() string { return c.namespace }

// Path returns the namespace path.
func (c *Composition) Path() tree.Path { return c.path.Append() }

// Reducer returns the combined reducer over the global tree.
func (c *Composition) Reducer() domain.Reducer { return c.reducer }

// Reduce applies the combined reducer.
func (c *Composition) Reduce(root domain.State, a domain.Action) domain.State {
	return c.reducer(root, a)
}

// Schemas returns the bound schemas in registration order.
func (c *Composition) Schemas() []*schema.Schema {
	out := make([]*schema.Schema, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.schemas[name])
	}
	return out
}

// Names returns the schema names, sorted.
func (c *Composition) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	sort.Strings(out)
	return out
}

// Schema looks up a bound schema by name.
func (c *Composition) Schema(name string) (*schema.Schema, bool) {
	s, ok := c.schemas[name]
	return s, ok
}

// InitialState returns the initial slices keyed by schema name.
// Schemas without an initial state are omitted.
func (c *Composition) InitialState() domain.State {
	out := make(domain.State, len(c.schemas))
	for name, s := range c.schemas {
		if initial := s.InitialState(); initial != nil {
			out[name] = initial
		}
	}
	return out
}

// InitialTree returns the global tree holding every initial slice under the
// namespace. Top-level keys of override replace the matching schema slices.
func (c *Composition) InitialTree(override domain.State) domain.State {
	return tree.Set(nil, c.path, c.InitialState().Merge(override))
}

// Select evaluates every schema's selectors against the global tree.
func (c *Composition) Select(root domain.State, props any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(c.schemas))
	for name, s := range c.schemas {
		out[name] = s.Select(root, props)
	}
	return out
}
