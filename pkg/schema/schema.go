package schema

import (
	"log/slog"
	"sort"

	"github.com/aretw0/reschema/internal/logging"
	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/reducer"
	"github.com/aretw0/reschema/pkg/tree"
)

// DefaultNamespace is the root under which schema slices live.
const DefaultNamespace = "schemas"

// Selector derives a value from a schema slice.
// global and props allow cross-schema reads.
type Selector func(slice domain.State, global domain.State, props any) any

// Selectors maps selector names to selectors.
type Selectors map[string]Selector

// Option configures New.
type Option func(*options)

type options struct {
	selectors Selectors
	initial   domain.State
	namespace string
	loading   *LoadingSpec
	logger    *slog.Logger
}

// WithSelectors declares the schema's selectors.
func WithSelectors(selectors Selectors) Option {
	return func(o *options) {
		o.selectors = selectors
	}
}

// WithInitialState declares the slice used when the tree has none.
func WithInitialState(initial domain.State) Option {
	return func(o *options) {
		o.initial = initial
	}
}

// WithNamespace binds the schema to a dotted namespace (default "schemas").
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithDefaultLoading sets the loading spec used by async operations that do not set their own.
func WithDefaultLoading(spec *LoadingSpec) Option {
	return func(o *options) {
		o.loading = spec
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Schema is a compiled schema. It is immutable; rebinding to another namespace
// yields a new value.
type Schema struct {
	name      string
	namespace string
	path      tree.Path
	initial   domain.State
	selectors Selectors
	handlers  reducer.Handlers
	creators  action.Creators
	infos     []OperationInfo
	reducer   domain.Reducer
	logger    *slog.Logger
}

// New compiles a schema.
// Malformed operations are reported together as an *AggregateError.
func New(name string, ops Operations, opts ...Option) (*Schema, error) {
	o := &options{namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(o)
	}
	if o.loading == nil {
		o.loading = DefaultLoading()
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}

	if name == "" {
		return nil, ErrEmptyName
	}

	c := &compiler{
		model:    name,
		loading:  o.loading,
		handlers: make(reducer.Handlers),
		creators: make(action.Creators),
	}

	names := make([]string, 0, len(ops))
	for opName := range ops {
		names = append(names, opName)
	}
	sort.Strings(names)

	var errs []error
	for _, opName := range names {
		op := ops[opName]
		if op == nil {
			errs = append(errs, &OperationError{Schema: name, Operation: opName, Err: ErrUnknownOperation})
			continue
		}
		if err := op.compile(c, opName); err != nil {
			errs = append(errs, &OperationError{Schema: name, Operation: opName, Err: err})
		}
	}
	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}

	s := &Schema{
		name:      name,
		initial:   o.initial,
		selectors: o.selectors,
		handlers:  c.handlers,
		creators:  c.creators,
		infos:     c.infos,
		logger:    o.logger.With("schema", name),
	}
	s.bind(o.namespace)

	s.logger.Debug("schema compiled",
		"namespace", s.namespace,
		"operations", len(s.infos),
		"action_types", len(s.handlers),
	)
	return s, nil
}

// MustNew is like New but panics on error. Intended for package-level schema declarations.
func MustNew(name string, ops Operations, opts ...Option) *Schema {
	s, err := New(name, ops, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) bind(namespace string) {
	s.namespace = namespace
	s.path = tree.ParsePath(namespace).Append(s.name)
	s.reducer = reducer.Create(s.initial, s.handlers, reducer.WithScope(s.path))
}

// WithNamespace returns a copy of the schema bound to namespace.
// The receiver is not modified.
func (s *Schema) WithNamespace(namespace string) *Schema {
	cp := *s
	cp.bind(namespace)
	return &cp
}

// Clone returns an independent copy bound to the same namespace.
func (s *Schema) Clone() *Schema {
	return s.WithNamespace(s.namespace)
}

// Name returns the schema name (its key in the namespace).
func (s *Schema) Name() string { return s.name }

// Namespace returns the dotted namespace the schema is bound to.
func (s *Schema) Namespace() string { return s.namespace }

// Path returns the full tree path of the schema's slice.
func (s *Schema) Path() tree.Path { return s.path.Append() }

// InitialState returns the declared initial slice.
func (s *Schema) InitialState() domain.State { return s.initial }

// Reducer returns the namespace-aware reducer over the global tree.
func (s *Schema) Reducer() domain.Reducer { return s.reducer }

// Reduce applies the schema's reducer to the global tree.
func (s *Schema) Reduce(root domain.State, a domain.Action) domain.State {
	return s.reducer(root, a)
}

// ActionCreators returns the operation creators keyed by operation name.
func (s *Schema) ActionCreators() action.Creators { return s.creators }

// Creator returns the creator of one operation.
func (s *Schema) Creator(operation string) (action.Creator, bool) {
	c, ok := s.creators[operation]
	return c, ok
}

// Selectors returns the declared selectors.
func (s *Schema) Selectors() Selectors { return s.selectors }

// Slice resolves the schema's slice in the global tree.
func (s *Schema) Slice(root domain.State) (domain.State, bool) {
	return tree.Get(root, s.path)
}

// Select maps every selector over the schema's slice.
func (s *Schema) Select(root domain.State, props any) map[string]any {
	slice, _ := s.Slice(root)
	out := make(map[string]any, len(s.selectors))
	for name, sel := range s.selectors {
		out[name] = sel(slice, root, props)
	}
	return out
}

// Operations describes the compiled operations, sorted by name.
func (s *Schema) Operations() []OperationInfo {
	out := make([]OperationInfo, len(s.infos))
	copy(out, s.infos)
	return out
}

// ActionTypes lists every action type the reducer handles, sorted.
func (s *Schema) ActionTypes() []string {
	out := make([]string, 0, len(s.handlers))
	for t := range s.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
