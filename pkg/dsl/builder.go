package dsl

import (
	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/registry"
	"github.com/aretw0/reschema/pkg/schema"
)

// Builder collects the operations and options of one schema.
type Builder struct {
	name      string
	ops       schema.Operations
	selectors schema.Selectors
	opts      []schema.Option
}

// New starts a schema named name.
func New(name string) *Builder {
	return &Builder{
		name:      name,
		ops:       make(schema.Operations),
		selectors: make(schema.Selectors),
	}
}

// Initial sets the initial slice.
func (b *Builder) Initial(state domain.State) *Builder {
	b.opts = append(b.opts, schema.WithInitialState(state))
	return b
}

// Namespace binds the schema to a dotted namespace.
func (b *Builder) Namespace(ns string) *Builder {
	b.opts = append(b.opts, schema.WithNamespace(ns))
	return b
}

// DefaultLoading sets the loading spec of async operations without their own.
func (b *Builder) DefaultLoading(spec *schema.LoadingSpec) *Builder {
	b.opts = append(b.opts, schema.WithDefaultLoading(spec))
	return b
}

// Select adds a selector.
func (b *Builder) Select(name string, sel schema.Selector) *Builder {
	b.selectors[name] = sel
	return b
}

// Sync adds (or returns the existing) synchronous operation.
func (b *Builder) Sync(op string) *SyncBuilder {
	sb := &SyncBuilder{builder: b}
	if existing, ok := b.ops[op].(*schema.Sync); ok {
		sb.op = existing
	} else {
		sb.op = &schema.Sync{}
		b.ops[op] = sb.op
	}
	return sb
}

// Async adds (or returns the existing) asynchronous operation.
func (b *Builder) Async(op string) *AsyncBuilder {
	ab := &AsyncBuilder{builder: b}
	if existing, ok := b.ops[op].(*schema.Async); ok {
		ab.op = existing
	} else {
		ab.op = &schema.Async{}
		b.ops[op] = ab.op
	}
	return ab
}

// Build compiles the schema. Extra options are applied after the builder's.
func (b *Builder) Build(opts ...schema.Option) (*schema.Schema, error) {
	ops := make(schema.Operations, len(b.ops))
	for name, op := range b.ops {
		switch o := op.(type) {
		case *schema.Sync:
			ops[name] = *o
		case *schema.Async:
			ops[name] = *o
		}
	}

	all := append([]schema.Option{}, b.opts...)
	if len(b.selectors) > 0 {
		all = append(all, schema.WithSelectors(b.selectors))
	}
	return schema.New(b.name, ops, append(all, opts...)...)
}

// SyncBuilder configures a synchronous operation.
type SyncBuilder struct {
	builder *Builder
	op      *schema.Sync
}

// Reduce sets the transition.
func (s *SyncBuilder) Reduce(r domain.Reducer) *SyncBuilder {
	s.op.Reduce = r
	return s
}

// ActionName overrides the MODEL_METHOD action type.
func (s *SyncBuilder) ActionName(name string) *SyncBuilder {
	s.op.ActionName = name
	return s
}

// Prepare shapes the caller's argument into the payload.
func (s *SyncBuilder) Prepare(fn func(any) any) *SyncBuilder {
	s.op.Prepare = fn
	return s
}

// Schema returns to the schema builder.
func (s *SyncBuilder) Schema() *Builder { return s.builder }

// AsyncBuilder configures an asynchronous operation.
type AsyncBuilder struct {
	builder *Builder
	op      *schema.Async
}

// Request sets the request run on dispatch.
func (a *AsyncBuilder) Request(fn action.Request) *AsyncBuilder {
	a.op.Request = fn
	return a
}

// RequestNamed resolves the request from reg by name each time it runs.
func (a *AsyncBuilder) RequestNamed(reg *registry.Registry, name string) *AsyncBuilder {
	a.op.Request = reg.Request(name)
	return a
}

// Reduce sets the single-function form: the success transition.
func (a *AsyncBuilder) Reduce(r domain.Reducer) *AsyncBuilder {
	a.op.Reduce = r
	return a
}

// Initial sets the pending transition.
func (a *AsyncBuilder) Initial(r domain.Reducer) *AsyncBuilder {
	a.op.Initial = r
	return a
}

// Success sets the success transition.
func (a *AsyncBuilder) Success(r domain.Reducer) *AsyncBuilder {
	a.op.Success = r
	return a
}

// Failure sets the failure transition.
func (a *AsyncBuilder) Failure(r domain.Reducer) *AsyncBuilder {
	a.op.Failure = r
	return a
}

// Loading overrides the loading bookkeeping.
func (a *AsyncBuilder) Loading(spec *schema.LoadingSpec) *AsyncBuilder {
	a.op.Loading = spec
	return a
}

// NoLoading disables the loading bookkeeping.
func (a *AsyncBuilder) NoLoading() *AsyncBuilder {
	a.op.Loading = schema.NoLoading
	return a
}

// ActionName overrides the MODEL_METHOD action type.
func (a *AsyncBuilder) ActionName(name string) *AsyncBuilder {
	a.op.ActionName = name
	return a
}

// Prepare shapes the caller's argument into the payload.
func (a *AsyncBuilder) Prepare(fn func(any) any) *AsyncBuilder {
	a.op.Prepare = fn
	return a
}

// Schema returns to the schema builder.
func (a *AsyncBuilder) Schema() *Builder { return a.builder }
