package reschema

import (
	"github.com/aretw0/reschema/internal/logging"
	"github.com/aretw0/reschema/pkg/binder"
	"github.com/aretw0/reschema/pkg/compose"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/reducer"
	"github.com/aretw0/reschema/pkg/schema"
	"github.com/aretw0/reschema/pkg/store"
)

// CreateSchema compiles a schema. See schema.New.
func CreateSchema(name string, ops schema.Operations, opts ...schema.Option) (*schema.Schema, error) {
	return schema.New(name, ops, opts...)
}

// CombineSchemas binds schemas to one namespace. See compose.Combine.
func CombineSchemas(schemas []*schema.Schema, opts ...compose.Option) (*compose.Composition, error) {
	return compose.Combine(schemas, opts...)
}

// WithSchemas returns the props projection triple for schemas. See binder.WithSchemas.
func WithSchemas(schemas ...*schema.Schema) (binder.MapStateFunc, binder.MapDispatchFunc, binder.MergeFunc) {
	return binder.WithSchemas(schemas...)
}

// CreateSchemaStore combines schemas and returns a live store over them.
// The initial tree holds every declared initial slice, overridden per schema
// by WithPreloadedState; WithReducer appends a reducer over the whole tree.
func CreateSchemaStore(schemas []*schema.Schema, opts ...Option) (*store.Store, *compose.Composition, error) {
	o := newOptions(opts)

	c, err := combine(schemas, o)
	if err != nil {
		return nil, nil, err
	}
	s := store.New(rootReducer(c, o), c.InitialTree(o.preloaded),
		store.WithHooks(o.hooks),
		store.WithLogger(o.logger),
	)
	return s, c, nil
}

func newOptions(opts []Option) *options {
	o := &options{namespace: schema.DefaultNamespace}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	return o
}

func combine(schemas []*schema.Schema, o *options) (*compose.Composition, error) {
	copts := []compose.Option{
		compose.WithNamespace(o.namespace),
		compose.WithLogger(o.logger),
	}
	if o.strict {
		copts = append(copts, compose.WithStrictNames())
	}
	return compose.Combine(schemas, copts...)
}

func rootReducer(c *compose.Composition, o *options) domain.Reducer {
	if o.extra == nil {
		return c.Reducer()
	}
	return reducer.Chain(c.Reducer(), o.extra)
}
