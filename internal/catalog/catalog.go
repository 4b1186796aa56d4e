// Package catalog holds the demo schemas served by the reschema command.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/dsl"
	"github.com/aretw0/reschema/pkg/registry"
	"github.com/aretw0/reschema/pkg/schema"
)

// ErrNotANumber is returned by requests that expect an integer payload.
var ErrNotANumber = errors.New("payload is not an integer")

// Option configures the catalog.
type Option func(*config)

type config struct {
	delay    time.Duration
	requests *registry.Registry
}

// WithDelay sets the latency of the simulated movie request.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithRequests replaces the registry the books schema resolves its request from.
func WithRequests(reg *registry.Registry) Option {
	return func(c *config) {
		c.requests = reg
	}
}

// Schemas returns every demo schema.
func Schemas(opts ...Option) []*schema.Schema {
	c := &config{delay: time.Second}
	for _, opt := range opts {
		opt(c)
	}
	if c.requests == nil {
		c.requests = DefaultRequests()
	}
	return []*schema.Schema{books(c.requests), Movies(c.delay), Counter()}
}

func increment(key string) domain.Reducer {
	return func(s domain.State, a domain.Action) domain.State {
		n, _ := domain.ToInt(a.Payload)
		return s.With(key, s.Int(key)+n)
	}
}

func field(key string) schema.Selector {
	return func(s, _ domain.State, _ any) any {
		return s[key]
	}
}

func constant(v any) schema.Selector {
	return func(_, _ domain.State, _ any) any {
		return v
	}
}

// RequestBooksAdd is the registry name of the books request.
const RequestBooksAdd = "books.add"

// DefaultRequests registers the catalog's simulated remote calls.
func DefaultRequests() *registry.Registry {
	reg := registry.NewRegistry()
	reg.Register(RequestBooksAdd, func(ctx context.Context, _ any, _ action.Bound, _ domain.DispatchFunc) (any, error) {
		return 1, nil
	})
	return reg
}

// Books counts books; add resolves with a single book.
func Books() *schema.Schema {
	return books(DefaultRequests())
}

func books(requests *registry.Registry) *schema.Schema {
	b := dsl.New("books").
		Initial(domain.State{"count": 0}).
		Select("count", field("count"))
	b.Async("add").
		RequestNamed(requests, RequestBooksAdd).
		Success(increment("count"))
	return mustBuild(b)
}

// Movies counts movies synchronously or after a simulated request of delay.
func Movies(delay time.Duration) *schema.Schema {
	b := dsl.New("movies").
		Initial(domain.State{"movieCount": 0}).
		Select("movieCount", field("movieCount")).
		Select("isLoading", field(schema.KeyIsLoading))
	b.Async("addMovieAsync").
		Request(func(ctx context.Context, payload any, _ action.Bound, _ domain.DispatchFunc) (any, error) {
			select {
			case <-time.After(delay):
				return payload, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}).
		Reduce(increment("movieCount"))
	b.Sync("addMovie").Reduce(increment("movieCount"))
	return mustBuild(b)
}

func mustBuild(b *dsl.Builder) *schema.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// Counter exercises every operation shape.
func Counter() *schema.Schema {
	return schema.MustNew("counter", schema.Operations{
		"add": schema.Sync{Reduce: increment("number")},
		"addAsync": schema.Async{
			Request: func(ctx context.Context, payload any, _ action.Bound, _ domain.DispatchFunc) (any, error) {
				return payload, nil
			},
			Success: increment("number"),
		},
		"addAsyncCustomLoading": schema.Async{
			Request: func(ctx context.Context, payload any, _ action.Bound, _ domain.DispatchFunc) (any, error) {
				if _, ok := domain.ToInt(payload); !ok {
					return nil, ErrNotANumber
				}
				return payload, nil
			},
			Success: increment("number"),
			Loading: &schema.LoadingSpec{
				Success: func(s domain.State, _ domain.Action) domain.State {
					return s.With(schema.KeyIsLoading, "ALL DONE")
				},
				Failure: func(s domain.State, _ domain.Action) domain.State {
					return s.With(schema.KeyError, "error")
				},
			},
		},
	},
		schema.WithInitialState(domain.State{"number": 0}),
		schema.WithSelectors(schema.Selectors{
			"fixedSelector":   constant("Test"),
			"dynamicSelector": field("number"),
		}),
	)
}
