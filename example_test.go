package reschema_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/reschema"
	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/schema"
)

// ExampleCreateSchemaStore builds a counter schema with a synchronous and an
// asynchronous operation and drives it through a store.
func ExampleCreateSchemaStore() {
	counter, err := reschema.CreateSchema("counter", schema.Operations{
		"add": schema.Sync{
			Reduce: func(s domain.State, a domain.Action) domain.State {
				return s.With("number", s.Int("number")+a.Payload.(int))
			},
		},
		"addAsync": schema.Async{
			Request: func(ctx context.Context, payload any, _ action.Bound, _ domain.DispatchFunc) (any, error) {
				return 5, nil
			},
			Success: func(s domain.State, a domain.Action) domain.State {
				return s.With("number", s.Int("number")+a.Payload.(int))
			},
		},
	},
		schema.WithInitialState(domain.State{"number": 0}),
		schema.WithSelectors(schema.Selectors{
			"number": func(s, _ domain.State, _ any) any { return s["number"] },
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	st, _, err := reschema.CreateSchemaStore([]*schema.Schema{counter})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	st.Dispatch(ctx, counter.ActionCreators()["add"](3))
	if _, err := st.Dispatch(ctx, counter.ActionCreators()["addAsync"](nil)).Wait(ctx); err != nil {
		log.Fatal(err)
	}

	fmt.Println(counter.Select(st.GetState(), nil)["number"])
	fmt.Println(counter.ActionTypes())
	// Output:
	// 8
	// [COUNTER_ADD COUNTER_ADD_ASYNC COUNTER_ADD_ASYNC_FAILURE COUNTER_ADD_ASYNC_SUCCESS]
}

// ExampleEngine_Dispatch runs an operation inside a persisted session.
func ExampleEngine_Dispatch() {
	books := schema.MustNew("books", schema.Operations{
		"add": schema.Sync{
			Reduce: func(s domain.State, a domain.Action) domain.State {
				return s.With("count", s.Int("count")+1)
			},
		},
	}, schema.WithInitialState(domain.State{"count": 0}))

	eng, err := reschema.New([]*schema.Schema{books})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := eng.Dispatch(ctx, "session-1", "books", "add", nil); err != nil {
		log.Fatal(err)
	}

	sess, _ := eng.Open(ctx, "session-1")
	fmt.Println(sess.State())
	// Output:
	// map[schemas:map[books:map[count:1]]]
}
