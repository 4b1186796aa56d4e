// Package schema compiles a named set of operations into a reducer, action
// creators and a selector projection.
//
// An operation is either Sync (a single transition handling its base action
// type) or Async (a request plus transitions for the pending, success and
// failure phases). Async operations are wrapped by a loading transition that
// tracks isLoading/error bookkeeping unless disabled with NoLoading.
//
// Basic usage:
//
//	counter := schema.MustNew("counter", schema.Operations{
//	    "add": schema.Sync{
//	        Reduce: func(s domain.State, a domain.Action) domain.State {
//	            return s.With("number", s.Int("number")+a.Payload.(int))
//	        },
//	    },
//	    "addAsync": schema.Async{
//	        Request: fetchNumber,
//	        Success: func(s domain.State, a domain.Action) domain.State {
//	            return s.With("number", s.Int("number")+a.Payload.(int))
//	        },
//	    },
//	},
//	    schema.WithInitialState(domain.State{"number": 0}),
//	    schema.WithSelectors(schema.Selectors{
//	        "number": func(s, _ domain.State, _ any) any { return s["number"] },
//	    }),
//	)
//
// Action types follow the MODEL_METHOD convention ("counter"/"addAsync" gives
// COUNTER_ADD_ASYNC, COUNTER_ADD_ASYNC_SUCCESS and COUNTER_ADD_ASYNC_FAILURE)
// unless an operation sets ActionName.
//
// A compiled Schema is immutable. Its slice lives at <namespace>.<name> in the
// global tree; WithNamespace returns a copy bound to another namespace.
package schema
