/*
Package reschema compiles declarative schemas into reducers, action creators
and selectors over a namespaced global state tree.

# Concept

A schema is a named set of operations. Each operation is either synchronous
(one transition handling one action type) or asynchronous (a request function
plus transitions for its pending, success and failure phases). Compiling a
schema yields:

  - a pure reducer that owns the schema's slice at <namespace>.<name>,
  - action creators following the MODEL_METHOD naming convention,
  - a selector projection over the slice.

Schemas are combined under one namespace and hosted by a single-writer store.
Asynchronous creators return a Deferred effect; the store runs it, dispatching
exactly one pending action followed by exactly one success or failure action.

# Usage

	counter := schema.MustNew("counter", schema.Operations{
		"add": schema.Sync{
			Reduce: func(s domain.State, a domain.Action) domain.State {
				return s.With("number", s.Int("number")+a.Payload.(int))
			},
		},
	}, schema.WithInitialState(domain.State{"number": 0}))

	st, _, err := reschema.CreateSchemaStore([]*schema.Schema{counter})
	if err != nil {
		log.Fatal(err)
	}
	st.Dispatch(ctx, counter.ActionCreators()["add"](3))
	// st.GetState() == {"schemas": {"counter": {"number": 3}}}

# Sessions

An Engine hosts many persistent sessions over the same schemas. Each session
is hydrated from a ports.SnapshotStore (memory, file or Redis) and saved after
every action:

	eng, err := reschema.New(schemas,
		reschema.WithSnapshotStore(redis.NewFromClient(client)),
		reschema.WithLocker(redis.NewLocker(client, "reschema:")),
	)
	future, err := eng.Dispatch(ctx, "session-1", "counter", "add", 3)
*/
package reschema
