/*
Package domain contains the core domain models of the reschema engine.

It defines the values that flow between the kernels: actions, state trees,
reducers and the effects an action creator may return. This package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Action: a flux-standard record describing an intent to transition state.
  - State: an immutable, serializable mapping used for schema slices and the global tree.
  - Reducer: a pure function (State, Action) -> State.
  - Effect: what an action creator returns, either a plain Action or a Deferred.
  - Future: the settlement of a dispatched effect.
*/
package domain
