package action

import (
	"context"

	"github.com/aretw0/reschema/pkg/domain"
	"github.com/iancoleman/strcase"
)

// Suffixes appended to the base action type for the async phases.
const (
	SuccessSuffix = "_SUCCESS"
	FailureSuffix = "_FAILURE"
)

// Creator produces the effect for an operation.
type Creator func(payload any) domain.Effect

// Creators maps operation names to their creators.
type Creators map[string]Creator

// SyncCreator produces plain actions with optional error flag and meta.
type SyncCreator func(payload any, isError bool, meta domain.Meta) domain.Action

// BoundCreator dispatches the effect of a creator immediately.
type BoundCreator func(ctx context.Context, payload any) *domain.Future

// Bound maps operation names to dispatch-bound creators.
type Bound map[string]BoundCreator

// Request performs the asynchronous work of an operation.
// peers lets the implementation dispatch sibling operations as side effects.
type Request func(ctx context.Context, payload any, peers Bound, dispatch domain.DispatchFunc) (any, error)

// Create builds an action containing only the defined fields.
func Create(actionType string, payload any, isError bool, meta domain.Meta) domain.Action {
	a := domain.Action{Type: actionType, Payload: payload, Error: isError}
	if len(meta) > 0 {
		a.Meta = meta
	}
	return a
}

// UpperSnake converts an identifier to UPPER_SNAKE_CASE ("addAsync" -> "ADD_ASYNC").
func UpperSnake(s string) string {
	return strcase.ToScreamingSnake(s)
}

// TypeName returns the action type of an operation.
// An explicit actionName wins; otherwise the MODEL_METHOD convention applies.
func TypeName(modelName, methodName, actionName string) string {
	if actionName != "" {
		return UpperSnake(actionName)
	}
	return UpperSnake(modelName + "_" + methodName)
}

// SuccessType returns the success action type for a base type.
func SuccessType(base string) string {
	return UpperSnake(base + SuccessSuffix)
}

// FailureType returns the failure action type for a base type.
func FailureType(base string) string {
	return UpperSnake(base + FailureSuffix)
}

// NewCreator returns a synchronous creator for actionName.
func NewCreator(actionName string) SyncCreator {
	actionType := UpperSnake(actionName)
	return func(payload any, isError bool, meta domain.Meta) domain.Action {
		return Create(actionType, payload, isError, meta)
	}
}

// Bind wraps every creator so that invoking it dispatches its effect.
func Bind(creators Creators, dispatch domain.DispatchFunc) Bound {
	bound := make(Bound, len(creators))
	for name, create := range creators {
		bound[name] = func(ctx context.Context, payload any) *domain.Future {
			return dispatch(ctx, create(payload))
		}
	}
	return bound
}
