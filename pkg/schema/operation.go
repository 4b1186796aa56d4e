package schema

import (
	"fmt"

	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/reducer"
)

// Operation is the compile-time description of one schema operation.
// It is implemented by Sync and Async only.
type Operation interface {
	compile(c *compiler, name string) error
}

// Operations maps operation names to their specs.
type Operations map[string]Operation

// Sync is an operation applied immediately on dispatch.
type Sync struct {
	// Reduce handles the base action type.
	Reduce domain.Reducer
	// ActionName overrides the MODEL_METHOD action type.
	ActionName string
	// Prepare shapes the caller's argument into the action payload.
	Prepare func(payload any) any
}

// Async is an operation whose result arrives from a request.
//
// Either Reduce (single form: success handler, pending is the identity) or the
// phased Initial/Success/Failure set may be given, not both.
type Async struct {
	Request action.Request

	Reduce  domain.Reducer
	Initial domain.Reducer
	Success domain.Reducer
	Failure domain.Reducer

	// Loading overrides the loading bookkeeping. Nil selects the schema
	// default; NoLoading disables it.
	Loading *LoadingSpec

	ActionName string
	Prepare    func(payload any) any
}

// OperationInfo describes a compiled operation.
type OperationInfo struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	SuccessType string `json:"success_type,omitempty" yaml:"success_type,omitempty"`
	FailureType string `json:"failure_type,omitempty" yaml:"failure_type,omitempty"`
	Async       bool   `json:"async" yaml:"async"`
}

type compiler struct {
	model    string
	loading  *LoadingSpec
	handlers reducer.Handlers
	creators action.Creators
	infos    []OperationInfo
}

func (c *compiler) register(actionType string, r domain.Reducer) error {
	if _, exists := c.handlers[actionType]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, actionType)
	}
	c.handlers[actionType] = r
	return nil
}

func (op Sync) compile(c *compiler, name string) error {
	if op.Reduce == nil {
		return ErrMissingReduce
	}

	actionType := action.TypeName(c.model, name, op.ActionName)
	if err := c.register(actionType, op.Reduce); err != nil {
		return err
	}

	create := action.NewCreator(actionType)
	c.creators[name] = prepared(op.Prepare, func(payload any) domain.Effect {
		return create(payload, false, nil)
	})
	c.infos = append(c.infos, OperationInfo{Name: name, Type: actionType})
	return nil
}

func (op Async) compile(c *compiler, name string) error {
	if op.Request == nil {
		return ErrMissingRequest
	}
	phased := op.Initial != nil || op.Success != nil || op.Failure != nil
	if op.Reduce != nil && phased {
		return ErrAmbiguousReduce
	}

	initial, success := op.Initial, op.Success
	if op.Reduce != nil {
		initial, success = reducer.Identity, op.Reduce
	}
	if success == nil {
		return ErrMissingReduce
	}

	loading := op.Loading
	if loading == nil {
		loading = c.loading
	}

	actionType := action.TypeName(c.model, name, op.ActionName)
	successType := action.SuccessType(actionType)
	failureType := action.FailureType(actionType)

	for typ, r := range map[string]domain.Reducer{
		actionType:  reducer.Compose(initial, loading.Initial),
		successType: reducer.Compose(success, loading.Success),
		failureType: reducer.Compose(op.Failure, loading.Failure),
	} {
		if err := c.register(typ, r); err != nil {
			return err
		}
	}

	// creators is read when the effect runs, so peers registered later are visible.
	c.creators[name] = prepared(op.Prepare, action.NewAsyncCreator(actionType, op.Request, c.creators))
	c.infos = append(c.infos, OperationInfo{
		Name:        name,
		Type:        actionType,
		SuccessType: successType,
		FailureType: failureType,
		Async:       true,
	})
	return nil
}

func prepared(prepare func(any) any, create action.Creator) action.Creator {
	if prepare == nil {
		return create
	}
	return func(payload any) domain.Effect {
		return create(prepare(payload))
	}
}
