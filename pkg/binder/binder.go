// Package binder projects compiled schemas into props groups for a
// connection layer: selected values, dispatch-bound operations and a merge step.
package binder

import (
	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/schema"
)

// Props is a flat set of values handed to a consumer.
type Props map[string]any

// StateProps holds the selected values of each schema, keyed by schema name.
type StateProps map[string]map[string]any

// DispatchProps holds the bound operations of each schema, keyed by schema name.
type DispatchProps map[string]action.Bound

// MapStateFunc projects the global tree into StateProps.
type MapStateFunc func(state domain.State, props any) StateProps

// MapDispatchFunc binds every operation to dispatch.
type MapDispatchFunc func(dispatch domain.DispatchFunc) DispatchProps

// MergeFunc assembles one Props group per schema name on top of the owner's props.
type MergeFunc func(state StateProps, dispatch DispatchProps, own Props) Props

// WithSchemas returns the (mapState, mapDispatch, merge) triple for schemas.
func WithSchemas(schemas ...*schema.Schema) (MapStateFunc, MapDispatchFunc, MergeFunc) {
	mapState := func(state domain.State, props any) StateProps {
		out := make(StateProps, len(schemas))
		for _, s := range schemas {
			out[s.Name()] = s.Select(state, props)
		}
		return out
	}

	mapDispatch := func(dispatch domain.DispatchFunc) DispatchProps {
		out := make(DispatchProps, len(schemas))
		for _, s := range schemas {
			// Deferred effects are run by the dispatcher; plain actions are reduced.
			out[s.Name()] = action.Bind(s.ActionCreators(), dispatch)
		}
		return out
	}

	return mapState, mapDispatch, Merge
}

// Merge flattens selected values and bound operations into one group per
// schema name. Bound operations win over selected values sharing a key.
func Merge(state StateProps, dispatch DispatchProps, own Props) Props {
	out := make(Props, len(own)+len(state))
	for k, v := range own {
		out[k] = v
	}

	groups := make(map[string]Props)
	group := func(name string) Props {
		g, ok := groups[name]
		if !ok {
			g = make(Props)
			groups[name] = g
		}
		return g
	}
	for name, values := range state {
		g := group(name)
		for k, v := range values {
			g[k] = v
		}
	}
	for name, bound := range dispatch {
		g := group(name)
		for k, fn := range bound {
			g[k] = fn
		}
	}

	for name, g := range groups {
		out[name] = g
	}
	return out
}
