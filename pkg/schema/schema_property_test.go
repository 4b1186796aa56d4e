package schema_test

import (
	"strings"
	"testing"

	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/schema"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_SchemaReducer(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	s := schema.MustNew("counter", schema.Operations{
		"add": schema.Sync{Reduce: addNumber},
	}, schema.WithInitialState(domain.State{"number": 0}))

	properties.Property("sync adds fold to their sum", prop.ForAll(
		func(xs []int) bool {
			var root domain.State
			sum := 0
			for _, x := range xs {
				root = s.Reduce(root, s.ActionCreators()["add"](x).(domain.Action))
				sum += x
			}
			if len(xs) == 0 {
				return root == nil
			}
			slice, ok := s.Slice(root)
			return ok && slice.Int("number") == sum
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.Property("unmatched action types leave the tree unchanged", prop.ForAll(
		func(actionType string, n int) bool {
			if strings.HasPrefix(actionType, "COUNTER_") {
				return true
			}
			root := domain.State{"schemas": domain.State{"counter": domain.State{"number": n}}}
			next := s.Reduce(root, domain.Action{Type: actionType})
			slice, _ := s.Slice(next)
			return slice.Int("number") == n && len(next) == len(root)
		},
		gen.AlphaString(),
		gen.Int(),
	))

	properties.Property("namespace rebinding moves the slice", prop.ForAll(
		func(ns string) bool {
			moved := s.WithNamespace(ns)
			root := moved.Reduce(nil, domain.Action{Type: "COUNTER_ADD", Payload: 1})
			slice, ok := moved.Slice(root)
			return ok && slice.Int("number") == 1 && s.Namespace() == schema.DefaultNamespace
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
