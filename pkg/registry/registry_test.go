package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(ctx context.Context, payload any, _ action.Bound, _ domain.DispatchFunc) (any, error) {
	return payload, nil
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	reg := registry.NewRegistry()
	req := reg.Request("echo")

	_, err := req(ctx, 1, nil, nil)
	require.ErrorIs(t, err, registry.ErrRequestNotFound)

	reg.Register("echo", echo)
	got, err := req(ctx, 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got, "requests resolve at call time")

	reg.Register("echo", func(context.Context, any, action.Bound, domain.DispatchFunc) (any, error) {
		return "replaced", nil
	})
	got, err = reg.Execute(ctx, "echo", 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "replaced", got)

	reg.Register("another", echo)
	assert.Equal(t, []string{"another", "echo"}, reg.Names())
}
