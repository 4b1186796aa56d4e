package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/reschema/internal/catalog"
	"github.com/aretw0/reschema/pkg/compose"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/observability"
	"github.com/aretw0/reschema/pkg/schema"
	"github.com/aretw0/reschema/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCounterStore(t *testing.T, hooks domain.Hooks) (*store.Store, *schema.Schema) {
	t.Helper()
	c, err := compose.Combine([]*schema.Schema{catalog.Counter()})
	require.NoError(t, err)
	counter, _ := c.Schema("counter")
	return store.New(c.Reducer(), c.InitialTree(nil), store.WithHooks(hooks)), counter
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	s, counter := newCounterStore(t, m.Hooks())
	ctx := context.Background()

	_, err := s.Dispatch(ctx, counter.ActionCreators()["add"](1)).Wait(ctx)
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, counter.ActionCreators()["addAsync"](2)).Wait(ctx)
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, counter.ActionCreators()["addAsyncCustomLoading"]("x")).Wait(ctx)
	require.ErrorIs(t, err, catalog.ErrNotANumber)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("COUNTER_ADD", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("COUNTER_ADD_ASYNC_SUCCESS", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("COUNTER_ADD_ASYNC_CUSTOM_LOADING_FAILURE", "true")))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.RequestsTotal.WithLabelValues("COUNTER_ADD_ASYNC", observability.OutcomeSuccess)) == 1 &&
			testutil.ToFloat64(m.RequestsTotal.WithLabelValues("COUNTER_ADD_ASYNC_CUSTOM_LOADING", observability.OutcomeFailure)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsInFlight))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)
	assert.Panics(t, func() { observability.NewMetrics(reg) })
}

func TestLogging_Hooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	merged := domain.MergeHooks(observability.Logging(logger), observability.NewMetrics(prometheus.NewRegistry()).Hooks())
	s, counter := newCounterStore(t, merged)
	ctx := context.Background()

	_, err := s.Dispatch(ctx, counter.ActionCreators()["add"](1)).Wait(ctx)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "type=COUNTER_ADD")
	assert.Contains(t, buf.String(), "is_error=false")
}
