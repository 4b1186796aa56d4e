package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/reducer"
	"github.com/aretw0/reschema/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterReducer() domain.Reducer {
	return reducer.Create(domain.State{"n": 0}, reducer.Handlers{
		"INC": func(s domain.State, a domain.Action) domain.State {
			return s.With("n", s.Int("n")+1)
		},
		"SET": func(s domain.State, a domain.Action) domain.State {
			return s.With("n", a.Payload)
		},
	})
}

func TestStore_DispatchAction(t *testing.T) {
	s := store.New(counterReducer(), nil)

	res, err := s.Dispatch(context.Background(), domain.Action{Type: "INC"}).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Action{Type: "INC"}, res)
	assert.Equal(t, domain.State{"n": 1}, s.GetState())
}

func TestStore_Subscribe(t *testing.T) {
	s := store.New(counterReducer(), domain.State{"n": 0})

	var seen []string
	unsubscribe := s.Subscribe(func(_ domain.State, a domain.Action) {
		seen = append(seen, "first:"+a.Type)
	})
	s.Subscribe(func(_ domain.State, a domain.Action) {
		seen = append(seen, "second:"+a.Type)
	})

	s.Dispatch(context.Background(), domain.Action{Type: "INC"})
	unsubscribe()
	s.Dispatch(context.Background(), domain.Action{Type: "INC"})

	assert.Equal(t, []string{"first:INC", "second:INC", "second:INC"}, seen)
}

func TestStore_DeferredAndHooks(t *testing.T) {
	var dispatched atomic.Int32
	settled := make(chan *domain.RequestEvent, 1)
	hooks := domain.Hooks{
		OnDispatch: func(_ context.Context, _ *domain.DispatchEvent) { dispatched.Add(1) },
		OnRequestSettle: func(_ context.Context, e *domain.RequestEvent) {
			settled <- e
		},
	}
	s := store.New(counterReducer(), nil, store.WithHooks(hooks))

	failed := errors.New("nope")
	create := action.NewAsyncCreator("SET", func(ctx context.Context, _ any, _ action.Bound, _ domain.DispatchFunc) (any, error) {
		return nil, failed
	}, nil)

	_, err := s.Dispatch(context.Background(), create(1)).Wait(context.Background())
	assert.ErrorIs(t, err, failed)

	e := <-settled
	assert.Equal(t, "SET", e.Type)
	assert.ErrorIs(t, e.Err, failed)
	// pending and failure
	assert.Equal(t, int32(2), dispatched.Load())
	assert.Equal(t, domain.State{"n": 1}, s.GetState())
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	s := store.New(counterReducer(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(context.Background(), domain.Action{Type: "INC"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.GetState().Int("n"))
}
