package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/reschema/internal/catalog"
	"github.com/aretw0/reschema/pkg/action"
	"github.com/aretw0/reschema/pkg/compose"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*store.Store, *compose.Composition) {
	t.Helper()
	c, err := compose.Combine(catalog.Schemas(catalog.WithDelay(time.Millisecond)))
	require.NoError(t, err)
	return store.New(c.Reducer(), c.InitialTree(nil)), c
}

func TestCatalog_Names(t *testing.T) {
	_, c := newStore(t)
	assert.Equal(t, []string{"books", "counter", "movies"}, c.Names())
}

func TestCatalog_Counter(t *testing.T) {
	s, c := newStore(t)
	counter, _ := c.Schema("counter")
	ctx := context.Background()

	s.Dispatch(ctx, counter.ActionCreators()["add"](2))
	_, err := s.Dispatch(ctx, counter.ActionCreators()["addAsync"](3)).Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"fixedSelector": "Test", "dynamicSelector": 5}, counter.Select(s.GetState(), nil))
}

func TestCatalog_CounterCustomLoading(t *testing.T) {
	s, c := newStore(t)
	counter, _ := c.Schema("counter")
	ctx := context.Background()

	_, err := s.Dispatch(ctx, counter.ActionCreators()["addAsyncCustomLoading"](4)).Wait(ctx)
	require.NoError(t, err)
	slice, _ := counter.Slice(s.GetState())
	assert.Equal(t, domain.State{"number": 4, "isLoading": "ALL DONE"}, slice)

	_, err = s.Dispatch(ctx, counter.ActionCreators()["addAsyncCustomLoading"]("x")).Wait(ctx)
	assert.ErrorIs(t, err, catalog.ErrNotANumber)
	slice, _ = counter.Slice(s.GetState())
	assert.Equal(t, "error", slice["error"])
	assert.Equal(t, 4, slice.Int("number"))
}

func TestCatalog_BooksAndMovies(t *testing.T) {
	s, c := newStore(t)
	books, _ := c.Schema("books")
	movies, _ := c.Schema("movies")
	ctx := context.Background()

	_, err := s.Dispatch(ctx, books.ActionCreators()["add"](nil)).Wait(ctx)
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, movies.ActionCreators()["addMovieAsync"](2)).Wait(ctx)
	require.NoError(t, err)
	s.Dispatch(ctx, movies.ActionCreators()["addMovie"](1))

	sel := c.Select(s.GetState(), nil)
	assert.Equal(t, 1, sel["books"]["count"])
	assert.Equal(t, 3, sel["movies"]["movieCount"])
	assert.Equal(t, false, sel["movies"]["isLoading"])
}

func TestCatalog_WithRequests(t *testing.T) {
	reg := catalog.DefaultRequests()
	reg.Register(catalog.RequestBooksAdd, func(context.Context, any, action.Bound, domain.DispatchFunc) (any, error) {
		return 10, nil
	})

	c, err := compose.Combine(catalog.Schemas(catalog.WithRequests(reg)))
	require.NoError(t, err)
	s := store.New(c.Reducer(), c.InitialTree(nil))
	books, _ := c.Schema("books")
	ctx := context.Background()

	_, err = s.Dispatch(ctx, books.ActionCreators()["add"](nil)).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Select(s.GetState(), nil)["books"]["count"])
}
