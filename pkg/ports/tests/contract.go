// Package tests provides reusable contract suites for port implementations.
package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract verifies that a SnapshotStore implementation
// adheres to the interface contract.
func RunSnapshotStoreContract(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSnapshot := func(id string) *domain.Snapshot {
		return domain.NewSnapshot(id, "schemas", domain.State{
			"schemas": domain.State{
				"books": domain.State{"count": 42, "title": "dune"},
			},
		})
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := newSnapshot(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "schemas", loaded.Namespace)

		books, ok := domain.AsState(loaded.Tree["schemas"])
		require.True(t, ok)
		slice, ok := domain.AsState(books["books"])
		require.True(t, ok)
		assert.Equal(t, "dune", slice["title"])
		// JSON backends decode numbers as float64; Int reads both.
		assert.Equal(t, 42, slice.Int("count"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Saved snapshot is isolated", func(t *testing.T) {
		snap := newSnapshot(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, snap))
		snap.Tree["schemas"].(domain.State)["books"].(domain.State)["title"] = "mutated"

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		books, _ := domain.AsState(loaded.Tree["schemas"])
		slice, _ := domain.AsState(books["books"])
		assert.Equal(t, "dune", slice["title"])
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, newSnapshot(sessionID)))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, newSnapshot(id1)))
		require.NoError(t, store.Save(ctx, id2, newSnapshot(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
