package middleware

import (
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/ports"
)

// Middleware wraps a SnapshotStore to add behavior.
type Middleware func(ports.SnapshotStore) ports.SnapshotStore

// Chain wraps store with mws. The first middleware is the outermost one and
// sees snapshots first on Save.
func Chain(store ports.SnapshotStore, mws ...Middleware) ports.SnapshotStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// envelope replaces a snapshot's tree with a single opaque field.
func envelope(snapshot *domain.Snapshot, key string, value string) *domain.Snapshot {
	sealed := *snapshot
	sealed.Tree = domain.State{key: value}
	return &sealed
}

// opened extracts the opaque field written by envelope.
func opened(snapshot *domain.Snapshot, key string) (string, bool) {
	v, ok := snapshot.Tree[key].(string)
	return v, ok
}
