package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/ports"
	"github.com/golang/snappy"
)

// CompressedKey is the tree field holding a snappy-compressed snapshot tree.
const CompressedKey = "__compressed__"

type compressionMiddleware struct {
	next ports.SnapshotStore
}

// Compression returns a middleware storing trees snappy-compressed.
// Snapshots saved without compression still load unchanged.
func Compression() Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &compressionMiddleware{next: next}
	}
}

func (m *compressionMiddleware) Save(ctx context.Context, sessionID string, snapshot *domain.Snapshot) error {
	raw, err := json.Marshal(snapshot.Tree)
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}
	compressed := snappy.Encode(nil, raw)
	return m.next.Save(ctx, sessionID, envelope(snapshot, CompressedKey, base64.StdEncoding.EncodeToString(compressed)))
}

func (m *compressionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	stored, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	encoded, ok := opened(stored, CompressedKey)
	if !ok {
		return stored, nil
	}

	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode compressed tree: %w", err)
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress tree: %w", err)
	}

	var tree domain.State
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree: %w", err)
	}

	out := *stored
	out.Tree = tree
	return &out, nil
}

func (m *compressionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *compressionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
