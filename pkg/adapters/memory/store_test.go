package memory_test

import (
	"testing"

	"github.com/aretw0/reschema/pkg/adapters/memory"
	"github.com/aretw0/reschema/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	tests.RunSnapshotStoreContract(t, store)
}
