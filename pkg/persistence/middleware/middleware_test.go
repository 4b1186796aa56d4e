package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/reschema/pkg/adapters/memory"
	"github.com/aretw0/reschema/pkg/domain"
	"github.com/aretw0/reschema/pkg/persistence/middleware"
	"github.com/aretw0/reschema/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func snapshot(id string, tree domain.State) *domain.Snapshot {
	return domain.NewSnapshot(id, "schemas", tree)
}

func TestEncryption_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.Encryption(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "s", snapshot("s", domain.State{"secret": "my-secret-sauce"})))

	stored, err := underlying.Load(ctx, "s")
	require.NoError(t, err)
	assert.NotContains(t, stored.Tree, "secret")
	assert.Contains(t, stored.Tree, middleware.EncryptedKey)
	assert.Equal(t, "s", stored.SessionID, "metadata stays readable")

	loaded, err := secure.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Tree["secret"])
}

func TestEncryption_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	mwOld, err := middleware.Encryption(middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, err)
	storeOld := mwOld(underlying)
	require.NoError(t, storeOld.Save(ctx, "s", snapshot("s", domain.State{"data": "old"})))

	mwNew, err := middleware.Encryption(middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	require.NoError(t, err)
	storeNew := mwNew(underlying)

	loaded, err := storeNew.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "old", loaded.Tree["data"])

	require.NoError(t, storeNew.Save(ctx, "s", loaded.Next(domain.State{"data": "new"})))

	_, err = storeOld.Load(ctx, "s")
	assert.Error(t, err, "old key alone cannot read snapshots sealed with the new key")
}

func TestEncryption_InvalidKey(t *testing.T) {
	_, err := middleware.Encryption(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestEncryption_MissingEnvelope(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", snapshot("plain", domain.State{"a": 1})))

	mw, err := middleware.Encryption(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	_, err = mw(underlying).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrMissingEnvelope)
}

func TestCompression_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.Compression()(underlying)
	ctx := context.Background()

	tree := domain.State{"schemas": domain.State{"books": domain.State{"title": "dune"}}}
	require.NoError(t, store.Save(ctx, "s", snapshot("s", tree)))

	stored, err := underlying.Load(ctx, "s")
	require.NoError(t, err)
	assert.Contains(t, stored.Tree, middleware.CompressedKey)

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	books, _ := domain.AsState(loaded.Tree["schemas"])
	slice, _ := domain.AsState(books["books"])
	assert.Equal(t, "dune", slice["title"])
}

func TestCompression_ReadsUncompressed(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "s", snapshot("s", domain.State{"a": "b"})))

	loaded, err := middleware.Compression()(underlying).Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "b", loaded.Tree["a"])
}

func TestPII_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.PII([]string{"password", "ssn"})
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	tree := domain.State{
		"username":      "jdoe",
		"user_password": "secret123",
		"details": domain.State{
			"address":    "123 St",
			"ssn_number": "999-99-9999",
		},
	}
	require.NoError(t, store.Save(ctx, "s", snapshot("s", tree)))

	assert.Equal(t, "secret123", tree["user_password"], "live tree must not be modified")

	stored, err := underlying.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", stored.Tree["username"])
	assert.Equal(t, middleware.Mask, stored.Tree["user_password"])
	details, _ := domain.AsState(stored.Tree["details"])
	assert.Equal(t, middleware.Mask, details["ssn_number"])
	assert.Equal(t, "123 St", details["address"])
}

func TestPII_InvalidPattern(t *testing.T) {
	_, err := middleware.PII([]string{"("})
	assert.Error(t, err)
}

func TestChain_Contract(t *testing.T) {
	enc, err := middleware.Encryption(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(memory.NewStore(), middleware.Compression(), enc)
	tests.RunSnapshotStoreContract(t, store)
}
