// Package storetest contiene la suite de conformidad que todo adapter de
// repository.KeyStore debe pasar.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
)

// Factory crea un store nuevo sobre el mismo almacenamiento cada vez que se
// llama (simula un reinicio del proceso).
type Factory func(t *testing.T) repository.KeyStore

// Record construye un registro de prueba.
func Record(kid string, status repository.KeyStatus) *repository.KeyRecord {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &repository.KeyRecord{
		Info: repository.KeyInfo{
			KeyID:     kid,
			PublicKey: "pub-" + kid,
			CreatedAt: created,
			ExpiresAt: created.Add(7 * 24 * time.Hour),
		},
		Status:    status,
		Algorithm: "Ed25519",
		SealedKey: []byte("sealed-" + kid),
	}
}

// Run ejecuta la suite. factory debe devolver stores que comparten
// almacenamiento; Close debe ser idempotente.
func Run(t *testing.T, factory Factory) {
	t.Helper()
	ctx := context.Background()
	open := func(t *testing.T) repository.KeyStore {
		s := factory(t)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("open is idempotent", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Open(ctx))
		require.NoError(t, s.Open(ctx))
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Open(ctx))
		require.NoError(t, s.Delete(ctx, repository.RolePending))
		_, err := s.Get(ctx, repository.RolePending)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.False(t, repository.IsStorageError(err))
	})

	t.Run("put get overwrite delete", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Open(ctx))

		require.NoError(t, s.Put(ctx, repository.RoleActive, Record("k1", repository.KeyStatusActive)))
		require.NoError(t, s.Put(ctx, repository.RolePending, Record("k2", repository.KeyStatusPending)))

		got, err := s.Get(ctx, repository.RoleActive)
		require.NoError(t, err)
		assert.Equal(t, "k1", got.Info.KeyID)
		assert.Equal(t, repository.KeyStatusActive, got.Status)
		assert.True(t, got.Info.CreatedAt.Equal(Record("k1", "").Info.CreatedAt))
		assert.Equal(t, []byte("sealed-k1"), got.SealedKey)

		promoted := Record("k2", repository.KeyStatusActive)
		promoted.Info.AuthenticatorID = "auth-1"
		require.NoError(t, s.Put(ctx, repository.RoleActive, promoted))
		got, err = s.Get(ctx, repository.RoleActive)
		require.NoError(t, err)
		assert.Equal(t, "k2", got.Info.KeyID)
		assert.Equal(t, "auth-1", got.Info.AuthenticatorID)

		require.NoError(t, s.Delete(ctx, repository.RolePending))
		require.NoError(t, s.Delete(ctx, repository.RolePending))
		_, err = s.Get(ctx, repository.RolePending)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("survives reopen", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Open(ctx))
		require.NoError(t, s.Put(ctx, repository.RoleActive, Record("persist", repository.KeyStatusActive)))
		require.NoError(t, s.Close())

		s2 := open(t)
		require.NoError(t, s2.Open(ctx))
		got, err := s2.Get(ctx, repository.RoleActive)
		require.NoError(t, err)
		assert.Equal(t, "persist", got.Info.KeyID)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Open(ctx))
		require.NoError(t, s.Put(ctx, repository.RoleActive, Record("copy", repository.KeyStatusActive)))
		got, err := s.Get(ctx, repository.RoleActive)
		require.NoError(t, err)
		got.Info.KeyID = "mutated"
		got.SealedKey[0] = 'X'

		again, err := s.Get(ctx, repository.RoleActive)
		require.NoError(t, err)
		assert.Equal(t, "copy", again.Info.KeyID)
		assert.Equal(t, byte('s'), again.SealedKey[0])
	})
}
