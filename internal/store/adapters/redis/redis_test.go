package redis

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	addr := os.Getenv("STAMPER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STAMPER_TEST_REDIS_ADDR not set")
	}
	ns := repository.Namespace{Database: "stamper-test", Store: t.Name()}
	storetest.Run(t, func(t *testing.T) repository.KeyStore {
		return New(&redis.Options{Addr: addr}, ns)
	})
}

func TestPromote(t *testing.T) {
	addr := os.Getenv("STAMPER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STAMPER_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	s := New(&redis.Options{Addr: addr}, repository.Namespace{Database: "stamper-test", Store: t.Name()})
	require.NoError(t, s.Open(ctx))
	t.Cleanup(func() {
		_ = s.Delete(ctx, repository.RoleActive)
		_ = s.Close()
	})

	var _ repository.Promoter = s
	require.NoError(t, s.Put(ctx, repository.RoleActive, storetest.Record("old", repository.KeyStatusActive)))
	require.NoError(t, s.Put(ctx, repository.RolePending, storetest.Record("new", repository.KeyStatusPending)))

	require.NoError(t, s.Promote(ctx, storetest.Record("new", repository.KeyStatusActive)))
	got, err := s.Get(ctx, repository.RoleActive)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Info.KeyID)
	_, err = s.Get(ctx, repository.RolePending)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPromote_NotOpen(t *testing.T) {
	s := New(&redis.Options{Addr: "127.0.0.1:0"}, repository.DefaultNamespace())
	err := s.Promote(context.Background(), storetest.Record("k", repository.KeyStatusActive))
	assert.True(t, repository.IsStorageError(err))
}

func TestKeyLayout(t *testing.T) {
	s := New(&redis.Options{}, repository.Namespace{Database: "db", Store: "st", Record: "rec"})
	assert.Equal(t, "db:st:rec-active", s.key(repository.RoleActive))
}

func TestNotOpen(t *testing.T) {
	s := New(&redis.Options{Addr: "127.0.0.1:0"}, repository.DefaultNamespace())
	_, err := s.Get(context.Background(), repository.RoleActive)
	assert.True(t, repository.IsStorageError(err))
}
