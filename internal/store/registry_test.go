package store_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/metrics"
	"github.com/dropDatabas3/stamper/internal/store"
	_ "github.com/dropDatabas3/stamper/internal/store/adapters/dal"
	"github.com/dropDatabas3/stamper/internal/store/adapters/memory"
	"github.com/dropDatabas3/stamper/internal/store/storetest"
)

func TestListAdapters(t *testing.T) {
	assert.Equal(t, []string{"bolt", "fs", "memory", "pg", "redis"}, store.ListAdapters())
}

func TestNewKeyStore_UnknownDriver(t *testing.T) {
	_, err := store.NewKeyStore(store.AdapterConfig{Name: "sqlite"})
	assert.ErrorContains(t, err, "unknown driver")
}

func TestNewKeyStore_InvalidNamespace(t *testing.T) {
	_, err := store.NewKeyStore(store.AdapterConfig{Name: "memory", Namespace: repository.Namespace{Store: "../etc"}})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestInstrument_PromoterOnlyWhenAdapterHasOne(t *testing.T) {
	ctx := context.Background()

	fsStore, err := store.OpenKeyStore(ctx, store.AdapterConfig{Name: "fs", Dir: t.TempDir()})
	require.NoError(t, err)
	defer fsStore.Close()
	_, ok := fsStore.(repository.Promoter)
	assert.False(t, ok, "fs has no transaction; the manager must drive the commit")

	mem := store.Instrument("memory", memory.New(repository.DefaultNamespace()))
	_, ok = mem.(repository.Promoter)
	assert.False(t, ok)
	assert.Same(t, mem, store.Instrument("memory", mem))
}

func TestInstrument_PromoteDelegates(t *testing.T) {
	ctx := context.Background()
	ks, err := store.OpenKeyStore(ctx, store.AdapterConfig{Name: "bolt", Dir: t.TempDir()})
	require.NoError(t, err)
	defer ks.Close()

	before := testutil.CollectAndCount(metrics.StoreOpDuration)

	require.NoError(t, ks.Put(ctx, repository.RolePending, storetest.Record("n", repository.KeyStatusPending)))
	p, ok := ks.(repository.Promoter)
	require.True(t, ok)
	require.NoError(t, p.Promote(ctx, storetest.Record("n", repository.KeyStatusActive)))

	got, err := ks.Get(ctx, repository.RoleActive)
	require.NoError(t, err)
	assert.Equal(t, "n", got.Info.KeyID)
	_, err = ks.Get(ctx, repository.RolePending)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Greater(t, testutil.CollectAndCount(metrics.StoreOpDuration), before)
}
