package pg

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/store/storetest"
)

func dsn(t *testing.T) string {
	t.Helper()
	v := os.Getenv("STAMPER_TEST_PG_DSN")
	if v == "" {
		t.Skip("STAMPER_TEST_PG_DSN not set")
	}
	return v
}

func TestConformance(t *testing.T) {
	d := dsn(t)
	ns := repository.Namespace{Database: "conformance", Store: "stamper_test_keys"}
	storetest.Run(t, func(t *testing.T) repository.KeyStore { return New(d, ns) })
}

func TestPromote(t *testing.T) {
	ctx := context.Background()
	s := New(dsn(t), repository.Namespace{Database: "promote", Store: "stamper_test_keys"})
	require.NoError(t, s.Open(ctx))
	defer s.Close()

	require.NoError(t, s.Put(ctx, repository.RolePending, storetest.Record("new", repository.KeyStatusPending)))
	require.NoError(t, s.Promote(ctx, storetest.Record("new", repository.KeyStatusActive)))

	got, err := s.Get(ctx, repository.RoleActive)
	require.NoError(t, err)
	assert.Equal(t, repository.KeyStatusActive, got.Status)
	_, err = s.Get(ctx, repository.RolePending)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTableIdentifierIsQuoted(t *testing.T) {
	s := New("postgres://x", repository.Namespace{Store: "crypto-keys"})
	assert.Equal(t, `"crypto-keys"`, s.table)
}
