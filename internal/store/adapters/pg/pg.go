// Package pg implementa un KeyStore sobre PostgreSQL (pgx v5).
//
// Una tabla por <store>; filas por (namespace = <database>, name = <record>-<role>).
package pg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/store"
)

const driver = "pg"

func init() {
	store.RegisterAdapter(&pgAdapter{})
}

type pgAdapter struct{}

func (a *pgAdapter) Name() string { return driver }

func (a *pgAdapter) New(cfg store.AdapterConfig) (repository.KeyStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: pg driver requires store.dsn", repository.ErrInvalidInput)
	}
	return New(cfg.DSN, cfg.Namespace), nil
}

type Store struct {
	dsn   string
	ns    repository.Namespace
	table string // identificador ya sanitizado

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func New(dsn string, ns repository.Namespace) *Store {
	ns = ns.WithDefaults()
	return &Store{
		dsn:   dsn,
		ns:    ns,
		table: pgx.Identifier{ns.Store}.Sanitize(),
	}
}

// Open conecta y crea la tabla si no existe.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return nil
	}
	pool, err := pgxpool.New(ctx, s.dsn)
	if err != nil {
		return repository.NewStorageError(driver, "open", "", err)
	}
	q := `
CREATE TABLE IF NOT EXISTS ` + s.table + ` (
	namespace        TEXT        NOT NULL,
	name             TEXT        NOT NULL,
	key_id           TEXT        NOT NULL,
	public_key       TEXT        NOT NULL,
	algorithm        TEXT        NOT NULL,
	status           TEXT        NOT NULL,
	authenticator_id TEXT,
	sealed_key       BYTEA       NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	expires_at       TIMESTAMPTZ,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, name)
)`
	if _, err := pool.Exec(ctx, q); err != nil {
		pool.Close()
		return repository.NewStorageError(driver, "open", "", err)
	}
	s.pool = pool
	return nil
}

func (s *Store) conn(op string, role repository.Role) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool == nil {
		return nil, repository.NewStorageError(driver, op, role, errors.New("store not open"))
	}
	return s.pool, nil
}

func (s *Store) Get(ctx context.Context, role repository.Role) (*repository.KeyRecord, error) {
	pool, err := s.conn("get", role)
	if err != nil {
		return nil, err
	}
	q := `
SELECT key_id, public_key, algorithm, status, authenticator_id, sealed_key, created_at, expires_at
FROM ` + s.table + `
WHERE namespace = $1 AND name = $2`

	var (
		rec       repository.KeyRecord
		status    string
		authID    *string
		expiresAt *time.Time
	)
	err = pool.QueryRow(ctx, q, s.ns.Database, s.ns.Key(role)).Scan(
		&rec.Info.KeyID, &rec.Info.PublicKey, &rec.Algorithm, &status,
		&authID, &rec.SealedKey, &rec.Info.CreatedAt, &expiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, repository.NewStorageError(driver, "get", role, err)
	}
	rec.Status = repository.KeyStatus(status)
	if authID != nil {
		rec.Info.AuthenticatorID = *authID
	}
	if expiresAt != nil {
		rec.Info.ExpiresAt = *expiresAt
	}
	rec.Info.CreatedAt = rec.Info.CreatedAt.UTC()
	rec.Info.ExpiresAt = rec.Info.ExpiresAt.UTC()
	return &rec, nil
}

const upsertCols = `(namespace, name, key_id, public_key, algorithm, status, authenticator_id, sealed_key, created_at, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (namespace, name) DO UPDATE SET
	key_id = EXCLUDED.key_id,
	public_key = EXCLUDED.public_key,
	algorithm = EXCLUDED.algorithm,
	status = EXCLUDED.status,
	authenticator_id = EXCLUDED.authenticator_id,
	sealed_key = EXCLUDED.sealed_key,
	created_at = EXCLUDED.created_at,
	expires_at = EXCLUDED.expires_at,
	updated_at = now()`

func (s *Store) upsertArgs(role repository.Role, rec *repository.KeyRecord) []any {
	var authID, expiresAt any
	if rec.Info.AuthenticatorID != "" {
		authID = rec.Info.AuthenticatorID
	}
	if !rec.Info.ExpiresAt.IsZero() {
		expiresAt = rec.Info.ExpiresAt
	}
	return []any{
		s.ns.Database, s.ns.Key(role),
		rec.Info.KeyID, rec.Info.PublicKey, rec.Algorithm, string(rec.Status),
		authID, rec.SealedKey, rec.Info.CreatedAt, expiresAt,
	}
}

func (s *Store) Put(ctx context.Context, role repository.Role, rec *repository.KeyRecord) error {
	if rec == nil {
		return repository.NewStorageError(driver, "put", role, repository.ErrInvalidInput)
	}
	pool, err := s.conn("put", role)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `INSERT INTO `+s.table+` `+upsertCols, s.upsertArgs(role, rec)...)
	return repository.NewStorageError(driver, "put", role, err)
}

func (s *Store) Delete(ctx context.Context, role repository.Role) error {
	pool, err := s.conn("delete", role)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE namespace = $1 AND name = $2`, s.ns.Database, s.ns.Key(role))
	return repository.NewStorageError(driver, "delete", role, err)
}

// Promote escribe el active y borra el pending en una tx.
func (s *Store) Promote(ctx context.Context, rec *repository.KeyRecord) error {
	if rec == nil {
		return repository.NewStorageError(driver, "promote", repository.RoleActive, repository.ErrInvalidInput)
	}
	pool, err := s.conn("promote", repository.RoleActive)
	if err != nil {
		return err
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return repository.NewStorageError(driver, "promote", repository.RoleActive, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `INSERT INTO `+s.table+` `+upsertCols, s.upsertArgs(repository.RoleActive, rec)...); err != nil {
		return repository.NewStorageError(driver, "promote", repository.RoleActive, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM `+s.table+` WHERE namespace = $1 AND name = $2`, s.ns.Database, s.ns.Key(repository.RolePending)); err != nil {
		return repository.NewStorageError(driver, "promote", repository.RolePending, err)
	}
	return repository.NewStorageError(driver, "promote", repository.RoleActive, tx.Commit(ctx))
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
	return nil
}
