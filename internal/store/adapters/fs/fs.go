// Package fs implementa un KeyStore sobre el FileSystem.
//
// Layout:
//
//	<dir>/<database>/<store>/<record>-active.json
//	<dir>/<database>/<store>/<record>-pending.json
//
// Cada escritura es tmp → fsync → rename → fsync(dir); un crash deja el
// archivo viejo o el nuevo, nunca uno truncado.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/store"
	"github.com/dropDatabas3/stamper/internal/util/atomicwrite"
)

const driver = "fs"

func init() {
	store.RegisterAdapter(&fsAdapter{})
}

type fsAdapter struct{}

func (a *fsAdapter) Name() string { return driver }

func (a *fsAdapter) New(cfg store.AdapterConfig) (repository.KeyStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: fs driver requires store.dir", repository.ErrInvalidInput)
	}
	return New(cfg.Dir, cfg.Namespace), nil
}

// Store guarda un archivo JSON por rol.
type Store struct {
	dir string
	ns  repository.Namespace
	mu  sync.RWMutex
}

// New crea el store; Open crea los directorios.
func New(root string, ns repository.Namespace) *Store {
	ns = ns.WithDefaults()
	return &Store{
		dir: filepath.Join(filepath.Clean(root), ns.Database, ns.Store),
		ns:  ns,
	}
}

// Dir devuelve el directorio donde viven los registros.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(role repository.Role) string {
	return filepath.Join(s.dir, s.ns.Key(role)+".json")
}

func (s *Store) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return repository.NewStorageError(driver, "open", "", err)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return repository.NewStorageError(driver, "open", "", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, role repository.Role) (*repository.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.NewStorageError(driver, "get", role, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(s.path(role))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, repository.NewStorageError(driver, "get", role, err)
	}
	rec, err := repository.DecodeRecord(b)
	if err != nil {
		return nil, repository.NewStorageError(driver, "get", role, err)
	}
	return rec, nil
}

func (s *Store) Put(ctx context.Context, role repository.Role, rec *repository.KeyRecord) error {
	if err := ctx.Err(); err != nil {
		return repository.NewStorageError(driver, "put", role, err)
	}
	b, err := repository.EncodeRecord(rec)
	if err != nil {
		return repository.NewStorageError(driver, "put", role, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return repository.NewStorageError(driver, "put", role, atomicwrite.WriteFile(s.path(role), b, 0o600))
}

func (s *Store) Delete(ctx context.Context, role repository.Role) error {
	if err := ctx.Err(); err != nil {
		return repository.NewStorageError(driver, "delete", role, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return repository.NewStorageError(driver, "delete", role, atomicwrite.Remove(s.path(role)))
}

func (s *Store) Close() error { return nil }
