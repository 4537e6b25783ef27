// Package bolt implementa un KeyStore sobre un archivo BoltDB.
//
// Archivo <dir>/<database>.db, bucket <store>, clave <record>-<role>.
// Cada Put/Delete es una transacción bolt (fsync al commit).
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/store"
)

const driver = "bolt"

// lockTimeout acota la espera por el flock del archivo.
const lockTimeout = 2 * time.Second

func init() {
	store.RegisterAdapter(&boltAdapter{})
}

type boltAdapter struct{}

func (a *boltAdapter) Name() string { return driver }

func (a *boltAdapter) New(cfg store.AdapterConfig) (repository.KeyStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: bolt driver requires store.dir", repository.ErrInvalidInput)
	}
	return New(cfg.Dir, cfg.Namespace), nil
}

// Store mantiene el archivo abierto entre Open y Close.
type Store struct {
	path   string
	bucket []byte
	ns     repository.Namespace

	mu sync.Mutex
	db *bolt.DB
}

func New(root string, ns repository.Namespace) *Store {
	ns = ns.WithDefaults()
	return &Store{
		path:   filepath.Join(filepath.Clean(root), ns.Database+".db"),
		bucket: []byte(ns.Store),
		ns:     ns,
	}
}

// Path devuelve la ruta del archivo de base.
func (s *Store) Path() string { return s.path }

func (s *Store) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return repository.NewStorageError(driver, "open", "", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return repository.NewStorageError(driver, "open", "", err)
	}
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return repository.NewStorageError(driver, "open", "", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return repository.NewStorageError(driver, "open", "", err)
	}
	s.db = db
	return nil
}

func (s *Store) handle(op string, role repository.Role) (*bolt.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, repository.NewStorageError(driver, op, role, fmt.Errorf("store not open"))
	}
	return s.db, nil
}

func (s *Store) Get(ctx context.Context, role repository.Role) (*repository.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.NewStorageError(driver, "get", role, err)
	}
	db, err := s.handle("get", role)
	if err != nil {
		return nil, err
	}
	var raw []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(s.ns.Key(role))); v != nil {
			// v sólo es válido dentro de la transacción
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, repository.NewStorageError(driver, "get", role, err)
	}
	if raw == nil {
		return nil, repository.ErrNotFound
	}
	rec, err := repository.DecodeRecord(raw)
	if err != nil {
		return nil, repository.NewStorageError(driver, "get", role, err)
	}
	return rec, nil
}

func (s *Store) Put(ctx context.Context, role repository.Role, rec *repository.KeyRecord) error {
	if err := ctx.Err(); err != nil {
		return repository.NewStorageError(driver, "put", role, err)
	}
	raw, err := repository.EncodeRecord(rec)
	if err != nil {
		return repository.NewStorageError(driver, "put", role, err)
	}
	db, err := s.handle("put", role)
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(s.ns.Key(role)), raw)
	})
	return repository.NewStorageError(driver, "put", role, err)
}

func (s *Store) Delete(ctx context.Context, role repository.Role) error {
	if err := ctx.Err(); err != nil {
		return repository.NewStorageError(driver, "delete", role, err)
	}
	db, err := s.handle("delete", role)
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(s.ns.Key(role)))
	})
	return repository.NewStorageError(driver, "delete", role, err)
}

// Close libera el archivo (y su flock). Es idempotente.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return repository.NewStorageError(driver, "close", "", err)
}

// Promote escribe el active y borra el pending en una sola transacción.
func (s *Store) Promote(ctx context.Context, rec *repository.KeyRecord) error {
	if err := ctx.Err(); err != nil {
		return repository.NewStorageError(driver, "promote", repository.RoleActive, err)
	}
	raw, err := repository.EncodeRecord(rec)
	if err != nil {
		return repository.NewStorageError(driver, "promote", repository.RoleActive, err)
	}
	db, err := s.handle("promote", repository.RoleActive)
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(s.ns.Key(repository.RoleActive)), raw); err != nil {
			return err
		}
		return b.Delete([]byte(s.ns.Key(repository.RolePending)))
	})
	return repository.NewStorageError(driver, "promote", repository.RoleActive, err)
}
