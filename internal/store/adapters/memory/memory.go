// Package memory implementa un KeyStore en memoria sobre go-cache.
// Sirve para tests y para procesos efímeros: nada sobrevive al proceso.
package memory

import (
	"context"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) New(cfg store.AdapterConfig) (repository.KeyStore, error) {
	return New(cfg.Namespace.WithDefaults()), nil
}

// Store guarda los registros como []byte serializado, así un caller que muta
// el *KeyRecord devuelto no altera lo persistido.
type Store struct {
	ns repository.Namespace
	c  *gocache.Cache

	failMu   sync.Mutex
	failNext map[string]error
}

// New crea un store vacío.
func New(ns repository.Namespace) *Store {
	return &Store{
		ns: ns,
		c:  gocache.New(gocache.NoExpiration, 0),
	}
}

// FailNext hace que la próxima llamada a op ("get", "put", "delete", "open")
// devuelva err envuelto en StorageError.
func (s *Store) FailNext(op string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if s.failNext == nil {
		s.failNext = make(map[string]error)
	}
	s.failNext[op] = err
}

func (s *Store) injected(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	err := s.failNext[op]
	delete(s.failNext, op)
	return err
}

func (s *Store) Open(ctx context.Context) error {
	if err := s.injected("open"); err != nil {
		return repository.NewStorageError("memory", "open", "", err)
	}
	return ctx.Err()
}

func (s *Store) Get(ctx context.Context, role repository.Role) (*repository.KeyRecord, error) {
	if err := s.injected("get"); err != nil {
		return nil, repository.NewStorageError("memory", "get", role, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, repository.NewStorageError("memory", "get", role, err)
	}
	v, ok := s.c.Get(s.ns.Key(role))
	if !ok {
		return nil, repository.ErrNotFound
	}
	b, _ := v.([]byte)
	rec, err := repository.DecodeRecord(b)
	if err != nil {
		return nil, repository.NewStorageError("memory", "get", role, err)
	}
	return rec, nil
}

func (s *Store) Put(ctx context.Context, role repository.Role, rec *repository.KeyRecord) error {
	if err := s.injected("put"); err != nil {
		return repository.NewStorageError("memory", "put", role, err)
	}
	if err := ctx.Err(); err != nil {
		return repository.NewStorageError("memory", "put", role, err)
	}
	b, err := repository.EncodeRecord(rec)
	if err != nil {
		return repository.NewStorageError("memory", "put", role, err)
	}
	s.c.Set(s.ns.Key(role), b, gocache.NoExpiration)
	return nil
}

func (s *Store) Delete(ctx context.Context, role repository.Role) error {
	if err := s.injected("delete"); err != nil {
		return repository.NewStorageError("memory", "delete", role, err)
	}
	if err := ctx.Err(); err != nil {
		return repository.NewStorageError("memory", "delete", role, err)
	}
	s.c.Delete(s.ns.Key(role))
	return nil
}

// Close no borra los datos: un Open posterior los vuelve a ver, igual que un
// reinicio con almacenamiento durable.
func (s *Store) Close() error { return nil }

// Len devuelve la cantidad de registros (tests).
func (s *Store) Len() int { return s.c.ItemCount() }
