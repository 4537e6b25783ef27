// Package redis implementa un KeyStore sobre Redis.
// Clave: <database>:<store>:<record>-<role>, sin TTL.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/store"
)

const driver = "redis"

func init() {
	store.RegisterAdapter(&redisAdapter{})
}

type redisAdapter struct{}

func (a *redisAdapter) Name() string { return driver }

func (a *redisAdapter) New(cfg store.AdapterConfig) (repository.KeyStore, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("%w: redis driver requires store.redis.addr", repository.ErrInvalidInput)
	}
	return New(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.Namespace), nil
}

type Store struct {
	opts   *redis.Options
	prefix string
	ns     repository.Namespace

	mu     sync.Mutex
	client *redis.Client
}

// New crea el store; la conexión se establece en Open.
func New(opts *redis.Options, ns repository.Namespace) *Store {
	ns = ns.WithDefaults()
	return &Store{
		opts:   opts,
		prefix: ns.Database + ":" + ns.Store,
		ns:     ns,
	}
}

func (s *Store) key(role repository.Role) string {
	return s.prefix + ":" + s.ns.Key(role)
}

func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}
	c := redis.NewClient(s.opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return repository.NewStorageError(driver, "open", "", fmt.Errorf("ping: %w", err))
	}
	s.client = c
	return nil
}

func (s *Store) conn(op string, role repository.Role) (*redis.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, repository.NewStorageError(driver, op, role, errors.New("store not open"))
	}
	return s.client, nil
}

func (s *Store) Get(ctx context.Context, role repository.Role) (*repository.KeyRecord, error) {
	c, err := s.conn("get", role)
	if err != nil {
		return nil, err
	}
	raw, err := c.Get(ctx, s.key(role)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, repository.NewStorageError(driver, "get", role, err)
	}
	rec, err := repository.DecodeRecord(raw)
	if err != nil {
		return nil, repository.NewStorageError(driver, "get", role, err)
	}
	return rec, nil
}

func (s *Store) Put(ctx context.Context, role repository.Role, rec *repository.KeyRecord) error {
	raw, err := repository.EncodeRecord(rec)
	if err != nil {
		return repository.NewStorageError(driver, "put", role, err)
	}
	c, err := s.conn("put", role)
	if err != nil {
		return err
	}
	return repository.NewStorageError(driver, "put", role, c.Set(ctx, s.key(role), raw, 0).Err())
}

func (s *Store) Delete(ctx context.Context, role repository.Role) error {
	c, err := s.conn("delete", role)
	if err != nil {
		return err
	}
	return repository.NewStorageError(driver, "delete", role, c.Del(ctx, s.key(role)).Err())
}

// Promote escribe el active y borra el pending en un MULTI/EXEC.
func (s *Store) Promote(ctx context.Context, rec *repository.KeyRecord) error {
	raw, err := repository.EncodeRecord(rec)
	if err != nil {
		return repository.NewStorageError(driver, "promote", repository.RoleActive, err)
	}
	c, err := s.conn("promote", repository.RoleActive)
	if err != nil {
		return err
	}
	_, err = c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(repository.RoleActive), raw, 0)
		pipe.Del(ctx, s.key(repository.RolePending))
		return nil
	})
	return repository.NewStorageError(driver, "promote", repository.RoleActive, err)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return repository.NewStorageError(driver, "close", "", err)
}
