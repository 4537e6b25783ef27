// Package store provee el registry de adapters de KeyStore.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
)

// Adapter construye KeyStores para un driver concreto.
type Adapter interface {
	// Name retorna el nombre del driver (ej: "memory", "fs", "bolt", "redis", "pg").
	Name() string

	// New crea el store sin tocar el almacenamiento; Open lo prepara.
	New(cfg AdapterConfig) (repository.KeyStore, error)
}

// AdapterConfig configuración para construir un KeyStore.
type AdapterConfig struct {
	// Name del driver.
	Name string

	// Namespace ubica los registros (database / store / record).
	Namespace repository.Namespace

	// Dir directorio raíz (fs, bolt).
	Dir string

	// DSN connection string (pg).
	DSN string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter en el registry global.
// Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewKeyStore construye e instrumenta el store del driver indicado, sin abrirlo.
func NewKeyStore(cfg AdapterConfig) (repository.KeyStore, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q (registered: %v)", cfg.Name, ListAdapters())
	}
	cfg.Namespace = cfg.Namespace.WithDefaults()
	if err := cfg.Namespace.Validate(); err != nil {
		return nil, err
	}
	ks, err := a.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", cfg.Name, err)
	}
	return Instrument(cfg.Name, ks), nil
}

// OpenKeyStore construye y abre el store (openOrCreate).
func OpenKeyStore(ctx context.Context, cfg AdapterConfig) (repository.KeyStore, error) {
	ks, err := NewKeyStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := ks.Open(ctx); err != nil {
		_ = ks.Close()
		return nil, err
	}
	return ks, nil
}
