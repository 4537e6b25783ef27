package store

import (
	"context"
	"time"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/metrics"
)

// instrumented mide la latencia de cada operación del store subyacente.
type instrumented struct {
	driver string
	next   repository.KeyStore
}

// instrumentedPromoter agrega Promote sólo cuando el adapter lo tiene.
// Sin transacción real el Manager hace Put/swap/Delete él mismo.
type instrumentedPromoter struct {
	*instrumented
	promoter repository.Promoter
}

// Instrument envuelve ks para registrar stamper_store_op_duration_seconds.
// El resultado implementa repository.Promoter si y sólo si ks lo implementa.
func Instrument(driver string, ks repository.KeyStore) repository.KeyStore {
	switch ks.(type) {
	case *instrumented, *instrumentedPromoter:
		return ks
	}
	in := &instrumented{driver: driver, next: ks}
	if p, ok := ks.(repository.Promoter); ok {
		return &instrumentedPromoter{instrumented: in, promoter: p}
	}
	return in
}

func (s *instrumented) Open(ctx context.Context) error {
	defer metrics.ObserveStoreOp(s.driver, "open", time.Now())
	return s.next.Open(ctx)
}

func (s *instrumented) Get(ctx context.Context, role repository.Role) (*repository.KeyRecord, error) {
	defer metrics.ObserveStoreOp(s.driver, "get", time.Now())
	return s.next.Get(ctx, role)
}

func (s *instrumented) Put(ctx context.Context, role repository.Role, rec *repository.KeyRecord) error {
	defer metrics.ObserveStoreOp(s.driver, "put", time.Now())
	return s.next.Put(ctx, role, rec)
}

func (s *instrumented) Delete(ctx context.Context, role repository.Role) error {
	defer metrics.ObserveStoreOp(s.driver, "delete", time.Now())
	return s.next.Delete(ctx, role)
}

func (s *instrumented) Close() error {
	return s.next.Close()
}

// Promote delega en la transacción del adapter.
func (s *instrumentedPromoter) Promote(ctx context.Context, rec *repository.KeyRecord) error {
	defer metrics.ObserveStoreOp(s.driver, "promote", time.Now())
	return s.promoter.Promote(ctx, rec)
}
