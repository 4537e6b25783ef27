// Package stamper administra el ciclo de vida de la clave de firma y produce
// los stamps de cada request.
//
// Estados:
//
//	Uninitialized ──Init/Reset──▶ Active ──Rotate──▶ RotationPending
//	      ▲                         ▲  ◀──Commit/Rollback──┘
//	      └──────────Clear──────────┘
//
// Las mutaciones se serializan con un semáforo de peso 1. Stamp sólo toma el
// read lock del estado en memoria, así que sigue firmando con la clave activa
// mientras una rotación está en curso.
package stamper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/metrics"
	"github.com/dropDatabas3/stamper/internal/observability/logger"
	"github.com/dropDatabas3/stamper/internal/security/keycrypto"
	"github.com/dropDatabas3/stamper/internal/stamp"
)

// State es el estado del Manager.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateActive          State = "active"
	StateRotationPending State = "rotation_pending"
)

// keyPair es un registro persistido más su handle vivo.
type keyPair struct {
	rec    *repository.KeyRecord
	handle *keycrypto.KeyHandle
}

func (kp *keyPair) destroy() {
	if kp != nil && kp.handle != nil {
		kp.handle.Destroy()
	}
}

// Manager es el único mutador de los registros de su Namespace.
type Manager struct {
	store  repository.KeyStore
	crypto *keycrypto.Provider
	opts   Options

	ops *semaphore.Weighted

	mu      sync.RWMutex
	active  *keyPair
	pending *keyPair
}

// New crea un Manager sin inicializar. Llamar Init antes de Stamp.
func New(store repository.KeyStore, crypto *keycrypto.Provider, opts Options) *Manager {
	return &Manager{
		store:  store,
		crypto: crypto,
		opts:   opts.withDefaults(),
		ops:    semaphore.NewWeighted(1),
	}
}

func (m *Manager) log(ctx context.Context, op string) *zap.Logger {
	l := m.opts.Logger
	if l == nil {
		l = logger.From(ctx)
	}
	return l.With(logger.Component("stamper"), logger.Op(op))
}

// begin toma el lock de operación. El release devuelto es obligatorio.
func (m *Manager) begin(ctx context.Context) (func(), error) {
	if m.opts.FailFast {
		if !m.ops.TryAcquire(1) {
			return nil, ErrConcurrentOperation
		}
	} else if err := m.ops.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for key operation: %w", err)
	}
	return func() { m.ops.Release(1) }, nil
}

// ─── Lectura ───

// KeyInfo devuelve la info de la clave activa.
func (m *Manager) KeyInfo() (repository.KeyInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return repository.KeyInfo{}, false
	}
	return m.active.rec.Info, true
}

// PendingKeyInfo devuelve la info de la clave pendiente, si hay rotación en curso.
func (m *Manager) PendingKeyInfo() (repository.KeyInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.pending == nil {
		return repository.KeyInfo{}, false
	}
	return m.pending.rec.Info, true
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.active == nil:
		return StateUninitialized
	case m.pending != nil:
		return StateRotationPending
	default:
		return StateActive
	}
}

// Algorithm devuelve el algoritmo de la clave activa, o el configurado para
// claves nuevas si no hay ninguna.
func (m *Manager) Algorithm() keycrypto.Algorithm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active != nil {
		return m.active.handle.Algorithm()
	}
	return m.opts.Algorithm
}

// ─── Stamp ───

// Stamp firma payload con la clave activa y devuelve el valor del header
// X-Phantom-Stamp. params nil usa Options.DefaultParams.
func (m *Manager) Stamp(ctx context.Context, payload []byte, params stamp.Params) (out string, err error) {
	if params == nil {
		params = m.opts.DefaultParams
	}
	defer func() { metrics.ObserveStamp(string(params.Kind()), err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// El read lock cubre firma y encode: Commit/Reset/Clear no pueden destruir
	// este handle hasta que termine.
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return "", ErrNotInitialized
	}
	sig, err := m.crypto.Sign(m.active.handle, payload)
	if err != nil {
		m.log(ctx, "stamp").Error("sign failed", logger.KeyID(m.active.rec.Info.KeyID), logger.Err(err))
		return "", err
	}
	return stamp.Encode(sig, m.active.rec.Info, m.active.handle.Algorithm(), params)
}

// ─── Ciclo de vida ───

// Init carga la clave activa o genera una nueva, y retoma una rotación
// interrumpida si había una clave pendiente persistida. Es idempotente.
func (m *Manager) Init(ctx context.Context) (info repository.KeyInfo, err error) {
	release, err := m.begin(ctx)
	if err != nil {
		return repository.KeyInfo{}, err
	}
	defer release()

	if cur, ok := m.KeyInfo(); ok {
		return cur, nil
	}
	defer func() { metrics.ObserveLifecycle("init", err) }()
	log := m.log(ctx, "init")

	if err := m.store.Open(ctx); err != nil {
		log.Error("store open failed", logger.Err(err))
		return repository.KeyInfo{}, err
	}

	active, err := m.load(ctx, repository.RoleActive)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		active, err = m.bootstrap(ctx)
		if err != nil {
			log.Error("bootstrap failed", logger.Err(err))
			return repository.KeyInfo{}, err
		}
		log.Info("generated signing key", logger.KeyID(active.rec.Info.KeyID), logger.Algorithm(string(active.handle.Algorithm())))
	case err != nil:
		log.Error("load active key failed", logger.Err(err))
		return repository.KeyInfo{}, err
	default:
		log.Info("loaded signing key", logger.KeyID(active.rec.Info.KeyID))
	}

	pending, err := m.load(ctx, repository.RolePending)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		pending = nil
	case err != nil:
		active.destroy()
		log.Error("load pending key failed", logger.Err(err))
		return repository.KeyInfo{}, err
	case pending.rec.Info.KeyID == active.rec.Info.KeyID:
		// commit interrumpido entre escribir el active y borrar el pending
		pending.destroy()
		pending = nil
		if err := m.store.Delete(ctx, repository.RolePending); err != nil {
			active.destroy()
			log.Error("cleanup of committed pending key failed", logger.Err(err))
			return repository.KeyInfo{}, err
		}
		log.Warn("completed interrupted commit", logger.KeyID(active.rec.Info.KeyID))
	default:
		log.Info("resumed pending rotation", logger.PendingKeyID(pending.rec.Info.KeyID))
	}

	m.mu.Lock()
	m.active, m.pending = active, pending
	m.mu.Unlock()
	return active.rec.Info, nil
}

// RotateKeyPair genera una clave nueva y la persiste como pendiente. La clave
// activa sigue firmando hasta CommitRotation.
func (m *Manager) RotateKeyPair(ctx context.Context) (info repository.KeyInfo, err error) {
	release, err := m.begin(ctx)
	if err != nil {
		return repository.KeyInfo{}, err
	}
	defer release()
	defer func() { metrics.ObserveLifecycle("rotate", err) }()

	switch m.State() {
	case StateUninitialized:
		return repository.KeyInfo{}, ErrNotInitialized
	case StateRotationPending:
		return repository.KeyInfo{}, ErrAlreadyRotating
	}
	log := m.log(ctx, "rotate")

	if err := m.store.Open(ctx); err != nil {
		return repository.KeyInfo{}, err
	}
	kp, err := m.generate(repository.KeyStatusPending)
	if err != nil {
		log.Error("generate pending key failed", logger.Err(err))
		return repository.KeyInfo{}, err
	}
	if err := m.store.Put(ctx, repository.RolePending, kp.rec); err != nil {
		kp.destroy()
		log.Error("persist pending key failed", logger.Err(err))
		return repository.KeyInfo{}, err
	}

	m.mu.Lock()
	m.pending = kp
	m.mu.Unlock()

	log.Info("rotation started", logger.PendingKeyID(kp.rec.Info.KeyID))
	return kp.rec.Info, nil
}

// CommitRotation promueve la clave pendiente a activa y destruye la anterior.
func (m *Manager) CommitRotation(ctx context.Context, authenticatorID string) (err error) {
	release, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer release()
	defer func() { metrics.ObserveLifecycle("commit", err) }()

	m.mu.RLock()
	active, pending := m.active, m.pending
	m.mu.RUnlock()
	if active == nil {
		return ErrNotInitialized
	}
	if pending == nil {
		return ErrNoPendingKey
	}
	log := m.log(ctx, "commit").With(logger.KeyID(pending.rec.Info.KeyID), logger.AuthenticatorID(authenticatorID))

	if err := m.store.Open(ctx); err != nil {
		return err
	}

	promoted := pending.rec.Clone()
	promoted.Status = repository.KeyStatusActive
	promoted.Info.AuthenticatorID = authenticatorID

	if p, ok := m.store.(repository.Promoter); ok {
		if err := p.Promote(ctx, promoted); err != nil {
			log.Error("promote failed", logger.Err(err))
			// un commit ambiguo pudo haberse aplicado: el store manda
			if cur, gerr := m.store.Get(ctx, repository.RoleActive); gerr == nil && cur.Info.KeyID == promoted.Info.KeyID {
				m.swapActive(&keyPair{rec: cur, handle: pending.handle})
			}
			return err
		}
		m.swapActive(&keyPair{rec: promoted, handle: pending.handle})
		log.Info("rotation committed", logger.String("previous_key_id", active.rec.Info.KeyID))
		return nil
	}

	if err := m.store.Put(ctx, repository.RoleActive, promoted); err != nil {
		log.Error("persist promoted key failed", logger.Err(err))
		return err
	}
	m.swapActive(&keyPair{rec: promoted, handle: pending.handle})
	if err := m.store.Delete(ctx, repository.RolePending); err != nil {
		// el active ya es el nuevo; Init limpia el pending duplicado
		log.Error("delete committed pending key failed", logger.Err(err))
		return err
	}
	log.Info("rotation committed", logger.String("previous_key_id", active.rec.Info.KeyID))
	return nil
}

// swapActive instala kp como activa, destruye la anterior y vacía el pending.
func (m *Manager) swapActive(kp *keyPair) {
	m.mu.Lock()
	old := m.active
	m.active = kp
	m.pending = nil
	m.mu.Unlock()
	if old != nil && old.handle != kp.handle {
		old.destroy()
	}
}

// RollbackRotation descarta la clave pendiente. Sin rotación en curso es no-op.
func (m *Manager) RollbackRotation(ctx context.Context) (err error) {
	release, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer release()

	m.mu.RLock()
	pending := m.pending
	m.mu.RUnlock()
	if pending == nil {
		return nil
	}
	defer func() { metrics.ObserveLifecycle("rollback", err) }()
	log := m.log(ctx, "rollback").With(logger.PendingKeyID(pending.rec.Info.KeyID))

	if err := m.store.Open(ctx); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, repository.RolePending); err != nil {
		log.Error("delete pending key failed", logger.Err(err))
		return err
	}

	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
	pending.destroy()

	log.Info("rotation rolled back")
	return nil
}

// ResetKeyPair descarta todo y genera una clave activa nueva.
func (m *Manager) ResetKeyPair(ctx context.Context) (info repository.KeyInfo, err error) {
	release, err := m.begin(ctx)
	if err != nil {
		return repository.KeyInfo{}, err
	}
	defer release()
	defer func() { metrics.ObserveLifecycle("reset", err) }()
	log := m.log(ctx, "reset")

	if err := m.store.Open(ctx); err != nil {
		return repository.KeyInfo{}, err
	}
	kp, err := m.generate(repository.KeyStatusActive)
	if err != nil {
		log.Error("generate key failed", logger.Err(err))
		return repository.KeyInfo{}, err
	}
	if err := m.store.Delete(ctx, repository.RolePending); err != nil {
		kp.destroy()
		log.Error("delete pending key failed", logger.Err(err))
		return repository.KeyInfo{}, err
	}
	m.dropPending()

	if err := m.store.Put(ctx, repository.RoleActive, kp.rec); err != nil {
		kp.destroy()
		log.Error("persist key failed", logger.Err(err))
		return repository.KeyInfo{}, err
	}
	m.swapActive(kp)

	log.Info("key pair reset", logger.KeyID(kp.rec.Info.KeyID))
	return kp.rec.Info, nil
}

func (m *Manager) dropPending() {
	m.mu.Lock()
	p := m.pending
	m.pending = nil
	m.mu.Unlock()
	p.destroy()
}

// Clear borra ambos roles del store y destruye las claves en memoria.
// Después de Clear el Manager queda sin inicializar.
func (m *Manager) Clear(ctx context.Context) (err error) {
	release, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer release()
	defer func() { metrics.ObserveLifecycle("clear", err) }()
	log := m.log(ctx, "clear")

	if err := m.store.Open(ctx); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, repository.RolePending); err != nil {
		log.Error("delete pending key failed", logger.Err(err))
		return err
	}
	m.dropPending()
	if err := m.store.Delete(ctx, repository.RoleActive); err != nil {
		log.Error("delete active key failed", logger.Err(err))
		return err
	}

	m.mu.Lock()
	a := m.active
	m.active = nil
	m.mu.Unlock()
	a.destroy()

	log.Info("keys cleared")
	return nil
}

// Close destruye las claves en memoria y cierra el store. No borra nada persistido.
func (m *Manager) Close() error {
	m.mu.Lock()
	a, p := m.active, m.pending
	m.active, m.pending = nil, nil
	m.mu.Unlock()
	a.destroy()
	p.destroy()
	return m.store.Close()
}

// ─── Helpers ───

func (m *Manager) bootstrap(ctx context.Context) (*keyPair, error) {
	// un pending sin active no tiene a quién reemplazar
	if err := m.store.Delete(ctx, repository.RolePending); err != nil {
		return nil, err
	}
	kp, err := m.generate(repository.KeyStatusActive)
	if err != nil {
		return nil, err
	}
	if err := m.store.Put(ctx, repository.RoleActive, kp.rec); err != nil {
		kp.destroy()
		return nil, err
	}
	return kp, nil
}

func (m *Manager) generate(status repository.KeyStatus) (*keyPair, error) {
	h, err := m.crypto.Generate(m.opts.Algorithm)
	if err != nil {
		return nil, err
	}
	sealed, err := m.crypto.Seal(h)
	if err != nil {
		h.Destroy()
		return nil, err
	}
	now := m.opts.Now().UTC().Truncate(time.Millisecond)
	rec := &repository.KeyRecord{
		Info: repository.KeyInfo{
			KeyID:     h.KeyID(),
			PublicKey: base58.Encode(h.PublicKey()),
			CreatedAt: now,
			ExpiresAt: now.Add(m.opts.KeyTTL),
		},
		Status:    status,
		Algorithm: string(h.Algorithm()),
		SealedKey: sealed,
	}
	return &keyPair{rec: rec, handle: h}, nil
}

// load lee un rol y reabre su handle. Un registro cuya clave no corresponde a
// su keyId devuelve ErrCorruptRecord.
func (m *Manager) load(ctx context.Context, role repository.Role) (*keyPair, error) {
	rec, err := m.store.Get(ctx, role)
	if err != nil {
		return nil, err
	}
	alg, err := keycrypto.ParseAlgorithm(rec.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %s key %s: %w", repository.ErrCorruptRecord, role, rec.Info.KeyID, err)
	}
	h, err := m.crypto.Open(alg, rec.SealedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s key %s: %w", repository.ErrCorruptRecord, role, rec.Info.KeyID, err)
	}
	if h.KeyID() != rec.Info.KeyID || base58.Encode(h.PublicKey()) != rec.Info.PublicKey {
		h.Destroy()
		return nil, fmt.Errorf("%w: %s key %s: sealed key does not match public key", repository.ErrCorruptRecord, role, rec.Info.KeyID)
	}
	return &keyPair{rec: rec, handle: h}, nil
}
