package keycrypto

import (
	"fmt"
	"sync"
)

// KeyHandle es una referencia opaca a una clave privada viva.
// El zero value no es utilizable; los handles los crea el Provider.
type KeyHandle struct {
	alg Algorithm
	pub []byte

	mu        sync.RWMutex
	s         signer
	destroyed bool
}

// Algorithm devuelve el algoritmo del handle.
func (h *KeyHandle) Algorithm() Algorithm { return h.alg }

// PublicKey devuelve una copia de la clave pública cruda.
func (h *KeyHandle) PublicKey() []byte {
	return append([]byte(nil), h.pub...)
}

// KeyID devuelve el identificador derivado de la clave pública.
func (h *KeyHandle) KeyID() string { return KeyID(h.pub) }

// Destroyed reporta si Destroy ya fue llamado.
func (h *KeyHandle) Destroyed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.destroyed
}

// Destroy borra el material privado. Es idempotente.
// Espera a que terminen las firmas en curso.
func (h *KeyHandle) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return
	}
	if h.s != nil {
		h.s.zero()
	}
	h.s = nil
	h.destroyed = true
}

func (h *KeyHandle) sign(msg []byte) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.destroyed || h.s == nil {
		return nil, ErrKeyDestroyed
	}
	return h.s.sign(msg)
}

func (h *KeyHandle) export() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.destroyed || h.s == nil {
		return nil, ErrKeyDestroyed
	}
	return h.s.marshal()
}

// MarshalJSON siempre falla: un handle no se serializa.
func (h *KeyHandle) MarshalJSON() ([]byte, error) { return nil, ErrNotExportable }

// MarshalText siempre falla: un handle no se serializa.
func (h *KeyHandle) MarshalText() ([]byte, error) { return nil, ErrNotExportable }

// MarshalBinary siempre falla: un handle no se serializa.
func (h *KeyHandle) MarshalBinary() ([]byte, error) { return nil, ErrNotExportable }

func (h *KeyHandle) String() string {
	if h == nil {
		return "KeyHandle(nil)"
	}
	state := "live"
	if h.Destroyed() {
		state = "destroyed"
	}
	return fmt.Sprintf("KeyHandle(%s, %s, %s)", h.alg, h.KeyID(), state)
}

// GoString evita que %#v imprima los campos internos.
func (h *KeyHandle) GoString() string { return h.String() }
