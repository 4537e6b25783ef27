package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Role identifica el slot de persistencia de un registro.
type Role string

const (
	RoleActive  Role = "active"
	RolePending Role = "pending"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleActive || r == RolePending
}

// KeyStatus indica el estado de un registro.
type KeyStatus string

const (
	KeyStatusActive  KeyStatus = "active"
	KeyStatusPending KeyStatus = "pending"
	KeyStatusExpired KeyStatus = "expired"
)

// KeyInfo es la parte pública de un par de claves.
// KeyID y PublicKey nunca cambian para un mismo par.
type KeyInfo struct {
	KeyID           string    `json:"keyId"`
	PublicKey       string    `json:"publicKey"` // base58 de la clave pública cruda
	CreatedAt       time.Time `json:"createdAt"`
	ExpiresAt       time.Time `json:"expiresAt,omitempty"`
	AuthenticatorID string    `json:"authenticatorId,omitempty"`
}

// KeyRecord es la forma persistida de un par de claves.
// SealedKey sólo puede abrirlo el proveedor criptográfico que lo selló.
type KeyRecord struct {
	Info      KeyInfo   `json:"keyInfo"`
	Status    KeyStatus `json:"status"`
	Algorithm string    `json:"algorithm"`
	SealedKey []byte    `json:"sealedKey"`
}

// Clone returns a deep copy so callers never share SealedKey backing arrays.
func (r *KeyRecord) Clone() *KeyRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.SealedKey = append([]byte(nil), r.SealedKey...)
	return &cp
}

// Namespace agrupa los nombres elegidos por la aplicación para ubicar los registros.
type Namespace struct {
	Database string // nombre de base / archivo / prefijo
	Store    string // tabla / bucket / directorio
	Record   string // prefijo del registro
}

// DefaultNamespace returns the namespace used when configuration leaves it empty.
func DefaultNamespace() Namespace {
	return Namespace{
		Database: "stamper",
		Store:    "crypto-keys",
		Record:   "signing-key",
	}
}

// WithDefaults fills empty fields from DefaultNamespace.
func (n Namespace) WithDefaults() Namespace {
	d := DefaultNamespace()
	if strings.TrimSpace(n.Database) == "" {
		n.Database = d.Database
	}
	if strings.TrimSpace(n.Store) == "" {
		n.Store = d.Store
	}
	if strings.TrimSpace(n.Record) == "" {
		n.Record = d.Record
	}
	return n
}

// Key returns the role-qualified record name, e.g. "signing-key-active".
func (n Namespace) Key(role Role) string {
	return fmt.Sprintf("%s-%s", n.Record, role)
}

// Validate rejects names that cannot be used as path segments or identifiers.
func (n Namespace) Validate() error {
	for field, v := range map[string]string{"database": n.Database, "store": n.Store, "record": n.Record} {
		if v == "" {
			return fmt.Errorf("%w: namespace %s is empty", ErrInvalidInput, field)
		}
		for _, c := range v {
			if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
				continue
			}
			return fmt.Errorf("%w: invalid character %q in namespace %s", ErrInvalidInput, c, field)
		}
	}
	return nil
}

// KeyStore define la persistencia durable de, como máximo, un registro por rol.
type KeyStore interface {
	// Open crea las estructuras subyacentes si no existen.
	// Es idempotente: puede llamarse en cada operación.
	Open(ctx context.Context) error

	// Get obtiene el registro del rol. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, role Role) (*KeyRecord, error)

	// Put guarda (o reemplaza) el registro del rol.
	Put(ctx context.Context, role Role, rec *KeyRecord) error

	// Delete elimina el registro del rol. Borrar un rol vacío no es error.
	Delete(ctx context.Context, role Role) error

	// Close libera conexiones / archivos.
	Close() error
}

// Promoter es opcional: adapters que pueden escribir el nuevo active y borrar
// el pending en una sola transacción. Sin él, el commit son dos operaciones
// y Init recupera un commit interrumpido entre ambas.
type Promoter interface {
	Promote(ctx context.Context, rec *KeyRecord) error
}
