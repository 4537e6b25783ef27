package keys

import (
	"time"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/stamper"
)

// KeysResponse es la respuesta de GET /v1/keys.
type KeysResponse struct {
	State     stamper.State       `json:"state"`
	Algorithm string              `json:"algorithm"`
	Active    *repository.KeyInfo `json:"active,omitempty"`
	Pending   *repository.KeyInfo `json:"pending,omitempty"`
}

// KeyResponse envuelve la KeyInfo devuelta por init/rotate/reset.
type KeyResponse struct {
	State   stamper.State      `json:"state"`
	KeyInfo repository.KeyInfo `json:"keyInfo"`
}

// StateResponse es la respuesta de commit/rollback/clear.
type StateResponse struct {
	State stamper.State `json:"state"`
}

// CommitRequest es el body opcional de POST /v1/keys/commit.
type CommitRequest struct {
	AuthenticatorID string `json:"authenticatorId"`
}

// ExpirationResponse es la respuesta de GET /v1/keys/expiration.
type ExpirationResponse struct {
	Initialized      bool       `json:"initialized"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	SecondsRemaining int64      `json:"secondsRemaining"`
	ShouldRenew      bool       `json:"shouldRenew"`
	Expired          bool       `json:"expired"`
}

// StampResponse es la respuesta de POST /v1/stamp.
type StampResponse struct {
	Header string `json:"header"`
	Stamp  string `json:"stamp"`
}

// VerifyResponse es la respuesta de POST /v1/verify.
type VerifyResponse struct {
	Valid     bool           `json:"valid"`
	Kind      string         `json:"kind"`
	Algorithm string         `json:"algorithm"`
	KeyID     string         `json:"keyId"`
	PublicKey string         `json:"publicKey"`
	Claims    map[string]any `json:"claims,omitempty"`
}
