package stamp

import (
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/dropDatabas3/stamper/internal/security/keycrypto"
)

// APIKeyStamper firma en modo PKI con una API key Ed25519 fija (base58).
// No persiste nada ni rota claves; sirve para backends.
type APIKeyStamper struct {
	handle *keycrypto.KeyHandle
	signer *keycrypto.Provider
}

// NewAPIKeyStamper decodifica la secret key (64 bytes, o semilla de 32) en base58.
func NewAPIKeyStamper(secretKey string) (*APIKeyStamper, error) {
	raw, err := base58.Decode(secretKey)
	if err != nil {
		return nil, fmt.Errorf("api key: not base58: %w", err)
	}
	defer func() {
		for i := range raw {
			raw[i] = 0
		}
	}()
	h, err := keycrypto.ImportEd25519(raw)
	if err != nil {
		return nil, fmt.Errorf("api key: %w", err)
	}
	return &APIKeyStamper{handle: h, signer: keycrypto.NewProvider(nil)}, nil
}

// PublicKey devuelve la clave pública en base58.
func (s *APIKeyStamper) PublicKey() string { return base58.Encode(s.handle.PublicKey()) }

func (s *APIKeyStamper) KeyID() string { return s.handle.KeyID() }

// Stamp firma payload (el cuerpo del request; vacío si no hay).
// Igual que los clientes de API key existentes, no incluye "algorithm".
func (s *APIKeyStamper) Stamp(payload []byte) (string, error) {
	sig, err := s.signer.Sign(s.handle, payload)
	if err != nil {
		return "", err
	}
	env := Envelope{
		PublicKey: s.handle.PublicKey(),
		Signature: sig,
		Kind:      KindPKI,
	}
	return env.Encode()
}

// Close destruye la clave en memoria.
func (s *APIKeyStamper) Close() { s.handle.Destroy() }
