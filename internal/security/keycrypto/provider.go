package keycrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/dropDatabas3/stamper/internal/security/secretbox"
)

// keyIDLen es la cantidad de caracteres base64url conservados del digest.
const keyIDLen = 16

// Digest devuelve SHA-256(b).
func Digest(b []byte) [sha256.Size]byte {
	return sha256.Sum256(b)
}

// KeyID = base64url(SHA-256(pub))[:16]. Es función pura de la clave pública.
func KeyID(pub []byte) string {
	d := Digest(pub)
	return base64.RawURLEncoding.EncodeToString(d[:])[:keyIDLen]
}

// Provider genera, firma, sella y reabre handles.
type Provider struct {
	box  *secretbox.Box
	rand io.Reader
}

// Option configura el Provider.
type Option func(*Provider)

// WithRand reemplaza la fuente de aleatoriedad (tests).
func WithRand(r io.Reader) Option {
	return func(p *Provider) { p.rand = r }
}

// NewProvider crea un Provider. box puede ser nil si no se va a persistir
// (Seal/Open devolverán error).
func NewProvider(box *secretbox.Box, opts ...Option) *Provider {
	p := &Provider{box: box, rand: rand.Reader}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Generate crea un par de claves nuevo y no exportable.
func (p *Provider) Generate(alg Algorithm) (*KeyHandle, error) {
	s, err := lookup(alg)
	if err != nil {
		return nil, err
	}
	sg, err := s.generate(p.rand)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKeyGeneration, alg, err)
	}
	return newHandle(alg, sg), nil
}

// Sign firma payload con h. Un handle destruido devuelve ErrSigning.
func (p *Provider) Sign(h *KeyHandle, payload []byte) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil handle", ErrSigning)
	}
	sig, err := h.sign(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return sig, nil
}

// Seal envuelve el material privado de h bajo la clave maestra.
func (p *Provider) Seal(h *KeyHandle) ([]byte, error) {
	if p.box == nil {
		return nil, fmt.Errorf("seal: %w", secretbox.ErrKeyMissing)
	}
	raw, err := h.export()
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	defer wipe(raw)
	return p.box.Seal(raw)
}

// Open reconstruye un handle a partir de un blob producido por Seal.
func (p *Provider) Open(alg Algorithm, sealed []byte) (*KeyHandle, error) {
	s, err := lookup(alg)
	if err != nil {
		return nil, err
	}
	if p.box == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnseal, secretbox.ErrKeyMissing)
	}
	raw, err := p.box.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnseal, err)
	}
	defer wipe(raw)
	sg, err := s.unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnseal, err)
	}
	return newHandle(alg, sg), nil
}

// ImportEd25519 crea un handle a partir de una clave privada Ed25519
// (semilla de 32 bytes o clave de 64). Los bytes de entrada se copian.
func ImportEd25519(priv []byte) (*KeyHandle, error) {
	sg, err := schemes[Ed25519].unmarshal(priv)
	if err != nil {
		return nil, err
	}
	return newHandle(Ed25519, sg), nil
}

func newHandle(alg Algorithm, sg signer) *KeyHandle {
	return &KeyHandle{alg: alg, pub: sg.public(), s: sg}
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
