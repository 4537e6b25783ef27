package keycrypto

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"io"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// Algorithm identifica el esquema de firma. El valor viaja tal cual en el
// campo "algorithm" del stamp.
type Algorithm string

const (
	Ed25519    Algorithm = "Ed25519"
	Dilithium3 Algorithm = "Dilithium3"
)

// DefaultAlgorithm es el algoritmo usado cuando la configuración no indica otro.
const DefaultAlgorithm = Ed25519

// ParseAlgorithm acepta el nombre sin distinguir mayúsculas.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ed25519":
		return Ed25519, nil
	case "dilithium3", "mode3":
		return Dilithium3, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
}

func (a Algorithm) String() string { return string(a) }

// signer es la implementación interna de un algoritmo. Nunca sale del paquete.
type signer interface {
	sign(msg []byte) ([]byte, error)
	public() []byte
	marshal() ([]byte, error)
	zero()
}

type scheme struct {
	generate  func(r io.Reader) (signer, error)
	unmarshal func(b []byte) (signer, error)
	verify    func(pub, msg, sig []byte) bool
	sigSize   int
}

var schemes = map[Algorithm]scheme{
	Ed25519: {
		generate: func(r io.Reader) (signer, error) {
			_, priv, err := ed25519.GenerateKey(r)
			if err != nil {
				return nil, err
			}
			return &edSigner{priv: priv}, nil
		},
		unmarshal: func(b []byte) (signer, error) {
			switch len(b) {
			case ed25519.SeedSize:
				return &edSigner{priv: ed25519.NewKeyFromSeed(b)}, nil
			case ed25519.PrivateKeySize:
				priv := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
				copy(priv, b)
				// la mitad pública debe derivarse de la semilla
				if !bytes.Equal(ed25519.NewKeyFromSeed(priv.Seed())[ed25519.SeedSize:], priv[ed25519.SeedSize:]) {
					return nil, fmt.Errorf("ed25519 private key: public half mismatch")
				}
				return &edSigner{priv: priv}, nil
			}
			return nil, fmt.Errorf("ed25519 private key: invalid length %d", len(b))
		},
		verify: func(pub, msg, sig []byte) bool {
			if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
				return false
			}
			return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
		},
		sigSize: ed25519.SignatureSize,
	},
	Dilithium3: {
		generate: func(r io.Reader) (signer, error) {
			pk, sk, err := mode3.GenerateKey(r)
			if err != nil {
				return nil, err
			}
			return &dilSigner{pk: pk, sk: sk}, nil
		},
		unmarshal: func(b []byte) (signer, error) {
			var sk mode3.PrivateKey
			if err := sk.UnmarshalBinary(b); err != nil {
				return nil, fmt.Errorf("dilithium3 private key: %w", err)
			}
			pk, ok := sk.Public().(*mode3.PublicKey)
			if !ok {
				return nil, fmt.Errorf("dilithium3 private key: unexpected public key type")
			}
			return &dilSigner{pk: pk, sk: &sk}, nil
		},
		verify: func(pub, msg, sig []byte) bool {
			if len(sig) != mode3.SignatureSize {
				return false
			}
			var pk mode3.PublicKey
			if err := pk.UnmarshalBinary(pub); err != nil {
				return false
			}
			return mode3.Verify(&pk, msg, sig)
		},
		sigSize: mode3.SignatureSize,
	},
}

func lookup(a Algorithm) (scheme, error) {
	s, ok := schemes[a]
	if !ok {
		return scheme{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
	}
	return s, nil
}

// SignatureSize devuelve el tamaño fijo de firma del algoritmo (0 si no se conoce).
func SignatureSize(a Algorithm) int {
	return schemes[a].sigSize
}

// Verify comprueba sig sobre msg con la clave pública cruda pub.
func Verify(a Algorithm, pub, msg, sig []byte) bool {
	s, err := lookup(a)
	if err != nil {
		return false
	}
	return s.verify(pub, msg, sig)
}

type edSigner struct {
	priv ed25519.PrivateKey
}

func (s *edSigner) sign(msg []byte) ([]byte, error) {
	if len(s.priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("ed25519: key destroyed")
	}
	return ed25519.Sign(s.priv, msg), nil
}

func (s *edSigner) public() []byte {
	out := make([]byte, ed25519.PublicKeySize)
	copy(out, s.priv[ed25519.SeedSize:])
	return out
}

func (s *edSigner) marshal() ([]byte, error) {
	return append([]byte(nil), s.priv.Seed()...), nil
}

func (s *edSigner) zero() {
	for i := range s.priv {
		s.priv[i] = 0
	}
	s.priv = nil
}

type dilSigner struct {
	pk *mode3.PublicKey
	sk *mode3.PrivateKey
}

func (s *dilSigner) sign(msg []byte) ([]byte, error) {
	if s.sk == nil {
		return nil, fmt.Errorf("dilithium3: key destroyed")
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.sk, msg, sig)
	return sig, nil
}

func (s *dilSigner) public() []byte {
	b, _ := s.pk.MarshalBinary()
	return b
}

func (s *dilSigner) marshal() ([]byte, error) {
	return s.sk.MarshalBinary()
}

func (s *dilSigner) zero() {
	// mode3.PrivateKey no expone sus campos; se suelta la referencia.
	s.sk = nil
}
