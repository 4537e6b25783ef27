// Package stamp codifica y verifica el header X-Phantom-Stamp.
//
// Un stamp es base64url (sin padding) de un objeto JSON con la clave pública,
// la firma del cuerpo del request, el modo y el algoritmo. En modo OIDC
// también viajan idToken y salt.
package stamp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/security/keycrypto"
)

// Header es el nombre del header HTTP que transporta el stamp.
const Header = "X-Phantom-Stamp"

var b64 = base64.RawURLEncoding.Strict()

// Envelope es la forma decodificada de un stamp.
type Envelope struct {
	PublicKey []byte
	Signature []byte
	Kind      Kind
	// Algorithm vacío sólo en stamps de API key (implica Ed25519). Decode lo
	// deja vacío para que Encode reproduzca el mismo stamp.
	Algorithm keycrypto.Algorithm
	IDToken   string
	Salt      string
}

// Los dos layouts fijan el orden de campos del JSON, así el mismo envelope
// siempre produce el mismo stamp.
type pkiWire struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	Kind      Kind   `json:"kind"`
	Algorithm string `json:"algorithm,omitempty"`
}

type oidcWire struct {
	Kind      Kind   `json:"kind"`
	IDToken   string `json:"idToken"`
	PublicKey string `json:"publicKey"`
	Salt      string `json:"salt"`
	Algorithm string `json:"algorithm,omitempty"`
	Signature string `json:"signature"`
}

type decodeWire struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	Kind      Kind   `json:"kind"`
	Algorithm string `json:"algorithm"`
	IDToken   string `json:"idToken"`
	Salt      string `json:"salt"`
}

// Encode arma el stamp para sig producido por la clave descrita en info.
func Encode(sig []byte, info repository.KeyInfo, alg keycrypto.Algorithm, p Params) (string, error) {
	pub, err := base58.Decode(info.PublicKey)
	if err != nil || len(pub) == 0 {
		return "", fmt.Errorf("%w: public key is not base58", ErrMalformedStamp)
	}
	env := Envelope{PublicKey: pub, Signature: sig, Kind: KindPKI, Algorithm: alg}
	if p == nil {
		p = PKI{}
	}
	if err := validate(p); err != nil {
		return "", err
	}
	if o, ok := p.(OIDC); ok {
		env.Kind = KindOIDC
		env.IDToken = o.IDToken
		env.Salt = o.Salt
	}
	return env.Encode()
}

// Encode serializa el envelope.
func (e Envelope) Encode() (string, error) {
	if len(e.PublicKey) == 0 || len(e.Signature) == 0 {
		return "", fmt.Errorf("%w: empty public key or signature", ErrMalformedStamp)
	}
	var v any
	switch e.Kind {
	case KindPKI:
		v = pkiWire{
			PublicKey: b64.EncodeToString(e.PublicKey),
			Signature: b64.EncodeToString(e.Signature),
			Kind:      KindPKI,
			Algorithm: string(e.Algorithm),
		}
	case KindOIDC:
		if _, err := NewOIDC(e.IDToken, e.Salt); err != nil {
			return "", err
		}
		v = oidcWire{
			Kind:      KindOIDC,
			IDToken:   e.IDToken,
			PublicKey: b64.EncodeToString(e.PublicKey),
			Salt:      e.Salt,
			Algorithm: string(e.Algorithm),
			Signature: b64.EncodeToString(e.Signature),
		}
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrMalformedStamp, e.Kind)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal stamp: %w", err)
	}
	return b64.EncodeToString(raw), nil
}

// Decode es la inversa estricta de Encode: rechaza padding, campos
// desconocidos, kinds desconocidos y OIDC sin idToken o salt.
func Decode(s string) (Envelope, error) {
	raw, err := b64.DecodeString(s)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedStamp, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var w decodeWire
	if err := dec.Decode(&w); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedStamp, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Envelope{}, fmt.Errorf("%w: trailing data", ErrMalformedStamp)
	}

	env := Envelope{Kind: w.Kind, IDToken: w.IDToken, Salt: w.Salt}
	switch w.Kind {
	case KindPKI:
		if w.IDToken != "" || w.Salt != "" {
			return Envelope{}, fmt.Errorf("%w: PKI stamp carries OIDC fields", ErrMalformedStamp)
		}
	case KindOIDC:
		if w.IDToken == "" || w.Salt == "" {
			return Envelope{}, fmt.Errorf("%w: OIDC stamp requires idToken and salt", ErrMalformedStamp)
		}
	default:
		return Envelope{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedStamp, w.Kind)
	}

	if env.PublicKey, err = b64.DecodeString(w.PublicKey); err != nil || len(env.PublicKey) == 0 {
		return Envelope{}, fmt.Errorf("%w: bad publicKey", ErrMalformedStamp)
	}
	if env.Signature, err = b64.DecodeString(w.Signature); err != nil || len(env.Signature) == 0 {
		return Envelope{}, fmt.Errorf("%w: bad signature", ErrMalformedStamp)
	}
	if w.Algorithm != "" {
		if env.Algorithm, err = keycrypto.ParseAlgorithm(w.Algorithm); err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedStamp, err)
		}
	}
	return env, nil
}

// SigningAlgorithm devuelve el algoritmo efectivo: Ed25519 si no viaja.
func (e Envelope) SigningAlgorithm() keycrypto.Algorithm {
	if e.Algorithm == "" {
		return keycrypto.Ed25519
	}
	return e.Algorithm
}

// Verify comprueba la firma del envelope sobre payload.
func Verify(env Envelope, payload []byte) error {
	if !keycrypto.Verify(env.SigningAlgorithm(), env.PublicKey, payload, env.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

// KeyID devuelve el identificador de la clave que firmó.
func (e Envelope) KeyID() string { return keycrypto.KeyID(e.PublicKey) }

// PublicKeyBase58 devuelve la clave pública en el formato de KeyInfo.
func (e Envelope) PublicKeyBase58() string { return base58.Encode(e.PublicKey) }

// IDTokenClaims parsea los claims del idToken SIN verificar su firma.
// Sólo para diagnóstico: la verificación la hace el servidor.
func (e Envelope) IDTokenClaims() (jwt.MapClaims, error) {
	if e.Kind != KindOIDC {
		return nil, fmt.Errorf("%w: not an OIDC stamp", ErrInvalidParams)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(e.IDToken, claims); err != nil {
		return nil, fmt.Errorf("parse idToken: %w", err)
	}
	return claims, nil
}
