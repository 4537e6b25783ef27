// Package secretbox sella material sensible bajo una clave maestra de 32 bytes
// (NaCl secretbox: XSalsa20 + Poly1305).
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// EnvMasterKey es la variable de entorno leída por FromEnv.
	EnvMasterKey = "STAMPER_MASTER_KEY"

	KeySize   = 32
	nonceSize = 24
)

var (
	ErrKeyMissing = errors.New("secretbox: master key not set")
	ErrInvalidKey = errors.New("secretbox: invalid master key")
	ErrOpen       = errors.New("secretbox: authentication failed")
)

// Box sella y abre blobs con una clave fija. Es seguro para uso concurrente.
type Box struct {
	key [KeySize]byte
}

// New crea un Box a partir de una clave cruda de 32 bytes.
func New(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: %d bytes (requiere %d)", ErrInvalidKey, len(key), KeySize)
	}
	b := &Box{}
	copy(b.key[:], key)
	return b, nil
}

// FromString acepta la clave como base64 (std o raw), hex de 64 chars o 32 bytes crudos.
func FromString(s string) (*Box, error) {
	k, err := ParseKey(s)
	if err != nil {
		return nil, err
	}
	return New(k)
}

// FromEnv carga la clave desde STAMPER_MASTER_KEY.
func FromEnv() (*Box, error) {
	v := strings.TrimSpace(os.Getenv(EnvMasterKey))
	if v == "" {
		return nil, fmt.Errorf("%w: %s vacía; genere una clave con: openssl rand -base64 32", ErrKeyMissing, EnvMasterKey)
	}
	return FromString(v)
}

// ParseKey decodifica una clave maestra en cualquiera de los formatos aceptados.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrKeyMissing
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == KeySize {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil && len(b) == KeySize {
		return b, nil
	}
	if len(s) == 2*KeySize {
		if h, err := hex.DecodeString(s); err == nil {
			return h, nil
		}
	}
	if len(s) == KeySize {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("%w: no es base64, hex ni raw de %d bytes", ErrInvalidKey, KeySize)
}

// Seal devuelve nonce||ciphertext.
func (b *Box) Seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce random: %w", err)
	}
	out := make([]byte, nonceSize, nonceSize+len(plain)+secretbox.Overhead)
	copy(out, nonce[:])
	return secretbox.Seal(out, plain, &nonce, &b.key), nil
}

// Open invierte Seal. Cualquier alteración devuelve ErrOpen.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: blob demasiado corto", ErrOpen)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	pt, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return nil, ErrOpen
	}
	return pt, nil
}

// Wipe borra la clave del Box; después de Wipe, Open siempre falla.
func (b *Box) Wipe() {
	for i := range b.key {
		b.key[i] = 0
	}
}

// GenerateKey devuelve una clave maestra aleatoria en base64.
func GenerateKey() (string, error) {
	k := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(k), nil
}
