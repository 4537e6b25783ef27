package stamp

import (
	"fmt"
	"strings"
)

// Kind es el modo de autenticación del stamp.
type Kind string

const (
	KindPKI  Kind = "PKI"
	KindOIDC Kind = "OIDC"
)

// Params selecciona el modo del stamp. Sólo PKI y OIDC lo implementan.
type Params interface {
	Kind() Kind
	isParams()
}

// PKI firma sólo con la clave del dispositivo.
type PKI struct{}

func (PKI) Kind() Kind { return KindPKI }
func (PKI) isParams()  {}

// OIDC agrega la identidad federada. Construir con NewOIDC.
type OIDC struct {
	IDToken string
	Salt    string
}

func (OIDC) Kind() Kind { return KindOIDC }
func (OIDC) isParams()  {}

// NewOIDC valida que idToken y salt no estén vacíos.
func NewOIDC(idToken, salt string) (OIDC, error) {
	if strings.TrimSpace(idToken) == "" {
		return OIDC{}, fmt.Errorf("%w: OIDC stamp requires idToken", ErrInvalidParams)
	}
	if strings.TrimSpace(salt) == "" {
		return OIDC{}, fmt.Errorf("%w: OIDC stamp requires salt", ErrInvalidParams)
	}
	return OIDC{IDToken: idToken, Salt: salt}, nil
}

// ParseParams construye Params desde valores de configuración o de un request.
// kind vacío equivale a PKI.
func ParseParams(kind, idToken, salt string) (Params, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(kind))) {
	case "", KindPKI:
		if idToken != "" || salt != "" {
			return nil, fmt.Errorf("%w: idToken/salt only allowed with OIDC", ErrInvalidParams)
		}
		return PKI{}, nil
	case KindOIDC:
		return NewOIDC(idToken, salt)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidParams, kind)
}

func validate(p Params) error {
	switch v := p.(type) {
	case PKI:
		return nil
	case OIDC:
		_, err := NewOIDC(v.IDToken, v.Salt)
		return err
	case nil:
		return fmt.Errorf("%w: nil params", ErrInvalidParams)
	}
	return fmt.Errorf("%w: unsupported params %T", ErrInvalidParams, p)
}
