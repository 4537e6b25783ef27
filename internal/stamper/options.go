package stamper

import (
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/stamper/internal/security/keycrypto"
	"github.com/dropDatabas3/stamper/internal/stamp"
)

const (
	DefaultKeyTTL        = 7 * 24 * time.Hour
	DefaultRenewalWindow = 2 * 24 * time.Hour
)

// Options configura el Manager. El zero value es válido.
type Options struct {
	// Algorithm para claves nuevas. Default: Ed25519.
	Algorithm keycrypto.Algorithm

	// KeyTTL define ExpiresAt = CreatedAt + KeyTTL.
	KeyTTL time.Duration

	// RenewalWindow: ShouldRenew es true cuando falta menos que esto para expirar.
	RenewalWindow time.Duration

	// DefaultParams se usa cuando Stamp recibe params nil. Default: PKI.
	DefaultParams stamp.Params

	// FailFast rechaza con ErrConcurrentOperation en vez de esperar a la
	// mutación en curso.
	FailFast bool

	// Now reemplaza el reloj (tests).
	Now func() time.Time

	// Logger; si es nil se usa el del contexto o el singleton.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Algorithm == "" {
		o.Algorithm = keycrypto.DefaultAlgorithm
	}
	if o.KeyTTL <= 0 {
		o.KeyTTL = DefaultKeyTTL
	}
	if o.RenewalWindow <= 0 {
		o.RenewalWindow = DefaultRenewalWindow
	}
	if o.DefaultParams == nil {
		o.DefaultParams = stamp.PKI{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
