package keycrypto

import "errors"

var (
	// ErrKeyGeneration envuelve fallos del generador de claves.
	ErrKeyGeneration = errors.New("key generation failed")
	// ErrSigning envuelve fallos al firmar (incluye firmar con un handle destruido).
	ErrSigning = errors.New("signing failed")
	// ErrUnsupportedAlgorithm indica un algoritmo desconocido.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrKeyDestroyed indica que el handle ya fue destruido.
	ErrKeyDestroyed = errors.New("key handle destroyed")
	// ErrNotExportable se devuelve al intentar serializar un handle.
	ErrNotExportable = errors.New("key handle is not exportable")
	// ErrUnseal indica que un blob sellado no pudo abrirse con la clave maestra actual.
	ErrUnseal = errors.New("cannot unseal key")
)
