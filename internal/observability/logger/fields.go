package logger

import (
	"time"

	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

// Duration crea un campo para la duración de una operación.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// ─── Claves y stamps ───

// KeyID identifica un par de claves. Es público.
func KeyID(v string) zap.Field { return zap.String("key_id", v) }

// PendingKeyID identifica el par pendiente durante una rotación.
func PendingKeyID(v string) zap.Field { return zap.String("pending_key_id", v) }

// Role es el slot de persistencia (active, pending).
func Role(v string) zap.Field { return zap.String("role", v) }

// Algorithm es el esquema de firma.
func Algorithm(v string) zap.Field { return zap.String("algorithm", v) }

// Mode es el modo del stamp (PKI, OIDC).
func Mode(v string) zap.Field { return zap.String("mode", v) }

func AuthenticatorID(v string) zap.Field { return zap.String("authenticator_id", v) }

// Driver es el adapter de almacenamiento.
func Driver(v string) zap.Field { return zap.String("driver", v) }

func PayloadSize(v int) zap.Field { return zap.Int("payload_bytes", v) }

func ExpiresAt(v time.Time) zap.Field { return zap.Time("expires_at", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

func Err(err error) zap.Field { return zap.Error(err) }

func String(key, v string) zap.Field { return zap.String(key, v) }

func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }

func Any(key string, v any) zap.Field { return zap.Any(key, v) }
