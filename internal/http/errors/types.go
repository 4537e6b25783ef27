// Package errors define el error estándar de la API del agente.
package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la API
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, sólo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetail devuelve una COPIA con detalle; no muta los errores base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause devuelve una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// ─── Errores predefinidos ───

var (
	ErrBadRequest       = New(http.StatusBadRequest, "BAD_REQUEST", "La solicitud es inválida")
	ErrInvalidParams    = New(http.StatusBadRequest, "INVALID_STAMP_PARAMS", "Parámetros de stamp inválidos")
	ErrMalformedStamp   = New(http.StatusBadRequest, "MALFORMED_STAMP", "El stamp no se puede decodificar")
	ErrInvalidSignature = New(http.StatusUnauthorized, "INVALID_SIGNATURE", "La firma del stamp no corresponde al payload")
	ErrNotFound         = New(http.StatusNotFound, "NOT_FOUND", "Recurso no encontrado")
	ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Método no permitido")
	ErrPayloadTooLarge  = New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "El payload excede el tamaño máximo")

	ErrNotInitialized  = New(http.StatusConflict, "NOT_INITIALIZED", "El stamper no está inicializado")
	ErrNoPendingKey    = New(http.StatusConflict, "NO_PENDING_KEY", "No hay una clave pendiente para activar")
	ErrAlreadyRotating = New(http.StatusConflict, "ROTATION_PENDING", "Ya hay una rotación en curso")
	ErrBusy            = New(http.StatusConflict, "OPERATION_IN_PROGRESS", "Otra operación de claves está en curso")
	ErrCorruptKey      = New(http.StatusInternalServerError, "CORRUPT_KEY_RECORD", "El registro de clave persistido es inválido")

	ErrStorage             = New(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "El almacenamiento de claves falló")
	ErrRequestCanceled     = New(499, "REQUEST_CANCELED", "El request fue cancelado")
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_ERROR", "Error interno del servidor")
)
