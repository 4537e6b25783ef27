package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indica que el rol no tiene registro persistido.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indica que los datos de entrada son inválidos.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorruptRecord indica un registro ilegible o cuya clave sellada no
	// corresponde a su clave pública.
	ErrCorruptRecord = errors.New("corrupt key record")
)

// StorageError envuelve cualquier fallo de I/O de un adapter.
type StorageError struct {
	Driver string
	Op     string // open | get | put | delete | close
	Role   Role
	Err    error
}

func (e *StorageError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("storage %s: %s %s: %v", e.Driver, e.Op, e.Role, e.Err)
	}
	return fmt.Sprintf("storage %s: %s: %v", e.Driver, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError builds a StorageError; it returns nil when err is nil so
// adapters can wrap unconditionally.
func NewStorageError(driver, op string, role Role, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Driver: driver, Op: op, Role: role, Err: err}
}

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStorageError verifica si el error proviene de la capa de almacenamiento.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
