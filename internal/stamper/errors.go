package stamper

import "errors"

var (
	// ErrNotInitialized: no hay clave activa (Init no corrió o se llamó Clear).
	ErrNotInitialized = errors.New("stamper not initialized: call Init first")
	// ErrNoPendingKey: CommitRotation sin una rotación en curso.
	ErrNoPendingKey = errors.New("no pending keypair to switch to")
	// ErrAlreadyRotating: RotateKeyPair con una clave pendiente sin resolver.
	ErrAlreadyRotating = errors.New("rotation already pending: commit or rollback first")
	// ErrConcurrentOperation: otra mutación está en curso y FailFast está activo.
	ErrConcurrentOperation = errors.New("another key operation is in progress")
)
