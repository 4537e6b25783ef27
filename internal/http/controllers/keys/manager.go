package keys

import (
	"context"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/security/keycrypto"
	"github.com/dropDatabas3/stamper/internal/stamp"
	"github.com/dropDatabas3/stamper/internal/stamper"
)

// KeyManager es lo que los controllers necesitan de *stamper.Manager.
type KeyManager interface {
	KeyInfo() (repository.KeyInfo, bool)
	PendingKeyInfo() (repository.KeyInfo, bool)
	State() stamper.State
	Algorithm() keycrypto.Algorithm
	ExpirationInfo() stamper.ExpirationInfo

	Stamp(ctx context.Context, payload []byte, params stamp.Params) (string, error)

	Init(ctx context.Context) (repository.KeyInfo, error)
	RotateKeyPair(ctx context.Context) (repository.KeyInfo, error)
	CommitRotation(ctx context.Context, authenticatorID string) error
	RollbackRotation(ctx context.Context) error
	ResetKeyPair(ctx context.Context) (repository.KeyInfo, error)
	Clear(ctx context.Context) error
}

var _ KeyManager = (*stamper.Manager)(nil)
