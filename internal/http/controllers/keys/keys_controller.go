package keys

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/stamper/internal/http/errors"
	"github.com/dropDatabas3/stamper/internal/observability/logger"
)

// maxCommitBody limita el body de commit; sólo lleva un authenticatorId.
const maxCommitBody = 4 << 10

// KeysController maneja las rutas de ciclo de vida de la clave.
type KeysController struct {
	mgr KeyManager
}

// NewKeysController crea el controller.
func NewKeysController(mgr KeyManager) *KeysController {
	return &KeysController{mgr: mgr}
}

// Info maneja GET /v1/keys
func (c *KeysController) Info(w http.ResponseWriter, r *http.Request) {
	resp := KeysResponse{
		State:     c.mgr.State(),
		Algorithm: string(c.mgr.Algorithm()),
	}
	if info, ok := c.mgr.KeyInfo(); ok {
		resp.Active = &info
	}
	if info, ok := c.mgr.PendingKeyInfo(); ok {
		resp.Pending = &info
	}
	writeJSON(w, http.StatusOK, resp)
}

// Expiration maneja GET /v1/keys/expiration
func (c *KeysController) Expiration(w http.ResponseWriter, r *http.Request) {
	exp := c.mgr.ExpirationInfo()
	resp := ExpirationResponse{
		Initialized:      exp.Initialized,
		SecondsRemaining: int64(exp.TimeUntilExpiry.Seconds()),
		ShouldRenew:      exp.ShouldRenew,
		Expired:          exp.Expired,
	}
	if !exp.ExpiresAt.IsZero() {
		resp.ExpiresAt = &exp.ExpiresAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// Init maneja POST /v1/keys/init
func (c *KeysController) Init(w http.ResponseWriter, r *http.Request) {
	info, err := c.mgr.Init(r.Context())
	if err != nil {
		c.fail(w, r, "KeysController.Init", err)
		return
	}
	writeJSON(w, http.StatusOK, KeyResponse{State: c.mgr.State(), KeyInfo: info})
}

// Rotate maneja POST /v1/keys/rotate
func (c *KeysController) Rotate(w http.ResponseWriter, r *http.Request) {
	info, err := c.mgr.RotateKeyPair(r.Context())
	if err != nil {
		c.fail(w, r, "KeysController.Rotate", err)
		return
	}
	writeJSON(w, http.StatusCreated, KeyResponse{State: c.mgr.State(), KeyInfo: info})
}

// Commit maneja POST /v1/keys/commit. El body es opcional.
func (c *KeysController) Commit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommitBody+1))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithCause(err))
		return
	}
	if len(body) > maxCommitBody {
		httperrors.WriteError(w, httperrors.ErrPayloadTooLarge)
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid JSON body"))
			return
		}
	}

	if err := c.mgr.CommitRotation(r.Context(), strings.TrimSpace(req.AuthenticatorID)); err != nil {
		c.fail(w, r, "KeysController.Commit", err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{State: c.mgr.State()})
}

// Rollback maneja POST /v1/keys/rollback
func (c *KeysController) Rollback(w http.ResponseWriter, r *http.Request) {
	if err := c.mgr.RollbackRotation(r.Context()); err != nil {
		c.fail(w, r, "KeysController.Rollback", err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{State: c.mgr.State()})
}

// Reset maneja POST /v1/keys/reset
func (c *KeysController) Reset(w http.ResponseWriter, r *http.Request) {
	info, err := c.mgr.ResetKeyPair(r.Context())
	if err != nil {
		c.fail(w, r, "KeysController.Reset", err)
		return
	}
	writeJSON(w, http.StatusOK, KeyResponse{State: c.mgr.State(), KeyInfo: info})
}

// Clear maneja DELETE /v1/keys
func (c *KeysController) Clear(w http.ResponseWriter, r *http.Request) {
	if err := c.mgr.Clear(r.Context()); err != nil {
		c.fail(w, r, "KeysController.Clear", err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{State: c.mgr.State()})
}

func (c *KeysController) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	appErr := httperrors.FromError(err)
	log := logger.FromWithFields(r.Context(), logger.Component("controller"), logger.Op(op))
	if appErr.HTTPStatus >= 500 {
		log.Error("key operation failed", logger.Err(err))
	} else {
		log.Debug("key operation rejected", logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
