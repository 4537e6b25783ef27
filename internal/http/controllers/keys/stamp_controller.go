package keys

import (
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/stamper/internal/http/errors"
	"github.com/dropDatabas3/stamper/internal/observability/logger"
	"github.com/dropDatabas3/stamper/internal/stamp"
)

// Headers que eligen el modo del stamp. Sin X-Stamp-Kind se usan los
// parámetros por defecto del Manager.
const (
	HeaderStampKind    = "X-Stamp-Kind"
	HeaderStampIDToken = "X-Stamp-Id-Token"
	HeaderStampSalt    = "X-Stamp-Salt"
)

// DefaultMaxPayload es el tamaño máximo de body aceptado por /v1/stamp y /v1/verify.
const DefaultMaxPayload int64 = 1 << 20

// StampController firma y verifica payloads.
type StampController struct {
	mgr        KeyManager
	maxPayload int64
}

// NewStampController crea el controller. maxPayload <= 0 usa DefaultMaxPayload.
func NewStampController(mgr KeyManager, maxPayload int64) *StampController {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &StampController{mgr: mgr, maxPayload: maxPayload}
}

// Stamp maneja POST /v1/stamp. El body crudo es el payload a firmar.
func (c *StampController) Stamp(w http.ResponseWriter, r *http.Request) {
	log := logger.FromWithFields(r.Context(), logger.Component("controller"), logger.Op("StampController.Stamp"))

	payload, err := c.readPayload(w, r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	params, err := paramsFromHeaders(r.Header)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	out, err := c.mgr.Stamp(r.Context(), payload, params)
	if err != nil {
		appErr := httperrors.FromError(err)
		if appErr.HTTPStatus >= 500 {
			log.Error("stamp failed", logger.Err(err))
		}
		httperrors.WriteError(w, appErr)
		return
	}

	log.Debug("payload stamped", logger.PayloadSize(len(payload)))
	w.Header().Set(stamp.Header, out)
	writeJSON(w, http.StatusOK, StampResponse{Header: stamp.Header, Stamp: out})
}

// Verify maneja POST /v1/verify: decodifica X-Phantom-Stamp y verifica la
// firma contra el body crudo. No consulta el estado del Manager.
func (c *StampController) Verify(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.Header.Get(stamp.Header))
	if raw == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("missing "+stamp.Header+" header"))
		return
	}
	payload, err := c.readPayload(w, r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	env, err := stamp.Decode(raw)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if err := stamp.Verify(env, payload); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	resp := VerifyResponse{
		Valid:     true,
		Kind:      string(env.Kind),
		Algorithm: string(env.SigningAlgorithm()),
		KeyID:     env.KeyID(),
		PublicKey: env.PublicKeyBase58(),
	}
	if env.Kind == stamp.KindOIDC {
		if claims, err := env.IDTokenClaims(); err == nil {
			resp.Claims = claims
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *StampController) readPayload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte{}, nil
	}
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, c.maxPayload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, httperrors.ErrPayloadTooLarge
		}
		return nil, httperrors.ErrBadRequest.WithCause(err)
	}
	return b, nil
}

func paramsFromHeaders(h http.Header) (stamp.Params, error) {
	kind := strings.TrimSpace(h.Get(HeaderStampKind))
	idToken := strings.TrimSpace(h.Get(HeaderStampIDToken))
	salt := strings.TrimSpace(h.Get(HeaderStampSalt))
	if kind == "" && idToken == "" && salt == "" {
		return nil, nil
	}
	if kind == "" {
		kind = string(stamp.KindOIDC)
	}
	return stamp.ParseParams(kind, idToken, salt)
}
