package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/stamp"
	"github.com/dropDatabas3/stamper/internal/stamper"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// FromError traduce errores de dominio a AppError. Lo desconocido es 500.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	var base *AppError
	switch {
	case stderrors.Is(err, stamper.ErrNotInitialized):
		base = ErrNotInitialized
	case stderrors.Is(err, stamper.ErrNoPendingKey):
		base = ErrNoPendingKey
	case stderrors.Is(err, stamper.ErrAlreadyRotating):
		base = ErrAlreadyRotating
	case stderrors.Is(err, stamper.ErrConcurrentOperation):
		base = ErrBusy
	case stderrors.Is(err, stamp.ErrInvalidParams):
		base = ErrInvalidParams
	case stderrors.Is(err, stamp.ErrMalformedStamp):
		base = ErrMalformedStamp
	case stderrors.Is(err, stamp.ErrInvalidSignature):
		base = ErrInvalidSignature
	case stderrors.Is(err, repository.ErrCorruptRecord):
		base = ErrCorruptKey
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		base = ErrRequestCanceled
	case repository.IsStorageError(err):
		base = ErrStorage
	default:
		base = ErrInternalServerError
	}
	out := base.WithCause(err)
	if base.HTTPStatus < 500 {
		out.Detail = err.Error()
	}
	return out
}

// WriteError escribe la respuesta JSON para err.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}
