package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/stamper"
)

func TestFromError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{stamper.ErrNotInitialized, http.StatusConflict, "NOT_INITIALIZED"},
		{fmt.Errorf("wrap: %w", stamper.ErrNoPendingKey), http.StatusConflict, "NO_PENDING_KEY"},
		{stamper.ErrConcurrentOperation, http.StatusConflict, "OPERATION_IN_PROGRESS"},
		{repository.NewStorageError("fs", "put", repository.RoleActive, fmt.Errorf("disk")), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{fmt.Errorf("%w: x", repository.ErrCorruptRecord), http.StatusInternalServerError, "CORRUPT_KEY_RECORD"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{ErrBadRequest.WithDetail("x"), http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, c := range cases {
		got := FromError(c.err)
		assert.Equal(t, c.status, got.HTTPStatus, c.err.Error())
		assert.Equal(t, c.code, got.Code)
	}
}

func TestFromError_HidesInternalDetail(t *testing.T) {
	got := FromError(fmt.Errorf("secret path /var/lib/keys"))
	assert.Empty(t, got.Detail)
	assert.ErrorContains(t, got, "secret path")
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, stamper.ErrAlreadyRotating)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ROTATION_PENDING", body["code"])
}

func TestWithDetail_DoesNotMutateBase(t *testing.T) {
	_ = ErrBadRequest.WithDetail("changed")
	assert.Empty(t, ErrBadRequest.Detail)
}
