package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/http/controllers/keys"
	"github.com/dropDatabas3/stamper/internal/http/router"
	"github.com/dropDatabas3/stamper/internal/metrics"
	"github.com/dropDatabas3/stamper/internal/observability/logger"
	"github.com/dropDatabas3/stamper/internal/security/keycrypto"
	"github.com/dropDatabas3/stamper/internal/security/secretbox"
	"github.com/dropDatabas3/stamper/internal/stamp"
	"github.com/dropDatabas3/stamper/internal/stamper"
	"github.com/dropDatabas3/stamper/internal/store/adapters/memory"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Cleanup(logger.Replace(zap.NewNop()))

	key, err := secretbox.GenerateKey()
	require.NoError(t, err)
	box, err := secretbox.FromString(key)
	require.NoError(t, err)

	mgr := stamper.New(memory.New(repository.DefaultNamespace()), keycrypto.NewProvider(box), stamper.Options{Logger: zap.NewNop()})
	t.Cleanup(func() { _ = mgr.Close() })

	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))
	require.NoError(t, metrics.RegisterHTTP(reg))

	srv := httptest.NewServer(router.New(router.Deps{Manager: mgr, Version: "test", Gatherer: reg}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body []byte, hdr map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func errorCode(t *testing.T, b []byte) string {
	t.Helper()
	var e struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(b, &e))
	return e.Code
}

func TestLifecycleOverHTTP(t *testing.T) {
	srv := newServer(t)

	resp, _ := do(t, srv, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, b := do(t, srv, http.MethodPost, "/v1/stamp", []byte("x"), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOT_INITIALIZED", errorCode(t, b))

	resp, b = do(t, srv, http.MethodPost, "/v1/keys/init", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	var initResp keys.KeyResponse
	require.NoError(t, json.Unmarshal(b, &initResp))
	assert.Equal(t, stamper.StateActive, initResp.State)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = do(t, srv, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, b = do(t, srv, http.MethodPost, "/v1/keys/rotate", nil, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(b))
	var rotResp keys.KeyResponse
	require.NoError(t, json.Unmarshal(b, &rotResp))
	assert.NotEqual(t, initResp.KeyInfo.KeyID, rotResp.KeyInfo.KeyID)

	resp, b = do(t, srv, http.MethodPost, "/v1/keys/rotate", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ROTATION_PENDING", errorCode(t, b))

	resp, b = do(t, srv, http.MethodGet, "/v1/keys", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info keys.KeysResponse
	require.NoError(t, json.Unmarshal(b, &info))
	assert.Equal(t, stamper.StateRotationPending, info.State)
	require.NotNil(t, info.Pending)
	assert.Equal(t, rotResp.KeyInfo.KeyID, info.Pending.KeyID)

	resp, b = do(t, srv, http.MethodPost, "/v1/keys/commit", []byte(`{"authenticatorId":"auth-1"}`), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))

	resp, b = do(t, srv, http.MethodGet, "/v1/keys", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info = keys.KeysResponse{}
	require.NoError(t, json.Unmarshal(b, &info))
	require.NotNil(t, info.Active)
	assert.Nil(t, info.Pending)
	assert.Equal(t, rotResp.KeyInfo.KeyID, info.Active.KeyID)
	assert.Equal(t, "auth-1", info.Active.AuthenticatorID)

	resp, b = do(t, srv, http.MethodPost, "/v1/keys/commit", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NO_PENDING_KEY", errorCode(t, b))

	resp, _ = do(t, srv, http.MethodPost, "/v1/keys/rollback", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodDelete, "/v1/keys", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/v1/stamp", []byte("x"), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStampAndVerify(t *testing.T) {
	srv := newServer(t)
	resp, _ := do(t, srv, http.MethodPost, "/v1/keys/init", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := []byte(`{"method":"getAccounts"}`)
	resp, b := do(t, srv, http.MethodPost, "/v1/stamp", payload, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	var sr keys.StampResponse
	require.NoError(t, json.Unmarshal(b, &sr))
	assert.Equal(t, stamp.Header, sr.Header)
	assert.Equal(t, sr.Stamp, resp.Header.Get(stamp.Header))

	resp, b = do(t, srv, http.MethodPost, "/v1/verify", payload, map[string]string{stamp.Header: sr.Stamp})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	var vr keys.VerifyResponse
	require.NoError(t, json.Unmarshal(b, &vr))
	assert.True(t, vr.Valid)
	assert.Equal(t, "PKI", vr.Kind)
	assert.Equal(t, "Ed25519", vr.Algorithm)

	resp, b = do(t, srv, http.MethodPost, "/v1/verify", []byte("tampered"), map[string]string{stamp.Header: sr.Stamp})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_SIGNATURE", errorCode(t, b))

	resp, b = do(t, srv, http.MethodPost, "/v1/verify", payload, map[string]string{stamp.Header: "%%%"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MALFORMED_STAMP", errorCode(t, b))

	resp, _ = do(t, srv, http.MethodPost, "/v1/verify", payload, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStamp_OIDCHeaders(t *testing.T) {
	srv := newServer(t)
	resp, _ := do(t, srv, http.MethodPost, "/v1/keys/init", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, b := do(t, srv, http.MethodPost, "/v1/stamp", []byte("p"), map[string]string{
		keys.HeaderStampKind:    "oidc",
		keys.HeaderStampIDToken: "a.b.c",
		keys.HeaderStampSalt:    "salt-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	env, err := stamp.Decode(resp.Header.Get(stamp.Header))
	require.NoError(t, err)
	assert.Equal(t, stamp.KindOIDC, env.Kind)
	assert.Equal(t, "salt-1", env.Salt)

	resp, b = do(t, srv, http.MethodPost, "/v1/stamp", []byte("p"), map[string]string{keys.HeaderStampKind: "OIDC"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_STAMP_PARAMS", errorCode(t, b))
}

func TestNotFoundAndMetrics(t *testing.T) {
	srv := newServer(t)

	resp, b := do(t, srv, http.MethodGet, "/v1/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, b))

	resp, _ = do(t, srv, http.MethodPost, "/v1/keys/init", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, _ = do(t, srv, http.MethodPost, "/v1/stamp", []byte("x"), nil)

	resp, b = do(t, srv, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := string(b)
	assert.True(t, strings.Contains(body, "stamper_stamps_total"), body)
	assert.Contains(t, body, `path="/v1/stamp"`)
}
