package keys

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/security/keycrypto"
	"github.com/dropDatabas3/stamper/internal/stamp"
	"github.com/dropDatabas3/stamper/internal/stamper"
)

type fakeManager struct {
	err        error
	commitAuth string
	lastParams stamp.Params
}

func (f *fakeManager) KeyInfo() (repository.KeyInfo, bool) { return repository.KeyInfo{}, false }
func (f *fakeManager) PendingKeyInfo() (repository.KeyInfo, bool) { return repository.KeyInfo{}, false }
func (f *fakeManager) State() stamper.State { return stamper.StateActive }
func (f *fakeManager) Algorithm() keycrypto.Algorithm { return keycrypto.Ed25519 }
func (f *fakeManager) ExpirationInfo() stamper.ExpirationInfo { return stamper.ExpirationInfo{} }

func (f *fakeManager) Stamp(_ context.Context, _ []byte, p stamp.Params) (string, error) {
	f.lastParams = p
	return "stamp", f.err
}
func (f *fakeManager) Init(context.Context) (repository.KeyInfo, error) {
	return repository.KeyInfo{}, f.err
}
func (f *fakeManager) RotateKeyPair(context.Context) (repository.KeyInfo, error) {
	return repository.KeyInfo{}, f.err
}
func (f *fakeManager) CommitRotation(_ context.Context, auth string) error {
	f.commitAuth = auth
	return f.err
}
func (f *fakeManager) RollbackRotation(context.Context) error { return f.err }
func (f *fakeManager) ResetKeyPair(context.Context) (repository.KeyInfo, error) {
	return repository.KeyInfo{}, f.err
}
func (f *fakeManager) Clear(context.Context) error { return f.err }

func TestKeysController_StorageErrorIs503(t *testing.T) {
	f := &fakeManager{err: repository.NewStorageError("redis", "put", repository.RolePending, errors.New("conn refused"))}
	c := NewKeysController(f)

	rec := httptest.NewRecorder()
	c.Rotate(rec, httptest.NewRequest(http.MethodPost, "/v1/keys/rotate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "conn refused")
}

func TestKeysController_Commit(t *testing.T) {
	f := &fakeManager{}
	c := NewKeysController(f)

	rec := httptest.NewRecorder()
	c.Commit(rec, httptest.NewRequest(http.MethodPost, "/v1/keys/commit", strings.NewReader(`{"authenticatorId":" a1 "}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a1", f.commitAuth)

	rec = httptest.NewRecorder()
	c.Commit(rec, httptest.NewRequest(http.MethodPost, "/v1/keys/commit", strings.NewReader(`{bad`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	c.Commit(rec, httptest.NewRequest(http.MethodPost, "/v1/keys/commit", strings.NewReader(strings.Repeat(" ", maxCommitBody+10))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStampController_ParamsFromHeaders(t *testing.T) {
	f := &fakeManager{}
	c := NewStampController(f, 0)

	rec := httptest.NewRecorder()
	c.Stamp(rec, httptest.NewRequest(http.MethodPost, "/v1/stamp", strings.NewReader("p")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.lastParams)
	assert.Equal(t, "stamp", rec.Header().Get(stamp.Header))

	req := httptest.NewRequest(http.MethodPost, "/v1/stamp", strings.NewReader("p"))
	req.Header.Set(HeaderStampKind, "pki")
	rec = httptest.NewRecorder()
	c.Stamp(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, stamp.PKI{}, f.lastParams)

	req = httptest.NewRequest(http.MethodPost, "/v1/stamp", strings.NewReader("p"))
	req.Header.Set(HeaderStampIDToken, "tok")
	req.Header.Set(HeaderStampSalt, "s")
	rec = httptest.NewRecorder()
	c.Stamp(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, stamp.OIDC{IDToken: "tok", Salt: "s"}, f.lastParams)
}

func TestStampController_PayloadTooLarge(t *testing.T) {
	c := NewStampController(&fakeManager{}, 8)
	rec := httptest.NewRecorder()
	c.Stamp(rec, httptest.NewRequest(http.MethodPost, "/v1/stamp", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStampController_VerifyAPIKeyStamp(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	st, err := stamp.NewAPIKeyStamper(base58.Encode(priv))
	require.NoError(t, err)
	defer st.Close()
	body := `{"method":"getAccounts"}`
	s, err := st.Stamp([]byte(body))
	require.NoError(t, err)

	c := NewStampController(&fakeManager{}, 0)
	req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader(body))
	req.Header.Set(stamp.Header, s)
	rec := httptest.NewRecorder()
	c.Verify(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Valid)
	assert.Equal(t, string(keycrypto.Ed25519), out.Algorithm)
	assert.Equal(t, st.KeyID(), out.KeyID)
}
