package stamp

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stamper/internal/domain/repository"
	"github.com/dropDatabas3/stamper/internal/security/keycrypto"
)

func testKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey, repository.KeyInfo) {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return pub, priv, repository.KeyInfo{
		KeyID:     keycrypto.KeyID(pub),
		PublicKey: base58.Encode(pub),
		CreatedAt: time.Unix(0, 0),
	}
}

func TestParams(t *testing.T) {
	_, err := NewOIDC("", "salt")
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = NewOIDC("tok", " ")
	assert.ErrorIs(t, err, ErrInvalidParams)

	p, err := ParseParams("", "", "")
	require.NoError(t, err)
	assert.Equal(t, KindPKI, p.Kind())

	p, err = ParseParams("oidc", "tok", "s")
	require.NoError(t, err)
	assert.Equal(t, OIDC{IDToken: "tok", Salt: "s"}, p)

	_, err = ParseParams("PKI", "tok", "")
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = ParseParams("SAML", "", "")
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestEncode_PKIFieldOrder(t *testing.T) {
	pub, priv, info := testKey(t)
	sig := ed25519.Sign(priv, []byte("body"))

	s, err := Encode(sig, info, keycrypto.Ed25519, PKI{})
	require.NoError(t, err)
	assert.NotContains(t, s, "=")

	raw, err := base64.RawURLEncoding.DecodeString(s)
	require.NoError(t, err)
	want := `{"publicKey":"` + base64.RawURLEncoding.EncodeToString(pub) +
		`","signature":"` + base64.RawURLEncoding.EncodeToString(sig) +
		`","kind":"PKI","algorithm":"Ed25519"}`
	assert.Equal(t, want, string(raw))
}

func TestEncode_OIDCFieldOrder(t *testing.T) {
	_, priv, info := testKey(t)
	sig := ed25519.Sign(priv, []byte("body"))

	s, err := Encode(sig, info, keycrypto.Ed25519, OIDC{IDToken: "tok", Salt: "pepper"})
	require.NoError(t, err)
	raw, _ := base64.RawURLEncoding.DecodeString(s)

	var keys []string
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	_, _ = dec.Token()
	for dec.More() {
		tk, _ := dec.Token()
		keys = append(keys, tk.(string))
		_, _ = dec.Token()
	}
	assert.Equal(t, []string{"kind", "idToken", "publicKey", "salt", "algorithm", "signature"}, keys)
}

func TestEncode_Deterministic(t *testing.T) {
	_, priv, info := testKey(t)
	sig := ed25519.Sign(priv, []byte("x"))
	a, err := Encode(sig, info, keycrypto.Ed25519, PKI{})
	require.NoError(t, err)
	b, err := Encode(sig, info, keycrypto.Ed25519, PKI{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncode_Errors(t *testing.T) {
	_, priv, info := testKey(t)
	sig := ed25519.Sign(priv, []byte("x"))

	_, err := Encode(sig, info, keycrypto.Ed25519, OIDC{IDToken: "tok"})
	assert.ErrorIs(t, err, ErrInvalidParams)

	bad := info
	bad.PublicKey = "0OIl"
	_, err = Encode(sig, bad, keycrypto.Ed25519, PKI{})
	assert.ErrorIs(t, err, ErrMalformedStamp)
}

func TestRoundTripAndVerify(t *testing.T) {
	pub, priv, info := testKey(t)
	payload := []byte(`{"method":"signTransaction"}`)
	sig := ed25519.Sign(priv, payload)

	for _, p := range []Params{PKI{}, OIDC{IDToken: "a.b.c", Salt: "s"}} {
		s, err := Encode(sig, info, keycrypto.Ed25519, p)
		require.NoError(t, err)

		env, err := Decode(s)
		require.NoError(t, err)
		assert.Equal(t, p.Kind(), env.Kind)
		assert.Equal(t, []byte(pub), env.PublicKey)
		assert.Equal(t, sig, env.Signature)
		assert.Equal(t, keycrypto.Ed25519, env.Algorithm)
		assert.Equal(t, info.KeyID, env.KeyID())
		assert.Equal(t, info.PublicKey, env.PublicKeyBase58())

		require.NoError(t, Verify(env, payload))
		assert.ErrorIs(t, Verify(env, []byte("tampered")), ErrInvalidSignature)

		again, err := env.Encode()
		require.NoError(t, err)
		assert.Equal(t, s, again)
	}
}

func TestDecode_Strict(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	cases := map[string]string{
		"padding":        base64.URLEncoding.EncodeToString([]byte(`{"publicKey":"AA","signature":"AA","kind":"PKI" }`)),
		"std alphabet":   "+/+/",
		"not json":       enc("nope"),
		"unknown field":  enc(`{"publicKey":"AA","signature":"AA","kind":"PKI","extra":1}`),
		"unknown kind":   enc(`{"publicKey":"AA","signature":"AA","kind":"JWT"}`),
		"oidc no salt":   enc(`{"publicKey":"AA","signature":"AA","kind":"OIDC","idToken":"t"}`),
		"pki with token": enc(`{"publicKey":"AA","signature":"AA","kind":"PKI","idToken":"t"}`),
		"empty sig":      enc(`{"publicKey":"AA","signature":"","kind":"PKI"}`),
		"bad algorithm":  enc(`{"publicKey":"AA","signature":"AA","kind":"PKI","algorithm":"RSA"}`),
		"trailing":       enc(`{"publicKey":"AA","signature":"AA","kind":"PKI"}{}`),
	}
	for name, in := range cases {
		_, err := Decode(in)
		assert.ErrorIs(t, err, ErrMalformedStamp, name)
	}
}

func TestIDTokenClaims(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1", "iss": "https://accounts.example.com"})
	signed, err := tok.SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	env := Envelope{Kind: KindOIDC, IDToken: signed}
	claims, err := env.IDTokenClaims()
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])

	_, err = Envelope{Kind: KindPKI}.IDTokenClaims()
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = Envelope{Kind: KindOIDC, IDToken: "garbage"}.IDTokenClaims()
	assert.Error(t, err)
}

func TestAPIKeyStamper(t *testing.T) {
	pub, priv, _ := testKey(t)
	st, err := NewAPIKeyStamper(base58.Encode(priv))
	require.NoError(t, err)
	defer st.Close()
	assert.Equal(t, base58.Encode(pub), st.PublicKey())

	s, err := st.Stamp([]byte(""))
	require.NoError(t, err)

	raw, _ := base64.RawURLEncoding.DecodeString(s)
	assert.NotContains(t, string(raw), "algorithm")

	env, err := Decode(s)
	require.NoError(t, err)
	assert.Empty(t, env.Algorithm)
	assert.Equal(t, keycrypto.Ed25519, env.SigningAlgorithm())
	require.NoError(t, Verify(env, []byte("")))

	// sin "algorithm" el stamp re-codificado es idéntico
	again, err := env.Encode()
	require.NoError(t, err)
	assert.Equal(t, s, again)

	_, err = NewAPIKeyStamper("not-base58-0OIl")
	assert.Error(t, err)
}

func TestVerify_Dilithium3(t *testing.T) {
	p := keycrypto.NewProvider(nil)
	h, err := p.Generate(keycrypto.Dilithium3)
	require.NoError(t, err)
	sig, err := p.Sign(h, []byte("pq"))
	require.NoError(t, err)

	info := repository.KeyInfo{PublicKey: base58.Encode(h.PublicKey())}
	s, err := Encode(sig, info, keycrypto.Dilithium3, PKI{})
	require.NoError(t, err)
	env, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, keycrypto.Dilithium3, env.Algorithm)
	require.NoError(t, Verify(env, []byte("pq")))
}
