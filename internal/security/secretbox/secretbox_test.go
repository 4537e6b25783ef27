package secretbox

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"
)

func testKey(seed byte) []byte {
	raw := make([]byte, KeySize)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	return raw
}

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()
	b, err := New(testKey(1))
	if err != nil {
		t.Fatalf("New err: %v", err)
	}

	msg := []byte("hola mundo ✓ secreto")
	ct, err := b.Seal(msg)
	if err != nil {
		t.Fatalf("Seal err: %v", err)
	}
	if bytes.Contains(ct, msg) {
		t.Fatalf("ciphertext contains plaintext")
	}
	pt, err := b.Open(ct)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if !bytes.Equal(pt, msg) {
		t.Fatalf("plaintext mismatch: got %q want %q", pt, msg)
	}
}

func TestOpen_DetectsTamper(t *testing.T) {
	t.Parallel()
	b, _ := New(testKey(200))

	ct, err := b.Seal([]byte("top secret"))
	if err != nil {
		t.Fatalf("Seal err: %v", err)
	}
	ct[len(ct)-1] ^= 0x01
	if _, err := b.Open(ct); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if _, err := b.Open([]byte("short")); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen for short blob, got %v", err)
	}
}

func TestOpen_WrongKey(t *testing.T) {
	t.Parallel()
	a, _ := New(testKey(1))
	b, _ := New(testKey(2))
	ct, _ := a.Seal([]byte("x"))
	if _, err := b.Open(ct); err == nil {
		t.Fatalf("expected error with wrong key")
	}
}

func TestParseKey_Formats(t *testing.T) {
	t.Parallel()
	raw := testKey(7)
	cases := map[string]string{
		"base64":     base64.StdEncoding.EncodeToString(raw),
		"base64_raw": base64.RawStdEncoding.EncodeToString(raw),
		"hex":        hex.EncodeToString(raw),
		"raw":        "0123456789abcdef0123456789abcdef",
	}
	for name, in := range cases {
		k, err := ParseKey(in)
		if err != nil {
			t.Fatalf("%s: ParseKey err: %v", name, err)
		}
		if len(k) != KeySize {
			t.Fatalf("%s: got %d bytes", name, len(k))
		}
	}
	if _, err := ParseKey(""); !errors.Is(err, ErrKeyMissing) {
		t.Fatalf("expected ErrKeyMissing, got %v", err)
	}
	if _, err := ParseKey("too-short"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvMasterKey, "")
	if _, err := FromEnv(); !errors.Is(err, ErrKeyMissing) {
		t.Fatalf("expected ErrKeyMissing, got %v", err)
	}
	k, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvMasterKey, k)
	if _, err := FromEnv(); err != nil {
		t.Fatalf("FromEnv err: %v", err)
	}
}

func TestWipe(t *testing.T) {
	t.Parallel()
	b, _ := New(testKey(3))
	ct, _ := b.Seal([]byte("x"))
	b.Wipe()
	if _, err := b.Open(ct); err == nil {
		t.Fatalf("expected Open to fail after Wipe")
	}
}
