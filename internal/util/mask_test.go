package util

import "testing"

func TestMaskDSN(t *testing.T) {
	cases := map[string]string{
		"":                                   "",
		"postgres://app:s3cret@db:5432/keys": "postgres://app:xxxxx@db:5432/keys",
		"postgres://app@db/keys":             "postgres://app@db/keys",
		"host=db user=app password=s3cret":   "host=db user=app password=xxxxx",
		"postgres://db/keys?password=x&a=b":  "postgres://db/keys?a=b&password=xxxxx",
	}
	for in, want := range cases {
		if got := MaskDSN(in); got != want {
			t.Errorf("MaskDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("abc"); got != "***" {
		t.Errorf("short secret: %q", got)
	}
	if got := MaskSecret("abcdefghij"); got != "ab…ij" {
		t.Errorf("long secret: %q", got)
	}
}
