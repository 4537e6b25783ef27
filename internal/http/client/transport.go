// Package client firma requests salientes hacia la wallet API con el header
// X-Phantom-Stamp.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dropDatabas3/stamper/internal/stamp"
)

// Signer produce el valor del header para un payload.
// *stamper.Manager lo implementa.
type Signer interface {
	Stamp(ctx context.Context, payload []byte, params stamp.Params) (string, error)
}

// Transport es un http.RoundTripper que firma el body de cada request.
// Un request sin body se firma como payload vacío.
type Transport struct {
	Signer Signer
	// Params nil usa los parámetros por defecto del Signer.
	Params stamp.Params
	// Base es el transporte real; nil usa http.DefaultTransport.
	Base http.RoundTripper
}

// NewTransport crea un Transport sobre base.
func NewTransport(signer Signer, params stamp.Params, base http.RoundTripper) *Transport {
	return &Transport{Signer: signer, Params: params, Base: base}
}

// NewClient devuelve un *http.Client que firma cada request.
func NewClient(signer Signer, params stamp.Params) *http.Client {
	return &http.Client{Transport: NewTransport(signer, params, nil)}
}

// RoundTrip implementa http.RoundTripper. No muta el request original pero,
// como exige el contrato, siempre cierra req.Body: el request saliente lleva
// una copia en memoria.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody {
		defer req.Body.Close()
	}
	payload, err := readBody(req)
	if err != nil {
		return nil, fmt.Errorf("stamp transport: read body: %w", err)
	}

	value, err := t.Signer.Stamp(req.Context(), payload, t.Params)
	if err != nil {
		return nil, fmt.Errorf("stamp transport: %w", err)
	}

	out := req.Clone(req.Context())
	out.Header.Set(stamp.Header, value)
	if req.Body != nil && req.Body != http.NoBody {
		out.Body = io.NopCloser(bytes.NewReader(payload))
		out.ContentLength = int64(len(payload))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
	}
	return t.base().RoundTrip(out)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// readBody lee el body completo. Prefiere GetBody para no consumir req.Body;
// el cierre de req.Body queda a cargo de RoundTrip.
func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return []byte{}, nil
	}
	if req.GetBody == nil {
		return io.ReadAll(req.Body)
	}
	rc, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
