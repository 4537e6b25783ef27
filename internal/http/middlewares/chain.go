package middlewares

import "net/http"

// Middleware decora un http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain envuelve h con mws; el primero queda más afuera:
// Chain(h, recover, requestID) atiende recover -> requestID -> h.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Stack compone mws en un único Middleware, en el mismo orden que Chain.
func Stack(mws ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		return Chain(next, mws...)
	}
}

// APIStack es la pila de /v1. Recover va primero para cubrir al resto; el
// request id antecede al logging para que el logger scoped lo lleve.
func APIStack() Middleware {
	return Stack(
		WithRecover(),
		WithRequestID(),
		WithLogging(),
		WithInflight(),
		WithMetrics(),
	)
}
