// Package connectprop binds scoped contexts around ConnectRPC handlers.
//
// The interceptors here carry no wire format: nothing is injected into or
// read from request metadata. They only bracket handler execution with an
// attach/detach pair on the serving goroutine, so handler code (and
// whatever it calls) can read ambient values through scope.Current.
package connectprop

import (
	"context"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/contextkit/propagate"
	"github.com/contextkit/propagate/scope"
)

// Fixed returns a unary interceptor that runs every handler under tc,
// regardless of what is current on the serving goroutine. Use it to give
// all handlers of a service a common ambient context (service name,
// environment, shared credentials).
func Fixed(tc *scope.ThreadContext) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return scope.Call(tc, func() (connect.AnyResponse, error) {
				return next(ctx, req)
			})
		}
	}
}

// WithRequestID returns a unary interceptor that derives from the current
// context and stamps a fresh UUIDv7 request id under key for the duration
// of each handler call.
func WithRequestID(key *propagate.Key[string]) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			tc := scope.WithValue(scope.Current(), key, uuid.Must(uuid.NewV7()).String())
			return scope.Call(tc, func() (connect.AnyResponse, error) {
				return next(ctx, req)
			})
		}
	}
}
