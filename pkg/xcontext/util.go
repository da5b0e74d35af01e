package xcontext

import (
	"context"
	"net/http"
)

type (
	httpRequestKey struct{}
	httpWriterKey  struct{}
	requestRoleKey struct{}
)

func WithHTTPRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, httpRequestKey{}, r)
}

func HTTPRequest(ctx context.Context) *http.Request {
	if r, ok := ctx.Value(httpRequestKey{}).(*http.Request); ok {
		return r
	}

	return nil
}

func WithHTTPWriter(ctx context.Context, w http.ResponseWriter) context.Context {
	return context.WithValue(ctx, httpWriterKey{}, w)
}

func HTTPWriter(ctx context.Context) http.ResponseWriter {
	if w, ok := ctx.Value(httpWriterKey{}).(http.ResponseWriter); ok {
		return w
	}

	return nil
}

// WithRequestRole records the role carried by the verified access token of
// the current request.
func WithRequestRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, requestRoleKey{}, role)
}

func RequestRole(ctx context.Context) string {
	if role, ok := ctx.Value(requestRoleKey{}).(string); ok {
		return role
	}

	return ""
}
