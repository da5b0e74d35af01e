package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/tonlotto/backend/pkg/xcontext"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)
type MiddlewareFunc func(ctx context.Context) (context.Context, error)
type CloserFunc func(ctx context.Context)

type Router struct {
	mux *http.ServeMux
	ctx context.Context

	befores []MiddlewareFunc
	afters  []CloserFunc
}

// New creates a router on top of the given base context. The base context
// must carry the database, configs, and logger; every request handler runs
// with a child of it.
func New(ctx context.Context) *Router {
	return &Router{mux: http.NewServeMux(), ctx: ctx}
}

// Branch returns a router sharing the same mux but with an independent
// middleware chain, so route groups can add their own guards.
func (r *Router) Branch() *Router {
	return &Router{
		mux:     r.mux,
		ctx:     r.ctx,
		befores: append([]MiddlewareFunc{}, r.befores...),
		afters:  append([]CloserFunc{}, r.afters...),
	}
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.befores = append(r.befores, middleware)
}

func (r *Router) After(closer CloserFunc) {
	r.afters = append(r.afters, closer)
}

func (r *Router) Handler() http.Handler {
	return r.mux
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	register(r, http.MethodGet, pattern, handler)
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	register(r, http.MethodPost, pattern, handler)
}

func register[Request, Response any](
	r *Router, method, pattern string, handler HandlerFunc[Request, Response],
) {
	befores := append([]MiddlewareFunc{}, r.befores...)
	afters := append([]CloserFunc{}, r.afters...)

	r.mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
		ctx := xcontext.WithHTTPRequest(r.ctx, req)
		ctx = xcontext.WithHTTPWriter(ctx, w)

		if req.Method != method {
			writeResponse(ctx, newErrorResponse(errNotSupportedMethod))
			return
		}

		err := func() error {
			for _, m := range befores {
				// ctx only advances on success, so the error response below
				// always writes through a context that still carries the
				// http writer.
				next, err := m(ctx)
				if err != nil {
					return err
				}

				ctx = next
			}

			request := new(Request)
			if err := parseRequest(req, request); err != nil {
				xcontext.Logger(ctx).Debugf("Cannot parse request: %v", err)
				return errBadRequest
			}

			resp, err := handler(ctx, request)
			if err != nil {
				return err
			}

			writeResponse(ctx, newResponse(resp))
			return nil
		}()

		if err != nil {
			writeResponse(ctx, newErrorResponse(err))
		}

		for _, closer := range afters {
			closer(ctx)
		}
	})
}

// parseRequest binds URL query values (GET) or the JSON body (other methods)
// into the request struct. Query binding follows the json tags.
func parseRequest(req *http.Request, request any) error {
	if req.Method != http.MethodGet {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return err
		}

		if len(b) == 0 {
			return nil
		}

		return json.Unmarshal(b, request)
	}

	v := reflect.ValueOf(request).Elem()
	for i := 0; i < v.NumField(); i++ {
		name := v.Type().Field(i).Tag.Get("json")
		if name == "" || name == "-" {
			continue
		}

		queryVal := req.URL.Query().Get(name)
		if queryVal == "" {
			continue
		}

		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(queryVal)

		case reflect.Int, reflect.Int64:
			val, err := strconv.ParseInt(queryVal, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(val)

		case reflect.Float64:
			val, err := strconv.ParseFloat(queryVal, 64)
			if err != nil {
				return err
			}
			field.SetFloat(val)

		case reflect.Bool:
			val, err := strconv.ParseBool(queryVal)
			if err != nil {
				return err
			}
			field.SetBool(val)
		}
	}

	return nil
}
