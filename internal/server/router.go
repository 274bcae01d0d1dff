package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	drainers    []drainer
}

var _ Router = (*BasicRouter)(nil)

// drainer is a [Handler] that leaves work running after its response is written.
type drainer interface {
	Wait(ctx context.Context) error
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the specified HTTP method and path.
//
// The handler is wrapped with all registered middleware.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(path, r.Apply(allowMethods(handler, method)))
}

// Handler registers a custom Handler implementation for GET requests.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(allowMethods(handler, http.MethodGet, http.MethodHead))

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
	if d, ok := handler.(drainer); ok {
		r.drainers = append(r.drainers, d)
	}
}

// Wait blocks until every registered handler's background work has settled, or ctx ends.
func (r *BasicRouter) Wait(ctx context.Context) error {
	var errs []error
	for _, d := range r.drainers {
		if err := d.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Static serves files from dir at "/". It reports false, registering nothing, when dir is not a directory.
func (r *BasicRouter) Static(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	r.mux.Handle("/", r.Apply(allowMethods(http.FileServer(http.Dir(dir)), http.MethodGet, http.MethodHead)))
	return true
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}

func allowMethods(handler http.Handler, methods ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		for _, m := range methods {
			if strings.EqualFold(req.Method, m) {
				handler.ServeHTTP(w, req)
				return
			}
		}
		w.Header().Set("Allow", strings.Join(methods, ", "))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}
