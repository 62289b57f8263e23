package server

import (
	"net/http"
	"slices"
	"strings"
)

// BasicRouter implements [Router] on top of [http.ServeMux] method patterns.
//
// Routers derived with [BasicRouter.With] share the mux and the route list, so unmatched methods on any
// registered path get a 405 from the mux.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	routes      *[]string
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:    http.NewServeMux(),
		routes: &[]string{},
	}
}

// Use appends [Middleware] to the stack. It only wraps handlers registered after the call.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// With returns a router sharing r's mux whose handlers are additionally wrapped with middleware.
func (r *BasicRouter) With(middleware ...Middleware) *BasicRouter {
	return &BasicRouter{
		mux:         r.mux,
		middlewares: append(slices.Clone(r.middlewares), middleware...),
		routes:      r.routes,
	}
}

// Handle registers handler for "METHOD path".
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.register(strings.ToUpper(method)+" "+path, r.Apply(handler))
}

// Handler registers handler under every pattern from [Handler.Routes], wrapped once.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)
	for _, route := range handler.Routes() {
		r.register(route, wrapped)
	}
}

// Routes lists registered patterns in registration order, which also makes a router mountable as a [Handler].
func (r *BasicRouter) Routes() []string {
	return slices.Clone(*r.routes)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler with the middleware stack; the first middleware added is the outermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for _, mw := range slices.Backward(r.middlewares) {
		wrapped = mw(wrapped)
	}
	return wrapped
}

func (r *BasicRouter) register(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
	*r.routes = append(*r.routes, pattern)
}
