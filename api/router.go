package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router registers error-returning handlers on the pipeline's route table
type Router struct {
	mux *mux.Router
}

// route adapts a HandlerFunc so it can live in the mux route table. The
// pipeline calls fn directly; ServeHTTP is only reached if the route table
// is served on its own.
type route struct {
	fn HandlerFunc
}

func (rt route) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := rt.fn(w, r); err != nil {
		_ = writeJSON(w, http.StatusInternalServerError, Failure(http.StatusText(http.StatusInternalServerError)))
	}
}

// Handle registers h for path, restricted to methods when any are given
func (r *Router) Handle(path string, h HandlerFunc, methods ...string) *mux.Route {
	rt := r.mux.Handle(path, route{fn: h})
	if len(methods) > 0 {
		rt = rt.Methods(methods...)
	}
	return rt
}

// Get registers h for GET and HEAD requests
func (r *Router) Get(path string, h HandlerFunc) *mux.Route {
	return r.Handle(path, h, http.MethodGet, http.MethodHead)
}

// Post registers h for POST requests
func (r *Router) Post(path string, h HandlerFunc) *mux.Route {
	return r.Handle(path, h, http.MethodPost)
}

// Put registers h for PUT requests
func (r *Router) Put(path string, h HandlerFunc) *mux.Route {
	return r.Handle(path, h, http.MethodPut)
}

// Patch registers h for PATCH requests
func (r *Router) Patch(path string, h HandlerFunc) *mux.Route {
	return r.Handle(path, h, http.MethodPatch)
}

// Delete registers h for DELETE requests
func (r *Router) Delete(path string, h HandlerFunc) *mux.Route {
	return r.Handle(path, h, http.MethodDelete)
}

// FromHTTPHandler adapts a plain http.Handler that never fails
func FromHTTPHandler(h http.Handler) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		h.ServeHTTP(w, r)
		return nil
	}
}

// Vars returns the route variables for the current request
func Vars(r *http.Request) map[string]string {
	return mux.Vars(r)
}
