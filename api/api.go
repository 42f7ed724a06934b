// Package api assembles the HTTP request pipeline of the interviewer service.
//
// Every request passes through the same ordered steps: security headers,
// CORS, request ID, request logging, body parsing, routing and not-found
// conversion. Steps and handlers return errors instead of writing failure
// responses themselves; the boundary returned by Handler converts every
// error, including recovered panics, into a JSON envelope.
package api

import (
	"net/http"
	"time"

	"interviewer/config"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HandlerFunc handles a request and reports failures by returning them
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Middleware is one step of the request pipeline
type Middleware func(next HandlerFunc) HandlerFunc

// Option configures an API
type Option func(*API)

// WithRoutes registers additional routes. They are matched after the health
// check and before the not-found fallback.
func WithRoutes(register func(r *Router)) Option {
	return func(a *API) {
		a.registrars = append(a.registrars, register)
	}
}

// API holds the assembled request pipeline
type API struct {
	router     *mux.Router
	config     *config.Config
	logger     *zap.SugaredLogger
	handler    http.Handler
	registrars []func(r *Router)
	now        func() time.Time
}

// NewAPI builds the pipeline for cfg. The returned API is immutable and safe
// for concurrent use.
func NewAPI(cfg *config.Config, logger *zap.SugaredLogger, opts ...Option) *API {
	a := &API{
		router: mux.NewRouter(),
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.setupRoutes()
	a.handler = a.boundary(Chain(a.dispatch,
		a.securityHeadersMiddleware,
		a.corsMiddleware,
		a.requestIDMiddleware,
		a.requestLoggingMiddleware,
		a.bodyParserMiddleware,
	))
	return a
}

// Handler returns the pipeline as an http.Handler
func (a *API) Handler() http.Handler {
	return a.handler
}

// setupRoutes sets up the API routes
func (a *API) setupRoutes() {
	r := &Router{mux: a.router}
	r.Get("/health", a.healthCheck)
	if a.config.MetricsEnabled {
		r.Get("/metrics", FromHTTPHandler(promhttp.Handler()))
	}
	for _, register := range a.registrars {
		register(r)
	}
}

// dispatch runs the matching route or reports the request as not found
func (a *API) dispatch(w http.ResponseWriter, r *http.Request) error {
	var match mux.RouteMatch
	if !a.router.Match(r, &match) || match.MatchErr != nil {
		return a.notFound(w, r)
	}

	h, ok := match.Handler.(route)
	if !ok {
		return a.notFound(w, r)
	}

	if tracked := trackerOf(w); tracked != nil {
		if tpl, err := match.Route.GetPathTemplate(); err == nil {
			tracked.route = tpl
		}
	}
	return h.fn(w, mux.SetURLVars(r, match.Vars))
}

// Chain wraps h with steps so that the first step runs first
func Chain(h HandlerFunc, steps ...Middleware) HandlerFunc {
	for i := len(steps) - 1; i >= 0; i-- {
		h = steps[i](h)
	}
	return h
}
