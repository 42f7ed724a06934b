package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"interviewer/core"
	"interviewer/metrics"
	"interviewer/util/goroutine"
)

// boundary is the only adapter from the pipeline to net/http. It recovers
// panics, translates every error into an envelope and records metrics.
// Nothing escapes it.
func (a *API) boundary(next HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		if err := a.serve(next, rw, r); err != nil {
			a.translateError(rw, r, err)
		}

		rw.finish()
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, rw.routeLabel(), strconv.Itoa(rw.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, rw.routeLabel()).Observe(time.Since(start).Seconds())
	})
}

// serve runs the pipeline, converting a panic into a *core.PanicError
func (a *API) serve(next HandlerFunc, w *responseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.APIPanicsRecovered.WithLabelValues(r.Method, w.routeLabel()).Inc()
			err = goroutine.Capture(rec)
		}
	}()
	return next(w, r)
}

// translateError writes the envelope for err. Known errors keep their status
// and message; anything else is logged in full and reported as a 500 whose
// details are only exposed in development.
func (a *API) translateError(w *responseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := http.StatusText(http.StatusInternalServerError)
	requestFields := []interface{}{
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", w.Header().Get(RequestIDHeader),
	}

	if appErr, ok := core.AsAppError(err); ok {
		status = normalizeStatus(appErr.StatusCode)
		message = appErr.Message
		if status >= http.StatusInternalServerError {
			a.logger.Warnw("Request failed",
				append(requestFields, "status", status, "error", message)...)
		}
	} else {
		a.logger.Errorw("Unhandled error",
			append(requestFields, "error", err.Error(), "stack", core.StackTrace(err))...)
		if a.config.IsDevelopment() {
			message = err.Error()
		}
	}

	if w.Written() {
		a.logger.Errorw("Error raised after response was sent",
			append(requestFields, "status", w.Status(), "error", err.Error())...)
		return
	}

	envelope := Failure(message)
	if a.config.IsDevelopment() {
		envelope.Stack = stackOf(err)
	}

	if werr := writeJSON(w, status, envelope); werr != nil {
		a.logger.Errorw("Failed to write error response",
			append(requestFields, "error", werr.Error())...)
	}
}

// normalizeStatus maps codes that cannot describe a failure onto 500
func normalizeStatus(status int) int {
	if status < http.StatusBadRequest || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

func stackOf(err error) string {
	if stack := core.StackTrace(err); stack != "" {
		return stack
	}
	return fmt.Sprintf("Error: %s", err.Error())
}

// notFound converts an unmatched request into a known 404
func (a *API) notFound(w http.ResponseWriter, r *http.Request) error {
	return core.NotFound(fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path))
}
