package api

import (
	"net/http"
)

// responseWriter records the status and size of a response and runs
// finish hooks once the boundary has written the final response
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
	route       string
	hooks       []func(*responseWriter)
	finished    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

// trackerOf returns the boundary's writer, or nil when w was not created by it
func trackerOf(w http.ResponseWriter) *responseWriter {
	rw, _ := w.(*responseWriter)
	return rw
}

// WriteHeader records the first final status code
func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

// Write implements http.ResponseWriter
func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Flush implements http.Flusher when the underlying writer does
func (w *responseWriter) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Status returns the status code sent, or 200 if none was sent explicitly
func (w *responseWriter) Status() int {
	return w.status
}

// Written reports whether the response status line has been sent
func (w *responseWriter) Written() bool {
	return w.wroteHeader
}

// routeLabel is the route template used for metrics
func (w *responseWriter) routeLabel() string {
	if w.route == "" {
		return "unmatched"
	}
	return w.route
}

// OnFinish registers fn to run after the final response has been written
func (w *responseWriter) OnFinish(fn func(*responseWriter)) {
	w.hooks = append(w.hooks, fn)
}

func (w *responseWriter) finish() {
	if w.finished {
		return
	}
	w.finished = true
	for _, fn := range w.hooks {
		fn(w)
	}
}
