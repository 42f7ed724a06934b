package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"interviewer/core"
)

// MaxBodyBytes caps JSON and form request bodies
const MaxBodyBytes = 10 << 10

// CORSAllowedMethods is the method list returned on preflight requests
const CORSAllowedMethods = "GET,HEAD,PUT,PATCH,POST,DELETE"

// corsMiddleware allows the configured frontend origin with credentials and
// answers preflight requests directly
func (a *API) corsMiddleware(next HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", a.config.FrontendURL)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
			return next(w, r)
		}

		h.Set("Access-Control-Allow-Methods", CORSAllowedMethods)
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			h.Set("Access-Control-Allow-Headers", requested)
			h.Add("Vary", "Access-Control-Request-Headers")
		}
		h.Set("Content-Length", "0")
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

// requestLoggingMiddleware logs each request once its final response has been
// written. Development gets a short line per request, production gets the
// combined log fields, and test mode logs nothing.
func (a *API) requestLoggingMiddleware(next HandlerFunc) HandlerFunc {
	if a.config.IsTest() {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		start := time.Now()
		if tracked := trackerOf(w); tracked != nil {
			tracked.OnFinish(func(rw *responseWriter) {
				a.logRequest(r, rw, time.Since(start))
			})
		}
		return next(w, r)
	}
}

func (a *API) logRequest(r *http.Request, rw *responseWriter, elapsed time.Duration) {
	size := "-"
	if rw.bytes > 0 {
		size = strconv.Itoa(rw.bytes)
	}
	ms := float64(elapsed.Microseconds()) / 1000

	if a.config.IsDevelopment() {
		a.logger.Infof("%s %s %d %.3f ms - %s", r.Method, r.URL.RequestURI(), rw.Status(), ms, size)
		return
	}

	remoteUser := "-"
	if user, _, ok := r.BasicAuth(); ok && user != "" {
		remoteUser = user
	}
	a.logger.Infow("request",
		"remote_addr", clientIP(r),
		"remote_user", remoteUser,
		"time", time.Now().UTC().Format("02/Jan/2006:15:04:05 -0700"),
		"method", r.Method,
		"url", r.URL.RequestURI(),
		"proto", r.Proto,
		"status", rw.Status(),
		"bytes", size,
		"referrer", r.Referer(),
		"user_agent", r.UserAgent(),
		"duration_ms", ms,
		"request_id", rw.Header().Get(RequestIDHeader),
	)
}

// bodyParserMiddleware reads JSON and urlencoded bodies up to MaxBodyBytes.
// Other content types pass through untouched.
func (a *API) bodyParserMiddleware(next HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			return next(w, r)
		}

		switch {
		case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
			body, err := readBody(w, r)
			if err != nil {
				return err
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			if len(bytes.TrimSpace(body)) == 0 {
				return next(w, r)
			}
			if err := validateJSONBody(body); err != nil {
				return err
			}
			return next(w, r.WithContext(withJSONBody(r.Context(), json.RawMessage(body))))

		case mediaType == "application/x-www-form-urlencoded":
			body, err := readBody(w, r)
			if err != nil {
				return err
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			if err := r.ParseForm(); err != nil {
				return core.BadRequest("Invalid form body")
			}
			return next(w, r)
		}

		return next(w, r)
	}
}

// readBody reads at most MaxBodyBytes, rejecting larger bodies with a 413
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.ContentLength > MaxBodyBytes {
		return nil, core.PayloadTooLarge("")
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, core.PayloadTooLarge("")
		}
		return nil, core.BadRequest("Unable to read request body")
	}
	return body, nil
}

// validateJSONBody accepts only objects and arrays at the top level
func validateJSONBody(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return core.BadRequest("JSON body must be an object or an array")
	}

	if !json.Valid(trimmed) {
		var probe interface{}
		err := json.Unmarshal(trimmed, &probe)
		var syntaxError *json.SyntaxError
		if errors.As(err, &syntaxError) {
			return core.BadRequest(fmt.Sprintf("Invalid JSON syntax at byte offset %d", syntaxError.Offset))
		}
		return core.BadRequest("Invalid JSON body")
	}
	return nil
}
