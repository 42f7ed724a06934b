package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"interviewer/core"
)

// JSONBody returns the JSON request body validated by the body parser
func JSONBody(r *http.Request) (json.RawMessage, bool) {
	body, ok := r.Context().Value(ContextKeyJSONBody).(json.RawMessage)
	return body, ok
}

// DecodeJSON decodes the parsed JSON body into dst. Unknown fields and type
// mismatches are reported as 400 errors.
func DecodeJSON(r *http.Request, dst interface{}) error {
	body, ok := JSONBody(r)
	if !ok {
		return core.BadRequest("Request body must be JSON")
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if err == nil {
		return nil
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &unmarshalTypeError):
		return core.BadRequest(fmt.Sprintf("Invalid type for field '%s': expected %s, got %s",
			unmarshalTypeError.Field, unmarshalTypeError.Type, unmarshalTypeError.Value))
	case strings.Contains(err.Error(), "unknown field"):
		return core.BadRequest(fmt.Sprintf("JSON contains %s", strings.TrimPrefix(err.Error(), "json: ")))
	default:
		return core.BadRequest("Invalid JSON body")
	}
}

// clientIP returns the first X-Forwarded-For entry, X-Real-IP, or the peer address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
