package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"interviewer/config"
	"interviewer/core"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 6, 789_000_000, time.FixedZone("CET", 3600))

// newTestConfig returns a valid Config for mode
func newTestConfig(t *testing.T, mode config.Mode) *config.Config {
	t.Helper()
	env := map[string]string{
		config.EnvMode:        string(mode),
		config.EnvFrontendURL: "https://app.example.com",
	}
	if mode == config.ModeProduction {
		env[config.EnvDatabaseURL] = "postgres://db/interviews"
		env[config.EnvRedisURL] = "redis://cache:6379"
	}
	cfg, err := config.Load(env)
	require.NoError(t, err)
	return cfg
}

// setupTestAPI builds an API with an observed logger and a fixed clock
func setupTestAPI(t *testing.T, cfg *config.Config, opts ...Option) (*API, *observer.ObservedLogs) {
	t.Helper()
	observed, logs := observer.New(zapcore.DebugLevel)
	a := NewAPI(cfg, zap.New(observed).Sugar(), opts...)
	a.now = func() time.Time { return fixedNow }
	return a, logs
}

func serve(a *API, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "body: %s", rr.Body.String())
	return body
}

func TestHealthCheck(t *testing.T) {
	a, _ := setupTestAPI(t, newTestConfig(t, config.ModeDevelopment))

	rr := serve(a, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	body := decodeEnvelope(t, rr)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "error")
	assert.Equal(t, map[string]interface{}{
		"status":      "ok",
		"timestamp":   "2024-03-09T13:05:06.789Z",
		"environment": "development",
	}, body["data"])
}

func TestHealthCheck_ReportsMode(t *testing.T) {
	for _, mode := range []config.Mode{config.ModeDevelopment, config.ModeProduction, config.ModeTest} {
		t.Run(string(mode), func(t *testing.T) {
			a, _ := setupTestAPI(t, newTestConfig(t, mode))
			rr := serve(a, httptest.NewRequest(http.MethodGet, "/health?verbose=1", nil))
			require.Equal(t, http.StatusOK, rr.Code)

			data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
			assert.Equal(t, string(mode), data["environment"])
		})
	}
}

func TestHealthCheck_Head(t *testing.T) {
	a, _ := setupTestAPI(t, newTestConfig(t, config.ModeTest))
	rr := serve(a, httptest.NewRequest(http.MethodHead, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNotFound(t *testing.T) {
	t.Run("development includes stack", func(t *testing.T) {
		a, _ := setupTestAPI(t, newTestConfig(t, config.ModeDevelopment))
		rr := serve(a, httptest.NewRequest(http.MethodGet, "/nope?page=2", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		body := decodeEnvelope(t, rr)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Route GET /nope not found", body["error"])
		assert.NotContains(t, body, "data")
		assert.Contains(t, body["stack"], "Error: Route GET /nope not found")
	})

	t.Run("production omits stack", func(t *testing.T) {
		a, _ := setupTestAPI(t, newTestConfig(t, config.ModeProduction))
		rr := serve(a, httptest.NewRequest(http.MethodDelete, "/api/interviews/42", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"success":false,"error":"Route DELETE /api/interviews/42 not found"}`, rr.Body.String())
	})

	t.Run("wrong method", func(t *testing.T) {
		a, _ := setupTestAPI(t, newTestConfig(t, config.ModeTest))
		rr := serve(a, httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Route POST /health not found", decodeEnvelope(t, rr)["error"])
	})

	t.Run("repeatable", func(t *testing.T) {
		a, _ := setupTestAPI(t, newTestConfig(t, config.ModeProduction))
		first := serve(a, httptest.NewRequest(http.MethodGet, "/missing", nil))
		second := serve(a, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, first.Code, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
	})
}

func failingRoutes(err error) Option {
	return WithRoutes(func(r *Router) {
		r.Get("/fail", func(w http.ResponseWriter, r *http.Request) error {
			return err
		})
	})
}

func TestErrorTranslation_KnownErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"bad request", core.BadRequest("name is required"), http.StatusBadRequest, "name is required"},
		{"unauthorized", core.Unauthorized(""), http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", core.Forbidden("not your interview"), http.StatusForbidden, "not your interview"},
		{"conflict", core.Conflict("already started"), http.StatusConflict, "already started"},
		{"wrapped", errors.Join(errors.New("context"), core.NotFound("no such session")), http.StatusNotFound, "no such session"},
		{"internal", core.Internal("upstream timed out"), http.StatusInternalServerError, "upstream timed out"},
		{"non-error status", core.NewAppError(http.StatusOK, "odd"), http.StatusInternalServerError, "odd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range []config.Mode{config.ModeProduction, config.ModeDevelopment} {
				a, _ := setupTestAPI(t, newTestConfig(t, mode), failingRoutes(tt.err))
				rr := serve(a, httptest.NewRequest(http.MethodGet, "/fail", nil))

				assert.Equal(t, tt.status, rr.Code, mode)
				body := decodeEnvelope(t, rr)
				assert.Equal(t, false, body["success"])
				assert.Equal(t, tt.message, body["error"], "known messages are kept in %s", mode)
				if mode == config.ModeProduction {
					assert.NotContains(t, body, "stack")
				} else {
					assert.NotEmpty(t, body["stack"])
				}
			}
		})
	}
}

func TestErrorTranslation_KnownErrorLogging(t *testing.T) {
	a, logs := setupTestAPI(t, newTestConfig(t, config.ModeTest), failingRoutes(core.BadRequest("bad input")))
	serve(a, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), "4xx known errors are not logged")

	a, logs = setupTestAPI(t, newTestConfig(t, config.ModeTest), failingRoutes(core.Internal("")))
	serve(a, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, 1, logs.FilterMessage("Request failed").FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestErrorTranslation_UnexpectedError(t *testing.T) {
	dbErr := errors.New("connection to 10.0.0.5:5432 refused")

	t.Run("production hides details", func(t *testing.T) {
		a, logs := setupTestAPI(t, newTestConfig(t, config.ModeProduction), failingRoutes(dbErr))
		rr := serve(a, httptest.NewRequest(http.MethodGet, "/fail", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"success":false,"error":"Internal Server Error"}`, rr.Body.String())
		assert.NotContains(t, rr.Body.String(), "10.0.0.5")

		entries := logs.FilterMessage("Unhandled error").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
		fields := entries[0].ContextMap()
		assert.Equal(t, dbErr.Error(), fields["error"])
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/fail", fields["path"])
		assert.NotEmpty(t, fields["request_id"])
	})

	t.Run("development exposes message and stack", func(t *testing.T) {
		a, _ := setupTestAPI(t, newTestConfig(t, config.ModeDevelopment), failingRoutes(dbErr))
		rr := serve(a, httptest.NewRequest(http.MethodGet, "/fail", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeEnvelope(t, rr)
		assert.Equal(t, dbErr.Error(), body["error"])
		assert.Equal(t, "Error: "+dbErr.Error(), body["stack"])
	})

	t.Run("test mode hides details", func(t *testing.T) {
		a, _ := setupTestAPI(t, newTestConfig(t, config.ModeTest), failingRoutes(dbErr))
		rr := serve(a, httptest.NewRequest(http.MethodGet, "/fail", nil))
		assert.JSONEq(t, `{"success":false,"error":"Internal Server Error"}`, rr.Body.String())
	})
}

func TestErrorTranslation_Panic(t *testing.T) {
	panicking := WithRoutes(func(r *Router) {
		r.Get("/panic", func(w http.ResponseWriter, r *http.Request) error {
			var interviews map[string]int
			interviews["first"]++
			return nil
		})
	})

	a, logs := setupTestAPI(t, newTestConfig(t, config.ModeProduction), panicking)

	var rr *httptest.ResponseRecorder
	require.NotPanics(t, func() {
		rr = serve(a, httptest.NewRequest(http.MethodGet, "/panic", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal Server Error"}`, rr.Body.String())

	entries := logs.FilterMessage("Unhandled error").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "assignment to entry in nil map")
	assert.Contains(t, entries[0].ContextMap()["stack"], "goroutine")

	// the process keeps serving
	rr = serve(a, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestErrorTranslation_PanicDevelopment(t *testing.T) {
	a, _ := setupTestAPI(t, newTestConfig(t, config.ModeDevelopment), WithRoutes(func(r *Router) {
		r.Get("/panic", func(w http.ResponseWriter, r *http.Request) error {
			panic("interviewer state corrupted")
		})
	}))

	rr := serve(a, httptest.NewRequest(http.MethodGet, "/panic", nil))
	body := decodeEnvelope(t, rr)
	assert.Equal(t, "interviewer state corrupted", body["error"])
	assert.Contains(t, body["stack"], "goroutine")
}

func TestErrorTranslation_AfterResponseStarted(t *testing.T) {
	a, logs := setupTestAPI(t, newTestConfig(t, config.ModeProduction), WithRoutes(func(r *Router) {
		r.Get("/partial", func(w http.ResponseWriter, r *http.Request) error {
			if err := Respond(w, http.StatusAccepted, map[string]string{"state": "queued"}); err != nil {
				return err
			}
			return errors.New("audit write failed")
		})
	}))

	rr := serve(a, httptest.NewRequest(http.MethodGet, "/partial", nil))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"state":"queued"}}`, rr.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("Error raised after response was sent").Len())
}

func TestRouteVariables(t *testing.T) {
	a, _ := setupTestAPI(t, newTestConfig(t, config.ModeTest), WithRoutes(func(r *Router) {
		r.Get("/api/interviews/{id}", func(w http.ResponseWriter, r *http.Request) error {
			return Respond(w, http.StatusOK, map[string]string{"id": Vars(r)["id"]})
		})
	}))

	rr := serve(a, httptest.NewRequest(http.MethodGet, "/api/interviews/abc-123", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"abc-123"}}`, rr.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	a, _ := setupTestAPI(t, newTestConfig(t, config.ModeProduction), failingRoutes(errors.New("boom")))

	for _, path := range []string{"/health", "/missing", "/fail"} {
		t.Run(path, func(t *testing.T) {
			rr := serve(a, httptest.NewRequest(http.MethodGet, path, nil))
			for _, kv := range securityHeaders {
				assert.Equal(t, kv[1], rr.Header().Get(kv[0]), kv[0])
			}
			assert.Empty(t, rr.Header().Get("X-Powered-By"))
		})
	}
}

func TestCORS(t *testing.T) {
	a, _ := setupTestAPI(t, newTestConfig(t, config.ModeTest))

	t.Run("simple request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rr := serve(a, req)

		assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, rr.Header().Values("Vary"), "Origin")
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/interviews", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "content-type,x-request-id")
		rr := serve(a, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
		assert.Equal(t, CORSAllowedMethods, rr.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "content-type,x-request-id", rr.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, rr.Header().Get("X-Frame-Options"), "security headers apply to preflights")
	})

	t.Run("plain options is routed", func(t *testing.T) {
		rr := serve(a, httptest.NewRequest(http.MethodOptions, "/health", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestID(t *testing.T) {
	a, _ := setupTestAPI(t, newTestConfig(t, config.ModeTest), WithRoutes(func(r *Router) {
		r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) error {
			id, _ := GetRequestID(r.Context())
			return Respond(w, http.StatusOK, id)
		})
	}))

	t.Run("generated", func(t *testing.T) {
		rr := serve(a, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		id := rr.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, decodeEnvelope(t, rr)["data"])
	})

	t.Run("honoured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(RequestIDHeader, "trace-42_a")
		rr := serve(a, req)
		assert.Equal(t, "trace-42_a", rr.Header().Get(RequestIDHeader))
	})

	t.Run("sanitized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(RequestIDHeader, "abc\nlevel=error "+strings.Repeat("x", 100))
		rr := serve(a, req)
		id := rr.Header().Get(RequestIDHeader)
		assert.NotContains(t, id, "\n")
		assert.LessOrEqual(t, len(id), 64)
		assert.True(t, strings.HasPrefix(id, "abclevelerror"))
	})

	t.Run("present on errors", func(t *testing.T) {
		rr := serve(a, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
	})
}

func TestNewAPI_IndependentInstances(t *testing.T) {
	dev, _ := setupTestAPI(t, newTestConfig(t, config.ModeDevelopment))
	prod, _ := setupTestAPI(t, newTestConfig(t, config.ModeProduction))

	devBody := decodeEnvelope(t, serve(dev, httptest.NewRequest(http.MethodGet, "/x", nil)))
	prodBody := decodeEnvelope(t, serve(prod, httptest.NewRequest(http.MethodGet, "/x", nil)))

	assert.Contains(t, devBody, "stack")
	assert.NotContains(t, prodBody, "stack")
}

func TestChain_Order(t *testing.T) {
	var order []string
	step := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return next(w, r)
			}
		}
	}

	h := Chain(func(w http.ResponseWriter, r *http.Request) error {
		order = append(order, "handler")
		return nil
	}, step("first"), step("second"), step("third"))

	require.NoError(t, h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, []string{"first", "second", "third", "handler"}, order)
}
