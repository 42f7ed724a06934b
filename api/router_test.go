package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoute_ServedDirectlyKeepsEnvelope(t *testing.T) {
	rt := route{fn: func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("storage offline")
	}}

	rr := httptest.NewRecorder()
	rt.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":"Internal Server Error"}`, rr.Body.String())
}

func TestRoute_ServedDirectlySuccess(t *testing.T) {
	rt := route{fn: func(w http.ResponseWriter, r *http.Request) error {
		return Respond(w, http.StatusCreated, map[string]string{"id": "42"})
	}}

	rr := httptest.NewRecorder()
	rt.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"42"}}`, rr.Body.String())
}
