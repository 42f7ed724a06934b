package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// nullData keeps "data" present in a success envelope built from a nil value
var nullData = json.RawMessage("null")

// Envelope is the JSON shape of every response body. Exactly one of Data and
// Error is set; Stack is only set in development.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Stack   string      `json:"stack,omitempty"`
}

// Success builds a success envelope carrying data
func Success(data interface{}) Envelope {
	if data == nil {
		data = nullData
	}
	return Envelope{Success: true, Data: data}
}

// Failure builds an error envelope. An empty message becomes the generic
// internal error message.
func Failure(message string) Envelope {
	if message == "" {
		message = http.StatusText(http.StatusInternalServerError)
	}
	return Envelope{Success: false, Error: message}
}

// Respond writes data in a success envelope with the given status
func Respond(w http.ResponseWriter, status int, data interface{}) error {
	return writeJSON(w, status, Success(data))
}

// writeJSON encodes body before sending headers so an encoding failure can
// still be reported as an error response
func writeJSON(w http.ResponseWriter, status int, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}
