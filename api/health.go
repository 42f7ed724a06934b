package api

import (
	"net/http"
)

// HealthTimestampFormat is ISO-8601 in UTC with millisecond precision
const HealthTimestampFormat = "2006-01-02T15:04:05.000Z"

// HealthData is the payload of GET /health
type HealthData struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

// healthCheck reports liveness. It does not probe the store or the cache.
func (a *API) healthCheck(w http.ResponseWriter, r *http.Request) error {
	return Respond(w, http.StatusOK, HealthData{
		Status:      "ok",
		Timestamp:   a.now().UTC().Format(HealthTimestampFormat),
		Environment: string(a.config.Mode),
	})
}
