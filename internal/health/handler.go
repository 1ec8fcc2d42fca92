// Package health exposes the liveness endpoint.
package health

import "net/http"

// Handler responds to health checks with a static JSON body.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
