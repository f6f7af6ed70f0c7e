package handlers

import (
	"net/http"
	"time"

	"github.com/indureport/indureportgo/internal/buildinfo"
)

// healthCheck answers load balancer and mobile connectivity probes
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// getStatus reports server identity and uptime
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"version":     buildinfo.Version,
		"environment": r.cfg.NodeEnv,
		"uptime":      time.Since(buildinfo.StartTime).Round(time.Second).String(),
		"buildTime":   buildinfo.BuildTime,
		"commit":      buildinfo.CommitHash,
	})
}

// getAppVersion tells mobile clients the oldest app build still supported
func (r *Router) getAppVersion(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"version":    buildinfo.Version,
		"minVersion": buildinfo.MinAppVersion,
	})
}

// getMaintenance reports whether the backend is in a maintenance window.
// Kept as an endpoint so clients can poll it; toggling happens via deploys.
func (r *Router) getMaintenance(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"maintenance": false,
		"message":     "",
	})
}
