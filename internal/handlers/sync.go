package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/indureport/indureportgo/internal/middleware"
	"github.com/indureport/indureportgo/internal/models"
	"github.com/indureport/indureportgo/internal/sync"
)

// syncStatusStore is the slice of the report store the status endpoint needs
type syncStatusStore interface {
	PendingCount(ctx context.Context, userID string) (int64, error)
	LastSyncedAt(ctx context.Context, userID string) (*time.Time, error)
}

// SyncHandler exposes the offline-first synchronization endpoints
type SyncHandler struct {
	coordinator *sync.Coordinator
	status      syncStatusStore
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(coordinator *sync.Coordinator, status syncStatusStore) *SyncHandler {
	return &SyncHandler{
		coordinator: coordinator,
		status:      status,
	}
}

// RegisterRoutes registers sync routes on an authenticated subrouter.
// /upload and /download are the paths the original mobile builds call;
// the bare methods are the canonical surface.
func (sh *SyncHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", sh.Upload).Methods("POST")
	r.HandleFunc("", sh.Download).Methods("GET")
	r.HandleFunc("/upload", sh.Upload).Methods("POST")
	r.HandleFunc("/download", sh.Download).Methods("GET")
	r.HandleFunc("/status", sh.GetStatus).Methods("GET")
}

// uploadRequest accepts either a batch or a single bare draft
type uploadRequest struct {
	Reports []models.ReportDraft `json:"reports"`
}

// Upload runs a full sync exchange: reconcile the uploaded batch, then
// return the delta the caller is missing. Safe to retry; resubmitted drafts
// update in place instead of duplicating.
func (sh *SyncHandler) Upload(w http.ResponseWriter, req *http.Request) {
	p, ok := middleware.PrincipalFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var drafts []models.ReportDraft
	var batch uploadRequest
	if err := json.Unmarshal(raw, &batch); err == nil && batch.Reports != nil {
		drafts = batch.Reports
	} else {
		// Single bare draft, the shape early mobile builds send
		var single models.ReportDraft
		if err := json.Unmarshal(raw, &single); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		drafts = []models.ReportDraft{single}
	}

	result, err := sh.coordinator.Exchange(req.Context(), p, drafts, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Sync exchange failed")
		return
	}

	outcomes := result.Outcomes
	if outcomes == nil {
		outcomes = []sync.Outcome{}
	}

	resp := map[string]interface{}{
		"success":   true,
		"results":   outcomes,
		"timestamp": result.Watermark.Format(time.RFC3339Nano),
	}
	if result.DeltaErr != nil {
		// Upload outcomes stand; the download failed and will be retried on
		// the next exchange since the watermark was not advanced.
		resp["downloadError"] = result.DeltaErr.Error()
	} else {
		reports := result.Reports
		if reports == nil {
			reports = []models.Report{}
		}
		resp["reports"] = reports
		resp["count"] = len(reports)
	}

	respondJSON(w, http.StatusOK, resp)
}

// Download returns every visible report changed since the caller's watermark
// (or since ?lastSync= when provided). May re-send records the client
// already holds; clients merge idempotently.
func (sh *SyncHandler) Download(w http.ResponseWriter, req *http.Request) {
	p, ok := middleware.PrincipalFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var sinceOverride *time.Time
	if v := req.URL.Query().Get("lastSync"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid lastSync timestamp")
			return
		}
		sinceOverride = &t
	}

	result, err := sh.coordinator.Exchange(req.Context(), p, nil, sinceOverride)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Sync exchange failed")
		return
	}
	if result.DeltaErr != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   result.DeltaErr.Error(),
		})
		return
	}

	reports := result.Reports
	if reports == nil {
		reports = []models.Report{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"reports":   reports,
		"count":     len(reports),
		"timestamp": result.Watermark.Format(time.RFC3339Nano),
	})
}

// GetStatus reports how much the caller still has to sync
func (sh *SyncHandler) GetStatus(w http.ResponseWriter, req *http.Request) {
	p, ok := middleware.PrincipalFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	pending, err := sh.status.PendingCount(req.Context(), p.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to check sync status")
		return
	}
	lastSynced, err := sh.status.LastSyncedAt(req.Context(), p.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to check sync status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pendingCount": pending,
		"lastSyncDate": lastSynced,
		"canSync":      true,
		"status":       "ready",
	})
}
