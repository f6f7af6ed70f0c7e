package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/datatypes"

	"github.com/indureport/indureportgo/internal/middleware"
	"github.com/indureport/indureportgo/internal/models"
	"github.com/indureport/indureportgo/internal/sync"
)

// maxUploadSize bounds a single attachment upload (10 MB, matching the
// mobile client's camera output)
const maxUploadSize = 10 << 20

// canSee reports whether the principal's visibility scope covers the report
func canSee(p models.Principal, r *models.Report) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleSupervisor:
		if p.Company == "" {
			return true
		}
		return r.Creator != nil && r.Creator.Company == p.Company
	default:
		return r.CreatedBy == p.UserID
	}
}

// listReports returns reports visible to the caller, filterable by
// ?type= and ?status=
func (r *Router) listReports(w http.ResponseWriter, req *http.Request) {
	p, ok := middleware.PrincipalFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	q := req.URL.Query()
	reports, err := r.reports.List(req.Context(), sync.ScopeFor(p), q.Get("type"), q.Get("status"))
	if err != nil {
		log.Printf("⚠️ Reports: list failed for user %s: %v", p.UserID, err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch reports")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reports": reports,
		"count":   len(reports),
	})
}

// createReport files a single report online, going through the same
// validation pipeline as a sync upload.
func (r *Router) createReport(w http.ResponseWriter, req *http.Request) {
	p, ok := middleware.PrincipalFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var draft models.ReportDraft
	if err := json.NewDecoder(req.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := draft.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := draft.ToReport()
	report.CreatedBy = p.UserID
	if draft.CreatedBy != "" && p.Role == models.RoleAdmin {
		report.CreatedBy = draft.CreatedBy
	}
	now := time.Now().UTC()
	report.SyncStatus = models.SyncSynced
	report.SyncedAt = &now

	if err := r.reports.Create(req.Context(), report); err != nil {
		log.Printf("⚠️ Reports: create failed for user %s: %v", p.UserID, err)
		respondError(w, http.StatusInternalServerError, "Failed to create report")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}

// fetchVisible loads a report and enforces the caller's visibility scope;
// out-of-scope reports are answered as not found.
func (r *Router) fetchVisible(w http.ResponseWriter, req *http.Request) (*models.Report, models.Principal, bool) {
	p, ok := middleware.PrincipalFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return nil, p, false
	}

	id := mux.Vars(req)["id"]
	report, err := r.reports.Get(req.Context(), id)
	if errors.Is(err, sync.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Report not found")
		return nil, p, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch report")
		return nil, p, false
	}
	if !canSee(p, report) {
		respondError(w, http.StatusNotFound, "Report not found")
		return nil, p, false
	}
	return report, p, true
}

func (r *Router) getReport(w http.ResponseWriter, req *http.Request) {
	report, _, ok := r.fetchVisible(w, req)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  report,
	})
}

// updateReport merges a draft onto an existing report; identity fields are
// never overwritten.
func (r *Router) updateReport(w http.ResponseWriter, req *http.Request) {
	report, p, ok := r.fetchVisible(w, req)
	if !ok {
		return
	}

	var draft models.ReportDraft
	if err := json.NewDecoder(req.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// Work status and assignment are dispatch decisions
	if (draft.Status != "" || draft.AssignedTo != nil) && !p.Role.AtLeast(models.RoleSupervisor) {
		respondError(w, http.StatusForbidden, "Only supervisors may change status or assignment")
		return
	}

	// Merge onto a copy and re-validate the result, so a bad enum in the
	// draft never reaches storage (or other devices via the sync delta).
	merged := *report
	merged.ApplyDraft(&draft)
	if err := merged.Draft().Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	merged.UpdatedAt = time.Now().UTC()

	if err := r.reports.Update(req.Context(), &merged); err != nil {
		log.Printf("⚠️ Reports: update failed for report %s: %v", merged.ID, err)
		respondError(w, http.StatusInternalServerError, "Failed to update report")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"report":  &merged,
	})
}

// deleteReport removes a report row together with its stored attachments.
// Only the creator or an admin may delete.
func (r *Router) deleteReport(w http.ResponseWriter, req *http.Request) {
	report, p, ok := r.fetchVisible(w, req)
	if !ok {
		return
	}
	if report.CreatedBy != p.UserID && p.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "Only the creator or an admin may delete a report")
		return
	}

	if err := r.reports.Delete(req.Context(), report.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete report")
		return
	}

	if r.uploads != nil {
		for _, a := range report.Attachments {
			if err := r.uploads.Remove(a.URI); err != nil {
				log.Printf("⚠️ Reports: failed to remove attachment %s: %v", a.URI, err)
			}
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Report deleted",
	})
}

// uploadReportImage attaches an image to a report via multipart form field
// "image"
func (r *Router) uploadReportImage(w http.ResponseWriter, req *http.Request) {
	report, _, ok := r.fetchVisible(w, req)
	if !ok {
		return
	}
	if r.uploads == nil {
		respondError(w, http.StatusServiceUnavailable, "Attachment storage is not configured")
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadSize)
	if err := req.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := req.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		respondError(w, http.StatusBadRequest, "Only image files are allowed (jpeg, jpg, png, gif)")
		return
	}

	uri, err := r.uploads.Save(file, header.Filename)
	if err != nil {
		log.Printf("⚠️ Reports: attachment save failed for report %s: %v", report.ID, err)
		respondError(w, http.StatusInternalServerError, "Failed to store attachment")
		return
	}

	attachments := append([]models.Attachment(report.Attachments),
		models.Attachment{URI: uri, MediaKind: "image"})
	report.Attachments = datatypes.NewJSONSlice(attachments)
	report.UpdatedAt = time.Now().UTC()

	if err := r.reports.Update(req.Context(), report); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update report")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"uri":     uri,
		"report":  report,
	})
}

// summarizeReport asks the AI summarizer for a short summary of the report
func (r *Router) summarizeReport(w http.ResponseWriter, req *http.Request) {
	report, _, ok := r.fetchVisible(w, req)
	if !ok {
		return
	}
	if r.summarizer == nil {
		respondError(w, http.StatusServiceUnavailable, "AI summarization is not configured")
		return
	}

	summary, err := r.summarizer.SummarizeReport(req.Context(), report)
	if err != nil {
		log.Printf("⚠️ Reports: summary failed for report %s: %v", report.ID, err)
		respondError(w, http.StatusBadGateway, "Failed to generate summary")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": summary,
	})
}
