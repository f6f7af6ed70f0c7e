package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/indureport/indureportgo/internal/ai"
	"github.com/indureport/indureportgo/internal/config"
	"github.com/indureport/indureportgo/internal/middleware"
	"github.com/indureport/indureportgo/internal/models"
	"github.com/indureport/indureportgo/internal/storage"
	"github.com/indureport/indureportgo/internal/sync"
)

// ReportStore is the persistence surface the report and sync handlers rely
// on. internal/store provides the GORM implementation.
type ReportStore interface {
	Get(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, scope sync.Scope, reportType, status string) ([]models.Report, error)
	Create(ctx context.Context, r *models.Report) error
	Update(ctx context.Context, r *models.Report) error
	Delete(ctx context.Context, id string) error
	PendingCount(ctx context.Context, userID string) (int64, error)
	LastSyncedAt(ctx context.Context, userID string) (*time.Time, error)
}

// UserStore is the persistence surface the auth and user handlers rely on
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
}

// Router wraps the mux router and the application services
type Router struct {
	*mux.Router
	cfg        *config.Config
	reports    ReportStore
	users      UserStore
	uploads    *storage.Local
	summarizer *ai.Summarizer // nil when no API key is configured
}

// NewRouter creates a new HTTP router with all routes. summarizer may be nil.
func NewRouter(cfg *config.Config, reports ReportStore, users UserStore, coordinator *sync.Coordinator, uploads *storage.Local, summarizer *ai.Summarizer) *Router {
	r := &Router{
		Router:     mux.NewRouter(),
		cfg:        cfg,
		reports:    reports,
		users:      users,
		uploads:    uploads,
		summarizer: summarizer,
	}

	auth := middleware.Auth(cfg.JWTSecret)

	// Health and status endpoints (public, polled by the mobile app)
	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	status := r.PathPrefix("/status").Subrouter()
	status.HandleFunc("", r.getStatus).Methods("GET")
	status.HandleFunc("/app/version", r.getAppVersion).Methods("GET")
	status.HandleFunc("/health", r.healthCheck).Methods("GET")
	status.HandleFunc("/maintenance", r.getMaintenance).Methods("GET")

	// Auth routes
	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", r.register).Methods("POST")
	authRoutes.HandleFunc("/login", r.login).Methods("POST")
	authRoutes.HandleFunc("/logout", r.logout).Methods("POST")

	// Sync routes (protected)
	syncHandler := NewSyncHandler(coordinator, reports)
	syncRoutes := r.PathPrefix("/sync").Subrouter()
	syncRoutes.Use(auth)
	syncHandler.RegisterRoutes(syncRoutes)

	// Report routes (protected)
	reportRoutes := r.PathPrefix("/reports").Subrouter()
	reportRoutes.Use(auth)
	reportRoutes.HandleFunc("", r.listReports).Methods("GET")
	reportRoutes.HandleFunc("", r.createReport).Methods("POST")
	reportRoutes.HandleFunc("/{id}", r.getReport).Methods("GET")
	reportRoutes.HandleFunc("/{id}", r.updateReport).Methods("PUT")
	reportRoutes.HandleFunc("/{id}", r.deleteReport).Methods("DELETE")
	reportRoutes.HandleFunc("/{id}/upload", r.uploadReportImage).Methods("POST")
	reportRoutes.HandleFunc("/{id}/pdf", r.exportReportPDF).Methods("GET")
	reportRoutes.HandleFunc("/{id}/summary", r.summarizeReport).Methods("POST")

	// User routes (protected)
	userRoutes := r.PathPrefix("/users").Subrouter()
	userRoutes.Use(auth)
	userRoutes.Handle("", middleware.RequireRole(models.RoleSupervisor)(http.HandlerFunc(r.listUsers))).Methods("GET")
	userRoutes.HandleFunc("/profile", r.getProfile).Methods("GET")
	userRoutes.HandleFunc("/{id}", r.updateUser).Methods("PUT")
	userRoutes.Handle("/{id}", middleware.RequireRole(models.RoleAdmin)(http.HandlerFunc(r.deleteUser))).Methods("DELETE")

	// Stored attachments
	if uploads != nil {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploads.Dir()))))
	}

	return r
}

// Handler returns the router wrapped with the outermost middleware
func (r *Router) Handler() http.Handler {
	return middleware.StripAPIPrefix(r.Router)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
