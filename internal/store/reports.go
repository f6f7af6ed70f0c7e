package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indureport/indureportgo/internal/database"
	"github.com/indureport/indureportgo/internal/models"
	"github.com/indureport/indureportgo/internal/sync"
)

// ReportStore persists reports in PostgreSQL via GORM. It implements
// sync.ReportStore and carries no sync semantics of its own.
type ReportStore struct {
	db *database.DB
}

// NewReportStore creates a report store over the given database
func NewReportStore(db *database.DB) *ReportStore {
	return &ReportStore{db: db}
}

// visible applies the visibility scope as a GORM scope
func visible(scope sync.Scope) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		switch scope.Role {
		case models.RoleAdmin:
			return tx
		case models.RoleSupervisor:
			if scope.Company == "" {
				return tx
			}
			return tx.Where("created_by IN (?)",
				tx.Session(&gorm.Session{NewDB: true}).
					Model(&models.User{}).
					Select("id").
					Where("company = ?", scope.Company))
		default:
			return tx.Where("created_by = ?", scope.UserID)
		}
	}
}

// FindByLocalID looks up a report by client-assigned local id within the
// visibility scope. A record outside the scope is indistinguishable from a
// missing one.
func (s *ReportStore) FindByLocalID(ctx context.Context, localID string, scope sync.Scope) (*models.Report, error) {
	var r models.Report
	err := s.db.WithContext(ctx).
		Scopes(visible(scope)).
		Where("local_id = ?", localID).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sync.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ChangedSince returns every visible report created or updated after the
// watermark, most recently changed first. Creator and assignee are preloaded
// so clients can render names without extra round trips.
func (s *ReportStore) ChangedSince(ctx context.Context, since time.Time, scope sync.Scope) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.WithContext(ctx).
		Scopes(visible(scope)).
		Where("created_at > ? OR updated_at > ?", since, since).
		Order("updated_at DESC").
		Preload("Creator").
		Preload("Assignee").
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// Create persists a new report, assigning its server id. The id is never
// reassigned or reused afterwards.
func (s *ReportStore) Create(ctx context.Context, r *models.Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(r).Error
}

// Update persists a merged report in a single atomic write
func (s *ReportStore) Update(ctx context.Context, r *models.Report) error {
	return s.db.WithContext(ctx).Save(r).Error
}

// Get fetches a single report by server id without visibility scoping;
// handlers enforce permissions on top.
func (s *ReportStore) Get(ctx context.Context, id string) (*models.Report, error) {
	var r models.Report
	err := s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Assignee").
		First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sync.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns visible reports, optionally filtered by type and work status,
// newest first.
func (s *ReportStore) List(ctx context.Context, scope sync.Scope, reportType, status string) ([]models.Report, error) {
	tx := s.db.WithContext(ctx).Scopes(visible(scope))
	if reportType != "" {
		tx = tx.Where("type = ?", reportType)
	}
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var reports []models.Report
	err := tx.Order("created_at DESC").
		Preload("Creator").
		Preload("Assignee").
		Find(&reports).Error
	return reports, err
}

// Delete permanently removes a report. Deletion is a hard delete so the
// handler can drop the stored attachment files together with the row.
func (s *ReportStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&models.Report{}, "id = ?", id).Error
}

// PendingCount counts the caller's reports still waiting to be synced
func (s *ReportStore) PendingCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("created_by = ? AND sync_status <> ?", userID, models.SyncSynced).
		Count(&n).Error
	return n, err
}

// LastSyncedAt returns the most recent syncedAt among the caller's reports,
// or nil when nothing has been synced yet.
func (s *ReportStore) LastSyncedAt(ctx context.Context, userID string) (*time.Time, error) {
	var r models.Report
	err := s.db.WithContext(ctx).
		Where("created_by = ? AND sync_status = ?", userID, models.SyncSynced).
		Order("synced_at DESC").
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.SyncedAt, nil
}
