package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ReportType classifies what kind of report was filed
type ReportType string

const (
	ReportTypeIncident    ReportType = "incident"
	ReportTypeMaintenance ReportType = "maintenance"
	ReportTypeImprovement ReportType = "improvement"
)

// Area is the facility zone a report refers to
type Area string

const (
	AreaProduction Area = "production"
	AreaPackaging  Area = "packaging"
	AreaWarehouse  Area = "warehouse"
	AreaQuality    Area = "quality"
	AreaUtilities  Area = "utilities"
	AreaOffices    Area = "offices"
)

// MaintenanceType is required when the report type is maintenance
type MaintenanceType string

const (
	MaintenancePreventive  MaintenanceType = "preventive"
	MaintenanceCorrective  MaintenanceType = "corrective"
	MaintenancePredictive  MaintenanceType = "predictive"
	MaintenanceImprovement MaintenanceType = "improvement"
)

// ShiftType identifies the work shift the report was filed on
type ShiftType string

const (
	ShiftMorning   ShiftType = "morning"
	ShiftAfternoon ShiftType = "afternoon"
	ShiftNight     ShiftType = "night"
)

// Priority of a report
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// WorkStatus is the resolution state of a report
type WorkStatus string

const (
	WorkStatusPending    WorkStatus = "pending"
	WorkStatusInProgress WorkStatus = "in_progress"
	WorkStatusCompleted  WorkStatus = "completed"
	WorkStatusRejected   WorkStatus = "rejected"
)

// SyncStatus tracks whether a report has been reconciled with the server
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
)

// Attachment references an uploaded binary by URI. Slice order is upload order.
type Attachment struct {
	URI       string `json:"uri"`
	MediaKind string `json:"mediaKind"` // "image", "audio", ...
}

// GPSLocation stores the device position captured when the report was filed.
// Persisted as a JSONB column.
type GPSLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// Scan implements sql.Scanner interface
func (g *GPSLocation) Scan(value interface{}) error {
	if value == nil {
		*g = GPSLocation{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal GPS value: %v", value)
	}
	return json.Unmarshal(bytes, g)
}

// Value implements driver.Valuer interface
func (g GPSLocation) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Report is the unit of synchronization.
// Convention: Go PascalCase -> DB snake_case (GORM auto) -> JSON camelCase
type Report struct {
	// ID is the server id: assigned once on first persistence, never reused.
	ID string `gorm:"primaryKey;type:uuid" json:"id"`
	// LocalID is assigned by the originating client while offline. At most
	// one report exists per (created_by, local_id) pair.
	LocalID string `gorm:"type:varchar(255);index:idx_reports_owner_local,unique,where:local_id <> ''" json:"localId,omitempty"`

	Title       string `gorm:"type:varchar(255)" json:"title,omitempty"`
	Description string `gorm:"type:text;not null" json:"description"`

	Type            ReportType      `gorm:"type:varchar(20);not null;index" json:"type"`
	Area            Area            `gorm:"type:varchar(30);not null" json:"area"`
	Location        string          `gorm:"type:varchar(255)" json:"location,omitempty"`
	MaintenanceType MaintenanceType `gorm:"type:varchar(20)" json:"maintenanceType,omitempty"`
	ShiftType       ShiftType       `gorm:"type:varchar(10)" json:"shiftType,omitempty"`
	NextShiftType   ShiftType       `gorm:"type:varchar(10)" json:"nextShiftType,omitempty"`

	Priority Priority   `gorm:"type:varchar(10);default:'medium'" json:"priority"`
	Status   WorkStatus `gorm:"type:varchar(15);default:'pending';index" json:"status"`

	CreatedBy  string  `gorm:"type:uuid;not null;index:idx_reports_owner_local,unique,where:local_id <> '';index" json:"createdBy"`
	AssignedTo *string `gorm:"type:uuid" json:"assignedTo,omitempty"`

	Creator  *User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Assignee *User `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`

	Attachments datatypes.JSONSlice[Attachment] `gorm:"type:jsonb" json:"attachments,omitempty"`
	GPS         GPSLocation                     `gorm:"type:jsonb" json:"gpsLocation"`

	SyncStatus SyncStatus `gorm:"type:varchar(10);default:'pending';index" json:"syncStatus"`
	SyncedAt   *time.Time `json:"syncedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`
}

// TableName specifies the table name for Report
func (Report) TableName() string {
	return "reports"
}

// Draft projects the mergeable fields back into a draft, so an edited
// record can be re-validated as one unit before it is persisted.
func (r *Report) Draft() *ReportDraft {
	return &ReportDraft{
		Title:           r.Title,
		Description:     r.Description,
		Type:            r.Type,
		Area:            r.Area,
		Location:        r.Location,
		MaintenanceType: r.MaintenanceType,
		ShiftType:       r.ShiftType,
		NextShiftType:   r.NextShiftType,
		Priority:        r.Priority,
		Status:          r.Status,
		AssignedTo:      r.AssignedTo,
	}
}

// ApplyDraft merges a client draft onto an existing report, last write wins.
// Only fields listed here are mergeable; identity fields (ID, LocalID,
// CreatedBy, CreatedAt) are never touched even when the draft carries them.
func (r *Report) ApplyDraft(d *ReportDraft) {
	if d.Title != "" {
		r.Title = d.Title
	}
	if d.Description != "" {
		r.Description = d.Description
	}
	if d.Type != "" {
		r.Type = d.Type
	}
	if d.Area != "" {
		r.Area = d.Area
	}
	if d.Location != "" {
		r.Location = d.Location
	}
	if d.MaintenanceType != "" {
		r.MaintenanceType = d.MaintenanceType
	}
	if d.ShiftType != "" {
		r.ShiftType = d.ShiftType
	}
	if d.NextShiftType != "" {
		r.NextShiftType = d.NextShiftType
	}
	if d.Priority != "" {
		r.Priority = d.Priority
	}
	if d.Status != "" {
		r.Status = d.Status
	}
	if d.AssignedTo != nil {
		r.AssignedTo = d.AssignedTo
	}
	if len(d.Attachments) > 0 {
		r.Attachments = datatypes.NewJSONSlice(d.Attachments)
	}
	if d.GPS != nil {
		r.GPS = *d.GPS
	}
}
