package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator instances cache struct metadata
var validate = validator.New()

// ReportDraft is the boundary type for client-submitted report payloads
// (sync uploads, online create, update). It is validated here before any of
// it reaches the reconciliation logic; malformed drafts never make it past
// Validate.
type ReportDraft struct {
	LocalID string `json:"localId,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description" validate:"required"`

	Type            ReportType      `json:"type" validate:"required,oneof=incident maintenance improvement"`
	Area            Area            `json:"area" validate:"required,oneof=production packaging warehouse quality utilities offices"`
	Location        string          `json:"location,omitempty"`
	MaintenanceType MaintenanceType `json:"maintenanceType,omitempty" validate:"required_if=Type maintenance,omitempty,oneof=preventive corrective predictive improvement"`
	ShiftType       ShiftType       `json:"shiftType" validate:"required,oneof=morning afternoon night"`
	NextShiftType   ShiftType       `json:"nextShiftType,omitempty" validate:"omitempty,oneof=morning afternoon night"`

	Priority Priority   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Status   WorkStatus `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed rejected"`

	// CreatedBy is honored only when the submitter holds the admin role;
	// otherwise ownership always falls to the submitting user.
	CreatedBy  string  `json:"createdBy,omitempty"`
	AssignedTo *string `json:"assignedTo,omitempty"`

	Attachments []Attachment `json:"attachments,omitempty"`
	GPS         *GPSLocation `json:"gpsLocation,omitempty"`

	// CreatedAt is the client-side creation time of an offline report.
	// Preserved on first persistence when plausible.
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Validate checks the draft and returns a single human-readable message for
// the first failing field, suitable for a per-item sync outcome.
func (d *ReportDraft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "required_if":
		return fmt.Errorf("%s is required for this report type", field)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}

// ToReport builds a fresh Report from the draft. Identity and sync fields
// are left for the caller to assign.
func (d *ReportDraft) ToReport() *Report {
	r := &Report{
		LocalID:         d.LocalID,
		Title:           d.Title,
		Description:     d.Description,
		Type:            d.Type,
		Area:            d.Area,
		Location:        d.Location,
		MaintenanceType: d.MaintenanceType,
		ShiftType:       d.ShiftType,
		NextShiftType:   d.NextShiftType,
		Priority:        d.Priority,
		Status:          d.Status,
		AssignedTo:      d.AssignedTo,
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if r.Status == "" {
		r.Status = WorkStatusPending
	}
	if len(d.Attachments) > 0 {
		r.Attachments = append(r.Attachments, d.Attachments...)
	}
	if d.GPS != nil {
		r.GPS = *d.GPS
	}
	return r
}
