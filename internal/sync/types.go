package sync

import (
	"context"
	"errors"
	"time"

	"github.com/indureport/indureportgo/internal/models"
)

// ErrNotFound is returned by stores when no record matches within the
// caller's visibility scope. A record that exists but belongs to someone
// outside the scope is reported the same way, so lookups never leak the
// existence of other tenants' records.
var ErrNotFound = errors.New("record not found")

// OutcomeStatus is the per-draft result of a sync upload
type OutcomeStatus string

const (
	OutcomeCreated OutcomeStatus = "created"
	OutcomeUpdated OutcomeStatus = "updated"
	OutcomeError   OutcomeStatus = "error"
)

// Outcome reports what happened to one uploaded draft. Outcomes are returned
// in the same order the drafts were submitted.
type Outcome struct {
	LocalID  string        `json:"localId,omitempty"`
	ServerID string        `json:"id,omitempty"`
	Status   OutcomeStatus `json:"status"`
	Error    string        `json:"error,omitempty"`
}

// Scope restricts store lookups to records the requesting identity may see.
type Scope struct {
	Role models.Role
	// UserID limits operator queries to their own records.
	UserID string
	// Company limits supervisor queries to their organization. Empty means
	// no organizational scoping is configured and the supervisor sees all.
	Company string
}

// ScopeFor derives the visibility scope for a principal.
//
//	operator   -> records created by self
//	supervisor -> records within the same company (all, if none configured)
//	admin      -> all records
func ScopeFor(p models.Principal) Scope {
	return Scope{Role: p.Role, UserID: p.UserID, Company: p.Company}
}

// ReportStore is the persistence contract the reconciliation engine relies
// on. Implementations must not interpret sync semantics.
type ReportStore interface {
	// FindByLocalID looks up a report by client-assigned local id, scoped to
	// the given visibility. Returns ErrNotFound when no visible match exists.
	FindByLocalID(ctx context.Context, localID string, scope Scope) (*models.Report, error)
	// ChangedSince returns every visible report whose createdAt or updatedAt
	// exceeds the watermark, most recently changed first.
	ChangedSince(ctx context.Context, since time.Time, scope Scope) ([]models.Report, error)
	// Create persists a new report, assigning its server id.
	Create(ctx context.Context, r *models.Report) error
	// Update persists a merged report, advancing updatedAt.
	Update(ctx context.Context, r *models.Report) error
}

// WatermarkStore tracks the per-user lastSync timestamp.
type WatermarkStore interface {
	// LastSync returns the user's watermark; a zero time means never synced.
	LastSync(ctx context.Context, userID string) (time.Time, error)
	// AdvanceLastSync moves the watermark forward to the given instant.
	// Implementations must never move it backwards.
	AdvanceLastSync(ctx context.Context, userID string, to time.Time) error
}
