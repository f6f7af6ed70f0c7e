package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/indureport/indureportgo/internal/models"
)

const (
	// defaultClockSkew bounds how far in the future a client-supplied
	// createdAt may lie before the server time is used instead.
	defaultClockSkew = 5 * time.Minute

	// persistTimeout bounds every single-draft store operation so one slow
	// write cannot stall the rest of the batch indefinitely.
	persistTimeout = 5 * time.Second
)

// Engine implements the reconciliation algorithm: given a batch of client
// drafts it decides create vs. update per draft, applies it, and reports one
// outcome per input in input order. Drafts are processed independently; a
// failing draft never aborts its siblings.
type Engine struct {
	reports   ReportStore
	clockSkew time.Duration
	now       func() time.Time
}

// NewEngine creates a reconciliation engine over the given store.
func NewEngine(reports ReportStore) *Engine {
	return &Engine{
		reports:   reports,
		clockSkew: defaultClockSkew,
		now:       time.Now,
	}
}

// SetClockSkew overrides the tolerance for future client timestamps
func (e *Engine) SetClockSkew(d time.Duration) {
	if d > 0 {
		e.clockSkew = d
	}
}

// ReconcileBatch processes one upload batch for the submitting principal.
// len(result) == len(drafts) and result[i] corresponds to drafts[i].
func (e *Engine) ReconcileBatch(ctx context.Context, p models.Principal, drafts []models.ReportDraft) []Outcome {
	outcomes := make([]Outcome, 0, len(drafts))
	for i := range drafts {
		outcomes = append(outcomes, e.reconcileOne(ctx, p, &drafts[i]))
	}
	return outcomes
}

// reconcileOne applies a single draft. Resubmitting a draft with a localId
// that was already persisted for this owner matches the update branch, so
// retried uploads never duplicate records.
func (e *Engine) reconcileOne(ctx context.Context, p models.Principal, d *models.ReportDraft) Outcome {
	if err := d.Validate(); err != nil {
		return Outcome{LocalID: d.LocalID, Status: OutcomeError, Error: err.Error()}
	}

	scope := ScopeFor(p)
	now := e.now().UTC()

	if d.LocalID != "" {
		existing, err := e.findExisting(ctx, d.LocalID, scope)
		switch {
		case err == nil:
			return e.update(ctx, existing, d, now)
		case err != ErrNotFound:
			log.Printf("⚠️ Sync: lookup failed for localId %s: %v", d.LocalID, err)
			return Outcome{LocalID: d.LocalID, Status: OutcomeError, Error: fmt.Sprintf("storage lookup failed: %v", err)}
		}
		// not found within scope: fall through to creation
	}

	return e.create(ctx, p, d, now)
}

func (e *Engine) findExisting(ctx context.Context, localID string, scope Scope) (*models.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	return e.reports.FindByLocalID(ctx, localID, scope)
}

func (e *Engine) update(ctx context.Context, existing *models.Report, d *models.ReportDraft, now time.Time) Outcome {
	existing.ApplyDraft(d)
	existing.SyncStatus = models.SyncSynced
	existing.SyncedAt = &now
	existing.UpdatedAt = now

	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := e.reports.Update(pctx, existing); err != nil {
		return Outcome{LocalID: d.LocalID, ServerID: existing.ID, Status: OutcomeError, Error: fmt.Sprintf("storage update failed: %v", err)}
	}
	return Outcome{LocalID: d.LocalID, ServerID: existing.ID, Status: OutcomeUpdated}
}

func (e *Engine) create(ctx context.Context, p models.Principal, d *models.ReportDraft, now time.Time) Outcome {
	r := d.ToReport()

	// Ownership: the submitting user, unless an explicit owner is supplied
	// and the submitter is an admin.
	r.CreatedBy = p.UserID
	if d.CreatedBy != "" && p.Role == models.RoleAdmin {
		r.CreatedBy = d.CreatedBy
	}

	// Preserve the client's offline creation time when plausible.
	if d.CreatedAt != nil && !d.CreatedAt.After(now.Add(e.clockSkew)) {
		r.CreatedAt = d.CreatedAt.UTC()
	} else {
		r.CreatedAt = now
	}

	r.SyncStatus = models.SyncSynced
	r.SyncedAt = &now

	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := e.reports.Create(pctx, r); err != nil {
		return Outcome{LocalID: d.LocalID, Status: OutcomeError, Error: fmt.Sprintf("storage create failed: %v", err)}
	}
	return Outcome{LocalID: d.LocalID, ServerID: r.ID, Status: OutcomeCreated}
}
