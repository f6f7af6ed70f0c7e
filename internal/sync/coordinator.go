package sync

import (
	"context"
	"fmt"
	"log"
	stdsync "sync"
	"time"

	"github.com/indureport/indureportgo/internal/models"
)

// ExchangeResult is everything one sync exchange produces.
type ExchangeResult struct {
	// Outcomes are the per-draft upload results, in submission order.
	Outcomes []Outcome
	// Reports is the download delta: every visible record changed since the
	// watermark. Nil when DeltaErr is set.
	Reports []models.Report
	// Watermark is the caller's lastSync after this exchange. It equals the
	// exchange start time on success, or the previous watermark when the
	// delta could not be computed.
	Watermark time.Time
	// DeltaErr is set when the download step failed. Upload outcomes above
	// remain valid; the watermark was not advanced, so the next exchange
	// retries the download.
	DeltaErr error
}

// Coordinator orchestrates one sync exchange: upload batch, then download
// delta, then watermark advancement. Exchanges for the same user are
// serialized; different users never block each other.
type Coordinator struct {
	engine  *Engine
	reports ReportStore
	users   WatermarkStore

	locks stdsync.Map // userID -> *stdsync.Mutex
	now   func() time.Time
}

// NewCoordinator wires a coordinator over the reconciliation engine and the
// two stores.
func NewCoordinator(engine *Engine, reports ReportStore, users WatermarkStore) *Coordinator {
	return &Coordinator{
		engine:  engine,
		reports: reports,
		users:   users,
		now:     time.Now,
	}
}

func (c *Coordinator) userLock(userID string) *stdsync.Mutex {
	mu, _ := c.locks.LoadOrStore(userID, &stdsync.Mutex{})
	return mu.(*stdsync.Mutex)
}

// Exchange runs one full sync exchange for the principal.
//
// sinceOverride, when non-nil, replaces the stored watermark for the delta
// computation (clients may drive their own lastSync cursor); the stored
// watermark is still advanced on success so other devices of the same user
// observe progress.
func (c *Coordinator) Exchange(ctx context.Context, p models.Principal, drafts []models.ReportDraft, sinceOverride *time.Time) (*ExchangeResult, error) {
	mu := c.userLock(p.UserID)
	mu.Lock()
	defer mu.Unlock()

	// Capture the start time first: every record written from here on, by
	// this exchange or concurrently by others, stays above the new watermark
	// and is picked up by the next exchange.
	start := c.now().UTC()

	last, err := c.users.LastSync(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync watermark: %w", err)
	}

	result := &ExchangeResult{Watermark: last}

	if len(drafts) > 0 {
		result.Outcomes = c.engine.ReconcileBatch(ctx, p, drafts)
	}

	since := last
	if sinceOverride != nil {
		since = sinceOverride.UTC()
	}

	// The delta is computed from the watermark captured before the upload,
	// so the uploading device receives confirmation of its just-applied
	// changes and other records written during the exchange are not skipped.
	reports, err := c.reports.ChangedSince(ctx, since, ScopeFor(p))
	if err != nil {
		// Upload already succeeded item by item; report it, flag the download
		// failure and leave the watermark where it was.
		log.Printf("⚠️ Sync: delta computation failed for user %s: %v", p.UserID, err)
		result.DeltaErr = fmt.Errorf("failed to compute download delta: %w", err)
		return result, nil
	}
	result.Reports = reports

	if err := c.users.AdvanceLastSync(ctx, p.UserID, start); err != nil {
		// Delta was delivered; a stale watermark only means the next exchange
		// re-sends some records, which clients merge idempotently.
		log.Printf("⚠️ Sync: failed to advance watermark for user %s: %v", p.UserID, err)
	} else {
		result.Watermark = start
	}

	return result, nil
}
