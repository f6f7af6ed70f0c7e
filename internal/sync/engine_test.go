package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"github.com/indureport/indureportgo/internal/models"
)

// memReports is an in-memory ReportStore used by the engine and coordinator
// tests. It enforces the same visibility rules as the real store.
type memReports struct {
	mu        stdsync.Mutex
	byID      map[string]*models.Report
	companies map[string]string // userID -> company, for supervisor scoping
	seq       int

	findErr    error
	createErr  error
	updateErr  error
	changedErr error
}

func newMemReports() *memReports {
	return &memReports{
		byID:      make(map[string]*models.Report),
		companies: make(map[string]string),
	}
}

func (m *memReports) covers(r *models.Report, scope Scope) bool {
	switch scope.Role {
	case models.RoleAdmin:
		return true
	case models.RoleSupervisor:
		if scope.Company == "" {
			return true
		}
		return m.companies[r.CreatedBy] == scope.Company
	default:
		return r.CreatedBy == scope.UserID
	}
}

func (m *memReports) FindByLocalID(ctx context.Context, localID string, scope Scope) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.byID {
		if r.LocalID != "" && r.LocalID == localID && m.covers(r, scope) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memReports) ChangedSince(ctx context.Context, since time.Time, scope Scope) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.changedErr != nil {
		return nil, m.changedErr
	}
	var out []models.Report
	for _, r := range m.byID {
		if !m.covers(r, scope) {
			continue
		}
		if r.CreatedAt.After(since) || r.UpdatedAt.After(since) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReports) Create(ctx context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if r.LocalID != "" {
		for _, existing := range m.byID {
			if existing.LocalID == r.LocalID && existing.CreatedBy == r.CreatedBy {
				return fmt.Errorf("duplicate local id %s for owner %s", r.LocalID, r.CreatedBy)
			}
		}
	}
	if r.ID == "" {
		m.seq++
		r.ID = fmt.Sprintf("srv-%d", m.seq)
	}
	cp := *r
	m.byID[r.ID] = &cp
	return nil
}

func (m *memReports) Update(ctx context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	cp := *r
	m.byID[r.ID] = &cp
	return nil
}

func (m *memReports) get(id string) *models.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

func (m *memReports) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// memWatermarks is an in-memory WatermarkStore with the same CAS semantics
// as the real one.
type memWatermarks struct {
	mu         stdsync.Mutex
	marks      map[string]time.Time
	readErr    error
	advanceErr error
}

func newMemWatermarks() *memWatermarks {
	return &memWatermarks{marks: make(map[string]time.Time)}
}

func (m *memWatermarks) LastSync(ctx context.Context, userID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return time.Time{}, m.readErr
	}
	return m.marks[userID], nil
}

func (m *memWatermarks) AdvanceLastSync(ctx context.Context, userID string, to time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.advanceErr != nil {
		return m.advanceErr
	}
	if to.After(m.marks[userID]) {
		m.marks[userID] = to
	}
	return nil
}

func (m *memWatermarks) get(userID string) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marks[userID]
}

func operator(id string) models.Principal {
	return models.Principal{UserID: id, Username: id, Role: models.RoleOperator}
}

func validDraft(localID string) models.ReportDraft {
	return models.ReportDraft{
		LocalID:     localID,
		Title:       "Pump leak",
		Description: "Coolant pump leaking at the seal",
		Type:        models.ReportTypeIncident,
		Area:        models.AreaProduction,
		ShiftType:   models.ShiftMorning,
	}
}

func TestEngine_CreateFromDraft(t *testing.T) {
	store := newMemReports()
	engine := NewEngine(store)
	p := operator("user-1")

	outcomes := engine.ReconcileBatch(context.Background(), p, []models.ReportDraft{validDraft("local-1")})

	if len(outcomes) != 1 {
		t.Fatalf("Expected 1 outcome, got %d", len(outcomes))
	}
	o := outcomes[0]
	if o.Status != OutcomeCreated {
		t.Fatalf("Expected created, got %s (%s)", o.Status, o.Error)
	}
	if o.LocalID != "local-1" {
		t.Errorf("Expected localId local-1, got %s", o.LocalID)
	}
	if o.ServerID == "" {
		t.Error("Created outcome should carry the server id")
	}

	r := store.get(o.ServerID)
	if r == nil {
		t.Fatal("Report was not persisted")
	}
	if r.CreatedBy != "user-1" {
		t.Errorf("Expected ownership by submitter, got %s", r.CreatedBy)
	}
	if r.SyncStatus != models.SyncSynced {
		t.Errorf("Expected sync status synced, got %s", r.SyncStatus)
	}
	if r.SyncedAt == nil {
		t.Error("SyncedAt should be set after reconciliation")
	}
	if r.Priority != models.PriorityMedium {
		t.Errorf("Expected default priority medium, got %s", r.Priority)
	}
	if r.Status != models.WorkStatusPending {
		t.Errorf("Expected default status pending, got %s", r.Status)
	}
}

func TestEngine_ResubmitUpdatesInPlace(t *testing.T) {
	store := newMemReports()
	engine := NewEngine(store)
	p := operator("user-1")
	ctx := context.Background()

	first := engine.ReconcileBatch(ctx, p, []models.ReportDraft{validDraft("local-1")})
	if first[0].Status != OutcomeCreated {
		t.Fatalf("Setup failed: %s (%s)", first[0].Status, first[0].Error)
	}

	// Same draft again, with an edited description: must match the existing
	// record, not create a duplicate.
	d := validDraft("local-1")
	d.Description = "Coolant pump leaking badly, stopped the line"
	second := engine.ReconcileBatch(ctx, p, []models.ReportDraft{d})

	if second[0].Status != OutcomeUpdated {
		t.Fatalf("Expected updated, got %s (%s)", second[0].Status, second[0].Error)
	}
	if second[0].ServerID != first[0].ServerID {
		t.Errorf("Resubmission must resolve to the same server id: %s vs %s",
			second[0].ServerID, first[0].ServerID)
	}
	if store.count() != 1 {
		t.Fatalf("Expected exactly 1 record after resubmit, got %d", store.count())
	}
	if got := store.get(first[0].ServerID).Description; got != d.Description {
		t.Errorf("Update should apply the newer description, got %q", got)
	}
}

func TestEngine_BatchIsolatesFailures(t *testing.T) {
	store := newMemReports()
	engine := NewEngine(store)
	p := operator("user-1")

	bad := validDraft("local-bad")
	bad.Description = "" // fails validation

	outcomes := engine.ReconcileBatch(context.Background(), p, []models.ReportDraft{
		validDraft("local-a"),
		bad,
		validDraft("local-b"),
	})

	if len(outcomes) != 3 {
		t.Fatalf("Expected 3 outcomes, got %d", len(outcomes))
	}
	want := []OutcomeStatus{OutcomeCreated, OutcomeError, OutcomeCreated}
	for i, w := range want {
		if outcomes[i].Status != w {
			t.Errorf("Outcome %d: expected %s, got %s (%s)", i, w, outcomes[i].Status, outcomes[i].Error)
		}
	}
	if outcomes[1].Error == "" {
		t.Error("Failed outcome should carry an error message")
	}
	if outcomes[1].LocalID != "local-bad" {
		t.Errorf("Failed outcome should echo the draft's localId, got %s", outcomes[1].LocalID)
	}
	if store.count() != 2 {
		t.Errorf("Expected 2 persisted records, got %d", store.count())
	}
}

func TestEngine_MaintenanceRequiresMaintenanceType(t *testing.T) {
	engine := NewEngine(newMemReports())
	p := operator("user-1")

	d := validDraft("local-1")
	d.Type = models.ReportTypeMaintenance

	outcomes := engine.ReconcileBatch(context.Background(), p, []models.ReportDraft{d})
	if outcomes[0].Status != OutcomeError {
		t.Fatalf("Expected validation error, got %s", outcomes[0].Status)
	}

	d.MaintenanceType = models.MaintenanceCorrective
	outcomes = engine.ReconcileBatch(context.Background(), p, []models.ReportDraft{d})
	if outcomes[0].Status != OutcomeCreated {
		t.Fatalf("Expected created with maintenance type set, got %s (%s)",
			outcomes[0].Status, outcomes[0].Error)
	}
}

func TestEngine_ClientCreationTimePreserved(t *testing.T) {
	store := newMemReports()
	engine := NewEngine(store)
	serverNow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return serverNow }
	p := operator("user-1")

	// Plausible offline timestamp: kept
	offline := serverNow.Add(-3 * time.Hour)
	d := validDraft("local-1")
	d.CreatedAt = &offline
	outcomes := engine.ReconcileBatch(context.Background(), p, []models.ReportDraft{d})
	if got := store.get(outcomes[0].ServerID).CreatedAt; !got.Equal(offline) {
		t.Errorf("Plausible client createdAt should be preserved, got %v", got)
	}

	// Implausibly future timestamp: replaced with server time
	future := serverNow.Add(2 * time.Hour)
	d2 := validDraft("local-2")
	d2.CreatedAt = &future
	outcomes = engine.ReconcileBatch(context.Background(), p, []models.ReportDraft{d2})
	if got := store.get(outcomes[0].ServerID).CreatedAt; !got.Equal(serverNow) {
		t.Errorf("Future client createdAt should fall back to server time, got %v", got)
	}
}

func TestEngine_UpdateNeverTouchesIdentity(t *testing.T) {
	store := newMemReports()
	engine := NewEngine(store)
	p := operator("user-1")
	ctx := context.Background()

	first := engine.ReconcileBatch(ctx, p, []models.ReportDraft{validDraft("local-1")})
	original := store.get(first[0].ServerID)

	d := validDraft("local-1")
	d.CreatedBy = "someone-else" // not an admin, must be ignored
	engine.ReconcileBatch(ctx, p, []models.ReportDraft{d})

	after := store.get(first[0].ServerID)
	if after.CreatedBy != original.CreatedBy {
		t.Errorf("Update changed ownership: %s -> %s", original.CreatedBy, after.CreatedBy)
	}
	if !after.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("Update changed createdAt: %v -> %v", original.CreatedAt, after.CreatedAt)
	}
	if after.ID != original.ID || after.LocalID != original.LocalID {
		t.Error("Update changed identity fields")
	}
}

func TestEngine_AdminMayAssignExplicitOwner(t *testing.T) {
	store := newMemReports()
	engine := NewEngine(store)
	admin := models.Principal{UserID: "admin-1", Role: models.RoleAdmin}

	d := validDraft("local-1")
	d.CreatedBy = "operator-7"
	outcomes := engine.ReconcileBatch(context.Background(), admin, []models.ReportDraft{d})

	if outcomes[0].Status != OutcomeCreated {
		t.Fatalf("Expected created, got %s (%s)", outcomes[0].Status, outcomes[0].Error)
	}
	if got := store.get(outcomes[0].ServerID).CreatedBy; got != "operator-7" {
		t.Errorf("Admin-supplied owner should be honored, got %s", got)
	}
}

func TestEngine_LocalIDMatchingIsScopedToOwner(t *testing.T) {
	store := newMemReports()
	engine := NewEngine(store)
	ctx := context.Background()

	a := engine.ReconcileBatch(ctx, operator("user-a"), []models.ReportDraft{validDraft("shared-local")})
	b := engine.ReconcileBatch(ctx, operator("user-b"), []models.ReportDraft{validDraft("shared-local")})

	if a[0].Status != OutcomeCreated || b[0].Status != OutcomeCreated {
		t.Fatalf("Both users should create: %s / %s", a[0].Status, b[0].Status)
	}
	if a[0].ServerID == b[0].ServerID {
		t.Error("Different users' drafts with the same localId must not collide")
	}
	if store.count() != 2 {
		t.Errorf("Expected 2 records, got %d", store.count())
	}
}

func TestEngine_StorageErrorsBecomeOutcomes(t *testing.T) {
	store := newMemReports()
	engine := NewEngine(store)
	p := operator("user-1")
	ctx := context.Background()

	store.findErr = errors.New("connection refused")
	outcomes := engine.ReconcileBatch(ctx, p, []models.ReportDraft{validDraft("local-1")})
	if outcomes[0].Status != OutcomeError {
		t.Fatalf("Lookup failure should yield an error outcome, got %s", outcomes[0].Status)
	}

	store.findErr = nil
	store.createErr = errors.New("disk full")
	outcomes = engine.ReconcileBatch(ctx, p, []models.ReportDraft{validDraft("local-1")})
	if outcomes[0].Status != OutcomeError {
		t.Fatalf("Create failure should yield an error outcome, got %s", outcomes[0].Status)
	}
	if store.count() != 0 {
		t.Errorf("No record should be persisted after a create failure, got %d", store.count())
	}
}

func TestEngine_DraftWithoutLocalIDAlwaysCreates(t *testing.T) {
	store := newMemReports()
	engine := NewEngine(store)
	p := operator("user-1")
	ctx := context.Background()

	d := validDraft("")
	first := engine.ReconcileBatch(ctx, p, []models.ReportDraft{d})
	second := engine.ReconcileBatch(ctx, p, []models.ReportDraft{d})

	if first[0].Status != OutcomeCreated || second[0].Status != OutcomeCreated {
		t.Fatalf("Drafts without localId always create: %s / %s", first[0].Status, second[0].Status)
	}
	if store.count() != 2 {
		t.Errorf("Expected 2 records, got %d", store.count())
	}
}
