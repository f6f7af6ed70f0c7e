package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/indureport/indureportgo/internal/models"
)

func seedUser(t *testing.T, users *stubUsers, id string, role models.Role, company string) *models.User {
	t.Helper()
	u := &models.User{
		ID:       id,
		Username: id,
		Password: "x",
		Email:    id + "@plant.example",
		Role:     role,
		Company:  company,
		Status:   "active",
	}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return u
}

func TestListUsers_RoleGateAndCompanyScope(t *testing.T) {
	router, _, users := newTestRouter(t)
	h := router.Handler()
	seedUser(t, users, "op-1", models.RoleOperator, "NorthPlant")
	seedUser(t, users, "op-2", models.RoleOperator, "SouthPlant")
	seedUser(t, users, "sup-1", models.RoleSupervisor, "NorthPlant")

	// Operators are locked out of the listing entirely
	rec := doJSON(h, "GET", "/users", bearer(t, "op-1", models.RoleOperator, "NorthPlant"), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for operator, got %d", rec.Code)
	}

	// Supervisors see their own company
	rec = doJSON(h, "GET", "/users", bearer(t, "sup-1", models.RoleSupervisor, "NorthPlant"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for supervisor, got %d", rec.Code)
	}
	var resp struct {
		Users []models.User `json:"users"`
		Count int           `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("Supervisor should see 2 NorthPlant users, got %d", resp.Count)
	}
	for _, u := range resp.Users {
		if u.Company != "NorthPlant" {
			t.Errorf("Listing leaked user from %s", u.Company)
		}
	}

	// Admins see everyone
	rec = doJSON(h, "GET", "/users", bearer(t, "root", models.RoleAdmin, ""), "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 3 {
		t.Errorf("Admin should see all 3 users, got %d", resp.Count)
	}
}

func TestGetProfile(t *testing.T) {
	router, _, users := newTestRouter(t)
	h := router.Handler()
	seedUser(t, users, "op-1", models.RoleOperator, "NorthPlant")

	rec := doJSON(h, "GET", "/users/profile", bearer(t, "op-1", models.RoleOperator, "NorthPlant"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User models.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.User.ID != "op-1" {
		t.Errorf("Expected own profile, got %s", resp.User.ID)
	}
}

func TestUpdateUser_SelfVsAdmin(t *testing.T) {
	router, _, users := newTestRouter(t)
	h := router.Handler()
	seedUser(t, users, "op-1", models.RoleOperator, "NorthPlant")
	seedUser(t, users, "op-2", models.RoleOperator, "NorthPlant")

	// Self-service profile edit
	rec := doJSON(h, "PUT", "/users/op-1",
		bearer(t, "op-1", models.RoleOperator, "NorthPlant"), `{"name":"Marco L."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for self edit, got %d: %s", rec.Code, rec.Body.String())
	}
	u, _ := users.Get(context.Background(), "op-1")
	if u.Name != "Marco L." {
		t.Errorf("Name not updated: %q", u.Name)
	}

	// Someone else's account is off limits
	rec = doJSON(h, "PUT", "/users/op-2",
		bearer(t, "op-1", models.RoleOperator, "NorthPlant"), `{"name":"Hacked"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for editing another user, got %d", rec.Code)
	}

	// Self role escalation is blocked
	rec = doJSON(h, "PUT", "/users/op-1",
		bearer(t, "op-1", models.RoleOperator, "NorthPlant"), `{"role":"admin"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for self role change, got %d", rec.Code)
	}
	u, _ = users.Get(context.Background(), "op-1")
	if u.Role != models.RoleOperator {
		t.Errorf("Role escalated to %s", u.Role)
	}

	// Admin promotes, with a valid role only
	rec = doJSON(h, "PUT", "/users/op-1",
		bearer(t, "root", models.RoleAdmin, ""), `{"role":"supervisor"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for admin role change, got %d: %s", rec.Code, rec.Body.String())
	}
	u, _ = users.Get(context.Background(), "op-1")
	if u.Role != models.RoleSupervisor {
		t.Errorf("Expected supervisor, got %s", u.Role)
	}

	rec = doJSON(h, "PUT", "/users/op-2",
		bearer(t, "root", models.RoleAdmin, ""), `{"role":"superuser"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestDeleteUser_AdminOnly(t *testing.T) {
	router, _, users := newTestRouter(t)
	h := router.Handler()
	seedUser(t, users, "op-1", models.RoleOperator, "NorthPlant")
	seedUser(t, users, "root", models.RoleAdmin, "")

	// Route gate: non-admins never reach the handler
	rec := doJSON(h, "DELETE", "/users/op-1",
		bearer(t, "sup-1", models.RoleSupervisor, "NorthPlant"), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for supervisor, got %d", rec.Code)
	}

	// Admins cannot delete themselves
	rec = doJSON(h, "DELETE", "/users/root", bearer(t, "root", models.RoleAdmin, ""), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for self delete, got %d", rec.Code)
	}

	rec = doJSON(h, "DELETE", "/users/op-1", bearer(t, "root", models.RoleAdmin, ""), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := users.Get(context.Background(), "op-1"); err == nil {
		t.Error("User should be gone after delete")
	}
}
