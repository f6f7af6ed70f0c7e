package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/indureport/indureportgo/internal/middleware"
	"github.com/indureport/indureportgo/internal/models"
	"github.com/indureport/indureportgo/internal/sync"
	"github.com/indureport/indureportgo/internal/utils"
)

// listUsers returns accounts visible to the caller: supervisors see their
// company, admins everyone. Route-level RequireRole keeps operators out.
func (r *Router) listUsers(w http.ResponseWriter, req *http.Request) {
	p, ok := middleware.PrincipalFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	users, err := r.users.List(req.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	if p.Role == models.RoleSupervisor && p.Company != "" {
		filtered := users[:0]
		for _, u := range users {
			if u.Company == p.Company {
				filtered = append(filtered, u)
			}
		}
		users = filtered
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
		"count":   len(users),
	})
}

// getProfile returns the caller's own account
func (r *Router) getProfile(w http.ResponseWriter, req *http.Request) {
	p, ok := middleware.PrincipalFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := r.users.Get(req.Context(), p.UserID)
	if errors.Is(err, sync.ErrNotFound) {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Company  *string `json:"company"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
}

// updateUser modifies an account. Users may edit their own profile fields;
// role, status and other people's accounts require the admin role.
func (r *Router) updateUser(w http.ResponseWriter, req *http.Request) {
	p, ok := middleware.PrincipalFrom(req.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id := mux.Vars(req)["id"]
	isAdmin := p.Role == models.RoleAdmin
	if id != p.UserID && !isAdmin {
		respondError(w, http.StatusForbidden, "Insufficient permissions")
		return
	}

	var body updateUserRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := r.users.Get(req.Context(), id)
	if errors.Is(err, sync.ErrNotFound) {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	if body.Name != nil {
		user.Name = *body.Name
	}
	if body.Email != nil && *body.Email != "" {
		user.Email = *body.Email
	}
	if body.Company != nil {
		user.Company = *body.Company
	}
	if body.Password != nil && *body.Password != "" {
		if len(*body.Password) < 6 {
			respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
			return
		}
		hash, err := utils.HashPassword(*body.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to update user")
			return
		}
		user.Password = hash
	}
	if body.Role != nil {
		if !isAdmin {
			respondError(w, http.StatusForbidden, "Only admins may change roles")
			return
		}
		role := models.Role(*body.Role)
		switch role {
		case models.RoleOperator, models.RoleSupervisor, models.RoleAdmin:
			user.Role = role
		default:
			respondError(w, http.StatusBadRequest, "role must be one of: operator supervisor admin")
			return
		}
	}
	if body.Status != nil {
		if !isAdmin {
			respondError(w, http.StatusForbidden, "Only admins may change account status")
			return
		}
		user.Status = *body.Status
	}

	if err := r.users.Save(req.Context(), user); err != nil {
		log.Printf("⚠️ Users: update failed for %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// deleteUser soft-deletes an account; admin only (enforced at the route)
func (r *Router) deleteUser(w http.ResponseWriter, req *http.Request) {
	p, _ := middleware.PrincipalFrom(req.Context())

	id := mux.Vars(req)["id"]
	if id == p.UserID {
		respondError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if _, err := r.users.Get(req.Context(), id); errors.Is(err, sync.ErrNotFound) {
		respondError(w, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	if err := r.users.Delete(req.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "User deleted",
	})
}
