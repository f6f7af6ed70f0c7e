package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/indureport/indureportgo/internal/models"
	"github.com/indureport/indureportgo/internal/sync"
	"github.com/indureport/indureportgo/internal/utils"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Company  string `json:"company"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// register creates a new operator account. Roles are only ever elevated by
// an admin through the user update endpoint.
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var body registerRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Username == "" || body.Password == "" || body.Email == "" {
		respondError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	if len(body.Password) < 6 {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	if _, err := r.users.FindByUsername(req.Context(), body.Username); err == nil {
		respondError(w, http.StatusConflict, "Username already taken")
		return
	} else if !errors.Is(err, sync.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	hash, err := utils.HashPassword(body.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &models.User{
		Username: body.Username,
		Password: hash,
		Email:    body.Email,
		Name:     body.Name,
		Company:  body.Company,
		Role:     models.RoleOperator,
		Status:   "active",
	}
	if err := r.users.Create(req.Context(), user); err != nil {
		log.Printf("⚠️ Auth: failed to create user %s: %v", body.Username, err)
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	log.Printf("✅ Auth: registered user %s", user.Username)
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"token":        accessToken,
		"refreshToken": refreshToken,
		"user":         user,
	})
}

// login authenticates by username (or email, for clients that send that
// instead) and returns a token pair.
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	identifier := body.Username
	if identifier == "" {
		identifier = body.Email
	}
	if identifier == "" || body.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := r.users.FindByUsername(req.Context(), identifier)
	if errors.Is(err, sync.ErrNotFound) {
		// Same message as a wrong password so login probing learns nothing
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if !utils.CheckPasswordHash(body.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if user.Status != "active" {
		respondError(w, http.StatusForbidden, "Account is disabled")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(user, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := r.users.Save(req.Context(), user); err != nil {
		log.Printf("⚠️ Auth: failed to record login time for %s: %v", user.Username, err)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"token":        accessToken,
		"refreshToken": refreshToken,
		"user":         user,
	})
}

// logout is a client-side operation with stateless tokens; the endpoint
// exists so mobile clients get a confirmed 200 before discarding them.
func (r *Router) logout(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out",
	})
}
