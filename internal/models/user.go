package models

import (
	"time"

	"gorm.io/gorm"
)

// Role defines what a user is allowed to see and do
type Role string

const (
	RoleOperator   Role = "operator"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// AtLeast reports whether the role grants the privileges of other.
// operator < supervisor < admin.
func (r Role) AtLeast(other Role) bool {
	rank := map[Role]int{RoleOperator: 1, RoleSupervisor: 2, RoleAdmin: 3}
	return rank[r] >= rank[other]
}

// User represents an account in the system.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`
	Email    string `gorm:"unique;not null" json:"email"`
	Name     string `json:"name,omitempty"`
	Role     Role   `gorm:"type:varchar(15);default:'operator'" json:"role"`
	// Company is the organizational scope used for supervisor visibility.
	Company   string     `json:"company,omitempty"`
	Status    string     `gorm:"default:'active'" json:"status"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`

	// LastSync is the per-user synchronization watermark. Only the sync
	// session coordinator reads or advances it.
	LastSync *time.Time `json:"lastSync,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Principal is the authenticated identity extracted from a request token.
type Principal struct {
	UserID   string
	Username string
	Role     Role
	Company  string
}
