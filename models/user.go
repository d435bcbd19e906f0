package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the capability set a user signs in with
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOperator
}

// Company is the tenant boundary isolating all data and access grants
type Company struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// User represents a badge holder belonging to one company
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BadgeID   string    `json:"badge_id" db:"badge_id"`
	Name      string    `json:"name" db:"name"`
	Role      Role      `json:"role" db:"role"`
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserWithAccess is a user together with the processes it is granted
type UserWithAccess struct {
	User
	Processes []ProcessRef `json:"processes"`
}

// ProcessRef is the minimal view of a process used in listings
type ProcessRef struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

// OperatorAccess grants an operator the right to time a process
type OperatorAccess struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProcessID uuid.UUID `json:"process_id" db:"process_id"`
}

// AuthSession is an issued bearer token
type AuthSession struct {
	Token     string    `json:"token" db:"token"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Identity is the authenticated caller of a request
type Identity struct {
	UserID    uuid.UUID `json:"user_id"`
	CompanyID uuid.UUID `json:"company_id"`
	Role      Role      `json:"role"`
	Name      string    `json:"name"`
}
