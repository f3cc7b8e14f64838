package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// UnboundedHorizon marks an availability horizon with no plan limit.
const UnboundedHorizon = math.MaxInt32

// Tenant represents the tenants table
type Tenant struct {
	ID        uuid.UUID  `json:"id"`
	Slug      string     `json:"slug"`
	Name      string     `json:"name"`
	IsActive  bool       `json:"is_active"`
	Plan      string     `json:"plan"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// AdminUser is the first user seeded into a freshly provisioned tenant schema.
type AdminUser struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

// ProvisionRequest is the sign-up input for a new tenant.
type ProvisionRequest struct {
	CompanyName   string `json:"companyName"`
	Subdomain     string `json:"subdomain"`
	AdminFullName string `json:"adminFullName"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
}

// QuotaSnapshot is the effective set of plan limits for one tenant.
// A nil bound means unlimited.
type QuotaSnapshot struct {
	MaxUsers                *int `json:"maxUsers"`
	MaxUnits                *int `json:"maxUnits"`
	AvailabilityHorizonDays int  `json:"availabilityHorizonDays"`
}

// Unbounded returns a snapshot with no limits.
func Unbounded() QuotaSnapshot {
	return QuotaSnapshot{AvailabilityHorizonDays: UnboundedHorizon}
}
