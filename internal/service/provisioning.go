package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/booking-tenant-service/internal/apperror"
	"github.com/teresa-solution/booking-tenant-service/internal/crypto"
	"github.com/teresa-solution/booking-tenant-service/internal/i18n"
	"github.com/teresa-solution/booking-tenant-service/internal/model"
	"github.com/teresa-solution/booking-tenant-service/internal/monitoring"
	"github.com/teresa-solution/booking-tenant-service/internal/store"
	"github.com/teresa-solution/booking-tenant-service/internal/tenant"
)

const (
	// DefaultPlan is assigned to every newly provisioned tenant.
	DefaultPlan = "free"
	// AdminRole is the role of the seeded first user.
	AdminRole = "admin"
	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

// ErrTenantSlugAlreadyExists is matched with errors.Is on sign-up conflicts.
var ErrTenantSlugAlreadyExists = store.ErrDuplicateSlug

// ProvisioningService handles tenant provisioning workflows
type ProvisioningService struct {
	repo    *store.TenantRepository
	catalog *CatalogReader
	hasher  *crypto.Hasher
	clock   clock.Clock
}

// NewProvisioningService creates a new ProvisioningService
func NewProvisioningService(repo *store.TenantRepository, catalog *CatalogReader, hasher *crypto.Hasher, clk clock.Clock) *ProvisioningService {
	return &ProvisioningService{repo: repo, catalog: catalog, hasher: hasher, clock: clk}
}

// SignUp registers a new company. The catalog pre-check only gives an early
// answer; Provision is what enforces slug uniqueness.
func (ps *ProvisioningService) SignUp(ctx context.Context, req model.ProvisionRequest) (uuid.UUID, error) {
	const op = "provisioning.SignUp"

	norm, err := validateProvisionRequest(op, req)
	if err != nil {
		return uuid.Nil, err
	}

	exists, err := ps.catalog.SubdomainExists(ctx, norm.Subdomain)
	if err != nil {
		log.Warn().Err(err).Str("subdomain", norm.Subdomain).Msg("Subdomain pre-check failed, deferring to provisioning")
	} else if exists {
		monitoring.TenantsProvisioned.WithLabelValues("conflict").Inc()
		return uuid.Nil, slugConflict(op, norm.Subdomain)
	}

	return ps.Provision(ctx, req)
}

// Provision creates the catalog row, the tenant schema and the first admin
// user in one serializable transaction, returning the new tenant id. Any
// failure rolls every step back.
func (ps *ProvisioningService) Provision(ctx context.Context, req model.ProvisionRequest) (id uuid.UUID, err error) {
	const op = "provisioning.Provision"
	start := ps.clock.Now()
	status := "failed"
	defer func() {
		monitoring.TenantsProvisioned.WithLabelValues(status).Inc()
		monitoring.ProvisioningDuration.Observe(ps.clock.Since(start).Seconds())
		if status == "failed" {
			monitoring.Alert("tenant provisioning failed", map[string]string{
				"subdomain": tenant.Normalize(req.Subdomain),
				"error":     err.Error(),
			})
		}
	}()

	norm, err := validateProvisionRequest(op, req)
	if err != nil {
		status = "invalid"
		return uuid.Nil, err
	}

	// Hash before opening the transaction to keep it short.
	hash, err := ps.hasher.Hash(norm.AdminPassword)
	if err != nil {
		return uuid.Nil, apperror.Internal(op, fmt.Errorf("hash admin password: %w", err))
	}

	now := ps.clock.Now().UTC()
	t := &model.Tenant{
		ID:        uuid.New(),
		Slug:      norm.Subdomain,
		Name:      norm.CompanyName,
		IsActive:  true,
		Plan:      DefaultPlan,
		CreatedAt: now,
		UpdatedAt: now,
	}
	admin := &model.AdminUser{
		ID:           uuid.New(),
		FullName:     norm.AdminFullName,
		Email:        norm.AdminEmail,
		PasswordHash: hash,
		Role:         AdminRole,
		IsActive:     true,
		CreatedAt:    now,
	}

	tx, err := ps.repo.BeginProvisioning(ctx)
	if err != nil {
		return uuid.Nil, apperror.Internal(op, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = tx.InsertTenant(ctx, t); err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			status = "conflict"
			return uuid.Nil, slugConflict(op, t.Slug)
		}
		return uuid.Nil, apperror.Internal(op, fmt.Errorf("insert tenant: %w", err))
	}
	if err = tx.CreateTenantSchema(ctx, t.ID, t.Slug); err != nil {
		if errors.Is(err, store.ErrDuplicateSlug) {
			status = "conflict"
			return uuid.Nil, slugConflict(op, t.Slug)
		}
		return uuid.Nil, apperror.Internal(op, fmt.Errorf("create tenant schema: %w", err))
	}
	if err = tx.InsertAdmin(ctx, t.Slug, admin); err != nil {
		return uuid.Nil, apperror.Internal(op, fmt.Errorf("seed admin user: %w", err))
	}
	details := map[string]interface{}{"slug": t.Slug, "admin_user_id": admin.ID.String()}
	if err = tx.CreateProvisioningLog(ctx, t.ID, "provisioned", "success", details); err != nil {
		return uuid.Nil, apperror.Internal(op, fmt.Errorf("write provisioning log: %w", err))
	}
	if err = tx.Commit(); err != nil {
		return uuid.Nil, apperror.Internal(op, fmt.Errorf("commit: %w", err))
	}

	status = "success"
	log.Info().Str("tenant_id", t.ID.String()).Str("slug", t.Slug).Msg("Tenant provisioned")
	return t.ID, nil
}

func slugConflict(op, slug string) error {
	return &apperror.Error{
		Code: apperror.EBusinessRule,
		Op:   op,
		Key:  i18n.TenantSlugAlreadyExists,
		Args: []any{slug},
		Msg:  fmt.Sprintf("subdomain %s is already in use", slug),
		Err:  ErrTenantSlugAlreadyExists,
	}
}

// validateProvisionRequest returns req with every field normalized.
func validateProvisionRequest(op string, req model.ProvisionRequest) (model.ProvisionRequest, error) {
	norm := model.ProvisionRequest{
		CompanyName:   strings.TrimSpace(req.CompanyName),
		Subdomain:     tenant.Normalize(req.Subdomain),
		AdminFullName: strings.TrimSpace(req.AdminFullName),
		AdminEmail:    strings.ToLower(strings.TrimSpace(req.AdminEmail)),
		AdminPassword: req.AdminPassword,
	}

	switch {
	case norm.CompanyName == "":
		return norm, apperror.Invalid(op, "company name is required")
	case norm.Subdomain == "":
		return norm, apperror.Invalid(op, "subdomain is required")
	case !tenant.ValidSlug(norm.Subdomain):
		return norm, apperror.Invalid(op, "invalid subdomain format")
	case norm.AdminFullName == "":
		return norm, apperror.Invalid(op, "admin full name is required")
	case norm.AdminEmail == "":
		return norm, apperror.Invalid(op, "admin email is required")
	case !isValidEmail(norm.AdminEmail):
		return norm, apperror.Invalid(op, "invalid email format")
	case strings.TrimSpace(norm.AdminPassword) == "":
		return norm, apperror.Invalid(op, "admin password is required")
	case len(norm.AdminPassword) > MaxPasswordBytes:
		return norm, apperror.Invalid(op, "admin password is too long")
	}
	return norm, nil
}

// isValidEmail performs a basic email validation
func isValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
