package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teresa-solution/booking-tenant-service/internal/model"
)

// TenantRepository handles the global tenant catalog and tenant provisioning.
type TenantRepository struct {
	db *sql.DB
}

// NewTenantRepository creates a new TenantRepository
func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Close closes the database connection
func (r *TenantRepository) Close() error {
	return r.db.Close()
}

// SubdomainExists reports whether a non-deleted tenant uses slug.
// slug must already be normalized.
func (r *TenantRepository) SubdomainExists(ctx context.Context, slug string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tenants
			WHERE lower(slug) = $1 AND deleted_at IS NULL
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetBySlug retrieves a non-deleted tenant by slug
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	query := `
		SELECT id, slug, name, is_active, plan, created_at, updated_at, deleted_at
		FROM tenants
		WHERE lower(slug) = $1 AND deleted_at IS NULL
	`
	tenant := &model.Tenant{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&tenant.ID, &tenant.Slug, &tenant.Name, &tenant.IsActive, &tenant.Plan,
		&tenant.CreatedAt, &tenant.UpdatedAt, &tenant.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// SoftDelete marks a tenant deleted. It returns sql.ErrNoRows when no live
// tenant has id.
func (r *TenantRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tenants
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BeginProvisioning opens the serializable transaction every provisioning
// step runs in.
func (r *TenantRepository) BeginProvisioning(ctx context.Context) (*ProvisioningTx, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin provisioning tx: %w", err)
	}
	return &ProvisioningTx{tx: tx}, nil
}

// ProvisioningTx is one in-flight tenant provisioning. Nothing is visible
// to other connections until Commit.
type ProvisioningTx struct {
	tx *sql.Tx
}

// InsertTenant inserts the catalog row. A taken slug yields ErrDuplicateSlug.
func (p *ProvisioningTx) InsertTenant(ctx context.Context, tenant *model.Tenant) error {
	query := `
		INSERT INTO tenants (id, slug, name, is_active, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := p.tx.ExecContext(ctx, query,
		tenant.ID, tenant.Slug, tenant.Name, tenant.IsActive, tenant.Plan,
		tenant.CreatedAt, tenant.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	return err
}

// CreateTenantSchema runs the server-side schema provisioning routine.
// Soft-deleted tenants keep their schema, so a slug whose schema still
// exists is reported as ErrDuplicateSlug.
func (p *ProvisioningTx) CreateTenantSchema(ctx context.Context, tenantID uuid.UUID, slug string) error {
	_, err := p.tx.ExecContext(ctx, `SELECT create_tenant_schema($1, $2)`, tenantID, slug)
	if isDuplicateSchema(err) {
		return ErrDuplicateSlug
	}
	return err
}

// InsertAdmin seeds the admin user into the tenant schema created earlier
// in this transaction.
func (p *ProvisioningTx) InsertAdmin(ctx context.Context, slug string, admin *model.AdminUser) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, full_name, email, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, qualified(slug, "users"))
	_, err := p.tx.ExecContext(ctx, query,
		admin.ID, admin.FullName, admin.Email, admin.PasswordHash, admin.Role, admin.IsActive, admin.CreatedAt,
	)
	return err
}

// CreateProvisioningLog records a provisioning step for auditing.
func (p *ProvisioningTx) CreateProvisioningLog(ctx context.Context, tenantID uuid.UUID, step, status string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	query := `INSERT INTO tenant_provisioning_logs (tenant_id, step, status, details, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = p.tx.ExecContext(ctx, query, tenantID, step, status, detailsJSON, time.Now().UTC())
	return err
}

func (p *ProvisioningTx) Commit() error {
	return p.tx.Commit()
}

// Rollback aborts the transaction. It is a no-op after Commit.
func (p *ProvisioningTx) Rollback() error {
	err := p.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}
