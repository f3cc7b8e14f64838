package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Setting is one row of a tenant's settings table.
type Setting struct {
	Key   string
	Value string
}

// TenantDataRepository reads from tenant schemas. Every query is scoped to
// the schema named by the slug it is given.
type TenantDataRepository struct {
	db *sql.DB
}

func NewTenantDataRepository(db *sql.DB) *TenantDataRepository {
	return &TenantDataRepository{db: db}
}

// LoadSettings returns every row of the tenant's settings table in
// insertion order.
func (r *TenantDataRepository) LoadSettings(ctx context.Context, slug string) ([]Setting, error) {
	query := fmt.Sprintf(`SELECT key, value FROM %s ORDER BY created_at, key`, qualified(slug, "tenant_settings"))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		var value sql.NullString
		if err := rows.Scan(&s.Key, &value); err != nil {
			return nil, err
		}
		s.Value = value.String
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// CountActiveUsers counts users without a soft-delete marker.
func (r *TenantDataRepository) CountActiveUsers(ctx context.Context, slug string) (int64, error) {
	return r.countActive(ctx, slug, "users")
}

// CountActiveUnits counts units without a soft-delete marker.
func (r *TenantDataRepository) CountActiveUnits(ctx context.Context, slug string) (int64, error) {
	return r.countActive(ctx, slug, "units")
}

func (r *TenantDataRepository) countActive(ctx context.Context, slug, table string) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE deleted_at IS NULL`, qualified(slug, table))
	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active %s: %w", table, err)
	}
	return n, nil
}
