package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teresa-solution/booking-tenant-service/internal/apperror"
	"github.com/teresa-solution/booking-tenant-service/internal/crypto"
	"github.com/teresa-solution/booking-tenant-service/internal/i18n"
	"github.com/teresa-solution/booking-tenant-service/internal/model"
	"github.com/teresa-solution/booking-tenant-service/internal/store"
)

func setupProvisioning(t *testing.T) (*ProvisioningService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	clk := clock.NewMock()
	clk.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := store.NewTenantRepository(db)
	svc := NewProvisioningService(repo, NewCatalogReader(repo), crypto.NewHasher(4), clk)
	return svc, mock
}

func validRequest() model.ProvisionRequest {
	return model.ProvisionRequest{
		CompanyName:   "  Acme Co ",
		Subdomain:     " Acme-Co ",
		AdminFullName: "Jane Doe",
		AdminEmail:    " Jane@Acme.TEST ",
		AdminPassword: "s3cret-pass",
	}
}

func expectExists(mock sqlmock.Sqlmock, slug string, exists bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(slug).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func expectInsertTenant(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
	return mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tenants")).
		WithArgs(sqlmock.AnyArg(), "acme-co", "Acme Co", true, DefaultPlan, sqlmock.AnyArg(), sqlmock.AnyArg())
}

func expectSchema(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
	return mock.ExpectExec(regexp.QuoteMeta("SELECT create_tenant_schema($1, $2)")).
		WithArgs(sqlmock.AnyArg(), "acme-co")
}

func expectAdmin(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
	return mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "acme-co"."users"`)).
		WithArgs(sqlmock.AnyArg(), "Jane Doe", "jane@acme.test", sqlmock.AnyArg(), AdminRole, true, sqlmock.AnyArg())
}

func expectProvisioned(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	expectInsertTenant(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	expectSchema(mock).WillReturnResult(sqlmock.NewResult(0, 0))
	expectAdmin(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tenant_provisioning_logs")).
		WithArgs(sqlmock.AnyArg(), "provisioned", "success", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func TestProvision_Success(t *testing.T) {
	svc, mock := setupProvisioning(t)
	expectProvisioned(mock)

	id, err := svc.Provision(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
}

func TestProvision_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.ProvisionRequest)
	}{
		{"missing company", func(r *model.ProvisionRequest) { r.CompanyName = " " }},
		{"missing subdomain", func(r *model.ProvisionRequest) { r.Subdomain = "" }},
		{"bad subdomain", func(r *model.ProvisionRequest) { r.Subdomain = "acme_co!" }},
		{"leading hyphen", func(r *model.ProvisionRequest) { r.Subdomain = "-acme" }},
		{"missing admin name", func(r *model.ProvisionRequest) { r.AdminFullName = "" }},
		{"missing email", func(r *model.ProvisionRequest) { r.AdminEmail = "" }},
		{"bad email", func(r *model.ProvisionRequest) { r.AdminEmail = "jane.acme.test" }},
		{"missing password", func(r *model.ProvisionRequest) { r.AdminPassword = "   " }},
		{"password too long for bcrypt", func(r *model.ProvisionRequest) { r.AdminPassword = strings.Repeat("a", MaxPasswordBytes+1) }},
		{"multibyte password too long", func(r *model.ProvisionRequest) { r.AdminPassword = strings.Repeat("é", 37) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupProvisioning(t)
			req := validRequest()
			tt.mutate(&req)

			id, err := svc.Provision(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, uuid.Nil, id)
			assert.Equal(t, apperror.EInvalid, apperror.Code(err))
		})
	}
}

func TestProvision_DuplicateSlug(t *testing.T) {
	svc, mock := setupProvisioning(t)
	mock.ExpectBegin()
	expectInsertTenant(mock).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
	mock.ExpectRollback()

	_, err := svc.Provision(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTenantSlugAlreadyExists)
	assert.Equal(t, apperror.EBusinessRule, apperror.Code(err))

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, i18n.TenantSlugAlreadyExists, appErr.Key)
	assert.Equal(t, []any{"acme-co"}, appErr.Args)
}

func TestProvision_PasswordAtBcryptLimit(t *testing.T) {
	svc, mock := setupProvisioning(t)
	expectProvisioned(mock)

	req := validRequest()
	req.AdminPassword = strings.Repeat("a", MaxPasswordBytes)
	_, err := svc.Provision(context.Background(), req)
	assert.NoError(t, err)
}

func TestSignUp_LeftoverSchemaConflicts(t *testing.T) {
	svc, mock := setupProvisioning(t)
	expectExists(mock, "acme-co", false)
	mock.ExpectBegin()
	expectInsertTenant(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	expectSchema(mock).WillReturnError(&pq.Error{Code: "42P06", Message: `schema "acme-co" already exists`})
	mock.ExpectRollback()

	_, err := svc.SignUp(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTenantSlugAlreadyExists)
	assert.Equal(t, apperror.EBusinessRule, apperror.Code(err))

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, i18n.TenantSlugAlreadyExists, appErr.Key)
}

func TestProvision_SeedFailureRollsBackEverything(t *testing.T) {
	svc, mock := setupProvisioning(t)
	mock.ExpectBegin()
	expectInsertTenant(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	expectSchema(mock).WillReturnResult(sqlmock.NewResult(0, 0))
	seedErr := errors.New(`relation "acme-co.users" violates check constraint`)
	expectAdmin(mock).WillReturnError(seedErr)
	mock.ExpectRollback()
	expectExists(mock, "acme-co", false)

	ctx := context.Background()
	_, err := svc.Provision(ctx, validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, seedErr)
	assert.Equal(t, apperror.EInternal, apperror.Code(err))

	exists, err := svc.catalog.SubdomainExists(ctx, "acme-co")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProvision_SchemaFailureRollsBack(t *testing.T) {
	svc, mock := setupProvisioning(t)
	mock.ExpectBegin()
	expectInsertTenant(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	expectSchema(mock).WillReturnError(errors.New("schema already exists"))
	mock.ExpectRollback().WillReturnError(errors.New("connection lost"))

	_, err := svc.Provision(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create tenant schema")
	assert.Contains(t, err.Error(), "rollback: connection lost")
}

func TestProvision_BeginFailure(t *testing.T) {
	svc, mock := setupProvisioning(t)
	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	_, err := svc.Provision(context.Background(), validRequest())
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Equal(t, apperror.EInternal, apperror.Code(err))
}

func TestSignUp_SecondSignUpConflicts(t *testing.T) {
	svc, mock := setupProvisioning(t)
	ctx := context.Background()

	expectExists(mock, "acme-co", false)
	expectProvisioned(mock)
	id, err := svc.SignUp(ctx, validRequest())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	expectExists(mock, "acme-co", true)
	_, err = svc.SignUp(ctx, validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTenantSlugAlreadyExists)
	assert.Equal(t, apperror.EBusinessRule, apperror.Code(err))
}

func TestSignUp_PreCheckFailureFallsThrough(t *testing.T) {
	svc, mock := setupProvisioning(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("acme-co").
		WillReturnError(errors.New("statement timeout"))
	mock.ExpectBegin()
	expectInsertTenant(mock).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.SignUp(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrTenantSlugAlreadyExists)
}

func TestSignUp_ValidationSkipsCatalog(t *testing.T) {
	svc, _ := setupProvisioning(t)
	req := validRequest()
	req.Subdomain = "NOT VALID"

	_, err := svc.SignUp(context.Background(), req)
	assert.Equal(t, apperror.EInvalid, apperror.Code(err))
}

func TestCatalogReader_SubdomainExists(t *testing.T) {
	svc, mock := setupProvisioning(t)
	ctx := context.Background()

	exists, err := svc.catalog.SubdomainExists(ctx, "   ")
	require.NoError(t, err)
	assert.False(t, exists)

	expectExists(mock, "acme-co", true)
	exists, err = svc.catalog.SubdomainExists(ctx, " ACME-Co ")
	require.NoError(t, err)
	assert.True(t, exists)
}
