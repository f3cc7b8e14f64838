package service

import (
	"context"

	"github.com/teresa-solution/booking-tenant-service/internal/tenant"
)

// SubdomainChecker looks up live tenant slugs in the global catalog.
type SubdomainChecker interface {
	SubdomainExists(ctx context.Context, slug string) (bool, error)
}

// CatalogReader answers sign-up time questions about the tenant catalog.
// A false answer is advisory; provisioning enforces uniqueness itself.
type CatalogReader struct {
	repo SubdomainChecker
}

func NewCatalogReader(repo SubdomainChecker) *CatalogReader {
	return &CatalogReader{repo: repo}
}

// SubdomainExists reports whether a live tenant already uses candidate,
// compared case-insensitively. A blank candidate never exists.
func (c *CatalogReader) SubdomainExists(ctx context.Context, candidate string) (bool, error) {
	slug := tenant.Normalize(candidate)
	if slug == "" {
		return false, nil
	}
	return c.repo.SubdomainExists(ctx, slug)
}
