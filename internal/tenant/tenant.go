// Package tenant resolves the active tenant of a request and carries it
// through context.Context.
package tenant

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// HeaderName is the request header identifying the tenant.
const HeaderName = "X-Tenant"

// MaxSlugLength is the Postgres identifier limit; slugs double as schema names.
const MaxSlugLength = 63

var (
	// ErrHeaderMissing is returned when the tenant header is absent or blank.
	ErrHeaderMissing = errors.New("tenant header missing")

	// ErrHeaderInvalidFormat is returned when the tenant header is not a valid slug.
	ErrHeaderInvalidFormat = errors.New("tenant header invalid format")

	// ErrNoTenant is returned when a context carries no resolved tenant.
	ErrNoTenant = errors.New("no tenant in context")
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Normalize trims surrounding whitespace and lowercases s.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidSlug reports whether s, once normalized, is a well-formed tenant slug.
func ValidSlug(s string) bool {
	s = Normalize(s)
	if len(s) == 0 || len(s) > MaxSlugLength {
		return false
	}
	return slugRegex.MatchString(s)
}

// Resolve validates a raw header value. present distinguishes an absent
// header from one sent with an empty value; both are rejected the same way.
func Resolve(raw string, present bool) (string, error) {
	if !present {
		return "", ErrHeaderMissing
	}
	slug := Normalize(raw)
	if slug == "" {
		return "", ErrHeaderMissing
	}
	if !ValidSlug(slug) {
		return "", ErrHeaderInvalidFormat
	}
	return slug, nil
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the normalized tenant slug.
func NewContext(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, ctxKey{}, Normalize(slug))
}

// FromContext returns the tenant slug stored in ctx, if any.
func FromContext(ctx context.Context) (string, bool) {
	slug, ok := ctx.Value(ctxKey{}).(string)
	if !ok || slug == "" {
		return "", false
	}
	return slug, true
}

// MustFromContext is FromContext for code running behind the tenant gate.
func MustFromContext(ctx context.Context) (string, error) {
	slug, ok := FromContext(ctx)
	if !ok {
		return "", ErrNoTenant
	}
	return slug, nil
}
