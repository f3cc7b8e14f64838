// Package i18n holds the user-facing message catalog.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	TenantHeaderMissing       = "TenantHeaderMissing"
	TenantHeaderInvalidFormat = "TenantHeaderInvalidFormat"
	PlanHorizonExceeded       = "PlanHorizonExceeded"
	TenantSlugAlreadyExists   = "TenantSlugAlreadyExists"
	InternalError             = "InternalError"
)

var supported = []language.Tag{language.English, language.BrazilianPortuguese}

var matcher = language.NewMatcher(supported)

var cat = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	set := func(tag language.Tag, key, msg string) {
		if err := b.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}

	set(language.English, TenantHeaderMissing, "The X-Tenant header is required.")
	set(language.English, TenantHeaderInvalidFormat, "The X-Tenant header has an invalid format.")
	set(language.English, PlanHorizonExceeded, "Availability horizon exceeded, max date: %s")
	set(language.English, TenantSlugAlreadyExists, "Subdomain %s is already in use.")
	set(language.English, InternalError, "An internal error has occurred.")

	set(language.BrazilianPortuguese, TenantHeaderMissing, "O cabeçalho X-Tenant é obrigatório.")
	set(language.BrazilianPortuguese, TenantHeaderInvalidFormat, "O cabeçalho X-Tenant possui formato inválido.")
	set(language.BrazilianPortuguese, PlanHorizonExceeded, "Horizonte de disponibilidade excedido, data máxima: %s")
	set(language.BrazilianPortuguese, TenantSlugAlreadyExists, "O subdomínio %s já está em uso.")
	set(language.BrazilianPortuguese, InternalError, "Ocorreu um erro interno.")
	return b
}()

// Printer returns a printer for the best supported match of an
// Accept-Language header value. English is the fallback.
func Printer(acceptLanguage string) *message.Printer {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	_, idx, _ := matcher.Match(tags...)
	return message.NewPrinter(supported[idx], message.Catalog(cat))
}

// Sprintf formats the catalog entry key for acceptLanguage.
func Sprintf(acceptLanguage, key string, args ...any) string {
	return Printer(acceptLanguage).Sprintf(key, args...)
}
