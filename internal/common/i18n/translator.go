// Package i18n resolves display strings for the English and Arabic locales.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"social-support-wizard/internal/common/validation"
)

var supported = []language.Tag{language.English, language.Arabic}

// Translator is a read-only lookup from (locale, key, args) to text.
type Translator struct {
	catalog  *catalog.Builder
	matcher  language.Matcher
	fallback language.Tag
	keys     map[string]struct{}
}

// New builds the catalog. defaultLocale is used when a requested locale is
// not supported; anything other than "ar" means English.
func New(defaultLocale string) *Translator {
	fallback := language.English
	if defaultLocale == "ar" {
		fallback = language.Arabic
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	keys := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		_ = b.SetString(language.English, e.key, e.en)
		_ = b.SetString(language.Arabic, e.key, e.ar)
		keys[e.key] = struct{}{}
	}

	return &Translator{
		catalog:  b,
		matcher:  language.NewMatcher(supported),
		fallback: fallback,
		keys:     keys,
	}
}

// Has reports whether key is in the catalog.
func (t *Translator) Has(key string) bool {
	_, ok := t.keys[key]
	return ok
}

// T renders key for locale. Unknown keys come back unchanged.
func (t *Translator) T(locale, key string, args ...interface{}) string {
	if !t.Has(key) {
		return key
	}
	p := message.NewPrinter(t.tag(locale), message.Catalog(t.catalog))
	return p.Sprintf(key, args...)
}

// Match picks the best supported locale for an Accept-Language header value
// and returns its base code ("en" or "ar").
func (t *Translator) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.fallback.String()
	}
	tag, _ := language.MatchStrings(t.matcher, acceptLanguage)
	base, _ := tag.Base()
	return base.String()
}

func (t *Translator) tag(locale string) language.Tag {
	switch locale {
	case "en":
		return language.English
	case "ar":
		return language.Arabic
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return t.fallback
	}
	matched, _, confidence := t.matcher.Match(tag)
	if confidence == language.No {
		return t.fallback
	}
	base, _ := matched.Base()
	if base.String() == "ar" {
		return language.Arabic
	}
	return language.English
}

// LocalizeErrors fills Message on every field error.
func (t *Translator) LocalizeErrors(locale string, errs []validation.FieldError) []validation.FieldError {
	out := make([]validation.FieldError, len(errs))
	for i, fe := range errs {
		fe.Message = t.T(locale, fe.MessageKey, fe.Args...)
		out[i] = fe
	}
	return out
}
