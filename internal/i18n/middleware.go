package i18n

import (
	"net/http"

	"golang.org/x/text/language"
)

var matcher = language.NewMatcher([]language.Tag{language.Chinese, language.English})

// Middleware puts a Localizer into every request context. The language is
// taken from the lang query parameter, then Accept-Language, then
// fallback.
func Middleware(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := RequestLang(r, fallback)
			next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), New(lang))))
		})
	}
}

// RequestLang picks the language for r.
func RequestLang(r *http.Request, fallback string) string {
	if q := r.URL.Query().Get("lang"); Supported(q) {
		return q
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return []string{Chinese, English}[idx]
			}
		}
	}
	return fallback
}
