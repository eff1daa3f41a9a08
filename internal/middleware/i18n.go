package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// supported lists the locales gate reasons can be rendered in. English is the
// matcher's fallback.
var supported = []language.Tag{
	language.English,
	language.French,
}

var matcher = language.NewMatcher(supported)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N detects the request locale from X-Locale, Accept-Language, or the
// client's country, and stores it on the context for reason localization.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := resolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, strings.ToUpper(country))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext returns the detected locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return "en"
}

func detectLocale(r *http.Request, fallback string, country string) string {
	if v := r.Header.Get("X-Locale"); v != "" {
		return normalizeLocale(v)
	}
	if v := matchAcceptLanguage(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	if isFrancophone(country) {
		return "fr"
	}
	if country != "" {
		return "en"
	}
	if fallback != "" {
		return normalizeLocale(fallback)
	}
	return "en"
}

func matchAcceptLanguage(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, index, conf := matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	base, _ := supported[index].Base()
	return base.String()
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if strings.HasPrefix(locale, "fr") {
		return "fr"
	}
	return "en"
}

func isFrancophone(country string) bool {
	switch strings.ToUpper(country) {
	case "FR", "BE", "CH", "CA", "LU", "MC":
		return true
	}
	return false
}

func resolveCountry(r *http.Request, lookup CountryLookup) string {
	if v := r.Header.Get("X-Country-Code"); v != "" {
		return strings.ToUpper(strings.TrimSpace(v))
	}
	if v := r.Header.Get("CF-IPCountry"); v != "" {
		return strings.ToUpper(strings.TrimSpace(v))
	}
	if lookup != nil {
		if code, err := lookup(ClientIP(r)); err == nil && code != "" {
			return strings.ToUpper(code)
		}
	}
	return ""
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
