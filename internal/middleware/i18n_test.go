package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type assertError string

func (e assertError) Error() string { return string(e) }

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		fallback string
		country  string
		want     string
	}{
		{
			name: "x-locale overrides",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "FR")
			},
			country: "US",
			want:    "fr",
		},
		{
			name: "accept-language used",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en-US,en;q=0.9")
			},
			want: "en",
		},
		{
			name: "accept-language fr preference",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "fr-FR,en;q=0.8")
			},
			want: "fr",
		},
		{
			name:    "francophone country",
			country: "FR",
			want:    "fr",
		},
		{
			name:    "non-francophone country falls back to en",
			country: "US",
			want:    "en",
		},
		{
			name:     "configured fallback",
			fallback: "fr",
			want:     "fr",
		},
		{
			name: "default to en",
			want: "en",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			got := detectLocale(req, tc.fallback, tc.country)
			if got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		resolver CountryLookup
		want     string
	}{
		{
			name: "header precedence",
			setup: func(r *http.Request) {
				r.Header.Set("X-Country-Code", "us")
				r.Header.Set("CF-IPCountry", "fr")
			},
			want: "US",
		},
		{
			name: "cloudflare header",
			setup: func(r *http.Request) {
				r.Header.Set("CF-IPCountry", "be")
			},
			want: "BE",
		},
		{
			name: "resolver fallback",
			resolver: func(ip string) (string, error) {
				if ip != "203.0.113.4" {
					t.Fatalf("unexpected ip: %s", ip)
				}
				return "ch", nil
			},
			want: "CH",
		},
		{
			name: "resolver error returns empty",
			resolver: func(ip string) (string, error) {
				return "", assertError("boom")
			},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.4:80"
			if tc.setup != nil {
				tc.setup(req)
			}
			got := resolveCountry(req, tc.resolver)
			if got != tc.want {
				t.Fatalf("resolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLocaleFromContext(t *testing.T) {
	ctx := context.Background()
	if got := LocaleFromContext(ctx); got != "en" {
		t.Fatalf("LocaleFromContext() default = %q, want %q", got, "en")
	}
	ctx = context.WithValue(ctx, LocaleKey, "fr")
	if got := LocaleFromContext(ctx); got != "fr" {
		t.Fatalf("LocaleFromContext() with value = %q, want %q", got, "fr")
	}
}
