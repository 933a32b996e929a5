package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type deviceKey struct{}

// GetDevice retrieves the human-readable device summary from the context.
func GetDevice(ctx context.Context) string {
	if d, ok := ctx.Value(deviceKey{}).(string); ok {
		return d
	}
	return ""
}

// WithDevice stores a device summary in context. Exported for tests that
// exercise audit recording without the full middleware chain.
func WithDevice(ctx context.Context, summary string) context.Context {
	return context.WithValue(ctx, deviceKey{}, summary)
}

// Device parses the User-Agent header into a short summary like
// "chrome on windows" for audit forensics. Raw user agents are not stored.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		summary := summarizeUserAgent(r.Header.Get("User-Agent"))
		ctx := context.WithValue(r.Context(), deviceKey{}, summary)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func summarizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}

	os := strings.ToLower(strings.TrimSpace(ua.OS()))
	if os == "" {
		os = "unknown"
	}

	return browser + " on " + os
}
