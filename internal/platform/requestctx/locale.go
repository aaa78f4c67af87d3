// Package requestctx carries per-request values across handler layers.
package requestctx

import "context"

type localeContextKey struct{}

// WithLocale stores the negotiated response locale in context.
func WithLocale(ctx context.Context, locale string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, localeContextKey{}, locale)
}

// LocaleFromContext returns the locale stored in context, or fallback when
// none was negotiated.
func LocaleFromContext(ctx context.Context, fallback string) string {
	if ctx == nil {
		return fallback
	}
	if value, _ := ctx.Value(localeContextKey{}).(string); value != "" {
		return value
	}
	return fallback
}
