package requestctx

import (
	"context"
	"testing"
)

func TestLocaleFromContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{name: "stored", ctx: WithLocale(context.Background(), "ru-RU"), want: "ru-RU"},
		{name: "missing", ctx: context.Background(), want: "en-US"},
		{name: "blank", ctx: WithLocale(context.Background(), ""), want: "en-US"},
		{name: "nil", ctx: nil, want: "en-US"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocaleFromContext(tt.ctx, "en-US"); got != tt.want {
				t.Fatalf("LocaleFromContext = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithLocaleNilContext(t *testing.T) {
	ctx := WithLocale(nil, "ru-RU")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	if got := LocaleFromContext(ctx, ""); got != "ru-RU" {
		t.Fatalf("LocaleFromContext = %q, want ru-RU", got)
	}
}
