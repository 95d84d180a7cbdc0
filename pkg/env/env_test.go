package env

import "testing"

func TestGetFallsBackWhenBlank(t *testing.T) {
	t.Setenv("STOREFRONT_ENV_TEST", "   ")
	if got := Get("STOREFRONT_ENV_TEST", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("STOREFRONT_ENV_TEST", " console ")
	if got := Get("STOREFRONT_ENV_TEST", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}
