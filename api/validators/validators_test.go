package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type samplePayload struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","quantity":1,"extra":true}`))

	var dest samplePayload
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0}`))

	var dest samplePayload
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be at least 1", details["quantity"])
}

func TestDecodeJSONBodyRejectsTrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","quantity":1}{"name":"b"}`))

	var dest samplePayload
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single JSON object")
}

func TestDecodeJSONBodyEmpty(t *testing.T) {
	var dest samplePayload
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request body required")

	type optionalPayload struct {
		Notes string `json:"notes" validate:"max=5"`
	}
	var opt optionalPayload
	require.NoError(t, DecodeOptionalJSONBody(httptest.NewRequest(http.MethodPost, "/", nil), &opt))
	assert.Empty(t, opt.Notes)
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("x", int(MaxBodyBytes)) + `","quantity":1}`
	var dest samplePayload
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big)), &dest)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "too large")
}

func TestIdempotencyKeySources(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		body    string
		want    string
		wantErr bool
	}{
		{name: "header only", header: "abc", want: "abc"},
		{name: "body only", body: " abc ", want: "abc"},
		{name: "both equal", header: "abc", body: "abc", want: "abc"},
		{name: "none", want: ""},
		{name: "mismatch", header: "abc", body: "xyz", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.header != "" {
				req.Header.Set(IdempotencyHeader, tc.header)
			}
			got, err := IdempotencyKey(req, tc.body)
			if tc.wantErr {
				require.Error(t, err)
				typed := pkgerrors.As(err)
				require.NotNil(t, typed)
				assert.Equal(t, KeyDetails{Field: "idempotency_key", Reason: "mismatch"}, typed.Details())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPathInt64(t *testing.T) {
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("orderId", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}

	id, err := PathInt64(withParam("42"), "orderId")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "-1", "0"} {
		if _, err := PathInt64(withParam(bad), "orderId"); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
