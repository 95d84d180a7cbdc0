package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: 42, Role: enums.UserRoleAdmin})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user_id 42, got %d", claims.UserID)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Subject != "42" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	now := time.Now()
	cases := map[string]struct {
		cfg     config.JWTConfig
		payload AccessTokenPayload
		wantErr string
	}{
		"missing secret": {cfg: config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, payload: AccessTokenPayload{UserID: 1, Role: enums.UserRoleCustomer}, wantErr: "secret"},
		"bad ttl":        {cfg: config.JWTConfig{Secret: "s", Issuer: "x"}, payload: AccessTokenPayload{UserID: 1, Role: enums.UserRoleCustomer}, wantErr: "expiration"},
		"bad role":       {cfg: testJWTConfig(), payload: AccessTokenPayload{UserID: 1, Role: "root"}, wantErr: "role"},
		"missing user":   {cfg: testJWTConfig(), payload: AccessTokenPayload{Role: enums.UserRoleCustomer}, wantErr: "user id"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := MintAccessToken(tc.cfg, now, tc.payload)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: 7, Role: enums.UserRoleCustomer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseAccessTokenToleratesClockSkew(t *testing.T) {
	cfg := testJWTConfig()
	// expired ten seconds ago, inside the allowed skew
	issued := time.Now().Add(-time.Duration(cfg.ExpirationMinutes)*time.Minute - 10*time.Second)
	token, err := MintAccessToken(cfg, issued, AccessTokenPayload{UserID: 7, Role: enums.UserRoleCustomer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err != nil {
		t.Fatalf("expected token within skew to parse, got %v", err)
	}
}

func TestParseAccessTokenRejectsWrongIssuerAndSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 7, Role: enums.UserRoleCustomer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}

	other = cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}

func TestParseAccessTokenRejectsUnknownRole(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{
		UserID: 3,
		Role:   "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for unknown role, got %v", err)
	}
}

func TestParseAccessTokenRejectsMismatchedSubject(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{
		UserID: 3,
		Role:   enums.UserRoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "4",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected subject mismatch to fail, got %v", err)
	}
}

func TestParseAccessTokenRejectsNoneAlgorithm(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{
		UserID: 3,
		Role:   enums.UserRoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected unsigned token to fail, got %v", err)
	}
}
