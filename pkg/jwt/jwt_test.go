package jwt

import (
	"testing"
	"time"

	"clinic-management-api/config"

	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "unit-secret", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	clinicID := uuid.New()
	sub := Subject{UserID: uuid.New(), ClinicID: &clinicID, Role: "doctor", Username: "drsmith", Email: "dr@clinic.test"}

	access, accessID, err := svc.GenerateAccessToken(sub)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	refresh, refreshID, err := svc.GenerateRefreshToken(sub)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	if accessID == refreshID {
		t.Error("token IDs must be unique")
	}

	claims, err := svc.ValidateToken(access)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != AccessToken || claims.TokenID != accessID {
		t.Errorf("access claims = %+v", claims)
	}
	got := claims.Subject()
	if got.UserID != sub.UserID || got.ClinicID == nil || *got.ClinicID != clinicID || got.Role != sub.Role {
		t.Errorf("subject = %+v, want %+v", got, sub)
	}

	refreshClaims, err := svc.ValidateToken(refresh)
	if err != nil || refreshClaims.TokenType != RefreshToken {
		t.Errorf("refresh claims = %+v, %v", refreshClaims, err)
	}
}

func TestValidateRejects(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "unit-secret", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	other := NewJWTService(config.JWTConfig{Secret: "other-secret", AccessExpiry: time.Minute})
	expired := NewJWTService(config.JWTConfig{Secret: "unit-secret", AccessExpiry: -time.Minute})

	foreign, _, _ := other.GenerateAccessToken(Subject{UserID: uuid.New()})
	stale, _, _ := expired.GenerateAccessToken(Subject{UserID: uuid.New()})

	for name, token := range map[string]string{
		"wrong secret": foreign,
		"expired":      stale,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.ValidateToken(token); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}
