package auth

import (
	"testing"

	"github.com/qooqz/certificates/internal/config"
	"github.com/qooqz/certificates/internal/constant"
)

// Perform token generation and verify the generated tokens to ensure
// VerifyJwtToken is correct.
func TestJWT(t *testing.T) {
	jwtService := NewJwt(config.AuthConfig{JWT_SECRET: "test-secret"}, nil)

	payload := JWTPayload{
		UserID:   "user-1234",
		TenantID: "tenant-1",
		Email:    "officer@example.com",
		Role:     "officer",
	}

	refreshToken, accessToken, err := jwtService.GenerateRefreshAndAccessToken(payload)
	if err != nil {
		t.Fatalf("An error occurred during refresh token and access token generation. Error: %v", err)
	}

	refreshClaims, err := jwtService.VerifyJwtToken(*refreshToken)
	if err != nil {
		t.Fatalf("An error occurred during refresh token verification. Error: %v", err)
	}
	if refreshClaims.Type != constant.JWT_TYPE_REFRESH {
		t.Errorf("Expected refresh token type %q, got %q", constant.JWT_TYPE_REFRESH, refreshClaims.Type)
	}

	accessClaims, err := jwtService.VerifyJwtToken(*accessToken)
	if err != nil {
		t.Fatalf("An error occurred during access token verification. Error: %v", err)
	}
	if accessClaims.Type != constant.JWT_TYPE_ACCESS {
		t.Errorf("Expected access token type %q, got %q", constant.JWT_TYPE_ACCESS, accessClaims.Type)
	}
	if accessClaims.User != payload {
		t.Errorf("Expected payload %+v, got %+v", payload, accessClaims.User)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	jwtService := NewJwt(config.AuthConfig{JWT_SECRET: "test-secret"}, nil)
	other := NewJwt(config.AuthConfig{JWT_SECRET: "different-secret"}, nil)

	_, accessToken, err := jwtService.GenerateRefreshAndAccessToken(JWTPayload{UserID: "user-1"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.VerifyJwtToken(*accessToken); err == nil {
		t.Error("Expected verification with a different secret to fail")
	}
}

func TestJWTGarbageToken(t *testing.T) {
	jwtService := NewJwt(config.AuthConfig{JWT_SECRET: "test-secret"}, nil)

	if _, err := jwtService.VerifyJwtToken("not.a.token"); err == nil {
		t.Error("Expected verification of a malformed token to fail")
	}
}
