package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/takumi/filmlog/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:    "11111111-1111-1111-1111-111111111111",
		Name:  "テストユーザー",
		Email: "test@example.com",
		Role:  model.RoleUser,
	}
}

func TestTokenIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.Issue(testUser(), 15*time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("UserID = %q, want the issued user's ID", claims.UserID)
	}
	if claims.Email != "test@example.com" {
		t.Errorf("Email = %q, want test@example.com", claims.Email)
	}
}

func TestTokenVerifyRejectsTampered(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.Issue(testUser(), 15*time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// 末尾（署名部分）を改ざんする
	tampered := token[:len(token)-2] + "xx"
	if _, err := issuer.Verify(tampered); err == nil {
		t.Fatal("tampered token should be rejected")
	}

	var apiErr *model.APIError
	_, err = issuer.Verify(tampered)
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidToken {
		t.Errorf("error code = %v, want INVALID_TOKEN", err)
	}
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	other := NewTokenIssuer("other-secret")

	token, err := issuer.Issue(testUser(), 15*time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var apiErr *model.APIError
	_, err = other.Verify(token)
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidToken {
		t.Errorf("error = %v, want INVALID_TOKEN", err)
	}
}

func TestTokenVerifyExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.Issue(testUser(), -1*time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var apiErr *model.APIError
	_, err = issuer.Verify(token)
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTokenExpired {
		t.Errorf("error = %v, want TOKEN_EXPIRED", err)
	}
}

func TestRefreshTokenEncodeDecode(t *testing.T) {
	token := EncodeRefreshToken("session-id-123", "secret-abc")

	sessionID, secret, err := DecodeRefreshToken(token)
	if err != nil {
		t.Fatalf("DecodeRefreshToken failed: %v", err)
	}
	if sessionID != "session-id-123" {
		t.Errorf("sessionID = %q, want session-id-123", sessionID)
	}
	if secret != "secret-abc" {
		t.Errorf("secret = %q, want secret-abc", secret)
	}
}

func TestDecodeRefreshTokenInvalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"base64として不正", "!!!not-base64!!!"},
		{"区切り文字なし", "bm9zZXBhcmF0b3I="},
		{"空文字列", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeRefreshToken(tt.token); err == nil {
				t.Error("invalid token should be rejected")
			}
		})
	}
}
