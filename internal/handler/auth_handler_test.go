package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/takumi/filmlog/internal/auth"
	"github.com/takumi/filmlog/internal/middleware"
	"github.com/takumi/filmlog/internal/model"
)

// --- モック ---

type mockAuthService struct {
	registerFn          func(ctx context.Context, name, email, password string) (*model.User, error)
	authenticateFn      func(ctx context.Context, email, password string) (*model.User, error)
	issueSessionFn      func(ctx context.Context, user *model.User, remember bool) (*auth.TokenPair, error)
	refreshFn           func(ctx context.Context, refreshToken string) (string, error)
	revokeAllSessionsFn func(ctx context.Context, userID string) error
	getUserFn           func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	return m.registerFn(ctx, name, email, password)
}

func (m *mockAuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	return m.authenticateFn(ctx, email, password)
}

func (m *mockAuthService) IssueSession(ctx context.Context, user *model.User, remember bool) (*auth.TokenPair, error) {
	return m.issueSessionFn(ctx, user, remember)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshFn(ctx, refreshToken)
}

func (m *mockAuthService) RevokeAllSessions(ctx context.Context, userID string) error {
	return m.revokeAllSessionsFn(ctx, userID)
}

func (m *mockAuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return m.getUserFn(ctx, userID)
}

// decodeErrorCode はレスポンスボディからエラーコードを取り出すヘルパー。
func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope middleware.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return envelope.Error.Code
}

func sampleUser() *model.User {
	return &model.User{
		ID:    "user-1",
		Name:  "田中太郎",
		Email: "tanaka@example.com",
		Role:  model.RoleUser,
	}
}

// --- Signup ---

// TestSignup_Created は正常なサインアップで201とトークンの組が返ることを検証する。
func TestSignup_Created(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*model.User, error) {
			return sampleUser(), nil
		},
		issueSessionFn: func(ctx context.Context, user *model.User, remember bool) (*auth.TokenPair, error) {
			return &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
		},
	}
	h := NewAuthHandler(svc)

	body := `{"name":"田中太郎","email":"tanaka@example.com","password":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"user", "accessToken", "refreshToken"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("response should contain %q", key)
		}
	}

	// パスワードハッシュがレスポンスに含まれないこと
	if strings.Contains(string(resp["user"]), "assword") {
		t.Error("user response should not contain password fields")
	}
}

// TestSignup_ValidationError は不正な入力で400とフィールド詳細が返ることを検証する。
func TestSignup_ValidationError(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"メール形式不正", `{"name":"田中","email":"not-an-email","password":"password123"}`, "email"},
		{"パスワード短すぎ", `{"name":"田中","email":"a@example.com","password":"short"}`, "password"},
		{"名前なし", `{"email":"a@example.com","password":"password123"}`, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.Signup(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}

			var envelope middleware.ErrorEnvelope
			if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if envelope.Error.Code != model.ErrCodeValidation {
				t.Errorf("code = %q, want VALIDATION_ERROR", envelope.Error.Code)
			}
			if _, ok := envelope.Error.Details[tt.wantField]; !ok {
				t.Errorf("details should name field %q, got %v", tt.wantField, envelope.Error.Details)
			}
		})
	}
}

// TestSignup_DuplicateEmail はメール重複で409 USER_EXISTSが返ることを検証する。
func TestSignup_DuplicateEmail(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*model.User, error) {
			return nil, model.NewUserExistsError()
		},
	}
	h := NewAuthHandler(svc)

	body := `{"name":"田中太郎","email":"tanaka@example.com","password":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeUserExists {
		t.Errorf("code = %q, want USER_EXISTS", code)
	}
}

// TestSignup_InvalidJSON はボディ解析失敗で400が返ることを検証する。
func TestSignup_InvalidJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- Login ---

// TestLogin_OK は正常なログインで200とトークンの組が返ることを検証する。
func TestLogin_OK(t *testing.T) {
	var gotRemember bool
	svc := &mockAuthService{
		authenticateFn: func(ctx context.Context, email, password string) (*model.User, error) {
			return sampleUser(), nil
		},
		issueSessionFn: func(ctx context.Context, user *model.User, remember bool) (*auth.TokenPair, error) {
			gotRemember = remember
			return &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
		},
	}
	h := NewAuthHandler(svc)

	body := `{"email":"tanaka@example.com","password":"password123","remember":true}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !gotRemember {
		t.Error("remember flag should be passed through")
	}
}

// TestLogin_InvalidCredentials は認証失敗で401 INVALID_CREDENTIALSが返ることを検証する。
func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		authenticateFn: func(ctx context.Context, email, password string) (*model.User, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc)

	body := `{"email":"tanaka@example.com","password":"wrongpassword"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q, want INVALID_CREDENTIALS", code)
	}
}

// --- Refresh ---

// TestRefresh_OK はトークン再発行で200と新しいアクセストークンが返ることを検証する。
func TestRefresh_OK(t *testing.T) {
	svc := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (string, error) {
			return "new-access-token", nil
		},
	}
	h := NewAuthHandler(svc)

	body := `{"refreshToken":"some-refresh-token"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Refresh(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp refreshResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken != "new-access-token" {
		t.Errorf("accessToken = %q, want new-access-token", resp.AccessToken)
	}
}

// TestRefresh_ExpiredSession は期限切れセッションで401 TOKEN_EXPIREDが返ることを検証する。
func TestRefresh_ExpiredSession(t *testing.T) {
	svc := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (string, error) {
			return "", model.NewTokenExpiredError()
		},
	}
	h := NewAuthHandler(svc)

	body := `{"refreshToken":"expired-token"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Refresh(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeTokenExpired {
		t.Errorf("code = %q, want TOKEN_EXPIRED", code)
	}
}

// --- Logout / Me ---

// TestLogout_NoContent はログアウトで204と全セッション失効を検証する。
func TestLogout_NoContent(t *testing.T) {
	var revokedUserID string
	svc := &mockAuthService{
		revokeAllSessionsFn: func(ctx context.Context, userID string) error {
			revokedUserID = userID
			return nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if revokedUserID != "user-1" {
		t.Errorf("revoked userID = %q, want user-1", revokedUserID)
	}
}

// TestMe_OK は認証済みユーザー情報が返ることを検証する。
func TestMe_OK(t *testing.T) {
	svc := &mockAuthService{
		getUserFn: func(ctx context.Context, userID string) (*model.User, error) {
			return sampleUser(), nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp userResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Email != "tanaka@example.com" {
		t.Errorf("email = %q, want tanaka@example.com", resp.Email)
	}
}

// TestMe_NoUserID はコンテキストにユーザーIDが無い場合に401が返ることを検証する。
func TestMe_NoUserID(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
