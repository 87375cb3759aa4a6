// Package auth は認証情報の管理、トークン発行、セッション管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/takumi/filmlog/internal/model"
	"github.com/takumi/filmlog/internal/repository"
)

// refreshSecretLength はリフレッシュトークンのシークレット部の長さ。
const refreshSecretLength = 32

// MetricsRecorder は認証イベントのメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordSignup()
	RecordLoginSuccess()
	RecordLoginFailure()
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	AccessTokenTTL          time.Duration // アクセストークンの有効期間
	RefreshTokenTTL         time.Duration // リフレッシュトークンの有効期間
	RefreshTokenRememberTTL time.Duration // 「ログイン状態を保持」指定時の有効期間
}

// TokenPair はログイン・サインアップ時に発行されるトークンの組。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	issuer      *TokenIssuer
	metrics     MetricsRecorder
	config      ServiceConfig
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	issuer *TokenIssuer,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		issuer:      issuer,
		metrics:     metrics,
		config:      config,
	}
}

// Register は新規ユーザーを作成する。
// メールアドレスが既に登録済みの場合はUSER_EXISTSを返す（厳格ポリシー）。
// 重複検出はDBの一意制約に委ねるため、並行する同時サインアップでも
// 片方だけが成功する。
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewUserExistsError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSignup()
	}
	slog.Info("new user registered", slog.String("user_id", user.ID))

	return user, nil
}

// Authenticate はメールアドレスとパスワードを検証する。
// ユーザー未登録とパスワード不一致は区別せず、どちらもINVALID_CREDENTIALSを返す。
// 未知のメールアドレスでのアカウント自動作成は行わない。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil || !VerifyPassword(user.PasswordHash, password) {
		if s.metrics != nil {
			s.metrics.RecordLoginFailure()
		}
		return nil, model.NewInvalidCredentialsError()
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	slog.Info("user authenticated", slog.String("user_id", user.ID))

	return user, nil
}

// IssueSession はアクセストークンとリフレッシュトークンの組を発行する。
// リフレッシュトークンはセッション行として永続化され、
// シークレット部はbcryptハッシュのみがDBに残る。
// rememberが指定された場合はリフレッシュトークンの有効期間を延長する。
func (s *Service) IssueSession(ctx context.Context, user *model.User, remember bool) (*TokenPair, error) {
	accessToken, err := s.issuer.Issue(user, s.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	secret, err := randomString(refreshSecretLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	tokenHash, err := HashRefreshSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash refresh secret: %w", err)
	}

	ttl := s.config.RefreshTokenTTL
	if remember {
		ttl = s.config.RefreshTokenRememberTTL
	}

	now := time.Now()
	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: EncodeRefreshToken(session.ID, secret),
	}, nil
}

// Refresh はリフレッシュトークンを検証し、新しいアクセストークンを発行する。
// 失効済み（ログアウト等でセッション行が削除済み）・形式不正・シークレット不一致は
// INVALID_TOKEN、セッション行は存在するが期限切れの場合はTOKEN_EXPIREDを返す。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	sessionID, secret, err := DecodeRefreshToken(refreshToken)
	if err != nil {
		return "", model.NewInvalidTokenError()
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return "", model.NewInvalidTokenError()
	}
	if time.Now().After(session.ExpiresAt) {
		return "", model.NewTokenExpiredError()
	}
	if !VerifyRefreshSecret(session.TokenHash, secret) {
		return "", model.NewInvalidTokenError()
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", model.NewInvalidTokenError()
	}

	accessToken, err := s.issuer.Issue(user, s.config.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	return accessToken, nil
}

// RevokeAllSessions は指定ユーザーの全セッションを削除する。
// 以後、発行済みのどのリフレッシュトークンでもリフレッシュできなくなる。
func (s *Service) RevokeAllSessions(ctx context.Context, userID string) error {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	slog.Info("all sessions revoked", slog.String("user_id", userID))
	return nil
}

// GetUser は認証済みユーザーIDからユーザー情報を取得する。
// トークンは有効だがユーザーが既に存在しない場合はUNAUTHORIZEDを返す。
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}
