package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/takumi/filmlog/internal/model"
)

// Claims はアクセストークンに埋め込む認証情報。
// アクセストークンは保持者がそのユーザーとして振る舞える能力（capability）であり、
// HMAC署名により改ざんを検出する。署名なしのbase64エンコードでは
// 任意のユーザーIDを詐称できてしまうため、必ず署名付きで発行する。
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer はアクセストークンの発行と検証を行う。
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue は指定ユーザーのアクセストークンを発行する。
// HS256で署名し、発行時刻と有効期限をクレームに含める。
func (t *TokenIssuer) Issue(user *model.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify はアクセストークンの署名と有効期限を検証し、クレームを返す。
// 署名が正しく期限だけが切れている場合はTOKEN_EXPIRED、
// それ以外の検証失敗はINVALID_TOKENを返す。
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.NewTokenExpiredError()
		}
		return nil, model.NewInvalidTokenError()
	}

	if claims.UserID == "" {
		return nil, model.NewInvalidTokenError()
	}

	return claims, nil
}

// EncodeRefreshToken はセッションIDとシークレットからリフレッシュトークン文字列を組み立てる。
func EncodeRefreshToken(sessionID, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(sessionID + ":" + secret))
}

// DecodeRefreshToken はリフレッシュトークン文字列をセッションIDとシークレットに分解する。
// 形式が不正な場合はエラーを返す。
func DecodeRefreshToken(encoded string) (sessionID, secret string, err error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("malformed refresh token: %w", err)
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed refresh token")
	}
	return parts[0], parts[1], nil
}
