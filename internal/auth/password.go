package auth

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword はパスワードのbcryptハッシュを生成する。
// ソルトはbcryptが内部で生成するため呼び出し側での管理は不要。
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword はパスワードとbcryptハッシュの一致を検証する。
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashRefreshSecret はリフレッシュトークンのシークレット部のbcryptハッシュを生成する。
// DBにはハッシュのみを保存し、トークン本体の漏洩リスクを減らす。
func HashRefreshSecret(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash refresh secret: %w", err)
	}
	return string(hashed), nil
}

// VerifyRefreshSecret はシークレットとハッシュの一致を検証する。
func VerifyRefreshSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// randomString は暗号的に安全なランダム文字列を生成する。
func randomString(n int) (string, error) {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b), nil
}
