// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限区分を表す。
type Role string

const (
	// RoleUser は一般ユーザー。
	RoleUser Role = "user"
	// RoleAdmin は管理者ユーザー。管理操作は本システムの対象外だが、
	// スキーマ上は区分を保持する。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// PasswordHashにはbcryptハッシュのみを保存し、平文パスワードは永続化しない。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session は発行済みリフレッシュトークンの系譜を表す。
// TokenHashにはリフレッシュトークンのシークレット部のbcryptハッシュを保存する。
// ユーザーの全Sessionを削除することで、以後のリフレッシュを無効化する（ログアウト）。
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
