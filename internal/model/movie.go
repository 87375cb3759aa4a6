// Package model はドメインモデルを定義する。
package model

import "time"

// Movie はユーザーが所有する映画エントリを表す。
// 各Movieは必ず1人の所有者（OwnerID）を持ち、所有者以外からは参照も変更もできない。
type Movie struct {
	ID        int64
	Title     string
	Year      *string // 4桁の公開年。未設定の場合はnil。
	ImageURL  string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
