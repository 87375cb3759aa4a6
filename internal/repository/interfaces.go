// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/takumi/filmlog/internal/model"
)

// 永続化層の番兵エラー。サービス層でAPIエラーに変換する。
var (
	// ErrNotFound は対象レコードが存在しないことを示す。
	ErrNotFound = errors.New("record not found")
	// ErrNotOwner はレコードは存在するが所有者が一致しないことを示す。
	ErrNotOwner = errors.New("record owned by different user")
	// ErrDuplicateEmail はメールアドレスの一意制約違反を示す。
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
	// 重複チェックはDBの一意制約に委ねることで、並行signup間の競合を排除する。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionRepository はセッション（リフレッシュトークン系譜）の永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	// 期限切れ判定はサービス層で行うため、期限切れの行も返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// DeleteByUserID は指定ユーザーの全セッションを削除する（全リフレッシュの失効）。
	DeleteByUserID(ctx context.Context, userID string) error
}

// MovieSort は一覧取得のソートキーを表す。値はホワイトリストで検証済みであること。
type MovieSort string

const (
	SortCreatedAtDesc MovieSort = "-created_at"
	SortCreatedAtAsc  MovieSort = "created_at"
	SortTitleAsc      MovieSort = "title"
	SortTitleDesc     MovieSort = "-title"
	SortYearAsc       MovieSort = "year"
	SortYearDesc      MovieSort = "-year"
)

// ListOptions は映画一覧取得のページネーション・絞り込み条件。
type ListOptions struct {
	Page   int       // 1始まり
	Limit  int       // 1〜100
	Search string    // タイトルの部分一致（空なら絞り込みなし）
	Sort   MovieSort // ソートキー（デフォルトは-created_at）
}

// MoviePatch は部分更新の変更内容。nilのフィールドは現在値を維持する。
// Yearのみ「nilでないが中身が空」を区別する必要がないため、二重ポインタは使わず
// 設定有無をYearSetで表す。
type MoviePatch struct {
	Title    *string
	Year     *string
	YearSet  bool // trueの場合のみyear列を更新する
	ImageURL *string
}

// MovieRepository は映画データの永続化インターフェース。
type MovieRepository interface {
	// Create は映画を作成し、払い出されたIDと作成日時をmovieに書き戻す。
	Create(ctx context.Context, movie *model.Movie) error

	// FindByID は指定IDの映画を取得する。見つからない場合はnilを返す。
	// 所有権チェックは行わない（呼び出し側の責務）。
	FindByID(ctx context.Context, id int64) (*model.Movie, error)

	// ListByOwner は指定ユーザーが所有する映画の一覧と総件数を返す。
	ListByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]*model.Movie, int, error)

	// UpdateOwned は存在確認・所有権確認・更新を単一トランザクションで行う。
	// 行が存在しない場合はErrNotFound、所有者が異なる場合はErrNotOwnerを返す。
	// patchのnilフィールドは現在値を維持し、updated_atを更新する。
	UpdateOwned(ctx context.Context, ownerID string, id int64, patch MoviePatch) (*model.Movie, error)

	// DeleteOwned は存在確認・所有権確認・削除を単一トランザクションで行う。
	// エラー規約はUpdateOwnedと同じ。
	DeleteOwned(ctx context.Context, ownerID string, id int64) error
}
