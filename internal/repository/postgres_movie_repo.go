package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/takumi/filmlog/internal/model"
)

// PostgresMovieRepo はPostgreSQLを使用した映画リポジトリ。
type PostgresMovieRepo struct {
	db *sql.DB
}

// NewPostgresMovieRepo はPostgresMovieRepoを生成する。
func NewPostgresMovieRepo(db *sql.DB) *PostgresMovieRepo {
	return &PostgresMovieRepo{db: db}
}

// orderByClauses はソートキーからORDER BY句へのホワイトリストマッピング。
// SQL文字列を外部入力から組み立てないため、ここに無いキーは受け付けない。
var orderByClauses = map[MovieSort]string{
	SortCreatedAtDesc: "created_at DESC, id DESC",
	SortCreatedAtAsc:  "created_at ASC, id ASC",
	SortTitleAsc:      "title ASC, id ASC",
	SortTitleDesc:     "title DESC, id DESC",
	SortYearAsc:       "year ASC NULLS LAST, id ASC",
	SortYearDesc:      "year DESC NULLS LAST, id DESC",
}

// Create は映画を作成し、払い出されたIDと作成・更新日時をmovieに書き戻す。
func (r *PostgresMovieRepo) Create(ctx context.Context, movie *model.Movie) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO movies (title, year, image_url, owner_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		movie.Title, yearParam(movie.Year), movie.ImageURL, movie.OwnerID,
	).Scan(&movie.ID, &movie.CreatedAt, &movie.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}
	return nil
}

// FindByID は指定IDの映画を取得する。見つからない場合はnilを返す。
func (r *PostgresMovieRepo) FindByID(ctx context.Context, id int64) (*model.Movie, error) {
	movie, err := scanMovie(r.db.QueryRowContext(ctx,
		`SELECT id, title, year, image_url, owner_id, created_at, updated_at
		 FROM movies WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movie by ID: %w", err)
	}
	return movie, nil
}

// ListByOwner は指定ユーザーが所有する映画の一覧と総件数を返す。
func (r *PostgresMovieRepo) ListByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]*model.Movie, int, error) {
	orderBy, ok := orderByClauses[opts.Sort]
	if !ok {
		orderBy = orderByClauses[SortCreatedAtDesc]
	}

	where := `WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if opts.Search != "" {
		where += ` AND title ILIKE '%' || $2 || '%'`
		args = append(args, opts.Search)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM movies `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}

	offset := (opts.Page - 1) * opts.Limit
	query := fmt.Sprintf(
		`SELECT id, title, year, image_url, owner_id, created_at, updated_at
		 FROM movies %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, orderBy, len(args)+1, len(args)+2,
	)
	args = append(args, opts.Limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	var movies []*model.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan movie row: %w", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate movie rows: %w", err)
	}

	return movies, total, nil
}

// UpdateOwned は存在確認・所有権確認・更新を単一トランザクションで行う。
// FOR UPDATEで行ロックを取ることで、確認と更新の間に別リクエストが
// 割り込む競合を排除する。
func (r *PostgresMovieRepo) UpdateOwned(ctx context.Context, ownerID string, id int64, patch MoviePatch) (*model.Movie, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := lockMovie(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	// 部分更新: 未指定フィールドは現在値を維持する
	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.YearSet {
		current.Year = patch.Year
	}
	if patch.ImageURL != nil {
		current.ImageURL = *patch.ImageURL
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE movies SET title = $1, year = $2, image_url = $3, updated_at = now()
		 WHERE id = $4
		 RETURNING updated_at`,
		current.Title, yearParam(current.Year), current.ImageURL, id,
	).Scan(&current.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return current, nil
}

// DeleteOwned は存在確認・所有権確認・削除を単一トランザクションで行う。
func (r *PostgresMovieRepo) DeleteOwned(ctx context.Context, ownerID string, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := lockMovie(ctx, tx, id)
	if err != nil {
		return err
	}
	if current.OwnerID != ownerID {
		return ErrNotOwner
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// lockMovie はトランザクション内で対象行をFOR UPDATEで取得する。
// 行が存在しない場合はErrNotFoundを返す。
func lockMovie(ctx context.Context, tx *sql.Tx, id int64) (*model.Movie, error) {
	movie, err := scanMovie(tx.QueryRowContext(ctx,
		`SELECT id, title, year, image_url, owner_id, created_at, updated_at
		 FROM movies WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock movie row: %w", err)
	}
	return movie, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanMovie は1行分の映画レコードを読み取る。
func scanMovie(row rowScanner) (*model.Movie, error) {
	movie := &model.Movie{}
	var year sql.NullString
	var updatedAt, createdAt time.Time
	err := row.Scan(&movie.ID, &movie.Title, &year, &movie.ImageURL, &movie.OwnerID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if year.Valid {
		y := year.String
		movie.Year = &y
	}
	movie.CreatedAt = createdAt
	movie.UpdatedAt = updatedAt
	return movie, nil
}

// yearParam は*stringをSQLパラメータ用のNullStringに変換する。
func yearParam(year *string) sql.NullString {
	if year == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *year, Valid: true}
}

// compile-time interface check
var _ MovieRepository = (*PostgresMovieRepo)(nil)
