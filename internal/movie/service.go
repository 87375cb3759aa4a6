// Package movie は映画コレクションのビジネスロジックを提供する。
package movie

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/takumi/filmlog/internal/model"
	"github.com/takumi/filmlog/internal/repository"
	"github.com/takumi/filmlog/internal/security"
)

// DefaultImageURL は画像URL未指定時に登録するプレースホルダー。
// 登録時にのみ適用し、保存後のレコードには実URLとして残る。
const DefaultImageURL = "https://via.placeholder.com/300x450?text=No+Image"

// 一覧取得のページネーション境界値。
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// yearPattern は公開年の形式（4桁の数字）。
var yearPattern = regexp.MustCompile(`^\d{4}$`)

// MetricsRecorder は映画操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordMovieCreated()
	RecordMovieUpdated()
	RecordMovieDeleted()
}

// ServiceConfig は映画サービスの設定。
type ServiceConfig struct {
	// ImageProbeEnabled がtrueの場合、登録・更新時に画像URLへHEADリクエストを送り
	// 到達可能であることを確認する。クライアントはSSRF対策済みのものを使用する。
	ImageProbeEnabled bool
	ImageProbeTimeout time.Duration
}

// CreateInput は映画登録の入力。
type CreateInput struct {
	Title    string
	Year     *string
	ImageURL string
}

// UpdateInput は映画更新の入力。nilのフィールドは変更しない。
type UpdateInput struct {
	Title    *string
	Year     *string
	YearSet  bool
	ImageURL *string
}

// ListInput は映画一覧取得の入力。
type ListInput struct {
	Page   int
	Limit  int
	Search string
	Sort   string
}

// ListResult は映画一覧取得の結果。
type ListResult struct {
	Movies     []*model.Movie
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// Service は映画コレクションのビジネスロジックを提供する。
// すべての操作は呼び出しユーザーが所有するレコードのみを対象とする。
type Service struct {
	repo      repository.MovieRepository
	urlGuard  security.ImageURLGuardService
	sanitizer security.TextSanitizerService
	metrics   MetricsRecorder
	probe     *http.Client
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	repo repository.MovieRepository,
	urlGuard security.ImageURLGuardService,
	sanitizer security.TextSanitizerService,
	metrics MetricsRecorder,
	cfg ServiceConfig,
) *Service {
	s := &Service{
		repo:      repo,
		urlGuard:  urlGuard,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
	if cfg.ImageProbeEnabled {
		s.probe = urlGuard.NewSafeClient(cfg.ImageProbeTimeout)
	}
	return s
}

// Create は呼び出しユーザーを所有者として映画を登録する。
// タイトルはサニタイズ後に空でないこと、公開年は4桁の数字であることを検証する。
// 画像URLが未指定の場合はプレースホルダーを補う。
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (*model.Movie, error) {
	title := s.sanitizer.SanitizeText(input.Title)
	if title == "" {
		return nil, model.NewValidationError(map[string]string{
			"title": "タイトルを入力してください。",
		})
	}

	if input.Year != nil && !yearPattern.MatchString(*input.Year) {
		return nil, model.NewValidationError(map[string]string{
			"year": "公開年は4桁の数字で指定してください。",
		})
	}

	imageURL := input.ImageURL
	if imageURL == "" {
		imageURL = DefaultImageURL
	} else if err := s.checkImageURL(ctx, imageURL); err != nil {
		return nil, err
	}

	now := time.Now()
	m := &model.Movie{
		Title:     title,
		Year:      input.Year,
		ImageURL:  imageURL,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordMovieCreated()
	}
	slog.Info("movie created",
		slog.Int64("movie_id", m.ID),
		slog.String("owner_id", ownerID))

	return m, nil
}

// List は呼び出しユーザーが所有する映画の一覧を返す。
// 他ユーザーの映画は件数にも含まれない。
// pageとlimitは範囲外の値をデフォルトに正規化し、limitの上限は100。
// sortはホワイトリスト外の値を無視して作成日時の降順に丸める。
func (s *Service) List(ctx context.Context, ownerID string, input ListInput) (*ListResult, error) {
	page := input.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := input.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	opts := repository.ListOptions{
		Page:   page,
		Limit:  limit,
		Search: input.Search,
		Sort:   normalizeSort(input.Sort),
	}
	movies, total, err := s.repo.ListByOwner(ctx, ownerID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	totalPages := (total + limit - 1) / limit
	return &ListResult{
		Movies:     movies,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Get は指定IDの映画を返す。
// 存在しない場合はNOT_FOUND、存在するが所有者でない場合はFORBIDDENを返す。
// 存在確認を所有権確認より先に行うため、他ユーザーのID探索では
// 存在の有無だけが判別できる（レコードの内容は返らない）。
func (s *Service) Get(ctx context.Context, ownerID string, id int64) (*model.Movie, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find movie: %w", err)
	}
	if m == nil {
		return nil, model.NewMovieNotFoundError(id)
	}
	if m.OwnerID != ownerID {
		return nil, model.NewForbiddenError()
	}
	return m, nil
}

// Update は指定IDの映画を部分更新する。
// 存在確認・所有権確認・更新は永続化層が単一トランザクションで行うため、
// 確認と更新の間で所有者が変わる競合は起きない。
func (s *Service) Update(ctx context.Context, ownerID string, id int64, input UpdateInput) (*model.Movie, error) {
	patch := repository.MoviePatch{
		Year:     input.Year,
		YearSet:  input.YearSet,
		ImageURL: input.ImageURL,
	}

	if input.Title != nil {
		title := s.sanitizer.SanitizeText(*input.Title)
		if title == "" {
			return nil, model.NewValidationError(map[string]string{
				"title": "タイトルを入力してください。",
			})
		}
		patch.Title = &title
	}
	if input.YearSet && input.Year != nil && !yearPattern.MatchString(*input.Year) {
		return nil, model.NewValidationError(map[string]string{
			"year": "公開年は4桁の数字で指定してください。",
		})
	}
	if input.ImageURL != nil && *input.ImageURL != "" {
		if err := s.checkImageURL(ctx, *input.ImageURL); err != nil {
			return nil, err
		}
	}

	m, err := s.repo.UpdateOwned(ctx, ownerID, id, patch)
	if err != nil {
		return nil, mapRepoError(err, id)
	}

	if s.metrics != nil {
		s.metrics.RecordMovieUpdated()
	}
	slog.Info("movie updated",
		slog.Int64("movie_id", id),
		slog.String("owner_id", ownerID))

	return m, nil
}

// Delete は指定IDの映画を削除する。エラー規約はUpdateと同じ。
func (s *Service) Delete(ctx context.Context, ownerID string, id int64) error {
	if err := s.repo.DeleteOwned(ctx, ownerID, id); err != nil {
		return mapRepoError(err, id)
	}

	if s.metrics != nil {
		s.metrics.RecordMovieDeleted()
	}
	slog.Info("movie deleted",
		slog.Int64("movie_id", id),
		slog.String("owner_id", ownerID))

	return nil
}

// checkImageURL は画像URLの形式と安全性を検証する。
// プローブが有効な場合はHEADリクエストで到達可能性も確認する。
func (s *Service) checkImageURL(ctx context.Context, imageURL string) error {
	if err := s.urlGuard.ValidateURL(imageURL); err != nil {
		return model.NewValidationError(map[string]string{
			"imageUrl": "画像URLが不正です。",
		})
	}

	if s.probe == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return model.NewValidationError(map[string]string{
			"imageUrl": "画像URLが不正です。",
		})
	}
	resp, err := s.probe.Do(req)
	if err != nil {
		return model.NewValidationError(map[string]string{
			"imageUrl": "画像URLに到達できません。",
		})
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return model.NewValidationError(map[string]string{
			"imageUrl": "画像URLに到達できません。",
		})
	}
	return nil
}

// normalizeSort はソートキーをホワイトリストで検証し、不正な値はデフォルトに丸める。
// 値はそのままORDER BY句の選択に使われるため、ここを通らない値を
// 永続化層へ渡してはならない。
func normalizeSort(sort string) repository.MovieSort {
	switch repository.MovieSort(sort) {
	case repository.SortCreatedAtAsc,
		repository.SortCreatedAtDesc,
		repository.SortTitleAsc,
		repository.SortTitleDesc,
		repository.SortYearAsc,
		repository.SortYearDesc:
		return repository.MovieSort(sort)
	default:
		return repository.SortCreatedAtDesc
	}
}

// mapRepoError は永続化層の番兵エラーをAPIエラーへ変換する。
func mapRepoError(err error, id int64) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.NewMovieNotFoundError(id)
	case errors.Is(err, repository.ErrNotOwner):
		return model.NewForbiddenError()
	default:
		return fmt.Errorf("movie operation failed: %w", err)
	}
}
