package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/takumi/filmlog/internal/middleware"
	"github.com/takumi/filmlog/internal/model"
	"github.com/takumi/filmlog/internal/movie"
)

// MovieServiceInterface は映画ハンドラーが必要とするサービスインターフェース。
type MovieServiceInterface interface {
	// Create は呼び出しユーザーを所有者として映画を登録する。
	Create(ctx context.Context, ownerID string, input movie.CreateInput) (*model.Movie, error)
	// List は呼び出しユーザーが所有する映画の一覧を返す。
	List(ctx context.Context, ownerID string, input movie.ListInput) (*movie.ListResult, error)
	// Get は指定IDの映画を返す。
	Get(ctx context.Context, ownerID string, id int64) (*model.Movie, error)
	// Update は指定IDの映画を部分更新する。
	Update(ctx context.Context, ownerID string, id int64, input movie.UpdateInput) (*model.Movie, error)
	// Delete は指定IDの映画を削除する。
	Delete(ctx context.Context, ownerID string, id int64) error
}

// MovieHandler は映画コレクションのHTTPハンドラー。
type MovieHandler struct {
	service MovieServiceInterface
}

// NewMovieHandler はMovieHandlerを生成する。
func NewMovieHandler(service MovieServiceInterface) *MovieHandler {
	return &MovieHandler{service: service}
}

// movieResponse は映画情報のAPIレスポンス。
type movieResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Year      *string   `json:"year"`
	ImageURL  string    `json:"imageUrl"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// movieListMeta は映画一覧のページネーション情報。
type movieListMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// movieListResponse は映画一覧のAPIレスポンス。
type movieListResponse struct {
	Items []movieResponse `json:"items"`
	Meta  movieListMeta   `json:"meta"`
}

// toMovieResponse はドメインモデルをAPIレスポンスに変換する。
func toMovieResponse(m *model.Movie) movieResponse {
	return movieResponse{
		ID:        m.ID,
		Title:     m.Title,
		Year:      m.Year,
		ImageURL:  m.ImageURL,
		OwnerID:   m.OwnerID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CreateMovie は映画登録を処理する。
// POST /movies
func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
			"body": "リクエストボディの解析に失敗しました。",
		}))
		return
	}
	if details := validateStruct(req); details != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(details))
		return
	}

	m, err := h.service.Create(r.Context(), userID, movie.CreateInput{
		Title:    req.Title,
		Year:     req.Year,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMovieResponse(m))
}

// ListMovies は映画一覧を処理する。
// GET /movies?page=&limit=&search=&sort=
func (h *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	result, err := h.service.List(r.Context(), userID, movie.ListInput{
		Page:   page,
		Limit:  limit,
		Search: query.Get("search"),
		Sort:   query.Get("sort"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]movieResponse, 0, len(result.Movies))
	for _, m := range result.Movies {
		items = append(items, toMovieResponse(m))
	}

	writeJSON(w, http.StatusOK, movieListResponse{
		Items: items,
		Meta: movieListMeta{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		},
	})
}

// GetMovie は映画詳細を処理する。
// GET /movies/{id}
func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := movieIDFromRequest(w, r)
	if !ok {
		return
	}

	m, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMovieResponse(m))
}

// UpdateMovie は映画更新を処理する。
// PUT /movies/{id}
func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := movieIDFromRequest(w, r)
	if !ok {
		return
	}

	var req updateMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
			"body": "リクエストボディの解析に失敗しました。",
		}))
		return
	}
	if details := validateStruct(req); details != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(details))
		return
	}

	m, err := h.service.Update(r.Context(), userID, id, movie.UpdateInput{
		Title:    req.Title,
		Year:     req.Year,
		YearSet:  req.Year != nil,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMovieResponse(m))
}

// DeleteMovie は映画削除を処理する。
// DELETE /movies/{id}
func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := movieIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// movieIDFromRequest はパスパラメータから映画IDを取り出す。
// 数値として解析できない場合はVALIDATION_ERRORを書き込み、falseを返す。
func movieIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError(map[string]string{
			"id": "映画IDは正の整数で指定してください。",
		}))
		return 0, false
	}
	return id, true
}
