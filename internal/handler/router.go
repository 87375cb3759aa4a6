package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/takumi/filmlog/internal/middleware"
)

// Pinger はヘルスチェックで使用するDB疎通確認のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	HTTPMetrics       middleware.HTTPMetricsRecorder

	// サービス
	AuthService  AuthServiceInterface
	MovieService MovieServiceInterface

	// 運用エンドポイント
	MetricsHandler http.Handler
	DB             Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → [Auth → RateLimit(General)]
//
// 認証エンドポイント（signup/login/refresh）は認証ゲートの外に置き、
// IP単位のレート制限のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPMetrics))

	authHandler := NewAuthHandler(deps.AuthService)
	movieHandler := NewMovieHandler(deps.MovieService)

	// --- 運用エンドポイント ---

	r.Get("/health", healthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		// signup/loginはブルートフォース対策としてIP単位で制限する
		r.With(deps.RateLimiter.AuthEndpointMiddleware()).Post("/signup", authHandler.Signup)
		r.With(deps.RateLimiter.AuthEndpointMiddleware()).Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)

		// 映画コレクション
		r.Route("/movies", func(r chi.Router) {
			r.Get("/", movieHandler.ListMovies)
			r.Post("/", movieHandler.CreateMovie)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", movieHandler.GetMovie)
				r.Put("/", movieHandler.UpdateMovie)
				r.Delete("/", movieHandler.DeleteMovie)
			})
		})
	})

	return r
}

// healthResponse はヘルスチェックのAPIレスポンス。
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// healthHandler はヘルスチェックのハンドラーを返す。
// DBが指定されている場合は疎通確認も行い、失敗時は503を返す。
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "ng", Database: "unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
	}
}
