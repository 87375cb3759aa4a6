package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/takumi/filmlog/internal/auth"
	"github.com/takumi/filmlog/internal/config"
	"github.com/takumi/filmlog/internal/database"
	"github.com/takumi/filmlog/internal/movie"
	"github.com/takumi/filmlog/internal/repository"
	"github.com/takumi/filmlog/internal/security"
)

// seedUserEmail は開発用テストユーザーのメールアドレス。
const (
	seedUserName     = "テストユーザー"
	seedUserEmail    = "test@example.com"
	seedUserPassword = "password123"
)

// seedMovie は初期データとして投入する映画。
type seedMovie struct {
	title string
	year  string
}

// seedMovies は開発用のサンプル映画。
var seedMovies = []seedMovie{
	{title: "The Matrix", year: "1999"},
	{title: "Inception", year: "2010"},
	{title: "Interstellar", year: "2014"},
}

// runSeed は開発用の初期データ（テストユーザーとサンプル映画）を投入する。
// テストユーザーが既に存在する場合は何もしない（冪等）。
func runSeed(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx := context.Background()
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	movieRepo := repository.NewPostgresMovieRepo(db)

	existing, err := userRepo.FindByEmail(ctx, seedUserEmail)
	if err != nil {
		return fmt.Errorf("failed to check seed user: %w", err)
	}
	if existing != nil {
		slog.Info("seed data already present, skipping",
			slog.String("email", seedUserEmail),
		)
		return nil
	}

	issuer := auth.NewTokenIssuer(cfg.TokenSecret)
	authService := auth.NewService(userRepo, sessionRepo, issuer, nil, auth.ServiceConfig{
		AccessTokenTTL:          cfg.AccessTokenTTL,
		RefreshTokenTTL:         cfg.RefreshTokenTTL,
		RefreshTokenRememberTTL: cfg.RefreshTokenRememberTTL,
	})
	movieService := movie.NewService(movieRepo, security.NewImageURLGuard(), security.NewTextSanitizer(), nil, movie.ServiceConfig{})

	user, err := authService.Register(ctx, seedUserName, seedUserEmail, seedUserPassword)
	if err != nil {
		return fmt.Errorf("failed to create seed user: %w", err)
	}

	for _, sm := range seedMovies {
		year := sm.year
		if _, err := movieService.Create(ctx, user.ID, movie.CreateInput{
			Title: sm.title,
			Year:  &year,
		}); err != nil {
			return fmt.Errorf("failed to create seed movie %q: %w", sm.title, err)
		}
	}

	slog.Info("seed data created",
		slog.String("user_id", user.ID),
		slog.String("email", seedUserEmail),
		slog.Int("movies", len(seedMovies)),
	)
	return nil
}
