package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tubescript/backend/internal/api"
	"github.com/tubescript/backend/internal/api/middleware"
	"github.com/tubescript/backend/internal/auth"
	"github.com/tubescript/backend/internal/config"
	"github.com/tubescript/backend/internal/db"
	"github.com/tubescript/backend/internal/job"
	"github.com/tubescript/backend/internal/locale"
	"github.com/tubescript/backend/internal/pages"
	"github.com/tubescript/backend/internal/transcript"
	"github.com/tubescript/backend/internal/translate"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.TimeOnly})))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: cfg.SlogLevel(), TimeFormat: time.TimeOnly}))
	slog.SetDefault(log)

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Info("admin user ensured", slog.String("username", cfg.AdminUsername))

	if cfg.TranscriptCacheTTL > 0 {
		n, err := database.PurgeTranscripts(time.Now().Add(-cfg.TranscriptCacheTTL))
		if err != nil {
			log.Warn("purge transcript cache", slog.Any("error", err))
		} else if n > 0 {
			log.Info("purged expired transcripts", slog.Int64("count", n))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)

	transcripts := transcript.NewService(
		transcript.NewYouTubeProvider(nil),
		database,
		cfg.TranscriptCacheTTL,
		cfg.TranscriptLanguages,
	)

	translator, err := newTranslator(cfg, database)
	if err != nil {
		return err
	}

	jobQueue := job.NewJobQueue(database.DB())
	jobQueue.RegisterHandler(job.JobTranslateTranscript, translator.TranscriptJobHandler(transcripts))
	jobQueue.Start()
	defer jobQueue.Stop()

	localeCfg, err := cfg.Locale()
	if err != nil {
		return err
	}
	localeRouter, err := locale.New(localeCfg)
	if err != nil {
		return err
	}

	renderer, err := pages.NewRenderer(localeRouter, transcripts, cfg.SiteURL)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	go limiter.Run(ctx)

	router := api.NewRouter(api.Deps{
		Config:      cfg,
		DB:          database,
		JWT:         jwtService,
		Locale:      localeRouter,
		Pages:       renderer,
		Transcripts: transcripts,
		Translator:  translator,
		Jobs:        jobQueue,
		Limiter:     limiter,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.Any("locales", localeCfg.Locales),
			slog.Any("engines", translator.Engines()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newTranslator builds the primary and optional fallback engines. Keys set
// in the admin settings take precedence over the environment.
func newTranslator(cfg *config.Config, database *db.Database) (*translate.Service, error) {
	keys := translate.Keys{
		DeepL:       translate.SettingKey(database, "deepl_api_key", cfg.DeepLAPIKey),
		Gemini:      translate.SettingKey(database, "gemini_api_key", cfg.GeminiAPIKey),
		GeminiModel: translate.SettingKey(database, "gemini_model", cfg.GeminiModel),
		OpenAI:      translate.SettingKey(database, "openai_api_key", cfg.OpenAIAPIKey),
		OpenAIModel: translate.SettingKey(database, "openai_model", cfg.OpenAIModel),
	}
	client := &http.Client{Timeout: 2 * time.Minute}

	primary, err := translate.NewEngine(cfg.TranslatePrimary, keys, client)
	if err != nil {
		return nil, fmt.Errorf("primary translation engine: %w", err)
	}
	opts := []translate.Option{
		translate.WithChunkSize(cfg.TranslateChunkSize),
		translate.WithDelay(cfg.TranslateChunkDelay),
	}
	if cfg.TranslateFallback != "" && cfg.TranslateFallback != cfg.TranslatePrimary {
		fallback, err := translate.NewEngine(cfg.TranslateFallback, keys, client)
		if err != nil {
			return nil, fmt.Errorf("fallback translation engine: %w", err)
		}
		opts = append(opts, translate.WithFallback(fallback))
	}
	return translate.NewService(primary, opts...), nil
}
