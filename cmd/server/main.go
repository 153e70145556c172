// Command server runs the sentiment backend: it opens the SQLite store,
// wires the ingestion and query services to the HTTP API, optionally replays
// a backfill export in the background, and serves until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-sentiment-backend/internal/config"
	"github.com/tbourn/go-sentiment-backend/internal/domain"
	httpapi "github.com/tbourn/go-sentiment-backend/internal/http"
	"github.com/tbourn/go-sentiment-backend/internal/ingest"
	"github.com/tbourn/go-sentiment-backend/internal/observability"
	"github.com/tbourn/go-sentiment-backend/internal/repo"
	"github.com/tbourn/go-sentiment-backend/internal/sentiment"
	"github.com/tbourn/go-sentiment-backend/internal/services"
	"github.com/tbourn/go-sentiment-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Local dev convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid reference timezone")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	scorer, err := buildScorer(cfg.LexiconPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.LexiconPath).Msg("lexicon load failed")
	}

	ingestSvc := &services.IngestService{
		DB:            db,
		Scorer:        scorer,
		Loc:           loc,
		ScorerTimeout: cfg.Ingest.ScorerTimeout,
	}
	querySvc := &services.QueryService{DB: db, Loc: loc}
	perms := services.NewStaticPermissionChecker()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:          db,
		Ingest:      ingestSvc,
		Query:       querySvc,
		Permissions: perms,
	}, cfg)

	// Replay a historical export in the background when configured. The
	// pipeline dedups by id, so restarting mid-replay is harmless.
	backfillDone := make(chan struct{})
	if cfg.Ingest.BackfillPath != "" {
		go runBackfill(ctx, cfg, ingestSvc, backfillDone)
	} else {
		close(backfillDone)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	select {
	case <-backfillDone:
	case <-sctx.Done():
		log.Warn().Msg("backfill still running at shutdown deadline")
	}
	log.Info().Msg("server stopped")
}

// buildScorer returns the lexicon scorer, applying the file override when set.
func buildScorer(path string) (sentiment.Scorer, error) {
	if path == "" {
		return sentiment.NewLexiconScorer(), nil
	}
	lex, err := sentiment.LoadLexiconFile(path)
	if err != nil {
		return nil, err
	}
	return sentiment.NewLexiconScorer(sentiment.WithLexicon(lex)), nil
}

// runBackfill drains the configured JSONL export through the pipeline for
// every platform tag the file claims. The file name convention is
// "<anything>.discord.jsonl" / "<anything>.telegram.jsonl"; files without a
// platform suffix are replayed as discord.
func runBackfill(ctx context.Context, cfg config.Config, ingestSvc *services.IngestService, done chan<- struct{}) {
	defer close(done)

	platform := platformFromPath(cfg.Ingest.BackfillPath)
	src, err := ingest.NewFileSource(platform, cfg.Ingest.BackfillPath, 100)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.Ingest.BackfillPath).Msg("backfill open failed")
		return
	}
	defer src.Close()

	w := &ingest.Worker{
		Source:       src,
		Ingest:       ingestSvc,
		Log:          log.Logger,
		PollInterval: cfg.Ingest.PollInterval,
		RetryBackoff: cfg.Ingest.RetryBackoff,
		MaxRetries:   cfg.Ingest.MaxRetries,
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("backfill worker failed")
	}
}

// platformFromPath sniffs the platform tag out of a backfill file name.
func platformFromPath(path string) domain.Platform {
	lower := strings.ToLower(path)
	for _, p := range domain.Platforms() {
		if strings.Contains(lower, string(p)) {
			return p
		}
	}
	return domain.PlatformDiscord
}
