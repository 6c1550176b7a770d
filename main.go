package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vocab-match-server/api"
	"vocab-match-server/catalog"
	"vocab-match-server/config"
	"vocab-match-server/deck"
	"vocab-match-server/loghandler"
	"vocab-match-server/storage"
	"vocab-match-server/ws"
)

func main() {
	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, level)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	cfg := config.Load()
	level.Set(loghandler.ParseLevel(cfg.LogLevel))

	slog.Info("configuration", "tag", "main", "setSize", cfg.SetSize, "matchAdvanceDelayMS", cfg.MatchAdvanceDelayMS,
		"mismatchRevealMS", cfg.MismatchRevealMS, "pronunciation", cfg.PronunciationSide, "lang", cfg.PronunciationLang,
		"port", cfg.HTTPPort, "deckDir", cfg.DeckDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open deck store", "tag", "main", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	presets, err := deck.LoadManifest(cfg.ManifestPath)
	if err != nil {
		slog.Warn("could not load sample decks", "tag", "main", "manifest", cfg.ManifestPath, "err", err)
	}
	decks := catalog.New(cfg.DeckDir, presets, store, cfg.MaxRecentUploads)

	hub := ws.NewHub(cfg, decks)
	go hub.Run(ctx)

	handler := api.NewHandler(cfg, decks, http.HandlerFunc(hub.ServeWS))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down", "tag", "main")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "tag", "main", "err", err)
		}
	}()

	slog.Info("vocab match server listening", "tag", "main", "addr", server.Addr, "presets", len(presets))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "tag", "main", "err", err)
		os.Exit(1)
	}
}

// openStore uses Postgres when DATABASE_URL is set and falls back to an in-memory store.
func openStore(ctx context.Context, cfg *config.Config) (storage.DeckStore, error) {
	pg, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if pg != nil {
		return pg, nil
	}
	slog.Info("DATABASE_URL not set; uploaded decks are kept in memory", "tag", "main", "max", cfg.MaxRecentUploads)
	return storage.NewMemoryStore(cfg.MaxRecentUploads), nil
}
