package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bunpeg/bunpeg-editor/internal/api"
	"github.com/bunpeg/bunpeg-editor/internal/logging"
	"github.com/bunpeg/bunpeg-editor/internal/media"
	"github.com/bunpeg/bunpeg-editor/internal/session"
	"github.com/bunpeg/bunpeg-editor/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API",
	Long: `Serve the editor API on 127.0.0.1. Requests must carry the bearer token
printed at startup; the token is kept in the local database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), current)
	},
}

func runServe(ctx context.Context, a *app) error {
	startTime := time.Now()
	a.logger.Info("starting bunpeg editor", "version", Version, "data_dir", logging.SanitizePath(a.cfg.DataDir()), "offline", a.cfg.Offline())

	authToken, err := ensureAuthToken(ctx, a.repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	apiTarget := a.cfg.APIURL()
	if a.cfg.Offline() {
		apiTarget = "(offline stub)"
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════════════╗")
	fmt.Printf("║  %-71s  ║\n", "BUNPEG EDITOR v"+Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Listen:     http://127.0.0.1:%-45d║\n", a.cfg.Port())
	fmt.Printf("║  Auth Token: %-61s║\n", authToken)
	fmt.Printf("║  Media API:  %-61s║\n", apiTarget)
	fmt.Println("╚═══════════════════════════════════════════════════════════════════════════╝")
	fmt.Println()

	sessions := session.NewManager(a.client, a.submitter, a.repo, a.cfg.Editor(), a.logger)

	apiServer := api.NewServer(api.ServerConfig{
		Port:       a.cfg.Port(),
		Sessions:   sessions,
		Client:     a.client,
		Repository: a.repo,
		Media:      media.NewCache(filepath.Join(a.cfg.DataDir(), "media"), a.client, a.logger),
		Logger:     a.logger,
		StartTime:  startTime,
		Version:    Version,
		Offline:    a.cfg.Offline(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			sessions.Shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	a.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to shutdown HTTP server", "error", err)
	}
	sessions.Shutdown()

	a.logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(ctx context.Context, repo store.Repository) (string, error) {
	existing, err := repo.GetConfig(ctx, api.AuthTokenKey)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, api.AuthTokenKey, token); err != nil {
		return "", err
	}

	return token, nil
}
