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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/sidak/internal/api"
	"github.com/erazemk/sidak/internal/classify"
	"github.com/erazemk/sidak/internal/policy"
	"github.com/erazemk/sidak/internal/store"
)

// tokenPurgeInterval is how often expired revocations are dropped.
const tokenPurgeInterval = time.Hour

var (
	serveAddr string
	serveUser string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the SIDAK HTTP API.

If the database does not exist it is created and an admin account is set
up; its generated password is printed once.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "listen address")
	serveCmd.Flags().StringVarP(&serveUser, "user", "u", "admin", "admin username on first run")
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}
	if cmd.Flags().Changed("user") {
		cfg.AdminUser = serveUser
	}

	// Create the database on first run.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.DBPath, cfg.AdminUser)
		if err != nil {
			slog.Error("failed to initialize database", "error", err)
			return err
		}
		database.Close()

		printInitResult(cfg.DBPath, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := openDatabase(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		return err
	}
	defer database.Close()

	slog.Info("database ready", "path", cfg.DBPath)

	jwtSecret, err := store.GetJWTSecret(cmd.Context(), database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		return err
	}

	p := policy.New(cfg.PolicyConfig())
	apiRouter := api.NewRouter(api.Config{
		DB:        database,
		JWTSecret: jwtSecret,
		Policy:    p,
		Codes:     classify.NewCodeGenerator(cfg.Codes.Prefixes),
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Addr, "unscoped_access", p.Config().Unscoped)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown on SIGINT/SIGTERM or when the listener fails.
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(tokenPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				n, err := store.PurgeRevokedTokens(gctx, database, now)
				if err != nil {
					slog.Error("failed to purge revoked tokens", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("purged revoked tokens", "count", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		return err
	}
	slog.Info("server stopped, closing database")
	return nil
}
