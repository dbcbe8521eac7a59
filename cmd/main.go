/*
Package main is the entry point for the GardenTrade marketplace server.

It loads configuration (optionally from a .env file), initializes the global
logger, selects the storage backends (in-memory or PostgreSQL), starts the
session manager and the realtime hub, and serves HTTP until SIGINT or SIGTERM
triggers a graceful shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"gardentrade/internal/app/chat"
	"gardentrade/internal/app/conversation"
	"gardentrade/internal/app/market"
	"gardentrade/internal/app/storage"
	"gardentrade/internal/app/store/memory"
	"gardentrade/internal/app/store/postgres"
	"gardentrade/internal/app/store/retrying"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/app/user"
	"gardentrade/internal/configs"
	"gardentrade/internal/handler"
	"gardentrade/internal/pkg/logx"
	"gardentrade/internal/pkg/pow"
)

// backends groups the three storage collaborators the market depends on.
type backends struct {
	users    user.Store
	trades   trade.Backend
	messages conversation.Backend
	pool     *pgxpool.Pool
}

func main() {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "WARN: failed to read .env file: %v\n", err)
	}

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Bool("demo_mode", cfg.DemoMode).
		Bool("postgres", cfg.DatabaseDSN != "").
		Bool("avatar_storage", cfg.StorageEnabled()).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to initialize storage backends")
	}
	if b.pool != nil {
		defer b.pool.Close()
	}

	policy := retrying.Policy{
		Base:       cfg.BackendBaseWait,
		MaxRetries: cfg.BackendRetries,
		MaxDelay:   time.Second,
	}

	catalog := trade.NewCatalog(retrying.NewTrades(b.trades, policy))
	hub := chat.NewHub(cfg.RoomIdleTimeout)

	manager := market.NewManager(market.Deps{
		Users:        retrying.NewUsers(b.users, policy),
		Catalog:      catalog,
		Messages:     retrying.NewMessages(b.messages, policy),
		Publisher:    hub,
		SeedGreeting: cfg.DemoMode,
	}, market.WithIdleTimeout(cfg.SessionIdleTimeout))

	deps := &handler.AppDeps{
		Config:   cfg,
		Market:   manager,
		Catalog:  catalog,
		Hub:      hub,
		Pow:      pow.NewGuard(cfg.PowDifficulty),
		Limiters: handler.NewLimiters(),
	}
	defer deps.Pow.Stop()
	defer deps.Limiters.Stop()

	if cfg.StorageEnabled() {
		avatars, err := openAvatars(ctx, cfg)
		if err != nil {
			logx.Fatal(err, "Failed to initialize avatar storage")
		}
		deps.Avatars = avatars
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("GardenTrade server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	manager.Shutdown()
	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}

// openBackends picks PostgreSQL when DATABASE_URL is set and the in-memory
// stores otherwise. Demo mode seeds the sample listings in either case.
func openBackends(ctx context.Context, cfg *configs.AppConfig) (backends, error) {
	seed := memory.SeedTrades(time.Now())

	if cfg.DatabaseDSN == "" {
		var opts []memory.UserOption
		if cfg.DemoMode {
			opts = append(opts, memory.AcceptAnyCredentials())
		} else {
			seed = nil
		}
		logx.Info("Using in-memory storage", "demo_mode", cfg.DemoMode)
		return backends{
			users:    memory.NewUserStore(opts...),
			trades:   memory.NewTradeStore(seed...),
			messages: memory.NewMessageStore(),
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return backends{}, err
	}

	trades := postgres.NewTrades(pool)
	if cfg.DemoMode {
		if err := trades.EnsureSeed(ctx, seed); err != nil {
			pool.Close()
			return backends{}, fmt.Errorf("failed to seed demo trades: %w", err)
		}
		logx.Warn("Demo mode with PostgreSQL seeds listings but still checks credentials")
	}

	return backends{
		users:    postgres.NewUsers(pool),
		trades:   trades,
		messages: postgres.NewMessages(pool),
		pool:     pool,
	}, nil
}

func openAvatars(ctx context.Context, cfg *configs.AppConfig) (*storage.Avatars, error) {
	store, err := storage.NewStorageService(ctx, storage.ServiceConfig{
		BucketName:      cfg.S3BucketName,
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		PublicBaseURL:   cfg.S3PublicBaseURL,
	})
	if err != nil {
		return nil, err
	}
	return storage.NewAvatars(store, cfg.S3PublicBaseURL), nil
}
