package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forgo/vidshare/api/internal/config"
	"github.com/forgo/vidshare/api/internal/database"
	"github.com/forgo/vidshare/api/internal/handler"
	"github.com/forgo/vidshare/api/internal/jobs"
	"github.com/forgo/vidshare/api/internal/media"
	"github.com/forgo/vidshare/api/internal/middleware"
	"github.com/forgo/vidshare/api/internal/repository"
	"github.com/forgo/vidshare/api/internal/service"
	"github.com/forgo/vidshare/api/pkg/jwt"
	"github.com/forgo/vidshare/api/pkg/password"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("server exited")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})
	if err := db.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("schema up to date", slog.Int("applied", applied))

	// Tokens and credentials
	jwtService, err := jwt.NewService(jwt.Config{
		AccessSecret:  cfg.Tokens.AccessSecret,
		AccessExpiry:  cfg.Tokens.AccessExpiry,
		RefreshSecret: cfg.Tokens.RefreshSecret,
		RefreshExpiry: cfg.Tokens.RefreshExpiry,
		Issuer:        cfg.Tokens.Issuer,
	})
	if err != nil {
		return err
	}
	hasher := password.NewHasher(password.Config{Cost: cfg.Password.HashCost})

	// Media storage
	store, err := newMediaStore(ctx, cfg.Media)
	if err != nil {
		return err
	}

	// Repositories and services
	accountRepo := repository.NewAccountRepository(db)
	tokenService := service.NewTokenService(service.TokenServiceConfig{
		Issuer:               jwtService,
		AccessExpirySeconds:  int(cfg.Tokens.AccessExpiry.Seconds()),
		RefreshExpirySeconds: int(cfg.Tokens.RefreshExpiry.Seconds()),
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		AccountRepo:  accountRepo,
		Hasher:       hasher,
		TokenService: tokenService,
	})
	accountService := service.NewAccountService(service.AccountServiceConfig{
		AccountRepo: accountRepo,
		Hasher:      hasher,
		Store:       store,
	})

	stager := media.NewStager(cfg.Upload.TempDir, cfg.Upload.MaxBytes)

	// Routes
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Routes{
		Auth: handler.NewAuthHandler(handler.AuthHandlerConfig{
			AuthService: authService,
			Cookies:     handler.CookieConfig{Secure: cfg.Cookies.Secure, Domain: cfg.Cookies.Domain},
		}),
		Account: handler.NewAccountHandler(handler.AccountHandlerConfig{
			AccountService: accountService,
			Stager:         stager,
			// two images plus form fields
			MaxUploadBody: 2*cfg.Upload.MaxBytes + 1<<20,
		}),
		Health: handler.NewHealthHandler(db),
		Gate:   middleware.Auth(authService),
	})

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Shared temp dirs may hold other programs' files
	if cfg.Upload.TempDir != "" {
		sweeper := jobs.NewStagingSweeper(stager, cfg.Upload.SweepInterval, cfg.Upload.SweepMaxAge)
		sweeper.Start()
		defer sweeper.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newMediaStore(ctx context.Context, cfg config.MediaConfig) (media.Store, error) {
	if !cfg.UsesObjectStorage() {
		slog.Warn("MEDIA_BUCKET not set, keeping uploads in memory")
		return media.NewMemoryStore(), nil
	}

	store, err := media.NewS3Store(ctx, media.S3Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		PublicBaseURL:   cfg.PublicBaseURL,
		UsePathStyle:    cfg.UsePathStyle,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("using object storage", slog.String("bucket", cfg.Bucket))
	return store, nil
}
