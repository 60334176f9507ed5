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

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/trucoapp/tournament-manager/checkout"
	"github.com/trucoapp/tournament-manager/config"
	"github.com/trucoapp/tournament-manager/db"
	"github.com/trucoapp/tournament-manager/handlers"
	"github.com/trucoapp/tournament-manager/live"
	"github.com/trucoapp/tournament-manager/outbox"
	"github.com/trucoapp/tournament-manager/repositories"
	api "github.com/trucoapp/tournament-manager/routes"
	"github.com/trucoapp/tournament-manager/services"
	"github.com/trucoapp/tournament-manager/storage"
)

const outboxReplayInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Ticket QR storage is optional; without R2 credentials tickets are still
	// issued, just not published as hosted images.
	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 storage not configured, ticket images stay local")
	}

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	hub := live.NewHub(logger)
	go hub.Run(backgroundCtx)
	logger.Info("live event hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	paymentRepo := repositories.NewPostgresPaymentRepository(dbConn)
	recordRepo := repositories.NewPostgresPaymentRecordRepository(dbConn)
	backupRepo := repositories.NewPostgresBackupRepository()
	logger.Info("repositories initialized")

	queue, err := outbox.NewFileQueue(cfg.OutboxPath)
	if err != nil {
		logger.Error("failed to initialize outbox", slog.Any("error", err))
		os.Exit(1)
	}

	mpClient := checkout.NewMercadoPagoClient(cfg.MercadoPagoAccessToken)
	txRunner := db.NewTxRunner(dbConn)

	authService := services.NewAuthService(userRepo)
	playerService := services.NewPlayerService(playerRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, playerRepo)
	matchService := services.NewMatchService(matchRepo)
	paymentService := services.NewPaymentService(paymentRepo)
	ticketService := services.NewTicketService(uploader, logger)
	reconcileService := services.NewReconcileService(
		txRunner,
		recordRepo,
		playerRepo,
		tournamentRepo,
		paymentRepo,
		mpClient,
		queue,
		hub,
		logger,
	)
	exportService := services.NewExportService(
		txRunner,
		backupRepo,
		playerRepo,
		tournamentRepo,
		matchRepo,
		paymentRepo,
		recordRepo,
	)
	dashboardService := services.NewDashboardService(playerRepo, tournamentRepo, paymentRepo, recordRepo)
	logger.Info("services initialized")

	replayer := outbox.NewReplayer(queue, reconcileService.ReplayQueuedRecord, outboxReplayInterval, logger)
	go replayer.Run(backgroundCtx)
	logger.Info("outbox replayer started", slog.Duration("interval", outboxReplayInterval))

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	playerHandler := handlers.NewPlayerHandler(playerService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	matchHandler := handlers.NewMatchHandler(matchService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	recordHandler := handlers.NewRecordHandler(ticketService, reconcileService, cfg.BaseURL)
	checkoutHandler := handlers.NewCheckoutHandler(reconcileService)
	exportHandler := handlers.NewExportHandler(exportService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, cfg.JWTSecretKey)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		playerHandler,
		tournamentHandler,
		matchHandler,
		paymentHandler,
		recordHandler,
		checkoutHandler,
		exportHandler,
		dashboardHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
