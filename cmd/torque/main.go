package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/torque-erp/torque-erp/internal/app"
	"github.com/torque-erp/torque-erp/internal/auth"
	"github.com/torque-erp/torque-erp/internal/clients"
	"github.com/torque-erp/torque-erp/internal/invoices"
	"github.com/torque-erp/torque-erp/internal/observability"
	"github.com/torque-erp/torque-erp/internal/orders"
	"github.com/torque-erp/torque-erp/internal/permissions"
	"github.com/torque-erp/torque-erp/internal/platform/cache"
	"github.com/torque-erp/torque-erp/internal/platform/db"
	"github.com/torque-erp/torque-erp/internal/session"
	"github.com/torque-erp/torque-erp/internal/settings"
	"github.com/torque-erp/torque-erp/internal/shared"
	"github.com/torque-erp/torque-erp/internal/token"
	"github.com/torque-erp/torque-erp/internal/users"
	"github.com/torque-erp/torque-erp/internal/vehicles"
	"github.com/torque-erp/torque-erp/internal/worktimes"
	"github.com/torque-erp/torque-erp/jobs"
	"github.com/torque-erp/torque-erp/report"
)

const tokenIssuer = "torque-erp"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, login throttling disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	codec, err := token.NewCodec(cfg.JWTSecret, tokenIssuer)
	if err != nil {
		logger.Error("init token codec", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	sessions := session.NewStore(pool)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, codec, sessions)
	throttle := auth.NewThrottle(redisClient, cfg.LoginAttemptLimit, cfg.LoginAttemptWindow)
	authHandler := auth.NewHandler(logger, authService, throttle)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger, Metrics: metrics}

	permRepo := permissions.NewRepository(pool)
	permService := permissions.NewService(permRepo)
	permHandler := permissions.NewHandler(logger, permService)
	gate := permissions.Middleware{Service: permService, Logger: logger, Metrics: metrics}

	auditLogger := shared.NewAuditLogger(pool)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, permService, auditLogger)
	usersHandler := users.NewHandler(logger, usersService)

	clientsRepo := clients.NewRepository(pool)
	clientsService := clients.NewService(clientsRepo)
	clientsHandler := clients.NewHandler(logger, clientsService)

	vehiclesRepo := vehicles.NewRepository(pool)
	vehiclesService := vehicles.NewService(vehiclesRepo, clientsService)
	vehiclesHandler := vehicles.NewHandler(logger, vehiclesService)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, clientsService, vehiclesService)
	ordersHandler := orders.NewHandler(logger, ordersService)

	worktimesRepo := worktimes.NewRepository(pool)
	worktimesService := worktimes.NewService(worktimesRepo, ordersService)
	worktimesHandler := worktimes.NewHandler(logger, worktimesService)

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo)
	settingsHandler := settings.NewHandler(logger, settingsService)

	reportClient := report.NewClient(cfg.GotenbergURL)
	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	invoicesRepo := invoices.NewRepository(pool)
	invoicesService := invoices.NewService(invoicesRepo, ordersService, settingsService, reportClient, jobsClient)
	invoicesHandler := invoices.NewHandler(logger, invoicesService)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthMiddleware:     authMiddleware,
		Gate:               gate,
		AuthHandler:        authHandler,
		PermissionsHandler: permHandler,
		UsersHandler:       usersHandler,
		ClientsHandler:     clientsHandler,
		VehiclesHandler:    vehiclesHandler,
		OrdersHandler:      ordersHandler,
		WorktimesHandler:   worktimesHandler,
		InvoicesHandler:    invoicesHandler,
		SettingsHandler:    settingsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
