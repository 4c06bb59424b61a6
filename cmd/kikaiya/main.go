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

	"golang.org/x/sync/errgroup"

	"github.com/kikaiya/kikaiya-web/cmd/kikaiya/cli"
	"github.com/kikaiya/kikaiya-web/internal/app"
	"github.com/kikaiya/kikaiya-web/internal/audit"
	"github.com/kikaiya/kikaiya-web/internal/auth"
	"github.com/kikaiya/kikaiya-web/internal/content"
	"github.com/kikaiya/kikaiya-web/internal/observability"
	"github.com/kikaiya/kikaiya-web/internal/platform/cache"
	"github.com/kikaiya/kikaiya-web/internal/platform/db"
	"github.com/kikaiya/kikaiya-web/internal/rbac"
	"github.com/kikaiya/kikaiya-web/internal/roles"
	"github.com/kikaiya/kikaiya-web/internal/shared"
	"github.com/kikaiya/kikaiya-web/internal/users"
)

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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	activity := shared.NewActivityLogger(dbpool)
	catalog := rbac.Default()
	usersService := users.NewService(users.NewRepository(dbpool), catalog, activity, logger)

	if len(os.Args) > 1 {
		code := runCommand(ctx, os.Args[1], os.Args[2:], usersService)
		dbpool.Close()
		os.Exit(code)
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	codec := auth.NewTokenCodec(cfg.SigningSecret(logger), auth.WithLogger(logger))
	cookies := auth.NewCookieStore(cfg.IsProduction(), logger)
	resolver := auth.NewResolver(codec, cookies)
	guard := auth.NewGuard(resolver, auth.GuardConfig{
		Production: cfg.IsProduction(),
		DevBypass:  bool(cfg.AdminAuthBypass),
		Logger:     logger,
		Observer:   metrics,
	})
	gate := rbac.NewGate(catalog)
	rbacMiddleware := rbac.Middleware{Gate: gate, Identities: resolver, Logger: logger}

	authHandler := auth.NewHandler(logger, auth.NewService(auth.NewRepository(dbpool)), codec, cookies, resolver, activity, auth.WithGrants(gate.Permissions))
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)
	rolesHandler := roles.NewHandler(logger, roles.NewService(roles.NewRepository(dbpool), catalog), rbacMiddleware)
	permissionsHandler := rbac.NewPermissionsHandler(catalog, rbacMiddleware)
	contentHandler := content.NewHandler(logger, content.NewStore(redisClient), rbacMiddleware, activity)
	activityHandler := audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool, logger)), rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Guard:              guard,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		ContentHandler:     contentHandler,
		ActivityHandler:    activityHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, name string, args []string, usersService *users.Service) int {
	switch name {
	case "create-admin":
		opts, err := cli.ParseCreateAdmin(args, os.Stdout, os.Stderr)
		if err != nil {
			return 2
		}
		return cli.CreateAdminCommand(ctx, usersService, opts)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\nusage: kikaiya [create-admin -email EMAIL -name NAME -password PASSWORD]\n", name)
		return 2
	}
}
