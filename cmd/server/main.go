package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdav-kompass/kompass/internal/api"
	"github.com/jdav-kompass/kompass/internal/auth"
	"github.com/jdav-kompass/kompass/internal/config"
	"github.com/jdav-kompass/kompass/internal/db"
	"github.com/jdav-kompass/kompass/internal/mailer"
	"github.com/jdav-kompass/kompass/internal/metrics"
	"github.com/jdav-kompass/kompass/internal/repository"
	"github.com/jdav-kompass/kompass/internal/service"
	"github.com/jdav-kompass/kompass/migrations"
	"github.com/jdav-kompass/kompass/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}
	if err = cfg.RequireAuthSecret(); err != nil {
		panic(err)
	}

	logger, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting application", zap.String("version", version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	logger.Info("database connection established")

	if cfg.RunMigrations {
		if err = db.NewMigrator(pool, migrations.FS, logger).Run(ctx); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	texts, err := mailer.NewTexts(cfg.Mail)
	if err != nil {
		logger.Fatal("invalid mail texts", zap.Error(err))
	}

	m := metrics.New()
	transactor := db.NewPgxTransactor(pool)

	memberRepo := repository.NewPgxMemberRepository(pool)
	contactRepo := repository.NewPgxEmergencyContactRepository(pool)
	groupRepo := repository.NewPgxGroupRepository(pool)
	excursionRepo := repository.NewPgxExcursionRepository(pool)
	statementRepo := repository.NewPgxStatementRepository(pool)

	members := service.NewMemberService(transactor).WithMemberRepo(memberRepo).WithEmergencyContactRepo(contactRepo).WithGroupRepo(groupRepo).WithMetrics(m)
	statements := service.NewStatementService(transactor).WithStatementRepo(statementRepo).WithExcursionRepo(excursionRepo)
	mail := service.NewMailService(cfg.MailDomain, texts).WithMemberRepo(memberRepo).WithGroupRepo(groupRepo)

	e := echo.New()
	e.HideBanner = true

	handler := api.NewHandler(logger, auth.NewTokens(cfg.AuthSecret)).
		WithMemberService(members).
		WithStatementService(statements).
		WithMailService(mail).
		WithMetricsHandler(m.Handler()).
		WithHealthChecker(api.MustNewHealthChecker(version, api.PostgresCheck(cfg.DatabaseDSN)))

	handler.RegisterRoutes(e)

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err = e.Shutdown(shutdownCtx); err != nil {
		logger.Error("could not stop server gracefully", zap.Error(err))
	}
}
