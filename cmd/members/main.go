package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdav-kompass/kompass/internal/config"
	"github.com/jdav-kompass/kompass/internal/db"
	"github.com/jdav-kompass/kompass/internal/metrics"
	"github.com/jdav-kompass/kompass/internal/repository"
	"github.com/jdav-kompass/kompass/internal/service"
	"github.com/jdav-kompass/kompass/migrations"
	"github.com/jdav-kompass/kompass/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}

	l, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer l.Sync()

	ctx := logger.WithLogger(context.Background(), l)

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		l.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = pool.Ping(ctx); err != nil {
		l.Fatal("failed to ping database", zap.Error(err))
	}

	transactor := db.NewPgxTransactor(pool)

	members := service.NewMemberService(transactor).
		WithMemberRepo(repository.NewPgxMemberRepository(pool)).
		WithEmergencyContactRepo(repository.NewPgxEmergencyContactRepository(pool)).
		WithGroupRepo(repository.NewPgxGroupRepository(pool)).
		WithMetrics(metrics.New())

	cli := &commandLine{
		members: members,
		migrate: db.NewMigrator(pool, migrations.FS, l).Run,
		out:     os.Stdout,
	}
	if err = cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			l.Error("command failed", zap.Error(err))
		}
		pool.Close()
		os.Exit(1)
	}
}
