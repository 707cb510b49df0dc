package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tradeco/tradeco_sdk_go/internal/config"
	"github.com/tradeco/tradeco_sdk_go/internal/logging"
	"github.com/tradeco/tradeco_sdk_go/pkg/bootstrap"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file (defaults to ./.env or ../.env)")
	seedAdmin := flag.Bool("seed-admin", false, "create the administrator from ADMIN_EMAIL/ADMIN_PASSWORD if missing")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	// Fatal exits without running deferred calls, so run owns the
	// connection and main only reports its error.
	if err := run(*envFile, *seedAdmin, *timeout); err != nil {
		log.Fatal().Err(err).Msg("tradeco-bootstrap")
	}
}

func run(envFile string, seedAdmin bool, timeout time.Duration) error {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLevel)
	logger := logging.Component("bootstrap")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := bootstrap.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB at %s: %w", cfg.Mongo.URI, err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("disconnect")
		}
	}()

	target := bootstrap.NewMongoTarget(client.Database(cfg.Mongo.DBName))
	report, err := bootstrap.Run(ctx, target, bootstrap.DefaultSchema(cfg.Mongo.DBName), logger)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	logger.Info().
		Strs("created", report.CreatedCollections).
		Strs("existing", report.ExistingCollections).
		Msg("collections and indexes ready")

	if !seedAdmin {
		return nil
	}
	created, err := bootstrap.SeedAdmin(ctx, target, bootstrap.AdminAccount{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, nil)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Info().Str("email", cfg.Admin.Email).Msg("admin created")
	} else {
		logger.Info().Str("email", cfg.Admin.Email).Msg("admin already present")
	}
	return nil
}
