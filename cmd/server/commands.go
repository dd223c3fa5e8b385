package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/cache"
	"supplychain-backend/internal/config"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/events"
	"supplychain-backend/internal/logger"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/server"

	"github.com/spf13/cobra"
)

var (
	adminEmail     string
	adminPassword  string
	adminFirstName string
	adminLastName  string
)

var rootCmd = &cobra.Command{
	Use:   "supplychain",
	Short: "Supply-chain management API",
	Long: `Supply-chain management API: suppliers, raw materials, products and
their bills of materials, production runs, sales orders and deliveries.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := bootstrap()
		if err := database.Init(cfg.DatabaseDSN, log); err != nil {
			return err
		}
		log.Info("schema up to date")
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a local ADMIN account",
	Long: `Create a local ADMIN account, typically the very first user.

Example:
  supplychain create-admin --email ops@example.com --password 's3cret' --first-name Ops --last-name Team`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := bootstrap()
		if err := database.Init(cfg.DatabaseDSN, log); err != nil {
			return err
		}
		svc := auth.NewService(database.DB, nil, cfg.RefreshTokenTTL)
		user, err := svc.CreateUser(cmd.Context(), auth.RegisterInput{
			FirstName: adminFirstName,
			LastName:  adminLastName,
			Email:     adminEmail,
			Password:  adminPassword,
			Role:      models.RoleAdmin,
		})
		if err != nil {
			return err
		}
		log.Info("admin created", "user_id", user.ID, "email", user.Email)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email (required)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (required)")
	createAdminCmd.Flags().StringVar(&adminFirstName, "first-name", "Admin", "First name")
	createAdminCmd.Flags().StringVar(&adminLastName, "last-name", "User", "Last name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

func bootstrap() (*config.Config, *slog.Logger) {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LogLevel, os.Stdout)
	slog.SetDefault(log)
	return cfg, log
}

func runServe() error {
	cfg, log := bootstrap()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Warn(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Init(cfg.DatabaseDSN, log); err != nil {
		return err
	}

	deps := server.Deps{
		DB:          database.DB,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
	}

	switch cfg.AuthMode {
	case config.AuthModeOIDC:
		v, err := auth.NewJWKSVerifier(ctx, cfg.JWKSURL, cfg.Issuer, cfg.ResourceID, cfg.PrincipalAttribute)
		if err != nil {
			return err
		}
		deps.Verifier = v
		log.Info("bearer tokens verified against identity provider", "jwks_url", cfg.JWKSURL)
	default:
		tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
		deps.Verifier = tokens
		deps.Auth = auth.NewService(database.DB, tokens, cfg.RefreshTokenTTL)
	}

	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		deps.Cache = cache.NewRedis(rdb)
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName, 1024, log)
		producer.Start()
		deps.Events = producer
	}

	app := server.NewApp(deps)

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.HTTPPort)
		errc <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errc:
		if producer != nil {
			producer.Close()
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("http shutdown", "error", err)
	}
	if producer != nil {
		producer.Close()
	}
	return nil
}
