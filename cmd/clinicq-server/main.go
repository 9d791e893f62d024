package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicq/clinicq/internal/config"
	"github.com/clinicq/clinicq/internal/domain/admin"
	"github.com/clinicq/clinicq/internal/domain/doctor"
	"github.com/clinicq/clinicq/internal/domain/patient"
	"github.com/clinicq/clinicq/internal/domain/triage"
	"github.com/clinicq/clinicq/internal/domain/visit"
	"github.com/clinicq/clinicq/internal/platform/auth"
	"github.com/clinicq/clinicq/internal/platform/db"
	"github.com/clinicq/clinicq/internal/platform/extract"
	"github.com/clinicq/clinicq/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicq-server",
		Short: "Clinic patient queue API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic queue API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func doctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Manage doctor accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new doctor account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			tier, _ := cmd.Flags().GetString("tier")
			pin, _ := cmd.Flags().GetString("pin")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := doctor.NewService(doctor.NewRepoPG(pool))
			d, err := svc.Create(ctx, doctor.CreateInput{
				Name: name,
				Tier: triage.Tier(tier),
				PIN:  pin,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created doctor %s (%s, %s)\n", d.ID, d.Name, d.Tier)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Doctor's display name")
	createCmd.Flags().String("tier", "JUNIOR", "Role tier: JUNIOR or SENIOR")
	createCmd.Flags().String("pin", "", "Login PIN (4-10 digits)")
	cmd.AddCommand(createCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List doctor accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := doctor.NewService(doctor.NewRepoPG(pool))
			doctors, err := svc.List(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%-38s %-30s %-8s\n", "ID", "NAME", "TIER")
			for _, d := range doctors {
				fmt.Printf("%-38s %-30s %-8s\n", d.ID, d.Name, d.Tier)
			}
			return nil
		},
	}
	cmd.AddCommand(listCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Session tokens. Development falls back to a fixed secret so local
	// setups work without configuration.
	secret := cfg.AuthSecret
	if secret == "" {
		secret = "dev-only-insecure-secret"
	}
	issuer := auth.NewIssuer([]byte(secret), cfg.TokenTTL())

	// Severity scoring: heuristic by default, logistic model when one is
	// configured.
	var model triage.RiskModel
	if cfg.ModelPath != "" {
		m, err := triage.LoadModel(cfg.ModelPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.ModelPath).Msg("failed to load risk model")
		}
		model = m
		logger.Info().Str("path", cfg.ModelPath).Msg("loaded risk model")
	}
	scorer := triage.NewScorer(model, 2*time.Second)

	// Symptom extraction is optional; without an endpoint the scorer runs
	// on raw text alone.
	var extractor visit.Extractor
	if cfg.ExtractAPIURL != "" {
		extractor = extract.NewClient(extract.Config{
			BaseURL: cfg.ExtractAPIURL,
			APIKey:  cfg.ExtractAPIKey,
			Model:   cfg.ExtractModel,
			Timeout: cfg.ExtractTimeout(),
		}, logger)
		logger.Info().Str("url", cfg.ExtractAPIURL).Msg("symptom extraction enabled")
	}

	// Services
	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	doctorSvc := doctor.NewService(doctor.NewRepoPG(pool))
	visitSvc := visit.NewService(
		visit.NewRepoPG(pool),
		doctorSvc,
		patientSvc,
		scorer,
		extractor,
		visit.ConsultMinutes{
			triage.TierJunior: cfg.ConsultMinutesJunior,
			triage.TierSenior: cfg.ConsultMinutesSenior,
		},
	)

	// Route groups: logins and registration are open, everything else
	// requires a session token.
	public := e.Group("/api/v1")
	api := e.Group("/api/v1")
	if cfg.IsDev() && cfg.AuthSecret == "" {
		api.Use(auth.DevMiddleware())
	} else {
		api.Use(auth.Middleware(issuer))
	}

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	public.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Handlers
	auth.NewHandler(issuer, patientSvc, doctorSvc, cfg.AdminPIN).RegisterRoutes(public)
	patient.NewHandler(patientSvc).RegisterRoutes(public, api)
	doctor.NewHandler(doctorSvc).RegisterRoutes(api)
	visit.NewHandler(visitSvc).RegisterRoutes(api)
	admin.NewHandler(admin.NewAnalyticsPG(pool), visitSvc).RegisterRoutes(api)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
