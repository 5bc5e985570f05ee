package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vaxtrack/vaxtrack/internal/config"
	"github.com/vaxtrack/vaxtrack/internal/domain/dashboard"
	"github.com/vaxtrack/vaxtrack/internal/domain/patient"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
	"github.com/vaxtrack/vaxtrack/internal/platform/bootstrap"
	"github.com/vaxtrack/vaxtrack/internal/platform/genai"
	"github.com/vaxtrack/vaxtrack/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vaxtrack-server",
		Short: "Vaccination tracking dashboard API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Print a generated snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("patients")
			seed, _ := cmd.Flags().GetInt64("seed")

			source := genai.NewStaticSource(count, seed)
			snap, err := source.Generate(context.Background())
			if err != nil {
				return err
			}
			snap.Stats = ptr(dashboard.Recompute(snap.Patients, snap.Vaccines))

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
	cmd.Flags().Int("patients", 12, "Number of patients to generate")
	cmd.Flags().Int64("seed", 1, "Random seed")
	return cmd
}

func ptr[T any](v T) *T { return &v }

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
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Domain wiring: in-memory stores, services, and the dashboard facade
	// that serializes all mutations.
	patientSvc := patient.NewService(patient.NewMemRepo())
	vaccineSvc := vaccine.NewService(vaccine.NewMemRepo())
	stats := dashboard.NewAggregator()
	dashSvc := dashboard.NewService(patientSvc, vaccineSvc, stats, logger)

	// Bootstrap source: live generation when a key is configured, seeded
	// local data otherwise.
	var source genai.Source
	if cfg.UseGenAI() {
		source = genai.NewClient(cfg.GenAIAPIURL, cfg.GenAIAPIKey, cfg.GenAIModel, time.Duration(cfg.GenAITimeoutSeconds)*time.Second)
		logger.Info().Str("model", cfg.GenAIModel).Msg("bootstrapping from generation service")
	} else {
		source = genai.NewStaticSource(cfg.SeedPatientCount, cfg.Seed)
		logger.Info().Int("patients", cfg.SeedPatientCount).Msg("bootstrapping from seeded data")
	}
	loader := bootstrap.NewLoader(source, dashSvc, time.Duration(cfg.GenAITimeoutSeconds)*time.Second, logger)
	go loader.Load()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Data endpoints return 503 until the initial load completes.
	apiV1.Use(bootstrap.Gate(loader))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// -- Register Handlers --
	bootstrap.NewHandler(loader).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	vaccine.NewHandler(vaccineSvc).RegisterRoutes(apiV1)
	dashboard.NewHandler(dashSvc).RegisterRoutes(apiV1)

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
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
