package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medicare/emr/internal/config"
	"github.com/medicare/emr/internal/domain/appointment"
	"github.com/medicare/emr/internal/domain/chart"
	"github.com/medicare/emr/internal/domain/dashboard"
	"github.com/medicare/emr/internal/domain/identity"
	"github.com/medicare/emr/internal/domain/notification"
	"github.com/medicare/emr/internal/domain/patient"
	"github.com/medicare/emr/internal/domain/portal"
	"github.com/medicare/emr/internal/domain/prescription"
	"github.com/medicare/emr/internal/domain/treatment"
	"github.com/medicare/emr/internal/platform/auth"
	"github.com/medicare/emr/internal/platform/blobstore"
	"github.com/medicare/emr/internal/platform/db"
	"github.com/medicare/emr/internal/platform/metrics"
	"github.com/medicare/emr/internal/platform/middleware"
	"github.com/medicare/emr/internal/platform/report"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "emr-server",
		Short: "EMR API server with PDF patient reports",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the EMR API server",
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

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
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

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// reportCmd renders a report offline from a JSON export of a patient record.
func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a patient report PDF from a JSON record",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			style, _ := cmd.Flags().GetString("style")
			out, _ := cmd.Flags().GetString("out")
			tz, _ := cmd.Flags().GetString("timezone")

			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("timezone %q: %w", tz, err)
			}

			f, err := os.Open(input)
			if err != nil {
				return err
			}
			defer f.Close()

			path, pages, err := renderReport(f, style, out, report.WithLocation(loc))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d page(s))\n", path, pages)
			return nil
		},
	}
	cmd.Flags().String("input", "", "Path to the patient record JSON")
	cmd.Flags().String("style", report.ClinicalStyle.Name, "Report style: clinical or form")
	cmd.Flags().String("out", ".", "Directory to write the PDF into")
	cmd.Flags().String("timezone", "UTC", "Timezone for report dates")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func renderReport(r io.Reader, styleName, outDir string, opts ...report.Option) (string, int, error) {
	var in report.Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return "", 0, fmt.Errorf("decode record: %w", err)
	}
	style, err := report.ParseStyle(styleName)
	if err != nil {
		return "", 0, err
	}
	res, err := report.Generate(in, style, opts...)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", 0, err
	}
	path := filepath.Join(outDir, res.FileName)
	if err := os.WriteFile(path, res.Content, 0o644); err != nil {
		return "", 0, err
	}
	return path, res.Pages, nil
}

// authMiddleware picks the token verifier. Development mode wraps it so
// requests without a token still get through as an admin.
func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	var verify echo.MiddlewareFunc
	if cfg.AuthIssuer != "" || cfg.AuthJWKSURL != "" || cfg.AuthSigningKey != "" {
		jwtCfg := auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
			Skipper:  auth.AuthSkipper,
		}
		if cfg.AuthSigningKey != "" {
			jwtCfg.SigningKey = []byte(cfg.AuthSigningKey)
		}
		verify = auth.JWTMiddleware(jwtCfg)
	}
	if cfg.IsDev() {
		return auth.DevAuthMiddleware(verify)
	}
	return verify
}

// newArchive returns the S3 archive when a bucket is configured and an
// in-memory one otherwise.
func newArchive(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (blobstore.BlobStore, error) {
	if cfg.ReportArchiveBucket == "" {
		logger.Warn().Msg("REPORT_ARCHIVE_BUCKET not set, archived reports are kept in memory")
		return blobstore.NewInMemoryBlobStore(), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	logger.Info().Str("bucket", cfg.ReportArchiveBucket).Msg("archiving reports to s3")
	return blobstore.NewS3Store(s3.NewFromConfig(awsCfg), cfg.ReportArchiveBucket), nil
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
		logger.Fatal().Err(err).Msg("invalid config")
	}
	loc, err := cfg.ReportLocation()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid report timezone")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	archive, err := newArchive(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up report archive")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(reg)
	reportMetrics := metrics.NewReportMetrics(reg)

	e := newServer(cfg, logger, httpMetrics)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler(reg))

	apiV1 := e.Group("/api/v1")

	// Repositories and services
	patientSvc := patient.NewService(patient.NewPatientRepoPG(pool))
	prescriptionSvc := prescription.NewService(prescription.NewPrescriptionRepoPG(pool), patientSvc)
	treatmentSvc := treatment.NewService(treatment.NewTreatmentRepoPG(pool), patientSvc)
	appointmentSvc := appointment.NewService(appointment.NewAppointmentRepoPG(pool), patientSvc)
	notificationSvc := notification.NewService(notification.NewNotificationRepoPG(pool))
	identitySvc := identity.NewService(identity.NewUserRepoPG(pool))
	dashboardSvc := dashboard.NewService(patientSvc, prescriptionSvc, treatmentSvc)
	portalSvc := portal.NewService(patientSvc, prescriptionSvc, treatmentSvc, appointmentSvc)

	// Handlers
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	prescription.NewHandler(prescriptionSvc).RegisterRoutes(apiV1)
	treatment.NewHandler(treatmentSvc).RegisterRoutes(apiV1)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(apiV1)
	notification.NewHandler(notificationSvc).RegisterRoutes(apiV1)
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)
	dashboard.NewHandler(dashboardSvc).RegisterRoutes(apiV1)
	portal.NewHandler(portalSvc).RegisterRoutes(apiV1)

	assembler := chart.NewAssembler(patientSvc, prescriptionSvc, treatmentSvc)
	reports := report.NewHandler(assembler, archive, reportMetrics, logger,
		report.WithLocation(loc),
	)
	var reportLimit echo.MiddlewareFunc
	if cfg.ReportRatePerMin > 0 {
		reportLimit = middleware.RateLimit(middleware.ReportRateLimitConfig(cfg.ReportRatePerMin))
	}
	reports.RegisterRoutes(apiV1, reportLimit)
	blobstore.NewArchiveHandler(archive).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("report_tz", loc.String()).Msg("starting server")
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

// newServer builds the echo instance with the global middleware chain.
func newServer(cfg *config.Config, logger zerolog.Logger, httpMetrics *metrics.HTTPMetrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Disposition", "X-Unread-Count"},
	}))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	if httpMetrics != nil {
		e.Use(httpMetrics.Middleware())
	}
	if mw := authMiddleware(cfg); mw != nil {
		e.Use(mw)
	}
	e.Use(middleware.Audit(logger))
	return e
}
