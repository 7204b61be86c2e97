package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Skufu/rehabassist/internal/catalog"
	"github.com/Skufu/rehabassist/internal/config"
	"github.com/Skufu/rehabassist/internal/report"
	"github.com/Skufu/rehabassist/internal/web"
	"github.com/Skufu/rehabassist/internal/wizard"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := serveCmd()
	root := &cobra.Command{
		Use:          "rehabassist",
		Short:        "Guided rehabilitation self-assessment",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.AddCommand(serve, checkCmd(), reportCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the questionnaire web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load the lookup tables and report data-integrity issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, pool, err := openCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			return runCheck(cmd.OutOrStdout(), c, strict)
		},
	}
	cmd.Flags().Bool("strict", false, "Exit non-zero when issues are found")
	return cmd
}

func runCheck(out io.Writer, c *catalog.Catalog, strict bool) error {
	counts := c.Counts()
	fmt.Fprintf(out, "symptoms: %d, tests: %d, exercises: %d\n", counts.Symptoms, counts.Tests, counts.Exercises)

	issues := c.CheckIntegrity()
	for _, i := range issues {
		fmt.Fprintln(out, i.String())
	}
	if len(issues) == 0 {
		fmt.Fprintln(out, "no issues found")
		return nil
	}
	if strict {
		return fmt.Errorf("%d integrity issue(s)", len(issues))
	}
	return nil
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the PDF report for a body part and failed tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			bodyPart, _ := cmd.Flags().GetString("body-part")
			failed, _ := cmd.Flags().GetStringSlice("failed-tests")
			output, _ := cmd.Flags().GetString("output")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, pool, err := openCatalog(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			return runReport(cmd.ErrOrStderr(), c, wizard.Params{BodyPart: bodyPart, FailedTests: failed}, output)
		},
	}
	cmd.Flags().String("body-part", "", "Symptom name, defaults to the first one")
	cmd.Flags().StringSlice("failed-tests", nil, "Ids of failed tests")
	cmd.Flags().StringP("output", "o", report.Filename, "Output file")
	return cmd
}

func runReport(out io.Writer, c *catalog.Catalog, params wizard.Params, output string) error {
	ctrl := wizard.NewController(c, report.ImageResolver{})
	selected, warning := ctrl.Select(params.BodyPart)
	if warning != "" {
		fmt.Fprintln(out, warning)
	}

	a, doc := ctrl.Report(selected, params.FailedIDs())
	if a.Conditions.Len() == 0 {
		fmt.Fprintln(out, report.ConsultAdvice)
	}

	pdf, err := report.RenderPDF(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, pdf, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(out, "wrote %s (%d exercises)\n", output, len(doc.Exercises))
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()
	}
	return logger
}

// openCatalog loads the lookup tables from the configured source. The pool
// is nil unless the source is Postgres; the caller closes it.
func openCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, *pgxpool.Pool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	switch cfg.CatalogSource {
	case config.SourcePostgres:
		pool, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		c, err := catalog.PostgresSource{Pool: pool}.Load(ctx)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return c, pool, nil
	case config.SourceSQLite:
		c, err := catalog.SQLiteSource{Path: cfg.SQLitePath}.Load(ctx)
		return c, nil, err
	default:
		c, err := catalog.CSVSource{Dir: cfg.DataDir}.Load(ctx)
		return c, nil, err
	}
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return catalog.ConnectPostgres(pingCtx, url)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := newLogger(cfg)
	gin.SetMode(cfg.GinMode)

	c, pool, err := openCatalog(context.Background(), cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("source", cfg.CatalogSource).Msg("failed to load catalog")
	}
	var db web.HealthChecker
	if pool != nil {
		defer pool.Close()
		db = pool
	}

	counts := c.Counts()
	logger.Info().
		Str("source", cfg.CatalogSource).
		Int("symptoms", counts.Symptoms).
		Int("tests", counts.Tests).
		Int("exercises", counts.Exercises).
		Msg("catalog loaded")
	for _, issue := range c.CheckIntegrity() {
		logger.Warn().Str("kind", string(issue.Kind)).Str("subject", issue.Subject).Msg(issue.Message)
	}

	router := web.NewRouter(web.Deps{
		Catalog:     c,
		AssetsDir:   cfg.AssetsDir,
		CORSOrigins: cfg.CORSOrigins,
		DB:          db,
		Logger:      logger,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("server listening")
	waitForShutdown(server, logger)
	return nil
}

func waitForShutdown(server *http.Server, logger zerolog.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
