package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/laurel/pkg/intake"
	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/middleware"
	candidateroutes "github.com/Ramsey-B/laurel/pkg/routes/candidate"
	clientroutes "github.com/Ramsey-B/laurel/pkg/routes/client"
	"github.com/Ramsey-B/laurel/pkg/routes/health"
	reconciliationroutes "github.com/Ramsey-B/laurel/pkg/routes/reconciliation"
	"github.com/Ramsey-B/laurel/pkg/startup"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and intake consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	app, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	cfg := app.Config
	logger := app.Logger

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		processor := intake.NewProcessor(logger, app.ClientRepo, app.Detection)
		consumer = kafka.NewConsumer(*cfg, logger, processor.ProcessMessage)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(app.DB.Unsafe(), consumerHealth(consumer), Version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	clientroutes.NewHandler(logger, app.ClientRepo, app.CandidateRepo, app.EnrollmentRepo, app.Detector, app.Detection).RegisterRoutes(api)
	candidateroutes.NewHandler(logger, app.Workflow).RegisterRoutes(api)
	reconciliationroutes.NewHandler(logger, app.Reconciler).RegisterRoutes(api)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	boot := startup.New(logger, cfg.StartupMaxAttempts)
	if consumer != nil {
		boot.AddDependency(&consumerDependency{consumer: consumer})
	}
	boot.AddDependency(&serverDependency{server: server, logger: logger})

	if err := boot.Start(ctx); err != nil {
		return err
	}
	checker.SetReady(true)
	logger.WithContext(ctx).WithFields(map[string]any{"port": cfg.Port}).Info("Laurel API started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case sig := <-quit:
		logger.Infof("Received signal %s, shutting down", sig)
	}

	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return boot.Stop(shutdownCtx)
}

// consumerHealth avoids handing the checker a typed-nil interface when the
// consumer is disabled.
func consumerHealth(c *kafka.Consumer) interface{ Health() bool } {
	if c == nil {
		return nil
	}
	return c
}

type serverDependency struct {
	server *http.Server
	logger ectologger.Logger
}

func (d *serverDependency) GetName() string     { return "http-server" }
func (d *serverDependency) DependsOn() []string { return nil }

func (d *serverDependency) Start(ctx context.Context) error {
	go func() {
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			d.logger.WithError(err).Error("HTTP server exited")
		}
	}()
	return nil
}

func (d *serverDependency) Stop(ctx context.Context) error {
	return d.server.Shutdown(ctx)
}

type consumerDependency struct {
	consumer *kafka.Consumer
}

func (d *consumerDependency) GetName() string     { return "intake-consumer" }
func (d *consumerDependency) DependsOn() []string { return nil }

func (d *consumerDependency) Start(ctx context.Context) error {
	return d.consumer.Start(ctx)
}

func (d *consumerDependency) Stop(ctx context.Context) error {
	return d.consumer.Stop()
}
