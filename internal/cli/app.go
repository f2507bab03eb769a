package cli

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/laurel/config"
	auditrepo "github.com/Ramsey-B/laurel/internal/repositories/audit"
	clientrepo "github.com/Ramsey-B/laurel/internal/repositories/client"
	dependentsrepo "github.com/Ramsey-B/laurel/internal/repositories/dependents"
	"github.com/Ramsey-B/laurel/internal/repositories/duplicatecandidate"
	enrollmentrepo "github.com/Ramsey-B/laurel/internal/repositories/enrollment"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/detection"
	"github.com/Ramsey-B/laurel/pkg/enrollment"
	"github.com/Ramsey-B/laurel/pkg/events"
	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/logging"
	"github.com/Ramsey-B/laurel/pkg/merging"
	"github.com/Ramsey-B/laurel/pkg/names"
	"github.com/Ramsey-B/laurel/pkg/review"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/Ramsey-B/laurel/pkg/tracing/exporters"
)

// App holds the wired service graph shared by the commands.
type App struct {
	Config *config.Config
	Logger ectologger.Logger
	DB     database.DB

	ClientRepo     *clientrepo.Repository
	CandidateRepo  *duplicatecandidate.Repository
	EnrollmentRepo *enrollmentrepo.Repository
	DependentsRepo *dependentsrepo.Repository
	Auditor        *auditrepo.Recorder

	Producer *kafka.Producer
	Emitter  *events.Emitter

	Detector    *detection.Detector
	Detection   *detection.Service
	MergeEngine *merging.Engine
	Workflow    *review.Workflow
	Reconciler  *enrollment.Reconciler

	cleanups []func(context.Context)
}

// newApp loads configuration and builds the service graph. Migrations run
// only when requested so offline commands don't mutate schema.
func newApp(ctx context.Context, migrateDB bool) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	logger, loggerCleanup, err := logging.New(cfg.AppName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.cleanups = append(app.cleanups, func(context.Context) { loggerCleanup() })

	if cfg.TracingEnabled {
		provider, shutdown, err := exporters.NewTracerProvider(ctx, cfg.AppName, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize tracing")
		}
		tracing.SetTracer(provider.Tracer(cfg.AppName))
		app.cleanups = append(app.cleanups, func(ctx context.Context) {
			if err := shutdown(ctx); err != nil {
				logger.WithError(err).Warn("Failed to shut down tracer provider")
			}
		})
	}

	db, err := database.Connect(ctx, database.ConnectionConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}
	app.DB = db
	app.cleanups = append(app.cleanups, func(context.Context) {
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
	})

	if migrateDB {
		driver, err := postgres.WithInstance(db.Unsafe().DB, &postgres.Config{DatabaseName: cfg.DatabaseName})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create migration driver")
		}
		migrations := database.NewMigrationService(logger, &database.MigrationConfig{
			MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
			Version:             uint(cfg.DatabaseMigrationVersion),
			Force:               cfg.DatabaseMigrationForce,
			AutoRollback:        cfg.DatabaseMigrationAutoRollback,
		})
		if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
			return nil, errors.Wrap(err, "failed to run migrations")
		}
	}

	app.ClientRepo = clientrepo.NewRepository(db, logger)
	app.CandidateRepo = duplicatecandidate.NewRepository(db, logger)
	app.EnrollmentRepo = enrollmentrepo.NewRepository(db, logger)
	app.DependentsRepo = dependentsrepo.NewRepository(db, logger)
	app.Auditor = auditrepo.NewRecorder(db, logger)

	app.Producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	app.cleanups = append(app.cleanups, func(context.Context) {
		if err := app.Producer.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close Kafka producer")
		}
	})
	app.Emitter = events.NewEmitter(app.Producer, logger)

	scorer := names.NewScorer(names.LoadNicknames(cfg.NicknameFilePath, logger))
	app.Detector = detection.NewDetector(scorer, cfg.DetectionThreshold)
	app.Detection = detection.NewService(logger, app.Detector, app.ClientRepo, app.CandidateRepo, app.Emitter, detection.Config{
		MaxCandidates: cfg.DetectionMaxCandidates,
	})

	app.MergeEngine = merging.NewEngine(logger, db, app.ClientRepo, app.CandidateRepo, app.EnrollmentRepo, app.DependentsRepo, app.Auditor, app.Emitter)
	app.Workflow = review.NewWorkflow(logger, app.CandidateRepo, app.ClientRepo, app.MergeEngine, app.Auditor, app.Emitter)
	app.Reconciler = enrollment.NewReconciler(logger, db, app.EnrollmentRepo, app.ClientRepo, app.Auditor, app.Emitter, enrollment.NewPolicy(cfg.AdjacencyGapDays))

	return app, nil
}

// Close releases resources in reverse construction order.
func (a *App) Close(ctx context.Context) {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i](ctx)
	}
}
