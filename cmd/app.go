package cmd

import (
	"fmt"
	"time"

	"medicamentos-etl/core/config"
	"medicamentos-etl/core/database"
	"medicamentos-etl/core/logger"
	"medicamentos-etl/core/metrics"
	"medicamentos-etl/core/publish"
	"medicamentos-etl/core/search"
	"medicamentos-etl/core/storage"
	"medicamentos-etl/feature/integrity"
	"medicamentos-etl/feature/manual"
	"medicamentos-etl/feature/medicamentos"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// integrityCacheTTL keeps integrity reports between polls of the HTTP endpoint.
const integrityCacheTTL = 30 * time.Second

// application wires configuration, clients and services for one command.
type application struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics

	db     *gorm.DB
	search search.Client
	store  storage.Client

	swappers    []publish.Swapper
	coordinator *publish.Coordinator
}

// bootstrap loads configuration and connects to the stores. Commands that only
// transform pass connect=false and never touch PostgreSQL or Elasticsearch.
func bootstrap(connect bool) (*application, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &application{cfg: cfg, log: l, metrics: metrics.New()}

	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		a.store = client
	}

	if !connect {
		return a, nil
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db
	l.Info("Connected to database", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))
	a.swappers = append(a.swappers, publish.NewRelationalSwapper(db, l))

	if cfg.Search.Enabled {
		client, err := search.NewClient(cfg.Search)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to search: %w", err)
		}
		a.search = client
		a.swappers = append(a.swappers, publish.NewSearchSwapper(client, cfg.Search, cfg.Publish.BatchSize, l))
	} else {
		l.Warn("Search target disabled, publishing to the relational store only")
	}

	a.coordinator = publish.NewCoordinator(cfg.Publish, l, a.metrics, a.swappers...)
	return a, nil
}

// pipeline builds the medicamentos service. publisher may be nil for transform-only use.
func (a *application) pipeline() (*medicamentos.Service, error) {
	src := medicamentos.NewSource(a.cfg.Pipeline, a.store, a.cfg.Storage.Bucket, a.log)
	var pub medicamentos.Publisher
	if a.coordinator != nil {
		pub = a.coordinator
	}
	return medicamentos.NewService(a.cfg.Pipeline, src, pub, a.metrics, a.log)
}

func (a *application) manual() *manual.Service {
	return manual.NewService(a.cfg.Pipeline.ManualDir, a.coordinator, a.log)
}

func (a *application) integrity(cacheTTL time.Duration) *integrity.Service {
	targets := make([]integrity.ArtifactLister, 0, len(a.swappers))
	for _, s := range a.swappers {
		targets = append(targets, s)
	}
	var sessions integrity.SessionSource
	if a.coordinator != nil {
		sessions = a.coordinator
	}
	return integrity.NewService(integrity.Options{
		DB:       a.db,
		Search:   a.search,
		Storage:  a.store,
		Bucket:   a.cfg.Storage.Bucket,
		Targets:  targets,
		Sessions: sessions,
		CacheTTL: cacheTTL,
	}, a.log)
}

func (a *application) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.log.Sync()
}

// logReport prints which targets swapped and which kept their previous contents.
func logReport(l *zap.Logger, report *publish.Report) {
	if report == nil {
		return
	}
	l.Info("Publish report",
		zap.String("dataset", report.Dataset),
		zap.Int("rows", report.Rows),
		zap.String("outcome", string(report.Outcome)),
		zap.Strings("succeeded", report.Succeeded()),
		zap.Strings("failed", report.Failed()),
		zap.Duration("duration", report.Duration),
	)
	for _, t := range report.Targets {
		fields := []zap.Field{
			zap.String("target", t.Target),
			zap.String("production", t.Production),
			zap.String("session_id", t.SessionID),
			zap.String("outcome", string(t.Outcome)),
			zap.String("state", string(t.State)),
		}
		if t.Error != "" {
			fields = append(fields, zap.String("kind", string(t.Kind)), zap.Bool("retryable", t.Retryable), zap.String("error", t.Error))
			l.Error("Target failed", fields...)
			continue
		}
		for _, w := range t.Warnings {
			l.Warn("Target warning", zap.String("target", t.Target), zap.String("warning", w))
		}
		l.Info("Target published", fields...)
	}
}
