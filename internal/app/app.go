// Package app wires configuration into the long-lived components shared by
// the daemon and the CLI.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/events"
	"github.com/joseph-ayodele/price-tracker/internal/export"
	"github.com/joseph-ayodele/price-tracker/internal/ingest"
	"github.com/joseph-ayodele/price-tracker/internal/llm"
	"github.com/joseph-ayodele/price-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/price-tracker/internal/metrics"
	"github.com/joseph-ayodele/price-tracker/internal/pipeline"
	"github.com/joseph-ayodele/price-tracker/internal/repository"
	"github.com/joseph-ayodele/price-tracker/internal/stores"
)

// App holds the wired components. Close releases them.
type App struct {
	Config    common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Records   repository.RecordRepository
	Stores    repository.StoreRepository
	Processor *pipeline.Processor
	StoreSvc  *stores.Service
	Export    *export.Service
	Images    *ingest.ImageStore
	Registry  *prometheus.Registry
	Metrics   *metrics.PipelineMetrics

	closers []func() error
}

// Option overrides a component, mainly for tests.
type Option func(*options)

type options struct {
	extractor llm.Extractor
}

// WithExtractor replaces the OpenAI client.
func WithExtractor(e llm.Extractor) Option {
	return func(o *options) { o.extractor = e }
}

// New opens the database, migrates it when configured to, and builds the
// pipeline. The caller must Close the returned App.
func New(ctx context.Context, cfg common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "open database", err)
	}
	a := &App{Config: cfg, Logger: logger, DB: db}
	a.closers = append(a.closers, db.Close)

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			_ = a.Close()
			return nil, common.NewAppError("DB_ERROR", "migrate schema", err)
		}
	}

	a.Records = repository.NewRecordRepository(db, logger)
	storeRepo := repository.NewStoreRepository(db, logger)
	if cfg.Storage.StoreCacheTTL > 0 {
		a.Stores = repository.NewCachedStores(storeRepo, cfg.Storage.StoreCacheTTL, 2*cfg.Storage.StoreCacheTTL)
	} else {
		a.Stores = storeRepo
	}

	a.Registry = prometheus.NewRegistry()
	a.Metrics, err = metrics.NewPipelineMetrics(a.Registry)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.RedisURL != "" {
		rp, err := events.NewRedisPublisher(cfg.Events.RedisURL, logger)
		if err != nil {
			_ = a.Close()
			return nil, common.NewAppError("CONFIG_ERROR", "redis url", err)
		}
		publisher = rp
		a.closers = append(a.closers, rp.Close)
	}

	extractor := o.extractor
	if extractor == nil {
		if cfg.LLM.APIKey == "" {
			logger.Warn("app.llm.no_api_key", "hint", "set OPENAI_API_KEY or secret.json; extraction will return no records")
		}
		extractor = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	}

	a.Processor = pipeline.NewProcessor(extractor, a.Records, a.Stores, logger,
		pipeline.WithPublisher(publisher),
		pipeline.WithMetrics(a.Metrics),
	)
	a.StoreSvc = stores.NewService(a.Stores, logger)
	a.Export = export.NewService(a.Records, a.Stores, logger)
	a.Images = ingest.NewImageStore(cfg.Storage.UploadDir)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
