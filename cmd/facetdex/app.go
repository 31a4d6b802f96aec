package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/config"
	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/facetdex/internal/db/redis"
	logpkg "github.com/kailas-cloud/facetdex/internal/logger"
	"github.com/kailas-cloud/facetdex/internal/mapping"
	"github.com/kailas-cloud/facetdex/internal/metrics"
	"github.com/kailas-cloud/facetdex/internal/repository/definition"
	docrepo "github.com/kailas-cloud/facetdex/internal/repository/document"
	"github.com/kailas-cloud/facetdex/internal/repository/reference"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/facetdex/internal/usecase/index"
	queryuc "github.com/kailas-cloud/facetdex/internal/usecase/query"
)

// app is the composition root shared by every command.
type app struct {
	env        string
	cfg        config.Config
	logger     *zap.Logger
	store      db.Store
	defs       *definition.Cache
	references *reference.Repo
	documents  *docrepo.Repo
	indexes    *indexuc.Service
	queries    *queryuc.Service
	health     *healthuc.Service
}

func newApp(ctx context.Context) (*app, error) {
	env := resolveEnv()
	cfg, err := loadConfig(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, logpkg.Options{Level: cfg.Logging.Level})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	static, err := cfg.Definitions()
	if err != nil {
		store.Close()
		return nil, err
	}

	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	registry := mapping.NewRegistry()
	defRepo := definition.New(store)
	// configured types win; types provisioned by other clients are read back
	defs := definition.NewCache(definition.Chain{definition.NewStatic(static), defRepo}).
		WithObserver(metrics.CacheObserver{})

	backend := queryuc.NewInstrumentedBackend(store, logger)
	queries := queryuc.New(defs, backend, registry, queryuc.Config{
		Builder: queryuc.BuilderConfig{
			DefaultTop: cfg.Search.DefaultPageSize,
			MaxTop:     cfg.Search.MaxPageSize,
		},
		Facets: queryuc.HandlerConfig{
			MissingLabel: cfg.Search.MissingLabel,
			ExistsLabel:  cfg.Search.ExistsLabel,
		},
		ScopeCode:   cfg.Search.ScopeCode,
		ScopeLabel:  cfg.Search.ScopeLabel,
		Concurrency: cfg.Search.Concurrency,
		MaxEntries:  cfg.Search.MaxEntries,
	}, logger)

	indexes := indexuc.New(defs, defRepo, store, registry)

	return &app{
		env:        env,
		cfg:        cfg,
		logger:     logger,
		store:      store,
		defs:       defs,
		references: reference.New(store, metrics.ReferenceCacheTotal, logger),
		documents:  docrepo.New(store, registry),
		indexes:    indexes,
		queries:    queries,
		health:     healthuc.New(store, indexes, cfg.Types()),
	}, nil
}

func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMemory:
		return memory.NewStore(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// provision ensures every configured index and stores the configured code
// tables.
func (a *app) provision(ctx context.Context) error {
	for _, t := range a.cfg.Types() {
		created, err := a.indexes.Ensure(ctx, t)
		if err != nil {
			return fmt.Errorf("ensure %s: %w", t, err)
		}
		a.logger.Info("Index ensured", zap.String("type", t), zap.Bool("created", created))
	}
	for list, labels := range a.cfg.References {
		if err := a.references.Save(ctx, list, labels); err != nil {
			return fmt.Errorf("save reference %s: %w", list, err)
		}
	}
	return nil
}

func (a *app) close() {
	a.store.Close()
	_ = a.logger.Sync()
}
