package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/config"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/database"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/fetch"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/harvest"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/metrics"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/queue"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/registry"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/spider"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/storage"
)

// deps bundles everything a command needs.
type deps struct {
	Config    *config.Config
	Logger    logger.Logger
	Registry  *registry.Registry
	Harvester *harvest.Harvester
	Metrics   *metrics.Metrics

	db    *sqlx.DB
	redis *redis.Client
}

// newDeps loads configuration and wires the harvester with every enabled sink.
func newDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load(cfgFile, registry.SourceIDs()...)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	d := &deps{Config: cfg, Logger: log, Metrics: metrics.New()}

	fetcher := fetch.NewHTTPFetcher(cfg.HTTP.Timeout, fetch.WithUserAgent(cfg.HTTP.UserAgent))
	d.Registry = registry.New(spider.Deps{Fetcher: fetcher, Config: cfg, Logger: log})

	opts := []harvest.Option{harvest.WithMetrics(d.Metrics)}

	var states harvest.StateStore
	if cfg.Database.Enabled {
		if states, err = d.openDatabase(ctx); err != nil {
			d.Close()
			return nil, err
		}
	}

	if cfg.Elasticsearch.Enabled {
		store, storeErr := d.openStorage(ctx)
		if storeErr != nil {
			d.Close()
			return nil, storeErr
		}
		opts = append(opts, harvest.WithStore(store))
	}

	if cfg.Redis.Enabled {
		client, redisErr := queue.NewClient(ctx, cfg.QueueOptions())
		if redisErr != nil {
			d.Close()
			return nil, redisErr
		}
		d.redis = client
		pub := queue.NewPublisher(client, cfg.QueueOptions())
		log.Debug("Publishing new records", logger.String("stream", pub.Stream()))
		opts = append(opts, harvest.WithPublisher(pub))
	}

	d.Harvester = harvest.New(cfg.HarvestOptions(), d.Registry, states, log, opts...)

	return d, nil
}

func (d *deps) openDatabase(ctx context.Context) (harvest.StateStore, error) {
	dbCfg := d.Config.DatabaseOptions()
	if err := database.RunMigrations(dbCfg, d.Logger); err != nil {
		return nil, err
	}

	db, err := database.NewPostgresConnection(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	d.db = db

	return database.NewSourceStateRepository(db), nil
}

func (d *deps) openStorage(ctx context.Context) (harvest.Store, error) {
	client, err := storage.NewClient(d.Config.StorageOptions())
	if err != nil {
		return nil, err
	}

	store := storage.NewRecordStore(client, d.Config.Elasticsearch.Index, d.Logger)
	if ensureErr := store.EnsureIndex(ctx); ensureErr != nil {
		return nil, ensureErr
	}

	return store, nil
}

// Close releases connections and flushes the logger.
func (d *deps) Close() {
	var errs []error
	if d.db != nil {
		errs = append(errs, d.db.Close())
	}
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}
	if err := errors.Join(errs...); err != nil {
		d.Logger.Warn("Failed to close connections", logger.Error(err))
	}
	_ = d.Logger.Sync()
}
