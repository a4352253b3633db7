package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/telhawk-systems/runbridge/internal/airflow"
	"github.com/telhawk-systems/runbridge/internal/config"
	"github.com/telhawk-systems/runbridge/internal/cursorstore"
	"github.com/telhawk-systems/runbridge/internal/definitions"
	"github.com/telhawk-systems/runbridge/internal/logging"
	"github.com/telhawk-systems/runbridge/internal/messaging"
	natsclient "github.com/telhawk-systems/runbridge/internal/messaging/nats"
	"github.com/telhawk-systems/runbridge/internal/repository"
	"github.com/telhawk-systems/runbridge/internal/runner"
	"github.com/telhawk-systems/runbridge/internal/sensor"
	"github.com/telhawk-systems/runbridge/internal/sink"
)

// app holds the wired components for one process.
type app struct {
	sensor    *sensor.Sensor
	runner    *runner.Runner
	store     cursorstore.Store
	runs      repository.Repository
	publisher messaging.Publisher
	closers   []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	a := &app{}

	defs, err := definitions.Load(cfg.Sensor.DefinitionsPath)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded asset definitions",
		logging.Count(len(defs.ToposortedAssetKeys())),
		"dags", defs.DagIDs())

	runs, err := openRunStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.runs = runs
	a.closers = append(a.closers, runs.Close)

	store, err := openCursorStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	out, publisher, err := buildSinks(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if publisher != nil {
		a.publisher = publisher
		a.closers = append(a.closers, publisher.Close)
	}

	upstream := airflow.NewClient(airflow.Config{
		URL:      cfg.Airflow.URL,
		WebURL:   cfg.Airflow.WebURL,
		Username: cfg.Airflow.Username,
		Password: cfg.Airflow.Password,
		Insecure: cfg.Airflow.Insecure,
		Timeout:  cfg.Airflow.Timeout,
	})

	a.sensor = sensor.New(sensor.Config{
		Name:               cfg.Sensor.Name,
		Timeout:            cfg.Sensor.Timeout,
		Lookback:           cfg.Sensor.Lookback,
		PageSize:           cfg.Sensor.PageSize,
		DownstreamRunLimit: cfg.Sensor.DownstreamRunLimit,
	}, upstream, runs, defs, sensor.WithLogger(logger))

	a.runner = runner.New(runner.Config{
		CursorKey: cfg.CursorKey(),
		Interval:  cfg.Sensor.MinimumInterval,
	}, a.sensor, store, out, logger)

	return a, nil
}

func openRunStore(ctx context.Context, cfg *config.Config) (repository.Repository, error) {
	switch cfg.Downstream.Backend {
	case "postgres":
		repo, err := repository.NewPostgresRepository(ctx, cfg.Database.Postgres.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return repo, nil
	default:
		return repository.NewInMemoryRepository(), nil
	}
}

func openCursorStore(ctx context.Context, cfg *config.Config) (cursorstore.Store, error) {
	switch cfg.Cursor.Backend {
	case "redis":
		store, err := cursorstore.DialRedis(ctx, cfg.Redis.URL, cfg.Redis.MaxRetries, cfg.Redis.PoolSize)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := cursorstore.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return cursorstore.NewMemoryStore(), nil
	}
}

// buildSinks always logs results and adds NATS and OpenSearch when enabled.
func buildSinks(cfg *config.Config, logger *logging.Logger) (sink.Sink, messaging.Publisher, error) {
	sinks := sink.Multi{sink.NewLogSink(logger)}
	var publisher messaging.Publisher

	if cfg.NATS.Enabled {
		client, err := natsclient.NewClient(natsclient.Config{
			URL:           cfg.NATS.URL,
			Name:          "runbridge-" + cfg.Sensor.Name,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			Timeout:       5 * time.Second,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
		publisher = client
		sinks = append(sinks, sink.NewNATSSink(client, cfg.Sensor.Name))
	}

	if cfg.OpenSearch.Enabled {
		indexer, err := sink.NewOpenSearchSink(sink.OpenSearchConfig{
			URL:      cfg.OpenSearch.URL,
			Username: cfg.OpenSearch.Username,
			Password: cfg.OpenSearch.Password,
			Insecure: cfg.OpenSearch.Insecure,
			Index:    cfg.OpenSearch.Index,
		}, cfg.Sensor.Name, logger)
		if err != nil {
			if publisher != nil {
				publisher.Close()
			}
			return nil, nil, err
		}
		logger.Info("Connected to OpenSearch", "url", cfg.OpenSearch.URL, "index", cfg.OpenSearch.Index)
		sinks = append(sinks, indexer)
	}

	return sinks, publisher, nil
}
