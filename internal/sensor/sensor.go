// Package sensor reconciles successful upstream DAG runs into downstream asset
// materialization events. One Evaluate call is one tick: it resumes from the
// previous cursor, pages through runs until the window is exhausted or the
// time budget runs out, and returns ordered events plus the next cursor.
package sensor

import (
	"context"
	"errors"
	"time"

	"github.com/telhawk-systems/runbridge/internal/logging"
	"github.com/telhawk-systems/runbridge/internal/models"
)

const (
	// frameworkBudget is the invocation budget a scheduler grants one tick.
	frameworkBudget = 60 * time.Second
	// timeoutMargin is held back from frameworkBudget for emitting results.
	timeoutMargin = 20 * time.Second

	DefaultTimeout            = frameworkBudget - timeoutMargin
	DefaultLookback           = 60 * time.Second
	DefaultPageSize           = 100
	DefaultDownstreamRunLimit = 1000
)

// ErrDuplicateTaskInstance is returned when a run reports more than one
// successful instance of the same task. Dynamic or re-run tasks are unsupported.
var ErrDuplicateTaskInstance = errors.New("more than one task instance per task id")

// RunLog is the upstream record of DAG runs and their task instances.
type RunLog interface {
	ListRuns(ctx context.Context, dagIDs []string, endGTE, endLTE time.Time, offset, limit int) ([]models.Run, error)
	ListTaskInstances(ctx context.Context, dagID, runID string, taskIDs, states []string) ([]models.TaskInstance, error)
}

// RunLinker is optionally implemented by a RunLog that can link to a run's UI page.
type RunLinker interface {
	RunDetailsURL(dagID, runID string) string
}

// RunStore is the downstream record of runs that were proxied from upstream tasks.
type RunStore interface {
	FindRuns(ctx context.Context, tags map[string]string, limit int) ([]*models.DownstreamRun, error)
}

// AssetGraph answers mapping and topology questions about downstream assets.
type AssetGraph interface {
	DagIDs() []string
	TaskIDsInDag(dagID string) []string
	AssetsForTask(dagID, taskID string) []models.AssetKey
	AssetsForDag(dagID string) []models.AssetKey
	AlwaysEmit(key models.AssetKey) bool
	ToposortedAssetKeys() []models.AssetKey
	ChecksForKeys(keys models.AssetKeySet) []models.AssetCheckKey
}

// Translator replaces the built-in event computation for a run when supplied.
type Translator interface {
	Translate(ctx context.Context, run models.Run) ([]models.Event, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, run models.Run) ([]models.Event, error)

func (f TranslatorFunc) Translate(ctx context.Context, run models.Run) ([]models.Event, error) {
	return f(ctx, run)
}

// Config controls paging and time boxing.
type Config struct {
	Name               string
	Timeout            time.Duration
	Lookback           time.Duration
	PageSize           int
	DownstreamRunLimit int
}

// DefaultConfig returns the standard settings for a sensor called name.
func DefaultConfig(name string) Config {
	return Config{
		Name:               name,
		Timeout:            DefaultTimeout,
		Lookback:           DefaultLookback,
		PageSize:           DefaultPageSize,
		DownstreamRunLimit: DefaultDownstreamRunLimit,
	}
}

// Option customizes a Sensor.
type Option func(*Sensor)

// WithTranslator installs t in place of direct and synthesized event computation.
func WithTranslator(t Translator) Option {
	return func(s *Sensor) { s.translator = t }
}

// WithClock overrides the wall clock used for windows and the time budget.
func WithClock(now func() time.Time) Option {
	return func(s *Sensor) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Sensor) { s.logger = logger }
}

// Sensor turns upstream runs into downstream asset events.
type Sensor struct {
	cfg        Config
	runLog     RunLog
	runStore   RunStore
	graph      AssetGraph
	translator Translator
	now        func() time.Time
	logger     *logging.Logger
}

// New creates a sensor. Zero values in cfg fall back to the defaults.
func New(cfg Config, runLog RunLog, runStore RunStore, graph AssetGraph, opts ...Option) *Sensor {
	defaults := DefaultConfig(cfg.Name)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaults.Lookback
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaults.PageSize
	}
	if cfg.DownstreamRunLimit <= 0 {
		cfg.DownstreamRunLimit = defaults.DownstreamRunLimit
	}

	s := &Sensor{
		cfg:      cfg,
		runLog:   runLog,
		runStore: runStore,
		graph:    graph,
		now:      time.Now,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the configured sensor name.
func (s *Sensor) Name() string {
	return s.cfg.Name
}

// Config returns the effective configuration.
func (s *Sensor) Config() Config {
	return s.cfg
}
