// Package runner drives sensor ticks on a fixed minimum interval and owns the
// load, evaluate, emit, save sequence around each tick.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/runbridge/internal/cursorstore"
	"github.com/telhawk-systems/runbridge/internal/logging"
	"github.com/telhawk-systems/runbridge/internal/metrics"
	"github.com/telhawk-systems/runbridge/internal/sensor"
	"github.com/telhawk-systems/runbridge/internal/sink"
)

// DefaultInterval is the minimum time between the starts of two ticks.
const DefaultInterval = time.Second

// Evaluator runs one tick from a serialized cursor.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, rawCursor string) (*sensor.Result, error)
}

// Config controls scheduling.
type Config struct {
	// CursorKey identifies the cursor in the store. Defaults to the sensor name.
	CursorKey string
	Interval  time.Duration
}

// Status describes the most recent ticks.
type Status struct {
	Sensor string `json:"sensor"`
	Ticks  int    `json:"ticks"`
	// LastTick and LastSuccess are nil until the first such tick.
	LastTick            *time.Time `json:"last_tick,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
}

// Healthy reports whether at least one tick has run and the latest succeeded.
func (s Status) Healthy() bool {
	return s.Ticks > 0 && s.ConsecutiveFailures == 0
}

// Runner serializes ticks for one sensor. Ticks never overlap.
type Runner struct {
	evaluator Evaluator
	store     cursorstore.Store
	sink      sink.Sink
	cfg       Config
	logger    *logging.Logger
	now       func() time.Time

	tickMu sync.Mutex
	mu     sync.RWMutex
	status Status
}

// New creates a runner. A nil sink discards results.
func New(cfg Config, evaluator Evaluator, store cursorstore.Store, out sink.Sink, logger *logging.Logger) *Runner {
	if cfg.CursorKey == "" {
		cfg.CursorKey = evaluator.Name()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if out == nil {
		out = sink.Multi{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		evaluator: evaluator,
		store:     store,
		sink:      out,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		status:    Status{Sensor: evaluator.Name()},
	}
}

// Run ticks immediately and then every interval until ctx is cancelled.
// Tick failures are logged and retried on the next interval.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("sensor runner started",
		logging.Sensor(r.evaluator.Name()),
		"interval", r.cfg.Interval.String())

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := r.Tick(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "sensor tick failed", logging.Error(err))
		}

		select {
		case <-ctx.Done():
			r.logger.Info("sensor runner stopped", logging.Sensor(r.evaluator.Name()))
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one tick: load the cursor, evaluate, emit to the sink, then save
// the new cursor. The cursor is left untouched when any step fails, so the
// next tick repeats the same work.
func (r *Runner) Tick(ctx context.Context) (*sensor.Result, error) {
	r.tickMu.Lock()
	defer r.tickMu.Unlock()

	tickID := uuid.New().String()
	ctx = logging.WithTickID(ctx, tickID)
	log := r.logger.WithContext(ctx).With(logging.Sensor(r.evaluator.Name()))

	start := r.now()
	result, outcome, err := r.tick(ctx)
	elapsed := r.now().Sub(start)

	metrics.TickDuration.Observe(elapsed.Seconds())
	metrics.TicksTotal.WithLabelValues(outcome).Inc()
	r.record(start, err)

	if err != nil {
		return nil, err
	}

	metrics.RunsProcessedTotal.Add(float64(result.Stats.RunsProcessed))
	metrics.EventsTotal.WithLabelValues(metrics.KindDirect).Add(float64(result.Stats.DirectEvents))
	metrics.EventsTotal.WithLabelValues(metrics.KindSynthetic).Add(float64(result.Stats.SyntheticEvents))
	metrics.EventsTotal.WithLabelValues(metrics.KindTranslated).Add(float64(result.Stats.TranslatedEvents))
	metrics.CheckRequestsTotal.Add(float64(len(result.CheckRequest)))
	if result.Stats.CursorReset {
		metrics.CursorResetsTotal.Inc()
	}
	if result.Exhausted {
		metrics.WindowExhaustedTotal.Inc()
	}

	log.Debug("tick complete", logging.Count(len(result.Events)), logging.Duration(elapsed))
	return result, nil
}

func (r *Runner) tick(ctx context.Context) (*sensor.Result, string, error) {
	raw, err := r.store.Load(ctx, r.cfg.CursorKey)
	if err != nil {
		return nil, metrics.OutcomeFailure, fmt.Errorf("failed to load cursor: %w", err)
	}

	result, err := r.evaluator.Evaluate(ctx, raw)
	if err != nil {
		return nil, metrics.OutcomeFailure, fmt.Errorf("failed to evaluate sensor: %w", err)
	}

	if err := r.sink.Emit(ctx, result); err != nil {
		return nil, metrics.OutcomeSinkError, fmt.Errorf("failed to emit result: %w", err)
	}

	if err := r.store.Save(ctx, r.cfg.CursorKey, result.Cursor); err != nil {
		return nil, metrics.OutcomeFailure, fmt.Errorf("failed to save cursor: %w", err)
	}
	return result, metrics.OutcomeSuccess, nil
}

func (r *Runner) record(at time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.Ticks++
	r.status.LastTick = &at
	if err != nil {
		r.status.LastError = err.Error()
		r.status.ConsecutiveFailures++
	} else {
		r.status.LastError = ""
		r.status.LastSuccess = &at
		r.status.ConsecutiveFailures = 0
	}
	metrics.ConsecutiveFailures.Set(float64(r.status.ConsecutiveFailures))
}

// Status returns a snapshot of the runner's tick history.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}
