package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telhawk-systems/runbridge/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Connection pool configuration
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// CreateRun inserts a downstream run
func (r *PostgresRepository) CreateRun(ctx context.Context, run *models.DownstreamRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tags, err := json.Marshal(nonNilTags(run.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal run tags: %w", err)
	}

	query := `
		INSERT INTO downstream_runs (id, job_name, status, tags, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.pool.Exec(ctx, query, run.ID, run.JobName, run.Status, tags, run.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrRunExists
		}
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID
func (r *PostgresRepository) GetRun(ctx context.Context, id string) (*models.DownstreamRun, error) {
	query := `
		SELECT id, job_name, status, tags, created_at
		FROM downstream_runs
		WHERE id = $1
	`

	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// FindRuns retrieves runs whose tags contain every entry of tags
func (r *PostgresRepository) FindRuns(ctx context.Context, tags map[string]string, limit int) ([]*models.DownstreamRun, error) {
	if limit <= 0 {
		limit = DefaultFindLimit
	}

	filter, err := json.Marshal(nonNilTags(tags))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tag filter: %w", err)
	}

	query := `
		SELECT id, job_name, status, tags, created_at
		FROM downstream_runs
		WHERE tags @> $1::jsonb
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.DownstreamRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanRun(row pgx.Row) (*models.DownstreamRun, error) {
	run := &models.DownstreamRun{}
	var tags []byte
	if err := row.Scan(&run.ID, &run.JobName, &run.Status, &tags, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &run.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run tags: %w", err)
	}
	return run, nil
}

func nonNilTags(tags map[string]string) map[string]string {
	if tags == nil {
		return map[string]string{}
	}
	return tags
}
