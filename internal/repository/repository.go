package repository

import (
	"context"
	"errors"

	"github.com/telhawk-systems/runbridge/internal/models"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrRunExists   = errors.New("run already exists")
)

// DefaultFindLimit caps how many downstream runs are returned for one tag
// query. Results beyond it are not paginated.
const DefaultFindLimit = 1000

// Repository defines the interface for the downstream run store
type Repository interface {
	CreateRun(ctx context.Context, run *models.DownstreamRun) error
	GetRun(ctx context.Context, id string) (*models.DownstreamRun, error)

	// FindRuns returns runs carrying every tag in tags, newest first.
	FindRuns(ctx context.Context, tags map[string]string, limit int) ([]*models.DownstreamRun, error)

	Close() error
}
