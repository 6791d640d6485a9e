// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

// ErrNotFound is returned for lookups of records that do not exist.
var ErrNotFound = errors.New("storage: record not found")

// Storage is the durability boundary for the engine.
type Storage interface {
	// Launches
	SaveLaunch(ctx context.Context, launch *models.LaunchRecord) error
	UpdateLaunch(ctx context.Context, launch *models.LaunchRecord) error
	GetLaunch(ctx context.Context, launchID string) (*models.LaunchRecord, error)
	DeleteLaunch(ctx context.Context, launchID string) error
	ListGraduated(ctx context.Context, limit, offset int) ([]*models.LaunchRecord, error)

	// Trades
	SaveTrade(ctx context.Context, trade *models.TradeRecord) error
	ListTrades(ctx context.Context, launchID string, limit, offset int) ([]*models.TradeRecord, error)

	// Graduation journal
	SavePendingGraduation(ctx context.Context, pending *models.PendingGraduation) error
	DeletePendingGraduation(ctx context.Context, launchID string) error
	ListPendingGraduations(ctx context.Context) ([]*models.PendingGraduation, error)

	RunMigrations() error
}
