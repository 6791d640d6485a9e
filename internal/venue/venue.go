// internal/venue/venue.go
package venue

import (
	"context"
	"errors"

	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

var (
	// ErrPoolNotFound is returned by reserve queries for unknown pools.
	ErrPoolNotFound = errors.New("venue: pool not found")
	// ErrPoolExists is returned when CreatePool is called for a taken pair.
	ErrPoolExists = errors.New("venue: pool already exists")
)

// Venue is the external constant-product exchange the engine migrates
// graduated launches to. The engine only creates pools, seeds liquidity and
// reads reserves; trading on the venue is out of its hands.
//
// Amounts and reserves follow the pair's canonical order: lexicographic by
// token ID, regardless of the argument order CreatePool was called with.
type Venue interface {
	// GetPool returns the pool ID for the unordered pair, or "" if none exists.
	GetPool(ctx context.Context, a, b ledger.TokenID) (string, error)
	CreatePool(ctx context.Context, a, b ledger.TokenID) (string, error)
	// SeedLiquidity deposits both sides and returns the LP units minted.
	SeedLiquidity(ctx context.Context, poolID string, amountA, amountB uint64) (uint64, error)
	GetReserves(ctx context.Context, poolID string) (uint64, uint64, error)
}
