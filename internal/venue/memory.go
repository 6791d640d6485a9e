// internal/venue/memory.go
package venue

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

type memoryPool struct {
	id       string
	tokenA   ledger.TokenID
	tokenB   ledger.TokenID
	reserveA uint64
	reserveB uint64
	lpSupply uint64
}

// Memory is an in-process constant-product venue used by tests and local
// runs. It implements only the surface the engine consumes.
type Memory struct {
	mu     sync.Mutex
	pools  map[string]*memoryPool
	byPair map[string]*memoryPool
	logger *zap.Logger
}

// NewMemory creates an empty venue.
func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		pools:  make(map[string]*memoryPool),
		byPair: make(map[string]*memoryPool),
		logger: logger.Named("venue"),
	}
}

func (m *Memory) GetPool(_ context.Context, a, b ledger.TokenID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool, ok := m.byPair[pairKey(a, b)]
	if !ok {
		return "", nil
	}
	return pool.id, nil
}

func (m *Memory) CreatePool(_ context.Context, a, b ledger.TokenID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(a, b)
	if _, ok := m.byPair[key]; ok {
		return "", fmt.Errorf("%w: pair (%s, %s)", ErrPoolExists, a, b)
	}

	pool := &memoryPool{id: uuid.New().String(), tokenA: a, tokenB: b}
	if strings.Compare(string(a), string(b)) > 0 {
		pool.tokenA, pool.tokenB = b, a
	}
	m.pools[pool.id] = pool
	m.byPair[key] = pool

	m.logger.Info("Venue pool created",
		zap.String("pool_id", pool.id),
		zap.String("token_a", string(pool.tokenA)),
		zap.String("token_b", string(pool.tokenB)))

	return pool.id, nil
}

func (m *Memory) SeedLiquidity(_ context.Context, poolID string, amountA, amountB uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool, ok := m.pools[poolID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	if amountA == 0 || amountB == 0 {
		return 0, fmt.Errorf("venue: both sides must be non-zero")
	}

	pool.reserveA += amountA
	pool.reserveB += amountB

	// LP units for the seed: sqrt(amountA * amountB), the usual
	// constant-product issuance for the first deposit.
	product := new(uint256.Int).Mul(uint256.NewInt(amountA), uint256.NewInt(amountB))
	lp := product.Sqrt(product).Uint64()
	if lp == 0 {
		lp = 1
	}
	if pool.lpSupply > math.MaxUint64-lp {
		return 0, fmt.Errorf("venue: lp supply overflow")
	}
	pool.lpSupply += lp

	m.logger.Info("Liquidity seeded",
		zap.String("pool_id", poolID),
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
		zap.Uint64("lp_units", lp))

	return lp, nil
}

func (m *Memory) GetReserves(_ context.Context, poolID string) (uint64, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool, ok := m.pools[poolID]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	return pool.reserveA, pool.reserveB, nil
}

func pairKey(a, b ledger.TokenID) string {
	if strings.Compare(string(a), string(b)) > 0 {
		a, b = b, a
	}
	return string(a) + "/" + string(b)
}
