// internal/curve/registry.go
package curve

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/auth"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

// PoolParams describes a pool to be created.
type PoolParams struct {
	Token     ledger.TokenID
	Asset     ledger.TokenID
	TokenSeed uint64 // virtual token reserve at creation
	AssetSeed uint64 // virtual asset reserve at creation
	FeeBps    uint64
}

// Registry creates and indexes reserve pools. Pool creation is gated by the
// pool-admin capability; only the graduation engine holds it.
type Registry struct {
	mu     sync.RWMutex
	pools  map[string]*Pool
	byPair map[string]*Pool
	policy *auth.Policy
	logger *zap.Logger
}

// NewRegistry creates an empty pool registry.
func NewRegistry(policy *auth.Policy, logger *zap.Logger) *Registry {
	return &Registry{
		pools:  make(map[string]*Pool),
		byPair: make(map[string]*Pool),
		policy: policy,
		logger: logger.Named("pool_registry"),
	}
}

// CreatePool registers a new pool for the unordered (token, asset) pair.
// Fails with ErrAlreadyExists if the pair is taken; callers that want reuse
// semantics must check GetByPair first.
func (r *Registry) CreatePool(cap auth.Capability, params PoolParams) (*Pool, error) {
	if err := r.policy.Check(cap, auth.RolePoolAdmin); err != nil {
		return nil, err
	}
	if params.Token == "" || params.Asset == "" || params.Token == params.Asset {
		return nil, fmt.Errorf("curve: invalid pool pair (%s, %s)", params.Token, params.Asset)
	}
	if params.TokenSeed == 0 || params.AssetSeed == 0 {
		return nil, fmt.Errorf("curve: virtual seed reserves must be non-zero")
	}
	if params.FeeBps >= feeDenominatorBps {
		return nil, fmt.Errorf("curve: fee %d bps out of range", params.FeeBps)
	}

	key := pairKey(params.Token, params.Asset)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byPair[key]; exists {
		return nil, fmt.Errorf("%w: pair (%s, %s)", ErrAlreadyExists, params.Token, params.Asset)
	}

	pool := &Pool{
		ID:           uuid.New().String(),
		Token:        params.Token,
		Asset:        params.Asset,
		tokenReserve: params.TokenSeed,
		assetReserve: params.AssetSeed,
		feeBps:       params.FeeBps,
		kLast: new(uint256.Int).Mul(
			uint256.NewInt(params.TokenSeed),
			uint256.NewInt(params.AssetSeed),
		),
		createdAt: time.Now().UTC(),
	}

	r.pools[pool.ID] = pool
	r.byPair[key] = pool

	r.logger.Info("Pool created",
		zap.String("pool_id", pool.ID),
		zap.String("token", string(params.Token)),
		zap.String("asset", string(params.Asset)),
		zap.Uint64("token_seed", params.TokenSeed),
		zap.Uint64("asset_seed", params.AssetSeed))

	return pool, nil
}

// Get retrieves a pool by ID.
func (r *Registry) Get(poolID string) (*Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, ok := r.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	return pool, nil
}

// GetByPair retrieves a pool by its unordered token pair.
func (r *Registry) GetByPair(a, b ledger.TokenID) (*Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, ok := r.byPair[pairKey(a, b)]
	if !ok {
		return nil, fmt.Errorf("%w: pair (%s, %s)", ErrPoolNotFound, a, b)
	}
	return pool, nil
}

// Remove unregisters a pool. Only the launch-creation unwind path uses it;
// established pools are never deleted, graduation freezes them instead.
func (r *Registry) Remove(cap auth.Capability, poolID string) error {
	if err := r.policy.Check(cap, auth.RolePoolAdmin); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pool, ok := r.pools[poolID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	delete(r.pools, poolID)
	delete(r.byPair, pairKey(pool.Token, pool.Asset))

	r.logger.Info("Pool removed", zap.String("pool_id", poolID))
	return nil
}

// List returns the IDs of all registered pools.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.pools))
	for id := range r.pools {
		ids = append(ids, id)
	}
	return ids
}

func pairKey(a, b ledger.TokenID) string {
	if strings.Compare(string(a), string(b)) > 0 {
		a, b = b, a
	}
	return string(a) + "/" + string(b)
}
