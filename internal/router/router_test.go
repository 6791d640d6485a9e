package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/auth"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

const (
	tokenID = ledger.TokenID("LAUNCH")
	assetID = ledger.TokenID("VIRT")
	trader  = ledger.Account("trader")
	engine  = ledger.Account("engine")
)

type fixture struct {
	router   *Router
	pool     *curve.Pool
	ledger   *ledger.Memory
	executor auth.Capability
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	policy := auth.NewPolicy(logger)
	registry := curve.NewRegistry(policy, logger)
	pool, err := registry.CreatePool(policy.Grant(auth.RolePoolAdmin), curve.PoolParams{
		Token:     tokenID,
		Asset:     assetID,
		TokenSeed: 1_000_000_000,
		AssetSeed: 10_000,
		FeeBps:    0,
	})
	require.NoError(t, err)

	mem := ledger.NewMemory(logger)
	// The pool holds the full token supply; the trader holds asset funds.
	require.NoError(t, mem.Mint(ctx, tokenID, PoolAccount(pool.ID), 1_000_000_000))
	require.NoError(t, mem.Mint(ctx, assetID, trader, 100_000))
	require.NoError(t, mem.Approve(ctx, assetID, trader, engine, 100_000))
	require.NoError(t, mem.Approve(ctx, tokenID, trader, engine, 1_000_000_000))

	f := &fixture{
		pool:     pool,
		ledger:   mem,
		executor: policy.Grant(auth.RoleExecutor),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.router = New(registry, mem, policy, engine, 0, func() time.Time { return f.now }, logger)
	return f
}

func (f *fixture) deadline() time.Time {
	return f.now.Add(time.Minute)
}

func TestRouter_BuyMovesCustodyAndReserves(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	result, err := f.router.Buy(ctx, f.executor, f.pool.ID, trader, 5_000, 1, f.deadline())
	require.NoError(t, err)
	require.NotZero(t, result.AmountOut)

	tokenBal, _ := f.ledger.BalanceOf(ctx, tokenID, trader)
	assetBal, _ := f.ledger.BalanceOf(ctx, assetID, trader)
	assert.Equal(t, result.AmountOut, tokenBal)
	assert.Equal(t, uint64(95_000), assetBal)

	poolAsset, _ := f.ledger.BalanceOf(ctx, assetID, PoolAccount(f.pool.ID))
	assert.Equal(t, uint64(5_000), poolAsset)

	assert.Equal(t, uint64(15_000), result.AssetReserve)
}

func TestRouter_SellRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bought, err := f.router.Buy(ctx, f.executor, f.pool.ID, trader, 5_000, 1, f.deadline())
	require.NoError(t, err)

	sold, err := f.router.Sell(ctx, f.executor, f.pool.ID, trader, bought.AmountOut, 1, f.deadline())
	require.NoError(t, err)

	// Selling everything back cannot return more than was paid in.
	assert.LessOrEqual(t, sold.AmountOut, uint64(5_000))
}

func TestRouter_ExpiredDeadline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.router.Buy(ctx, f.executor, f.pool.ID, trader, 5_000, 1, f.now.Add(-time.Second))
	assert.ErrorIs(t, err, ErrExpired)

	// Reserves unchanged regardless of other validity.
	token, asset := f.pool.Reserves()
	assert.Equal(t, uint64(1_000_000_000), token)
	assert.Equal(t, uint64(10_000), asset)
}

func TestRouter_Unauthorized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.router.Buy(ctx, auth.Capability{}, f.pool.ID, trader, 5_000, 1, f.deadline())
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestRouter_ZeroAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.router.Buy(ctx, f.executor, f.pool.ID, trader, 0, 0, f.deadline())
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRouter_TradeTooLarge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.router.SetMaxTradeFractionBps(1_000) // one trade may extract at most 10%

	_, err := f.router.Buy(ctx, f.executor, f.pool.ID, trader, 2_000, 1, f.deadline())
	assert.ErrorIs(t, err, ErrTradeTooLarge)

	// At the cap is fine.
	_, err = f.router.Buy(ctx, f.executor, f.pool.ID, trader, 1_000, 1, f.deadline())
	assert.NoError(t, err)
}

func TestRouter_TransferFailureLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// No allowance for this trader: inbound leg fails before any mutation.
	stranger := ledger.Account("stranger")
	require.NoError(t, f.ledger.Mint(ctx, assetID, stranger, 10_000))

	_, err := f.router.Buy(ctx, f.executor, f.pool.ID, stranger, 1_000, 1, f.deadline())
	assert.ErrorIs(t, err, ErrTransferFailed)

	token, asset := f.pool.Reserves()
	assert.Equal(t, uint64(1_000_000_000), token)
	assert.Equal(t, uint64(10_000), asset)

	bal, _ := f.ledger.BalanceOf(ctx, assetID, stranger)
	assert.Equal(t, uint64(10_000), bal)
}

func TestRouter_SlippageRefundsInboundLeg(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	quoted, err := f.pool.Quote(5_000, false)
	require.NoError(t, err)

	_, err = f.router.Buy(ctx, f.executor, f.pool.ID, trader, 5_000, quoted+1, f.deadline())
	assert.ErrorIs(t, err, curve.ErrSlippageExceeded)

	// The inbound asset leg was compensated.
	assetBal, _ := f.ledger.BalanceOf(ctx, assetID, trader)
	assert.Equal(t, uint64(100_000), assetBal)

	poolAsset, _ := f.ledger.BalanceOf(ctx, assetID, PoolAccount(f.pool.ID))
	assert.Zero(t, poolAsset)
}

func TestRouter_FrozenPool(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.pool.Freeze()

	_, err := f.router.Buy(ctx, f.executor, f.pool.ID, trader, 1_000, 1, f.deadline())
	assert.ErrorIs(t, err, curve.ErrPoolFrozen)

	assetBal, _ := f.ledger.BalanceOf(ctx, assetID, trader)
	assert.Equal(t, uint64(100_000), assetBal)
}
