// internal/router/router.go
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/auth"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

var (
	// ErrExpired is returned when the caller's deadline has passed.
	ErrExpired = errors.New("router: deadline expired")

	// ErrInvalidAmount is returned for zero-amount trades.
	ErrInvalidAmount = errors.New("router: amount must be positive")

	// ErrTradeTooLarge is returned when a single trade would extract more
	// than the configured fraction of the out-side reserve.
	ErrTradeTooLarge = errors.New("router: trade exceeds maximum size")

	// ErrTransferFailed wraps ledger failures. The whole operation aborts;
	// no partial reserve mutation is ever observable.
	ErrTransferFailed = errors.New("router: ledger transfer failed")
)

const fractionDenominatorBps = 10_000

// TradeResult reports the realized amounts and the reserves after the trade.
type TradeResult struct {
	AmountIn     uint64
	AmountOut    uint64
	TokenReserve uint64
	AssetReserve uint64
}

// Router is the only caller permitted to mutate pool reserves on behalf of
// traders. It moves custody through the ledger around each reserve mutation
// and compensates the inbound leg whenever a later step fails.
type Router struct {
	registry *curve.Registry
	ledger   ledger.Ledger
	policy   *auth.Policy
	spender  ledger.Account // the account traders grant allowances to
	maxBps   uint64         // 0 disables the size cap
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a trading router. spender is the ledger account that traders
// approve; clock may be nil to use the wall clock.
func New(registry *curve.Registry, l ledger.Ledger, policy *auth.Policy, spender ledger.Account, maxTradeFractionBps uint64, clock func() time.Time, logger *zap.Logger) *Router {
	if clock == nil {
		clock = time.Now
	}
	return &Router{
		registry: registry,
		ledger:   l,
		policy:   policy,
		spender:  spender,
		maxBps:   maxTradeFractionBps,
		now:      clock,
		logger:   logger.Named("router"),
	}
}

// SetMaxTradeFractionBps updates the per-trade size cap.
func (r *Router) SetMaxTradeFractionBps(bps uint64) {
	r.maxBps = bps
}

// PoolAccount derives the ledger account holding a pool's custody.
func PoolAccount(poolID string) ledger.Account {
	return ledger.Account("pool:" + poolID)
}

// Buy swaps assetIn of the reserve asset for launch tokens.
func (r *Router) Buy(ctx context.Context, cap auth.Capability, poolID string, trader ledger.Account, assetIn, minTokensOut uint64, deadline time.Time) (*TradeResult, error) {
	return r.trade(ctx, cap, poolID, trader, assetIn, minTokensOut, deadline, false)
}

// Sell swaps tokensIn of the launch token for the reserve asset.
func (r *Router) Sell(ctx context.Context, cap auth.Capability, poolID string, trader ledger.Account, tokensIn, minAssetOut uint64, deadline time.Time) (*TradeResult, error) {
	return r.trade(ctx, cap, poolID, trader, tokensIn, minAssetOut, deadline, true)
}

func (r *Router) trade(ctx context.Context, cap auth.Capability, poolID string, trader ledger.Account, amountIn, minOut uint64, deadline time.Time, sellingToken bool) (*TradeResult, error) {
	if err := r.policy.Check(cap, auth.RoleExecutor); err != nil {
		return nil, err
	}
	if !deadline.IsZero() && r.now().After(deadline) {
		return nil, fmt.Errorf("%w: deadline %s", ErrExpired, deadline.UTC().Format(time.RFC3339))
	}
	if amountIn == 0 {
		return nil, ErrInvalidAmount
	}

	pool, err := r.registry.Get(poolID)
	if err != nil {
		return nil, err
	}

	tokenReserve, assetReserve := pool.Reserves()
	reserveOut := tokenReserve
	tokenIn, tokenOut := pool.Asset, pool.Token
	if sellingToken {
		reserveOut = assetReserve
		tokenIn, tokenOut = pool.Token, pool.Asset
	}
	if r.maxBps > 0 {
		quoted, err := pool.Quote(amountIn, sellingToken)
		if err != nil {
			return nil, err
		}
		if quoted > reserveOut*r.maxBps/fractionDenominatorBps {
			return nil, fmt.Errorf("%w: would extract %d of reserve %d", ErrTradeTooLarge, quoted, reserveOut)
		}
	}

	poolAccount := PoolAccount(poolID)

	// Inbound leg: debit the trader into pool custody.
	if err := r.ledger.TransferFrom(ctx, tokenIn, trader, r.spender, poolAccount, amountIn); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	amountOut, err := pool.ApplyTrade(amountIn, minOut, sellingToken)
	if err != nil {
		r.refund(ctx, tokenIn, poolAccount, trader, amountIn)
		return nil, err
	}

	// Outbound leg: credit the trader from pool custody.
	if err := r.ledger.Transfer(ctx, tokenOut, poolAccount, trader, amountOut); err != nil {
		pool.RevertTrade(amountIn, amountOut, sellingToken)
		r.refund(ctx, tokenIn, poolAccount, trader, amountIn)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	tokenReserve, assetReserve = pool.Reserves()
	result := &TradeResult{
		AmountIn:     amountIn,
		AmountOut:    amountOut,
		TokenReserve: tokenReserve,
		AssetReserve: assetReserve,
	}

	r.logger.Debug("Trade executed",
		zap.String("pool_id", poolID),
		zap.String("trader", string(trader)),
		zap.Bool("selling_token", sellingToken),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", amountOut),
		zap.Uint64("token_reserve", tokenReserve),
		zap.Uint64("asset_reserve", assetReserve))

	return result, nil
}

// refund returns the inbound leg after a failed step. The memory ledger and
// any conforming backend cannot fail a pool-to-trader transfer of an amount
// the pool just received, so a refund error indicates a broken collaborator.
func (r *Router) refund(ctx context.Context, token ledger.TokenID, from, to ledger.Account, amount uint64) {
	if err := r.ledger.Transfer(ctx, token, from, to, amount); err != nil {
		r.logger.Error("Refund of inbound transfer failed",
			zap.String("token", string(token)),
			zap.String("trader", string(to)),
			zap.Uint64("amount", amount),
			zap.Error(err))
	}
}
