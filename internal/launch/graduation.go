// internal/launch/graduation.go
package launch

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/events"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
	"github.com/rovshanmuradov/launchpad/internal/router"
	"github.com/rovshanmuradov/launchpad/internal/storage/models"
	"github.com/rovshanmuradov/launchpad/internal/venue"
)

const seedMaxTries = 3

// graduate migrates a launch to the external venue. The caller holds the
// launch guard and has verified the threshold. The sequence is journaled
// first: a PendingGraduation row that survives a crash marks a migration
// whose triggering buy must be rolled back on restart.
//
// On any failure every completed step is compensated in reverse order and
// the launch stays live on the curve; the caller then reverts the
// triggering buy itself.
func (e *Engine) graduate(ctx context.Context, l *Launch, pool *curve.Pool, trigger *router.TradeResult) error {
	e.mu.RLock()
	econ := e.econ
	v := e.venue
	e.mu.RUnlock()

	if v == nil {
		return fmt.Errorf("%w: no venue configured", ErrNotInitialized)
	}

	if err := e.store.SavePendingGraduation(ctx, &models.PendingGraduation{
		LaunchID:       l.ID,
		TradeAmountIn:  trigger.AmountIn,
		TradeAmountOut: trigger.AmountOut,
	}); err != nil {
		return fmt.Errorf("launch: stage graduation journal: %w", err)
	}

	var undo []func()
	fail := func(err error) error {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		if derr := e.store.DeletePendingGraduation(ctx, l.ID); derr != nil {
			e.logger.Error("Graduation journal cleanup failed",
				zap.String("launch_id", l.ID), zap.Error(derr))
		}
		e.logger.Warn("Graduation rolled back",
			zap.String("launch_id", l.ID), zap.Error(err))
		return err
	}

	l.TradingEnabled = false
	pool.Freeze()
	undo = append(undo, func() {
		pool.Unfreeze()
		l.TradingEnabled = true
	})

	poolAcct := router.PoolAccount(l.PoolID)
	freeToken := ledger.TokenID("free:" + l.ID)

	if err := e.ledger.Mint(ctx, freeToken, poolAcct, econ.TokenSupply); err != nil {
		return fail(fmt.Errorf("launch: mint free token: %w", err))
	}
	undo = append(undo, func() {
		if err := e.ledger.Burn(ctx, freeToken, poolAcct, econ.TokenSupply); err != nil {
			e.logger.Error("Free token burn failed during rollback",
				zap.String("launch_id", l.ID), zap.Error(err))
		}
	})

	// The venue is seeded from real custody balances, never from the
	// virtual curve reserves. The free tokens moved out equal the
	// restricted tokens still in the pool; what stays behind backs the
	// outstanding restricted supply 1:1 for redemption.
	restrictedLeft, err := e.ledger.BalanceOf(ctx, l.RestrictedToken, poolAcct)
	if err != nil {
		return fail(fmt.Errorf("launch: read pool token balance: %w", err))
	}
	assetBalance, err := e.ledger.BalanceOf(ctx, econ.ReserveAsset, poolAcct)
	if err != nil {
		return fail(fmt.Errorf("launch: read pool asset balance: %w", err))
	}

	// Reuse an existing venue pool for the pair; creating one is not
	// idempotent across retries otherwise.
	venuePoolID, err := v.GetPool(ctx, freeToken, econ.ReserveAsset)
	if err != nil {
		return fail(fmt.Errorf("launch: query venue pool: %w", err))
	}
	if venuePoolID == "" {
		venuePoolID, err = v.CreatePool(ctx, freeToken, econ.ReserveAsset)
		if err != nil {
			return fail(fmt.Errorf("launch: create venue pool: %w", err))
		}
	}

	venueAcct := ledger.Account("venue:" + venuePoolID)
	if err := e.ledger.Transfer(ctx, freeToken, poolAcct, venueAcct, restrictedLeft); err != nil {
		return fail(fmt.Errorf("launch: move free tokens to venue: %w", err))
	}
	undo = append(undo, func() {
		if err := e.ledger.Transfer(ctx, freeToken, venueAcct, poolAcct, restrictedLeft); err != nil {
			e.logger.Error("Free token return failed during rollback",
				zap.String("launch_id", l.ID), zap.Error(err))
		}
	})
	if err := e.ledger.Transfer(ctx, econ.ReserveAsset, poolAcct, venueAcct, assetBalance); err != nil {
		return fail(fmt.Errorf("launch: move reserve asset to venue: %w", err))
	}
	undo = append(undo, func() {
		if err := e.ledger.Transfer(ctx, econ.ReserveAsset, venueAcct, poolAcct, assetBalance); err != nil {
			e.logger.Error("Reserve asset return failed during rollback",
				zap.String("launch_id", l.ID), zap.Error(err))
		}
	})

	amountA, amountB := canonicalAmounts(freeToken, econ.ReserveAsset, restrictedLeft, assetBalance)
	lpUnits, err := backoff.Retry(ctx, func() (uint64, error) {
		lp, err := v.SeedLiquidity(ctx, venuePoolID, amountA, amountB)
		if err != nil {
			if isPermanentVenueError(err) {
				return 0, backoff.Permanent(err)
			}
			return 0, err
		}
		return lp, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(seedMaxTries))
	if err != nil {
		return fail(fmt.Errorf("launch: seed venue liquidity: %w", err))
	}

	now := e.now().UTC()
	l.FreeToken = freeToken
	l.VenuePoolID = venuePoolID
	l.Graduated = true
	l.GraduatedAt = &now

	e.mu.Lock()
	e.graduated = append(e.graduated, l.ID)
	e.mu.Unlock()

	if err := e.store.UpdateLaunch(ctx, launchRecord(l)); err != nil {
		e.logger.Error("Graduated launch update failed",
			zap.String("launch_id", l.ID), zap.Error(err))
	}
	if err := e.store.DeletePendingGraduation(ctx, l.ID); err != nil {
		e.logger.Error("Graduation journal cleanup failed",
			zap.String("launch_id", l.ID), zap.Error(err))
	}

	e.publish(&events.LaunchGraduatedEvent{
		BaseEvent:   events.BaseEvent{EventType: events.LaunchGraduated, EventTime: now},
		LaunchID:    l.ID,
		VenuePoolID: venuePoolID,
		SeededToken: restrictedLeft,
		SeededAsset: assetBalance,
		LPUnits:     lpUnits,
	})
	if e.metrics != nil {
		e.metrics.RecordGraduation()
	}

	e.logger.Info("Launch graduated",
		zap.String("launch_id", l.ID),
		zap.String("venue_pool_id", venuePoolID),
		zap.Uint64("seeded_token", restrictedLeft),
		zap.Uint64("seeded_asset", assetBalance),
		zap.Uint64("lp_units", lpUnits))

	return nil
}

// Redeem swaps restricted tokens 1:1 for the free representation after
// graduation. The pool account retains exactly the free supply backing the
// restricted tokens in circulation, so the swap cannot run dry.
func (e *Engine) Redeem(ctx context.Context, launchID string, holder ledger.Account, amount uint64) error {
	l, err := e.get(launchID)
	if err != nil {
		return err
	}
	if !l.guard.TryLock() {
		return ErrReentrantCall
	}
	defer l.guard.Unlock()

	if !l.Graduated {
		return ErrNotGraduated
	}
	if amount == 0 {
		return fmt.Errorf("%w: zero redemption", ErrValidation)
	}

	poolAcct := router.PoolAccount(l.PoolID)
	if err := e.ledger.TransferFrom(ctx, l.RestrictedToken, holder, EngineAccount, poolAcct, amount); err != nil {
		return fmt.Errorf("launch: collect restricted tokens: %w", err)
	}
	if err := e.ledger.Transfer(ctx, l.FreeToken, poolAcct, holder, amount); err != nil {
		if rerr := e.ledger.Transfer(ctx, l.RestrictedToken, poolAcct, holder, amount); rerr != nil {
			e.logger.Error("Restricted token refund failed",
				zap.String("launch_id", l.ID), zap.Error(rerr))
		}
		return fmt.Errorf("launch: release free tokens: %w", err)
	}
	// Retire the collected restricted tokens; supply shrinks with each swap.
	if err := e.ledger.Burn(ctx, l.RestrictedToken, poolAcct, amount); err != nil {
		e.logger.Error("Restricted token burn failed",
			zap.String("launch_id", l.ID), zap.Error(err))
	}

	e.publish(&events.TokensRedeemedEvent{
		BaseEvent: events.BaseEvent{EventType: events.TokensRedeemed, EventTime: e.now().UTC()},
		LaunchID:  l.ID,
		Holder:    string(holder),
		Amount:    amount,
	})

	e.logger.Info("Tokens redeemed",
		zap.String("launch_id", l.ID),
		zap.String("holder", string(holder)),
		zap.Uint64("amount", amount))

	return nil
}

// RecoverPending reconciles graduation journal entries left behind by a
// crash. Each one marks a migration interrupted before its journal cleanup;
// the durable record is rolled back to the pre-trigger trading state so the
// launch re-graduates on its next buy. Call once at startup, before serving.
func (e *Engine) RecoverPending(ctx context.Context) error {
	pending, err := e.store.ListPendingGraduations(ctx)
	if err != nil {
		return fmt.Errorf("launch: list pending graduations: %w", err)
	}

	for _, p := range pending {
		record, err := e.store.GetLaunch(ctx, p.LaunchID)
		if err != nil {
			e.logger.Error("Pending graduation refers to unknown launch",
				zap.String("launch_id", p.LaunchID), zap.Error(err))
			continue
		}

		e.mu.RLock()
		econ := e.econ
		e.mu.RUnlock()

		record.TradingEnabled = true
		record.Graduated = false
		record.FreeToken = ""
		record.VenuePoolID = ""
		record.GraduatedAt = nil
		record.ReserveAssetRaised = satSub(record.ReserveAssetRaised, curve.NetOfFee(p.TradeAmountIn, econ.TradeFeeBps))
		record.TokensSold = satSub(record.TokensSold, p.TradeAmountOut)

		if err := e.store.UpdateLaunch(ctx, record); err != nil {
			e.logger.Error("Pending graduation rollback failed",
				zap.String("launch_id", p.LaunchID), zap.Error(err))
			continue
		}
		if err := e.store.DeletePendingGraduation(ctx, p.LaunchID); err != nil {
			e.logger.Error("Graduation journal cleanup failed",
				zap.String("launch_id", p.LaunchID), zap.Error(err))
			continue
		}

		e.logger.Warn("Interrupted graduation rolled back",
			zap.String("launch_id", p.LaunchID),
			zap.Uint64("trade_amount_in", p.TradeAmountIn),
			zap.Uint64("trade_amount_out", p.TradeAmountOut))
	}

	return nil
}

// canonicalAmounts orders the seed amounts the way the venue orders the
// pair: lexicographically by token ID.
func canonicalAmounts(token, asset ledger.TokenID, tokenAmount, assetAmount uint64) (uint64, uint64) {
	if token < asset {
		return tokenAmount, assetAmount
	}
	return assetAmount, tokenAmount
}

// isPermanentVenueError reports venue failures that retrying cannot fix.
func isPermanentVenueError(err error) bool {
	return errors.Is(err, venue.ErrPoolNotFound) || errors.Is(err, venue.ErrPoolExists)
}
