// internal/launch/admin.go
package launch

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/auth"
	"github.com/rovshanmuradov/launchpad/internal/ledger"
	"github.com/rovshanmuradov/launchpad/internal/venue"
)

// The admin surface mutates the engine's economic parameters at runtime.
// Every call is gated on the config-admin capability; changes apply to
// subsequent operations only, never retroactively.

// Economics returns a copy of the current economic parameters.
func (e *Engine) Economics() Economics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.econ
}

// SetFeeRecipient changes the account collecting flat creation fees.
func (e *Engine) SetFeeRecipient(cap auth.Capability, recipient ledger.Account) error {
	if err := e.policy.Check(cap, auth.RoleConfigAdmin); err != nil {
		return err
	}
	if recipient == "" {
		return fmt.Errorf("%w: empty fee recipient", ErrValidation)
	}

	e.mu.Lock()
	e.econ.FeeRecipient = recipient
	e.mu.Unlock()

	e.logger.Info("Fee recipient updated", zap.String("recipient", string(recipient)))
	return nil
}

// SetTradeFeeBps changes the trade fee applied to pools of future launches.
// Existing pools keep the fee they were created with.
func (e *Engine) SetTradeFeeBps(cap auth.Capability, bps uint64) error {
	if err := e.policy.Check(cap, auth.RoleConfigAdmin); err != nil {
		return err
	}
	if bps >= 10_000 {
		return fmt.Errorf("%w: trade fee %d bps would consume the whole input", ErrValidation, bps)
	}

	e.mu.Lock()
	e.econ.TradeFeeBps = bps
	e.mu.Unlock()

	e.logger.Info("Trade fee updated", zap.Uint64("bps", bps))
	return nil
}

// SetGraduationThreshold changes the reserve level that triggers migration.
// Launches already past the new threshold graduate on their next buy.
func (e *Engine) SetGraduationThreshold(cap auth.Capability, threshold uint64) error {
	if err := e.policy.Check(cap, auth.RoleConfigAdmin); err != nil {
		return err
	}

	e.mu.Lock()
	if threshold <= e.econ.VirtualAssetReserves {
		e.mu.Unlock()
		return fmt.Errorf("%w: threshold %d not above the virtual seed %d",
			ErrValidation, threshold, e.econ.VirtualAssetReserves)
	}
	e.econ.GraduationThreshold = threshold
	e.mu.Unlock()

	e.logger.Info("Graduation threshold updated", zap.Uint64("threshold", threshold))
	return nil
}

// SetMaxTradeFractionBps changes the per-trade size cap on the router.
func (e *Engine) SetMaxTradeFractionBps(cap auth.Capability, bps uint64) error {
	if err := e.policy.Check(cap, auth.RoleConfigAdmin); err != nil {
		return err
	}
	if bps > 10_000 {
		return fmt.Errorf("%w: fraction %d bps exceeds 10000", ErrValidation, bps)
	}

	e.router.SetMaxTradeFractionBps(bps)

	e.logger.Info("Max trade fraction updated", zap.Uint64("bps", bps))
	return nil
}

// SetVenue swaps the external venue adapter. In-flight graduations keep the
// adapter they started with.
func (e *Engine) SetVenue(cap auth.Capability, v venue.Venue) error {
	if err := e.policy.Check(cap, auth.RoleConfigAdmin); err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("%w: nil venue", ErrValidation)
	}

	e.mu.Lock()
	e.venue = v
	e.mu.Unlock()

	e.logger.Info("Venue adapter replaced")
	return nil
}
