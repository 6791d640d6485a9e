// internal/curve/pool.go
package curve

import (
	"math"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/rovshanmuradov/launchpad/internal/ledger"
)

const feeDenominatorBps = 10_000

// Pool holds the virtual reserves for one launch and implements the
// constant-product pricing law. Reserves are virtual: they include the
// non-zero seed that shapes the initial price and are only loosely coupled
// to the pool account's real ledger custody.
type Pool struct {
	ID    string
	Token ledger.TokenID // restricted launch token
	Asset ledger.TokenID // reserve asset

	mu           sync.Mutex
	tokenReserve uint64
	assetReserve uint64
	feeBps       uint64
	kLast        *uint256.Int // audit trail only, never gates trades
	frozen       bool
	createdAt    time.Time
}

// Reserves returns the current virtual reserves (token, asset).
func (p *Pool) Reserves() (uint64, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tokenReserve, p.assetReserve
}

// KLast returns a copy of the last recorded reserve product.
func (p *Pool) KLast() *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(uint256.Int).Set(p.kLast)
}

// Frozen reports whether the pool was frozen at graduation.
func (p *Pool) Frozen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frozen
}

// FeeBps returns the trade fee in basis points.
func (p *Pool) FeeBps() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feeBps
}

// Freeze disables trading on the pool. Called at graduation; permanent
// unless the graduation itself is rolled back.
func (p *Pool) Freeze() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frozen = true
}

// Unfreeze re-enables trading. Only the graduation rollback path uses this.
func (p *Pool) Unfreeze() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frozen = false
}

// Quote computes the output amount for amountIn using the constant-product
// law with the fee applied on the input side:
//
//	amountOut = reserveOut − (reserveIn * reserveOut) / (reserveIn + amountInNet)
//
// The result rounds down in the pool's favor, which keeps the post-trade
// product at or above the pre-trade product. The result is strictly less
// than reserveOut, so a pool can never be fully drained through the curve.
func (p *Pool) Quote(amountIn uint64, sellingToken bool) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quoteLocked(amountIn, sellingToken)
}

func (p *Pool) quoteLocked(amountIn uint64, sellingToken bool) (uint64, error) {
	reserveIn, reserveOut := p.assetReserve, p.tokenReserve
	if sellingToken {
		reserveIn, reserveOut = p.tokenReserve, p.assetReserve
	}

	net := NetOfFee(amountIn, p.feeBps)
	if net == 0 {
		return 0, ErrInsufficientLiquidity
	}
	if reserveIn > math.MaxUint64-net {
		return 0, ErrInsufficientLiquidity
	}

	// 256-bit intermediates: reserveIn * reserveOut does not fit in uint64
	// for a fully seeded pool.
	num := new(uint256.Int).Mul(
		uint256.NewInt(reserveIn),
		uint256.NewInt(reserveOut),
	)
	den := uint256.NewInt(reserveIn + net)

	// The retained reserve rounds up, so amountOut rounds down in the pool's
	// favor and the post-trade product never drops below the pre-trade one.
	// Rounding up also keeps the out-side reserve strictly positive.
	keep, rem := new(uint256.Int).DivMod(num, den, new(uint256.Int))
	if !rem.IsZero() {
		keep.AddUint64(keep, 1)
	}

	amountOut := reserveOut - keep.Uint64()
	if amountOut == 0 {
		return 0, ErrInsufficientLiquidity
	}
	return amountOut, nil
}

// ApplyTrade quotes amountIn, enforces the caller's minimum output and
// mutates the reserves. The full gross amountIn enters the in-side reserve,
// so the fee margin stays in the pool and the product grows with every trade.
func (p *Pool) ApplyTrade(amountIn, minOut uint64, sellingToken bool) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen {
		return 0, ErrPoolFrozen
	}

	amountOut, err := p.quoteLocked(amountIn, sellingToken)
	if err != nil {
		return 0, err
	}
	if amountOut < minOut {
		return 0, &SlippageError{Quoted: amountOut, MinOut: minOut}
	}

	if sellingToken {
		p.tokenReserve += amountIn
		p.assetReserve -= amountOut
	} else {
		p.assetReserve += amountIn
		p.tokenReserve -= amountOut
	}
	p.kLast.Mul(uint256.NewInt(p.tokenReserve), uint256.NewInt(p.assetReserve))

	return amountOut, nil
}

// RevertTrade undoes a previously applied trade. Used by the engine's
// graduation rollback; the caller is responsible for passing the exact
// amounts ApplyTrade reported.
func (p *Pool) RevertTrade(amountIn, amountOut uint64, sellingToken bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sellingToken {
		p.tokenReserve -= amountIn
		p.assetReserve += amountOut
	} else {
		p.assetReserve -= amountIn
		p.tokenReserve += amountOut
	}
	p.kLast.Mul(uint256.NewInt(p.tokenReserve), uint256.NewInt(p.assetReserve))
}

// NetOfFee returns amount reduced by feeBps basis points, rounding down.
func NetOfFee(amount, feeBps uint64) uint64 {
	if feeBps == 0 {
		return amount
	}
	net := new(uint256.Int).Mul(
		uint256.NewInt(amount),
		uint256.NewInt(feeDenominatorBps-feeBps),
	)
	net.Div(net, uint256.NewInt(feeDenominatorBps))
	return net.Uint64()
}
