package curve

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/auth"
)

func newTestPool(t *testing.T, tokenSeed, assetSeed, feeBps uint64) *Pool {
	t.Helper()
	policy := auth.NewPolicy(zap.NewNop())
	registry := NewRegistry(policy, zap.NewNop())
	pool, err := registry.CreatePool(policy.Grant(auth.RolePoolAdmin), PoolParams{
		Token:     "LAUNCH",
		Asset:     "VIRT",
		TokenSeed: tokenSeed,
		AssetSeed: assetSeed,
		FeeBps:    feeBps,
	})
	require.NoError(t, err)
	return pool
}

func TestPool_QuoteMatchesConstantProduct(t *testing.T) {
	pool := newTestPool(t, 1_000_000_000, 30_000, 0)

	// amountOut = reserveOut − reserveIn*reserveOut/(reserveIn + amountIn)
	amountIn := uint64(10_000)
	expected := uint64(1_000_000_000) - (30_000*1_000_000_000)/(30_000+amountIn)

	out, err := pool.Quote(amountIn, false)
	require.NoError(t, err)
	assert.Equal(t, expected, out)
	assert.Less(t, out, uint64(1_000_000_000))
}

func TestPool_QuoteZeroInput(t *testing.T) {
	pool := newTestPool(t, 1_000, 1_000, 0)
	_, err := pool.Quote(0, false)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestPool_QuoteFeeReducesOutput(t *testing.T) {
	noFee := newTestPool(t, 1_000_000, 50_000, 0)
	withFee := newTestPool(t, 1_000_000, 50_000, 100) // 1%

	outNoFee, err := noFee.Quote(5_000, false)
	require.NoError(t, err)
	outWithFee, err := withFee.Quote(5_000, false)
	require.NoError(t, err)

	assert.Less(t, outWithFee, outNoFee)
}

func TestPool_ProductNonDecreasingAcrossTrades(t *testing.T) {
	pool := newTestPool(t, 1_073_000_000, 30_000, 100)

	trades := []struct {
		amountIn     uint64
		sellingToken bool
	}{
		{5_000, false},
		{12_000, false},
		{300_000, true},
		{7_500, false},
		{100, false},
		{1_000_000, true},
		{25_000, false},
	}

	for _, trade := range trades {
		tokenBefore, assetBefore := pool.Reserves()
		kBefore := new(uint256.Int).Mul(
			uint256.NewInt(tokenBefore), uint256.NewInt(assetBefore))

		out, err := pool.ApplyTrade(trade.amountIn, 0, trade.sellingToken)
		require.NoError(t, err)
		require.NotZero(t, out)

		tokenAfter, assetAfter := pool.Reserves()
		kAfter := new(uint256.Int).Mul(
			uint256.NewInt(tokenAfter), uint256.NewInt(assetAfter))

		assert.True(t, kAfter.Cmp(kBefore) >= 0,
			"product decreased: before=%s after=%s", kBefore, kAfter)
		assert.NotZero(t, tokenAfter)
		assert.NotZero(t, assetAfter)
	}
}

func TestPool_MonotonicPricing(t *testing.T) {
	pool := newTestPool(t, 1_000_000_000, 10_000, 0)

	first, err := pool.ApplyTrade(2_000, 0, false)
	require.NoError(t, err)
	second, err := pool.ApplyTrade(2_000, 0, false)
	require.NoError(t, err)

	// Same asset in, strictly fewer tokens out the second time.
	assert.Less(t, second, first)
}

func TestPool_ApplyTradeSlippage(t *testing.T) {
	pool := newTestPool(t, 1_000_000, 10_000, 0)

	quoted, err := pool.Quote(1_000, false)
	require.NoError(t, err)

	_, err = pool.ApplyTrade(1_000, quoted+1, false)
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	var slippage *SlippageError
	require.ErrorAs(t, err, &slippage)
	assert.Equal(t, quoted, slippage.Quoted)

	// Reserves untouched by the rejected trade.
	token, asset := pool.Reserves()
	assert.Equal(t, uint64(1_000_000), token)
	assert.Equal(t, uint64(10_000), asset)
}

func TestPool_FrozenRejectsTrades(t *testing.T) {
	pool := newTestPool(t, 1_000_000, 10_000, 0)
	pool.Freeze()

	_, err := pool.ApplyTrade(1_000, 0, false)
	assert.ErrorIs(t, err, ErrPoolFrozen)

	pool.Unfreeze()
	_, err = pool.ApplyTrade(1_000, 0, false)
	assert.NoError(t, err)
}

func TestPool_RevertTradeRestoresReserves(t *testing.T) {
	pool := newTestPool(t, 1_000_000, 10_000, 50)

	out, err := pool.ApplyTrade(3_000, 0, false)
	require.NoError(t, err)

	pool.RevertTrade(3_000, out, false)

	token, asset := pool.Reserves()
	assert.Equal(t, uint64(1_000_000), token)
	assert.Equal(t, uint64(10_000), asset)
}

func TestPool_KLastTracksReserves(t *testing.T) {
	pool := newTestPool(t, 1_000_000, 10_000, 0)

	_, err := pool.ApplyTrade(500, 0, false)
	require.NoError(t, err)

	token, asset := pool.Reserves()
	expected := new(uint256.Int).Mul(uint256.NewInt(token), uint256.NewInt(asset))
	assert.Zero(t, expected.Cmp(pool.KLast()))
}
