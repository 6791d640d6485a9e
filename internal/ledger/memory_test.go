package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	tokenVIRT = TokenID("VIRT")
	alice     = Account("alice")
	bob       = Account("bob")
	carol     = Account("carol")
)

func newTestLedger(t *testing.T) *Memory {
	t.Helper()
	l := NewMemory(zap.NewNop())
	require.NoError(t, l.Mint(context.Background(), tokenVIRT, alice, 1_000))
	return l
}

func TestMemory_Transfer(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	require.NoError(t, l.Transfer(ctx, tokenVIRT, alice, bob, 400))

	aliceBal, err := l.BalanceOf(ctx, tokenVIRT, alice)
	require.NoError(t, err)
	bobBal, err := l.BalanceOf(ctx, tokenVIRT, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), aliceBal)
	assert.Equal(t, uint64(400), bobBal)
}

func TestMemory_TransferInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	err := l.Transfer(ctx, tokenVIRT, bob, alice, 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Nothing moved.
	aliceBal, _ := l.BalanceOf(ctx, tokenVIRT, alice)
	assert.Equal(t, uint64(1_000), aliceBal)
}

func TestMemory_TransferFromRequiresAllowance(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	err := l.TransferFrom(ctx, tokenVIRT, alice, bob, carol, 100)
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, l.Approve(ctx, tokenVIRT, alice, bob, 150))
	require.NoError(t, l.TransferFrom(ctx, tokenVIRT, alice, bob, carol, 100))

	remaining, err := l.Allowance(ctx, tokenVIRT, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), remaining)

	carolBal, _ := l.BalanceOf(ctx, tokenVIRT, carol)
	assert.Equal(t, uint64(100), carolBal)
}

func TestMemory_AllowanceNotConsumedOnFailedTransfer(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	// Allowance larger than the actual balance.
	require.NoError(t, l.Approve(ctx, tokenVIRT, alice, bob, 5_000))
	err := l.TransferFrom(ctx, tokenVIRT, alice, bob, carol, 2_000)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	remaining, _ := l.Allowance(ctx, tokenVIRT, alice, bob)
	assert.Equal(t, uint64(5_000), remaining)
}

func TestMemory_MintBurnSupply(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	supply, err := l.TotalSupply(ctx, tokenVIRT)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), supply)

	require.NoError(t, l.Burn(ctx, tokenVIRT, alice, 250))
	supply, _ = l.TotalSupply(ctx, tokenVIRT)
	assert.Equal(t, uint64(750), supply)

	assert.ErrorIs(t, l.Burn(ctx, tokenVIRT, bob, 1), ErrInsufficientBalance)
	assert.ErrorIs(t, l.Mint(ctx, tokenVIRT, alice, 0), ErrZeroAmount)
}

func TestMemory_UnknownToken(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(zap.NewNop())

	_, err := l.BalanceOf(ctx, "NOPE", alice)
	assert.ErrorIs(t, err, ErrUnknownToken)
	assert.ErrorIs(t, l.Transfer(ctx, "NOPE", alice, bob, 1), ErrUnknownToken)
}
