package venue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemory_CreateGetSeed(t *testing.T) {
	ctx := context.Background()
	v := NewMemory(zap.NewNop())

	id, err := v.GetPool(ctx, "FREE", "VIRT")
	require.NoError(t, err)
	assert.Empty(t, id, "unknown pair reports empty, not an error")

	id, err = v.CreatePool(ctx, "FREE", "VIRT")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Lookup is order-insensitive.
	found, err := v.GetPool(ctx, "VIRT", "FREE")
	require.NoError(t, err)
	assert.Equal(t, id, found)

	lp, err := v.SeedLiquidity(ctx, id, 400, 900)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), lp) // sqrt(400*900)

	a, b, err := v.GetReserves(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), a)
	assert.Equal(t, uint64(900), b)
}

func TestMemory_DuplicatePair(t *testing.T) {
	ctx := context.Background()
	v := NewMemory(zap.NewNop())

	_, err := v.CreatePool(ctx, "FREE", "VIRT")
	require.NoError(t, err)
	_, err = v.CreatePool(ctx, "VIRT", "FREE")
	assert.ErrorIs(t, err, ErrPoolExists)
}

func TestMemory_UnknownPool(t *testing.T) {
	ctx := context.Background()
	v := NewMemory(zap.NewNop())

	_, err := v.SeedLiquidity(ctx, "missing", 1, 1)
	assert.ErrorIs(t, err, ErrPoolNotFound)
	_, _, err = v.GetReserves(ctx, "missing")
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestMemory_SeedRejectsZeroSide(t *testing.T) {
	ctx := context.Background()
	v := NewMemory(zap.NewNop())

	id, err := v.CreatePool(ctx, "FREE", "VIRT")
	require.NoError(t, err)

	_, err = v.SeedLiquidity(ctx, id, 0, 100)
	assert.Error(t, err)
}
