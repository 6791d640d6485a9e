package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/storage/models"
)

func launchRecord(id string) *models.LaunchRecord {
	return &models.LaunchRecord{
		LaunchID:        id,
		Creator:         "creator",
		Name:            "Test Token",
		Symbol:          "TT",
		RestrictedToken: "launch:" + id,
		PoolID:          "pool-" + id,
		TradingEnabled:  true,
	}
}

func TestStore_SaveGetUpdate(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.SaveLaunch(ctx, launchRecord("a")))
	assert.Error(t, store.SaveLaunch(ctx, launchRecord("a")), "double save is a bug")

	got, err := store.GetLaunch(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.TradingEnabled)

	got.TradingEnabled = false
	got.ReserveAssetRaised = 5_000
	require.NoError(t, store.UpdateLaunch(ctx, got))

	got, err = store.GetLaunch(ctx, "a")
	require.NoError(t, err)
	assert.False(t, got.TradingEnabled)
	assert.Equal(t, uint64(5_000), got.ReserveAssetRaised)

	_, err = store.GetLaunch(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_GraduatedPagination(t *testing.T) {
	ctx := context.Background()
	store := New()

	now := time.Now().UTC()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveLaunch(ctx, launchRecord(id)))
		record, _ := store.GetLaunch(ctx, id)
		record.Graduated = true
		record.GraduatedAt = &now
		require.NoError(t, store.UpdateLaunch(ctx, record))
	}

	page, err := store.ListGraduated(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].LaunchID)
	assert.Equal(t, "b", page[1].LaunchID)

	page, err = store.ListGraduated(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].LaunchID)

	page, err = store.ListGraduated(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestStore_Trades(t *testing.T) {
	ctx := context.Background()
	store := New()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveTrade(ctx, &models.TradeRecord{
			LaunchID: "a",
			Trader:   "trader",
			Side:     "buy",
			AmountIn: uint64(i + 1),
		}))
	}
	require.NoError(t, store.SaveTrade(ctx, &models.TradeRecord{LaunchID: "b", Side: "sell"}))

	trades, err := store.ListTrades(ctx, "a", 10, 0)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, uint64(3), trades[0].AmountIn, "newest first")
}

func TestStore_PendingGraduations(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.SavePendingGraduation(ctx, &models.PendingGraduation{LaunchID: "a"}))
	assert.Error(t, store.SavePendingGraduation(ctx, &models.PendingGraduation{LaunchID: "a"}))

	pending, err := store.ListPendingGraduations(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, store.DeletePendingGraduation(ctx, "a"))
	pending, err = store.ListPendingGraduations(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
