package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/curve"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger"
)

func newTestCurve(mint string) *ledger.TokenCurve {
	cfg := curve.DefaultConfig()
	return &ledger.TokenCurve{
		Mint:                 mint,
		Creator:              "creator-wallet",
		Name:                 "Test Token",
		Symbol:               "TEST",
		TwitchLogin:          "teststreamer",
		VirtualSolReserves:   cfg.InitialVirtualSolReserves,
		VirtualTokenReserves: cfg.InitialVirtualTokenReserves,
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Create(ctx, newTestCurve("mint-a")))

	got, err := store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.Equal(t, "mint-a", got.Mint)
	assert.False(t, got.CreatedAt.IsZero())

	// Duplicate mints are rejected.
	assert.ErrorIs(t, store.Create(ctx, newTestCurve("mint-a")), ledger.ErrDuplicateKey)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, newTestCurve("mint-a")))

	first, err := store.Get(ctx, "mint-a")
	require.NoError(t, err)
	first.VirtualSolReserves = 0

	second, err := store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.NotZero(t, second.VirtualSolReserves)
}

func TestListActiveExcludesGraduated(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	a := newTestCurve("mint-a")
	a.CreatedAt = time.Now().Add(-time.Hour)
	b := newTestCurve("mint-b")
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))
	require.NoError(t, store.MarkGraduated(ctx, "mint-b", 0))

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "mint-a", active[0].Mint)
}

func TestApplyTrade(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, newTestCurve("mint-a")))

	cfg := curve.DefaultConfig()
	q, err := cfg.CalculateBuyCost(cfg.InitialVirtualSolReserves, cfg.InitialVirtualTokenReserves, 10_000_000, true)
	require.NoError(t, err)

	require.NoError(t, store.ApplyTrade(ctx, "mint-a", ledger.TradeDelta{
		VirtualSolReserves:   q.NewVirtualSolReserves,
		VirtualTokenReserves: q.NewVirtualTokenReserves,
		RealSolDelta:         int64(q.SolRequired),
		TokensSoldDelta:      10_000_000,
		VolumeLamports:       q.SolRequired,
		CreatorFee:           q.CreatorFee,
	}))

	got, err := store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.Equal(t, q.NewVirtualSolReserves, got.VirtualSolReserves)
	assert.Equal(t, q.NewVirtualTokenReserves, got.VirtualTokenReserves)
	assert.Equal(t, q.SolRequired, got.RealSolReserves)
	assert.Equal(t, uint64(10_000_000), got.TokensSold)
	assert.Equal(t, q.CreatorFee, got.CreatorFeesCollected)

	// Negative deltas clamp at zero rather than wrapping.
	require.NoError(t, store.ApplyTrade(ctx, "mint-a", ledger.TradeDelta{
		VirtualSolReserves:   cfg.InitialVirtualSolReserves,
		VirtualTokenReserves: cfg.InitialVirtualTokenReserves,
		RealSolDelta:         -int64(q.SolRequired * 2),
		TokensSoldDelta:      -20_000_000,
	}))
	got, err = store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.Zero(t, got.RealSolReserves)
	assert.Zero(t, got.TokensSold)

	assert.ErrorIs(t, store.ApplyTrade(ctx, "missing", ledger.TradeDelta{}), ledger.ErrNotFound)
}

func TestSetLiveStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Create(ctx, newTestCurve("mint-a")))

	require.NoError(t, store.SetLiveStatus(ctx, "mint-a", true))
	got, err := store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.True(t, got.IsLive)
	assert.False(t, got.LastStreamCheck.IsZero())
}

func TestMarkGraduatedDeductsFee(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	tc := newTestCurve("mint-a")
	tc.RealSolReserves = 85 * curve.LamportsPerSol
	require.NoError(t, store.Create(ctx, tc))

	require.NoError(t, store.MarkGraduated(ctx, "mint-a", 6*curve.LamportsPerSol))

	got, err := store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.True(t, got.Graduated)
	assert.Equal(t, uint64(79*curve.LamportsPerSol), got.RealSolReserves)
}
