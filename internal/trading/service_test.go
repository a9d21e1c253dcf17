package trading

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/curve"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/events"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger/memory"
)

// Valid base58 addresses for test fixtures.
const (
	testMint    = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	testMint2   = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	testCreator = "Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewService(store, curve.DefaultConfig(), nil, zap.NewNop())
	return svc, store
}

func launchTestToken(t *testing.T, svc *Service, mint string) {
	t.Helper()
	_, err := svc.LaunchToken(context.Background(), LaunchParams{
		Mint:        mint,
		Creator:     testCreator,
		Name:        "Stream Token",
		Symbol:      "STRM",
		TwitchLogin: "teststreamer",
	})
	require.NoError(t, err)
}

func TestLaunchToken(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	launchTestToken(t, svc, testMint)

	tc, err := store.Get(ctx, testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(curve.DefaultVirtualSolReserves), tc.VirtualSolReserves)
	assert.Equal(t, uint64(curve.DefaultVirtualTokenReserves), tc.VirtualTokenReserves)
	assert.Zero(t, tc.TokensSold)
	assert.False(t, tc.Graduated)

	// Relaunching the same mint fails.
	_, err = svc.LaunchToken(ctx, LaunchParams{
		Mint: testMint, Creator: testCreator, Name: "Again", Symbol: "AGN",
	})
	assert.ErrorIs(t, err, ledger.ErrDuplicateKey)
}

func TestLaunchTokenValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	cases := []struct {
		name    string
		params  LaunchParams
		wantErr error
	}{
		{"bad mint", LaunchParams{Mint: "not-base58!", Creator: testCreator, Name: "T", Symbol: "T"}, ErrInvalidMint},
		{"bad creator", LaunchParams{Mint: testMint, Creator: "nope", Name: "T", Symbol: "T"}, ErrInvalidWallet},
		{"empty name", LaunchParams{Mint: testMint, Creator: testCreator, Name: "", Symbol: "T"}, ErrInvalidTokenName},
		{"long name", LaunchParams{Mint: testMint, Creator: testCreator, Name: "this token name is way past thirty-two characters", Symbol: "T"}, ErrInvalidTokenName},
		{"lowercase symbol", LaunchParams{Mint: testMint, Creator: testCreator, Name: "T", Symbol: "strm"}, ErrInvalidTokenSymbol},
		{"long symbol", LaunchParams{Mint: testMint, Creator: testCreator, Name: "T", Symbol: "TOOLONGSYMBOL"}, ErrInvalidTokenSymbol},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.LaunchToken(ctx, tc.params)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestQuoteBuyMatchesEngine(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	launchTestToken(t, svc, testMint)

	cfg := curve.DefaultConfig()
	want, err := cfg.CalculateBuyCost(cfg.InitialVirtualSolReserves, cfg.InitialVirtualTokenReserves, 10_000_000, false)
	require.NoError(t, err)

	got, err := svc.QuoteBuy(ctx, testMint, 10_000_000)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestQuoteUsesLivenessFromLedger(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	launchTestToken(t, svc, testMint)

	offline, err := svc.QuoteBuy(ctx, testMint, 10_000_000)
	require.NoError(t, err)

	require.NoError(t, store.SetLiveStatus(ctx, testMint, true))
	live, err := svc.QuoteBuy(ctx, testMint, 10_000_000)
	require.NoError(t, err)

	assert.Equal(t, offline.SolRequired, live.SolRequired)
	assert.Greater(t, live.CreatorFee, offline.CreatorFee)
}

func TestQuoteErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	launchTestToken(t, svc, testMint)

	_, err := svc.QuoteBuy(ctx, "bogus", 1)
	assert.ErrorIs(t, err, ErrInvalidMint)

	_, err = svc.QuoteBuy(ctx, testMint, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.QuoteBuy(ctx, testMint2, 1)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	// Supply exhaustion propagates from the engine unmodified.
	_, err = svc.QuoteBuy(ctx, testMint, curve.DefaultVirtualTokenReserves+1)
	assert.ErrorIs(t, err, curve.ErrInsufficientSupply)

	_, err = svc.QuoteSell(ctx, testMint, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// Amounts past the int64 delta range are rejected before quoting.
	_, err = svc.QuoteSell(ctx, testMint, math.MaxInt64+1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.ExecuteSell(ctx, testMint, math.MaxUint64)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestExecuteBuyAppliesDelta(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	launchTestToken(t, svc, testMint)

	q, err := svc.ExecuteBuy(ctx, testMint, 10_000_000)
	require.NoError(t, err)

	tc, err := store.Get(ctx, testMint)
	require.NoError(t, err)
	assert.Equal(t, q.NewVirtualSolReserves, tc.VirtualSolReserves)
	assert.Equal(t, q.NewVirtualTokenReserves, tc.VirtualTokenReserves)
	assert.Equal(t, q.SolRequired, tc.RealSolReserves)
	assert.Equal(t, uint64(10_000_000), tc.TokensSold)
	assert.Equal(t, q.SolRequired, tc.TotalVolume)
	assert.Equal(t, q.CreatorFee, tc.CreatorFeesCollected)
}

func TestExecuteSellAfterBuy(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	launchTestToken(t, svc, testMint)

	buy, err := svc.ExecuteBuy(ctx, testMint, 10_000_000)
	require.NoError(t, err)

	sell, err := svc.ExecuteSell(ctx, testMint, 10_000_000)
	require.NoError(t, err)

	// Round trip always loses at least the fees, and the sell can never
	// withdraw more from the vault than the buy put in.
	assert.Less(t, sell.NetOutput, buy.TotalCost)
	assert.LessOrEqual(t, sell.SolToReturn, buy.SolRequired)

	tc, err := store.Get(ctx, testMint)
	require.NoError(t, err)
	assert.Zero(t, tc.TokensSold)
	assert.Equal(t, buy.SolRequired-sell.SolToReturn, tc.RealSolReserves)
}

func TestExecuteBuyTriggersGraduation(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	launchTestToken(t, svc, testMint)

	// A near-full curve buy pushes real reserves past 85 SOL.
	q, err := svc.ExecuteBuy(ctx, testMint, 795_000_000)
	require.NoError(t, err)
	require.GreaterOrEqual(t, q.SolRequired, uint64(curve.DefaultGraduationThreshold))

	tc, err := store.Get(ctx, testMint)
	require.NoError(t, err)
	assert.True(t, tc.Graduated)
	assert.Equal(t, q.SolRequired-curve.DefaultGraduationFee, tc.RealSolReserves)

	// Graduated tokens no longer trade on the curve.
	_, err = svc.QuoteBuy(ctx, testMint, 1_000)
	assert.ErrorIs(t, err, ErrTokenGraduated)
	_, err = svc.ExecuteSell(ctx, testMint, 1_000)
	assert.ErrorIs(t, err, ErrTokenGraduated)
}

func TestGraduationEventPublished(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bus := events.NewBus(zap.NewNop(), 64)
	svc := NewService(store, curve.DefaultConfig(), bus, zap.NewNop())

	var mu sync.Mutex
	var graduated []string
	bus.SubscribeFunc(events.TokenGraduated, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		graduated = append(graduated, e.(events.TokenGraduatedEvent).TokenMint)
		return nil
	})

	_, err := svc.LaunchToken(ctx, LaunchParams{
		Mint: testMint, Creator: testCreator, Name: "Stream Token", Symbol: "STRM",
	})
	require.NoError(t, err)
	_, err = svc.ExecuteBuy(ctx, testMint, 795_000_000)
	require.NoError(t, err)

	// Shutdown flushes async delivery.
	require.NoError(t, bus.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, graduated, 1)
	assert.Equal(t, testMint, graduated[0])
}

func TestSweepGraduations(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	launchTestToken(t, svc, testMint)

	// Simulate a curve whose graduation write was missed.
	require.NoError(t, store.ApplyTrade(ctx, testMint, ledger.TradeDelta{
		VirtualSolReserves:   curve.DefaultVirtualSolReserves + 86*curve.LamportsPerSol,
		VirtualTokenReserves: 278_000_000,
		RealSolDelta:         86 * curve.LamportsPerSol,
		TokensSoldDelta:      795_000_000,
	}))

	require.NoError(t, svc.SweepGraduations(ctx))

	tc, err := store.Get(ctx, testMint)
	require.NoError(t, err)
	assert.True(t, tc.Graduated)
}

func TestConcurrentBuysStaySerialized(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	launchTestToken(t, svc, testMint)

	const (
		workers = 8
		amount  = uint64(5_000_000)
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ExecuteBuy(ctx, testMint, amount)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	tc, err := store.Get(ctx, testMint)
	require.NoError(t, err)

	// Token reserves shrink by exactly the sum of all buys: no trade
	// computed against stale state.
	assert.Equal(t, uint64(curve.DefaultVirtualTokenReserves)-workers*amount, tc.VirtualTokenReserves)
	assert.Equal(t, uint64(workers*amount), tc.TokensSold)

	// And the constant product survives the whole sequence.
	kBefore := float64(curve.DefaultVirtualSolReserves) * float64(curve.DefaultVirtualTokenReserves)
	kAfter := float64(tc.VirtualSolReserves) * float64(tc.VirtualTokenReserves)
	assert.InEpsilon(t, kBefore, kAfter, 0.0001)
}
