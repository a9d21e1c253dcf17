package liveness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/curve"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger/memory"
)

type fakeChecker struct {
	statuses map[string]StreamStatus
	calls    int
}

func (f *fakeChecker) BatchCheckStreams(_ context.Context, logins []string) (map[string]StreamStatus, error) {
	f.calls++
	out := make(map[string]StreamStatus, len(logins))
	for _, login := range logins {
		if st, ok := f.statuses[login]; ok {
			out[login] = st
		} else {
			out[login] = StreamStatus{Login: login}
		}
	}
	return out, nil
}

func seedToken(t *testing.T, store ledger.Store, mint, login string, graduated bool) {
	t.Helper()
	err := store.Create(context.Background(), &ledger.TokenCurve{
		Mint:                 mint,
		Creator:              "creator",
		Name:                 "Token",
		Symbol:               "TOK",
		TwitchLogin:          login,
		VirtualSolReserves:   curve.DefaultVirtualSolReserves,
		VirtualTokenReserves: curve.DefaultVirtualTokenReserves,
		Graduated:            graduated,
		CreatedAt:            time.Now(),
	})
	require.NoError(t, err)
}

func TestWatcherPollFlipsStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedToken(t, store, "mint-a", "alice", false)
	seedToken(t, store, "mint-b", "bob", false)

	checker := &fakeChecker{statuses: map[string]StreamStatus{
		"alice": {Login: "alice", IsLive: true, ViewerCount: 100},
	}}
	w := NewWatcher(store, checker, nil, time.Minute, zap.NewNop())

	require.NoError(t, w.Poll(ctx))

	a, err := store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.True(t, a.IsLive)
	b, err := store.Get(ctx, "mint-b")
	require.NoError(t, err)
	assert.False(t, b.IsLive)

	// Going offline flips back.
	checker.statuses = nil
	require.NoError(t, w.Poll(ctx))
	a, err = store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.False(t, a.IsLive)
}

func TestWatcherSkipsGraduatedTokens(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedToken(t, store, "mint-g", "grad", true)

	checker := &fakeChecker{}
	w := NewWatcher(store, checker, nil, time.Minute, zap.NewNop())

	require.NoError(t, w.Poll(ctx))
	assert.Zero(t, checker.calls)
}

func TestWatcherApplyPush(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedToken(t, store, "mint-a", "alice", false)
	seedToken(t, store, "mint-b", "bob", false)

	w := NewWatcher(store, &fakeChecker{}, nil, time.Minute, zap.NewNop())

	require.NoError(t, w.ApplyPush(ctx, "alice", true))

	a, err := store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.True(t, a.IsLive)
	b, err := store.Get(ctx, "mint-b")
	require.NoError(t, err)
	assert.False(t, b.IsLive)
}

func TestWatcherSharedLoginCoversAllCurves(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedToken(t, store, "mint-1", "alice", false)
	seedToken(t, store, "mint-2", "alice", false)

	checker := &fakeChecker{statuses: map[string]StreamStatus{
		"alice": {Login: "alice", IsLive: true},
	}}
	w := NewWatcher(store, checker, nil, time.Minute, zap.NewNop())

	require.NoError(t, w.Poll(ctx))
	assert.Equal(t, 1, checker.calls)

	for _, mint := range []string{"mint-1", "mint-2"} {
		tc, err := store.Get(ctx, mint)
		require.NoError(t, err)
		assert.True(t, tc.IsLive)
	}
}
