package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFee(t *testing.T) {
	// 1% of 1 SOL
	assert.Equal(t, uint64(10_000_000), CalculateFee(LamportsPerSol, 100))
	// 2% of 10 SOL
	assert.Equal(t, uint64(200_000_000), CalculateFee(10*LamportsPerSol, 200))
	// 0.2% of 1 SOL
	assert.Equal(t, uint64(2_000_000), CalculateFee(LamportsPerSol, 20))
}

func TestCalculateFeeFloors(t *testing.T) {
	// 100 bps of 99 lamports is 0.99 -> floors to 0, not rounds to 1
	assert.Equal(t, uint64(0), CalculateFee(99, 100))
	assert.Equal(t, uint64(1), CalculateFee(100, 100))
	assert.Equal(t, uint64(0), CalculateFee(0, 200))
}

func TestCalculateFeeNoOverflow(t *testing.T) {
	// Near the top of the uint64 range the naive amount*bps product would
	// wrap; the quotient/remainder split must not.
	const amount = uint64(1<<63 + 12345)
	got := CalculateFee(amount, 100)
	assert.Equal(t, amount/100, got)
}

func TestSplitFeesLiveVsOffline(t *testing.T) {
	cfg := DefaultConfig()
	gross := uint64(5 * LamportsPerSol)

	live := cfg.SplitFees(gross, true)
	offline := cfg.SplitFees(gross, false)

	// Platform rate does not depend on liveness.
	assert.Equal(t, live.PlatformFee, offline.PlatformFee)
	assert.Equal(t, uint64(50_000_000), live.PlatformFee)

	// Creator fee is 10x while live with current constants.
	require.NotZero(t, offline.CreatorFee)
	assert.Greater(t, live.CreatorFee, offline.CreatorFee)
	assert.Equal(t, uint64(10), live.CreatorFee/offline.CreatorFee)

	assert.Equal(t, live.PlatformFee+live.CreatorFee, live.Total())
}

func TestCreatorFeeBps(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, uint16(DefaultCreatorFeeLiveBps), cfg.CreatorFeeBps(true))
	assert.Equal(t, uint16(DefaultCreatorFeeOfflineBps), cfg.CreatorFeeBps(false))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	// Supply split must add up.
	broken := cfg
	broken.CreatorSupply = 100
	assert.Error(t, broken.Validate())

	broken = cfg
	broken.InitialVirtualSolReserves = 0
	assert.Error(t, broken.Validate())

	broken = cfg
	broken.PlatformFeeBps = 9_900
	broken.CreatorFeeLiveBps = 200
	assert.Error(t, broken.Validate())
}
