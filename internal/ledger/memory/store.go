// internal/ledger/memory/store.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger"
)

// Store is an in-memory ledger.Store for tests and the simulator.
type Store struct {
	mu     sync.RWMutex
	curves map[string]*ledger.TokenCurve
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{curves: make(map[string]*ledger.TokenCurve)}
}

// Compile-time interface check.
var _ ledger.Store = (*Store)(nil)

func (s *Store) Create(_ context.Context, tc *ledger.TokenCurve) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.curves[tc.Mint]; exists {
		return ledger.ErrDuplicateKey
	}

	clone := *tc
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	s.curves[tc.Mint] = &clone
	return nil
}

func (s *Store) Get(_ context.Context, mint string) (*ledger.TokenCurve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tc, ok := s.curves[mint]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	clone := *tc
	return &clone, nil
}

func (s *Store) ListActive(_ context.Context) ([]*ledger.TokenCurve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.TokenCurve
	for _, tc := range s.curves {
		if tc.Graduated {
			continue
		}
		clone := *tc
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Mint < out[j].Mint
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ApplyTrade(_ context.Context, mint string, delta ledger.TradeDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tc, ok := s.curves[mint]
	if !ok {
		return ledger.ErrNotFound
	}

	tc.VirtualSolReserves = delta.VirtualSolReserves
	tc.VirtualTokenReserves = delta.VirtualTokenReserves
	tc.RealSolReserves = applySigned(tc.RealSolReserves, delta.RealSolDelta)
	tc.TokensSold = applySigned(tc.TokensSold, delta.TokensSoldDelta)
	tc.TotalVolume += delta.VolumeLamports
	tc.CreatorFeesCollected += delta.CreatorFee
	return nil
}

func (s *Store) SetLiveStatus(_ context.Context, mint string, isLive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tc, ok := s.curves[mint]
	if !ok {
		return ledger.ErrNotFound
	}
	tc.IsLive = isLive
	tc.LastStreamCheck = time.Now().UTC()
	return nil
}

func (s *Store) MarkGraduated(_ context.Context, mint string, graduationFee uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tc, ok := s.curves[mint]
	if !ok {
		return ledger.ErrNotFound
	}
	tc.Graduated = true
	if tc.RealSolReserves >= graduationFee {
		tc.RealSolReserves -= graduationFee
	} else {
		tc.RealSolReserves = 0
	}
	return nil
}

// applySigned adds a signed delta to an unsigned counter, clamping at
// zero instead of wrapping.
func applySigned(value uint64, delta int64) uint64 {
	if delta >= 0 {
		return value + uint64(delta)
	}
	dec := uint64(-delta)
	if dec > value {
		return 0
	}
	return value - dec
}
