// internal/ledger/store.go
package ledger

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested token has no curve record.
	ErrNotFound = errors.New("token curve not found")

	// ErrDuplicateKey indicates a curve already exists for the mint.
	ErrDuplicateKey = errors.New("token curve already exists")
)

// Store is the persistence interface for token curve state.
//
// Callers must ensure at most one in-flight trade mutates a given
// token's reserves at a time: ApplyTrade persists atomically, but the
// read-quote-apply sequence around it is the caller's to serialize (the
// trading service holds a per-mint lock for exactly this reason).
type Store interface {
	Create(ctx context.Context, tc *TokenCurve) error
	Get(ctx context.Context, mint string) (*TokenCurve, error)

	// ListActive returns all non-graduated curves, ordered by creation.
	ListActive(ctx context.Context) ([]*TokenCurve, error)

	// ApplyTrade persists a trade's reserve delta and aggregates in one
	// write. Returns ErrNotFound for unknown mints.
	ApplyTrade(ctx context.Context, mint string, delta TradeDelta) error

	// SetLiveStatus records the creator's stream state and check time.
	SetLiveStatus(ctx context.Context, mint string, isLive bool) error

	// MarkGraduated flags the curve as graduated and deducts the
	// graduation fee from real SOL reserves.
	MarkGraduated(ctx context.Context, mint string, graduationFee uint64) error
}
