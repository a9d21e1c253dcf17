// internal/ledger/postgres/store.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger"
)

// Store implements ledger.Store using PostgreSQL.
type Store struct {
	pool *Pool
}

// NewStore creates a Postgres-backed ledger store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Compile-time interface check.
var _ ledger.Store = (*Store)(nil)

const tokenCurveColumns = `
	mint, creator, name, symbol, twitch_login,
	virtual_sol_reserves, virtual_token_reserves, real_sol_reserves, real_token_reserves,
	tokens_sold, total_volume, creator_fees_collected,
	is_live, last_stream_check, graduated, created_at
`

// Create inserts a new curve record. Returns ledger.ErrDuplicateKey when
// the mint already has one.
func (s *Store) Create(ctx context.Context, tc *ledger.TokenCurve) error {
	query := `
		INSERT INTO token_curves (` + tokenCurveColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
	`

	_, err := s.pool.Exec(ctx, query,
		tc.Mint, tc.Creator, tc.Name, tc.Symbol, tc.TwitchLogin,
		tc.VirtualSolReserves, tc.VirtualTokenReserves, tc.RealSolReserves, tc.RealTokenReserves,
		tc.TokensSold, tc.TotalVolume, tc.CreatorFeesCollected,
		tc.IsLive, tc.LastStreamCheck, tc.Graduated,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ledger.ErrDuplicateKey
		}
		return fmt.Errorf("insert token curve: %w", err)
	}
	return nil
}

// Get retrieves a curve by mint. Returns ledger.ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, mint string) (*ledger.TokenCurve, error) {
	query := `SELECT ` + tokenCurveColumns + ` FROM token_curves WHERE mint = $1`

	tc, err := scanTokenCurve(s.pool.QueryRow(ctx, query, mint))
	if err != nil {
		if isNotFoundError(err) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("get token curve: %w", err)
	}
	return tc, nil
}

// ListActive returns all non-graduated curves ordered by creation time.
func (s *Store) ListActive(ctx context.Context) ([]*ledger.TokenCurve, error) {
	query := `
		SELECT ` + tokenCurveColumns + `
		FROM token_curves
		WHERE graduated = false
		ORDER BY created_at, mint
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active token curves: %w", err)
	}
	defer rows.Close()

	var out []*ledger.TokenCurve
	for rows.Next() {
		tc, err := scanTokenCurve(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token curve: %w", err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token curves: %w", err)
	}
	return out, nil
}

// ApplyTrade writes the post-trade reserves and bumps the aggregates in a
// single UPDATE, so a trade is either fully applied or not at all. The
// signed deltas clamp at zero on the database side.
func (s *Store) ApplyTrade(ctx context.Context, mint string, delta ledger.TradeDelta) error {
	query := `
		UPDATE token_curves SET
			virtual_sol_reserves = $2,
			virtual_token_reserves = $3,
			real_sol_reserves = GREATEST(real_sol_reserves::numeric + $4, 0),
			tokens_sold = GREATEST(tokens_sold::numeric + $5, 0),
			total_volume = total_volume + $6,
			creator_fees_collected = creator_fees_collected + $7
		WHERE mint = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		mint,
		delta.VirtualSolReserves, delta.VirtualTokenReserves,
		delta.RealSolDelta, delta.TokensSoldDelta,
		delta.VolumeLamports, delta.CreatorFee,
	)
	if err != nil {
		return fmt.Errorf("apply trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// SetLiveStatus records the creator's stream state and the check time.
func (s *Store) SetLiveStatus(ctx context.Context, mint string, isLive bool) error {
	query := `
		UPDATE token_curves
		SET is_live = $2, last_stream_check = now()
		WHERE mint = $1
	`

	tag, err := s.pool.Exec(ctx, query, mint, isLive)
	if err != nil {
		return fmt.Errorf("set live status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// MarkGraduated flags the curve and deducts the graduation fee.
func (s *Store) MarkGraduated(ctx context.Context, mint string, graduationFee uint64) error {
	query := `
		UPDATE token_curves
		SET graduated = true,
		    real_sol_reserves = GREATEST(real_sol_reserves::numeric - $2, 0)
		WHERE mint = $1
	`

	tag, err := s.pool.Exec(ctx, query, mint, graduationFee)
	if err != nil {
		return fmt.Errorf("mark graduated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func scanTokenCurve(row pgx.Row) (*ledger.TokenCurve, error) {
	var tc ledger.TokenCurve
	err := row.Scan(
		&tc.Mint, &tc.Creator, &tc.Name, &tc.Symbol, &tc.TwitchLogin,
		&tc.VirtualSolReserves, &tc.VirtualTokenReserves, &tc.RealSolReserves, &tc.RealTokenReserves,
		&tc.TokensSold, &tc.TotalVolume, &tc.CreatorFeesCollected,
		&tc.IsLive, &tc.LastStreamCheck, &tc.Graduated, &tc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tc, nil
}
