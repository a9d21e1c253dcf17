// internal/ledger/postgres/schema.go
package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS token_curves (
	mint                   TEXT PRIMARY KEY,
	creator                TEXT NOT NULL,
	name                   TEXT NOT NULL,
	symbol                 TEXT NOT NULL,
	twitch_login           TEXT NOT NULL DEFAULT '',

	virtual_sol_reserves   BIGINT NOT NULL,
	virtual_token_reserves BIGINT NOT NULL,
	real_sol_reserves      BIGINT NOT NULL DEFAULT 0,
	real_token_reserves    BIGINT NOT NULL DEFAULT 0,

	tokens_sold            BIGINT NOT NULL DEFAULT 0,
	total_volume           BIGINT NOT NULL DEFAULT 0,
	creator_fees_collected BIGINT NOT NULL DEFAULT 0,

	is_live                BOOLEAN NOT NULL DEFAULT false,
	last_stream_check      TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
	graduated              BOOLEAN NOT NULL DEFAULT false,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_token_curves_active
	ON token_curves (created_at) WHERE graduated = false;

CREATE INDEX IF NOT EXISTS idx_token_curves_twitch_login
	ON token_curves (twitch_login) WHERE twitch_login <> '';
`

// Migrate creates the ledger schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate token_curves schema: %w", err)
	}
	return nil
}
