package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/events"
)

const tradesSchema = `
CREATE TABLE IF NOT EXISTS curve_trades (
	token_mint   String,
	side         LowCardinality(String),
	token_amount UInt64,
	sol_amount   UInt64,
	platform_fee UInt64,
	creator_fee  UInt64,
	price        Float64,
	is_live      Bool,
	executed_at  DateTime64(3, 'UTC')
)
ENGINE = MergeTree
ORDER BY (token_mint, executed_at)
`

// Trade is one executed curve trade as stored in ClickHouse.
type Trade struct {
	TokenMint   string
	Side        string
	TokenAmount uint64
	SolAmount   uint64
	PlatformFee uint64
	CreatorFee  uint64
	Price       float64
	IsLive      bool
	ExecutedAt  time.Time
}

// Candle is one OHLCV bucket of curve trades.
type Candle struct {
	Bucket     time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     uint64
	TradeCount uint64
}

// Recorder persists executed trades to ClickHouse and serves candle
// aggregations over them.
type Recorder struct {
	conn   *Conn
	logger *zap.Logger
}

func NewRecorder(conn *Conn, logger *zap.Logger) *Recorder {
	return &Recorder{conn: conn, logger: logger.Named("analytics")}
}

// Migrate creates the trades table.
func (r *Recorder) Migrate(ctx context.Context) error {
	if err := r.conn.Exec(ctx, tradesSchema); err != nil {
		return fmt.Errorf("create curve_trades table: %w", err)
	}
	return nil
}

// Attach subscribes the recorder to trade events on the bus.
func (r *Recorder) Attach(bus *events.Bus) events.Subscription {
	return bus.SubscribeFunc(events.TradeExecuted, func(ctx context.Context, e events.Event) error {
		trade, ok := e.(events.TradeExecutedEvent)
		if !ok {
			return fmt.Errorf("unexpected event type %T", e)
		}
		return r.RecordTrade(ctx, tradeFromEvent(trade))
	})
}

func tradeFromEvent(e events.TradeExecutedEvent) Trade {
	return Trade{
		TokenMint:   e.TokenMint,
		Side:        string(e.Side),
		TokenAmount: e.TokenAmount,
		SolAmount:   e.SolAmount,
		PlatformFee: e.PlatformFee,
		CreatorFee:  e.CreatorFee,
		Price:       e.Price,
		IsLive:      e.IsLive,
		ExecutedAt:  e.Timestamp(),
	}
}

// RecordTrade inserts one trade row.
func (r *Recorder) RecordTrade(ctx context.Context, t Trade) error {
	err := r.conn.Exec(ctx, `
		INSERT INTO curve_trades (
			token_mint, side, token_amount, sol_amount,
			platform_fee, creator_fee, price, is_live, executed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TokenMint, t.Side, t.TokenAmount, t.SolAmount,
		t.PlatformFee, t.CreatorFee, t.Price, t.IsLive, t.ExecutedAt)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// RecordTrades inserts trades as one batch.
func (r *Recorder) RecordTrades(ctx context.Context, trades []Trade) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO curve_trades (
			token_mint, side, token_amount, sol_amount,
			platform_fee, creator_fee, price, is_live, executed_at
		)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		err = batch.Append(
			t.TokenMint, t.Side, t.TokenAmount, t.SolAmount,
			t.PlatformFee, t.CreatorFee, t.Price, t.IsLive, t.ExecutedAt)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Candles aggregates trades for a mint into OHLCV buckets of the given
// interval, ordered oldest first.
func (r *Recorder) Candles(ctx context.Context, mint string, interval time.Duration, since time.Time) ([]Candle, error) {
	query := `
		SELECT
			toStartOfInterval(executed_at, INTERVAL ? SECOND) AS bucket,
			argMin(price, executed_at) AS open,
			max(price) AS high,
			min(price) AS low,
			argMax(price, executed_at) AS close,
			sum(sol_amount) AS volume,
			count() AS trade_count
		FROM curve_trades
		WHERE token_mint = ? AND executed_at >= ?
		GROUP BY bucket
		ORDER BY bucket ASC
	`

	rows, err := r.conn.Query(ctx, query, int64(interval.Seconds()), mint, since)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var candles []Candle
	for rows.Next() {
		var c Candle
		if err := rows.Scan(&c.Bucket, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.TradeCount); err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}
	return candles, nil
}

// CreatorFeeTotals sums collected creator fees per mint since a cutoff.
func (r *Recorder) CreatorFeeTotals(ctx context.Context, since time.Time) (map[string]uint64, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT token_mint, sum(creator_fee)
		FROM curve_trades
		WHERE executed_at >= ?
		GROUP BY token_mint`, since)
	if err != nil {
		return nil, fmt.Errorf("query creator fees: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]uint64)
	for rows.Next() {
		var mint string
		var total uint64
		if err := rows.Scan(&mint, &total); err != nil {
			return nil, fmt.Errorf("scan fee row: %w", err)
		}
		totals[mint] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee rows: %w", err)
	}
	return totals, nil
}
