// internal/trading/service.go
package trading

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/curve"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/events"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger"
)

// Service is the function-call trading surface over the pricing engine.
// The engine itself is pure; the service owns the read-quote-apply
// sequence around it and serializes it per mint, so concurrent trades on
// one token never compute against stale reserves.
type Service struct {
	store  ledger.Store
	cfg    curve.Config
	bus    *events.Bus // optional
	locks  *mintLocks
	logger *zap.Logger
}

// NewService creates a trading service. The event bus may be nil when no
// subscriber cares (the simulator runs without one).
func NewService(store ledger.Store, cfg curve.Config, bus *events.Bus, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		cfg:    cfg,
		bus:    bus,
		locks:  newMintLocks(),
		logger: logger.Named("trading"),
	}
}

// LaunchParams describes a streamer's token launch.
type LaunchParams struct {
	Mint        string
	Creator     string
	Name        string
	Symbol      string
	TwitchLogin string
}

// LaunchToken creates the curve record for a new token with the initial
// virtual reserves.
func (s *Service) LaunchToken(ctx context.Context, p LaunchParams) (*ledger.TokenCurve, error) {
	if err := validateMint(p.Mint); err != nil {
		return nil, err
	}
	if err := validateWallet(p.Creator); err != nil {
		return nil, err
	}
	if err := validateTokenName(p.Name); err != nil {
		return nil, err
	}
	if err := validateTokenSymbol(p.Symbol); err != nil {
		return nil, err
	}

	tc := &ledger.TokenCurve{
		Mint:                 p.Mint,
		Creator:              p.Creator,
		Name:                 p.Name,
		Symbol:               p.Symbol,
		TwitchLogin:          p.TwitchLogin,
		VirtualSolReserves:   s.cfg.InitialVirtualSolReserves,
		VirtualTokenReserves: s.cfg.InitialVirtualTokenReserves,
		CreatedAt:            time.Now().UTC(),
	}
	if err := s.store.Create(ctx, tc); err != nil {
		return nil, fmt.Errorf("create token curve: %w", err)
	}

	s.logger.Info("Token launched",
		zap.String("mint", p.Mint),
		zap.String("creator", p.Creator),
		zap.String("symbol", p.Symbol),
		zap.String("twitch_login", p.TwitchLogin))

	s.publish(events.TokenCreatedEvent{
		BaseEvent: events.BaseEvent{EventType: events.TokenCreated, EventTime: time.Now().UTC()},
		TokenMint:   p.Mint,
		Creator:     p.Creator,
		TwitchLogin: p.TwitchLogin,
	})

	return tc, nil
}

// QuoteBuy prices a buy of tokenAmount tokens against current reserves.
// The quote is advisory: reserves may move before execution.
func (s *Service) QuoteBuy(ctx context.Context, mint string, tokenAmount uint64) (*curve.BuyQuote, error) {
	if err := validateMint(mint); err != nil {
		return nil, err
	}
	if err := validateAmount(tokenAmount); err != nil {
		return nil, err
	}

	tc, err := s.store.Get(ctx, mint)
	if err != nil {
		return nil, err
	}
	if tc.Graduated {
		return nil, ErrTokenGraduated
	}

	return s.cfg.CalculateBuyCost(tc.VirtualSolReserves, tc.VirtualTokenReserves, tokenAmount, tc.IsLive)
}

// QuoteSell prices a sell of tokenAmount tokens against current reserves.
func (s *Service) QuoteSell(ctx context.Context, mint string, tokenAmount uint64) (*curve.SellQuote, error) {
	if err := validateMint(mint); err != nil {
		return nil, err
	}
	if err := validateAmount(tokenAmount); err != nil {
		return nil, err
	}

	tc, err := s.store.Get(ctx, mint)
	if err != nil {
		return nil, err
	}
	if tc.Graduated {
		return nil, ErrTokenGraduated
	}

	return s.cfg.CalculateSellOutput(tc.VirtualSolReserves, tc.VirtualTokenReserves, tokenAmount, tc.IsLive)
}

// ExecuteBuy quotes and applies a buy under the token's trade lock, then
// checks the graduation threshold against the new real reserves.
func (s *Service) ExecuteBuy(ctx context.Context, mint string, tokenAmount uint64) (*curve.BuyQuote, error) {
	if err := validateMint(mint); err != nil {
		return nil, err
	}
	if err := validateAmount(tokenAmount); err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(mint)
	defer unlock()

	tc, err := s.store.Get(ctx, mint)
	if err != nil {
		return nil, err
	}
	if tc.Graduated {
		return nil, ErrTokenGraduated
	}

	q, err := s.cfg.CalculateBuyCost(tc.VirtualSolReserves, tc.VirtualTokenReserves, tokenAmount, tc.IsLive)
	if err != nil {
		return nil, err
	}

	delta := ledger.TradeDelta{
		VirtualSolReserves:   q.NewVirtualSolReserves,
		VirtualTokenReserves: q.NewVirtualTokenReserves,
		RealSolDelta:         int64(q.SolRequired),
		TokensSoldDelta:      int64(tokenAmount),
		VolumeLamports:       q.SolRequired,
		CreatorFee:           q.CreatorFee,
	}
	if err := s.store.ApplyTrade(ctx, mint, delta); err != nil {
		return nil, fmt.Errorf("apply buy: %w", err)
	}

	s.logger.Debug("Buy executed",
		zap.String("mint", mint),
		zap.Uint64("token_amount", tokenAmount),
		zap.Uint64("sol_required", q.SolRequired),
		zap.Uint64("total_cost", q.TotalCost),
		zap.Bool("is_live", tc.IsLive),
		zap.Float64("price_impact", q.PriceImpact))

	s.publishTrade(mint, events.SideBuy, tokenAmount, q.SolRequired, q.PlatformFee, q.CreatorFee, q.NewPrice, tc.IsLive)

	newRealSol := tc.RealSolReserves + q.SolRequired
	if s.cfg.ShouldGraduate(newRealSol) {
		if err := s.graduate(ctx, mint, newRealSol); err != nil {
			// The trade itself succeeded; graduation is retried by the
			// daemon's sweep on the next pass.
			s.logger.Error("Graduation failed after buy", zap.String("mint", mint), zap.Error(err))
		}
	}

	return q, nil
}

// ExecuteSell quotes and applies a sell under the token's trade lock.
// Large sells are permitted up to the int64 delta range; output just
// approaches zero as the amount grows.
func (s *Service) ExecuteSell(ctx context.Context, mint string, tokenAmount uint64) (*curve.SellQuote, error) {
	if err := validateMint(mint); err != nil {
		return nil, err
	}
	if err := validateAmount(tokenAmount); err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(mint)
	defer unlock()

	tc, err := s.store.Get(ctx, mint)
	if err != nil {
		return nil, err
	}
	if tc.Graduated {
		return nil, ErrTokenGraduated
	}

	q, err := s.cfg.CalculateSellOutput(tc.VirtualSolReserves, tc.VirtualTokenReserves, tokenAmount, tc.IsLive)
	if err != nil {
		return nil, err
	}

	delta := ledger.TradeDelta{
		VirtualSolReserves:   q.NewVirtualSolReserves,
		VirtualTokenReserves: q.NewVirtualTokenReserves,
		RealSolDelta:         -int64(q.SolToReturn),
		TokensSoldDelta:      -int64(tokenAmount),
		VolumeLamports:       q.SolToReturn,
		CreatorFee:           q.CreatorFee,
	}
	if err := s.store.ApplyTrade(ctx, mint, delta); err != nil {
		return nil, fmt.Errorf("apply sell: %w", err)
	}

	s.logger.Debug("Sell executed",
		zap.String("mint", mint),
		zap.Uint64("token_amount", tokenAmount),
		zap.Uint64("sol_to_return", q.SolToReturn),
		zap.Uint64("net_output", q.NetOutput),
		zap.Bool("is_live", tc.IsLive),
		zap.Float64("price_impact", q.PriceImpact))

	s.publishTrade(mint, events.SideSell, tokenAmount, q.SolToReturn, q.PlatformFee, q.CreatorFee, q.NewPrice, tc.IsLive)

	return q, nil
}

// Project returns the derived curve view for a token.
func (s *Service) Project(ctx context.Context, mint string) (*curve.Projection, error) {
	if err := validateMint(mint); err != nil {
		return nil, err
	}

	tc, err := s.store.Get(ctx, mint)
	if err != nil {
		return nil, err
	}

	proj := s.cfg.Project(tc.VirtualSolReserves, tc.VirtualTokenReserves, tc.TokensSold, tc.RealSolReserves)
	return &proj, nil
}

// SweepGraduations marks every active token past the threshold. Covers
// tokens whose graduation write failed right after the triggering buy.
func (s *Service) SweepGraduations(ctx context.Context) error {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active curves: %w", err)
	}

	for _, tc := range active {
		if !s.cfg.ShouldGraduate(tc.RealSolReserves) {
			continue
		}
		if err := s.graduate(ctx, tc.Mint, tc.RealSolReserves); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) graduate(ctx context.Context, mint string, realSolReserves uint64) error {
	if err := s.store.MarkGraduated(ctx, mint, s.cfg.GraduationFeeLamports); err != nil {
		return fmt.Errorf("mark graduated: %w", err)
	}

	s.logger.Info("Token graduated",
		zap.String("mint", mint),
		zap.Uint64("real_sol_reserves", realSolReserves),
		zap.Uint64("graduation_fee", s.cfg.GraduationFeeLamports))

	s.publish(events.TokenGraduatedEvent{
		BaseEvent:       events.BaseEvent{EventType: events.TokenGraduated, EventTime: time.Now().UTC()},
		TokenMint:       mint,
		RealSolReserves: realSolReserves,
		GraduationFee:   s.cfg.GraduationFeeLamports,
	})
	return nil
}

func (s *Service) publishTrade(mint string, side events.TradeSide, tokenAmount, solAmount, platformFee, creatorFee uint64, price float64, isLive bool) {
	s.publish(events.TradeExecutedEvent{
		BaseEvent:   events.BaseEvent{EventType: events.TradeExecuted, EventTime: time.Now().UTC()},
		TokenMint:   mint,
		Side:        side,
		TokenAmount: tokenAmount,
		SolAmount:   solAmount,
		PlatformFee: platformFee,
		CreatorFee:  creatorFee,
		Price:       price,
		IsLive:      isLive,
	})
}

func (s *Service) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event); err != nil {
		s.logger.Warn("Event publish failed",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}
