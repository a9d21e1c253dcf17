package liveness

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/events"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/ledger"
)

// StreamChecker is the slice of Client the watcher needs.
type StreamChecker interface {
	BatchCheckStreams(ctx context.Context, logins []string) (map[string]StreamStatus, error)
}

// Watcher periodically polls stream status for every active token and
// writes liveness flips back to the ledger. Each flip switches the
// creator fee rate for all subsequent trades on that curve.
type Watcher struct {
	store    ledger.Store
	checker  StreamChecker
	bus      *events.Bus
	interval time.Duration
	logger   *zap.Logger
}

func NewWatcher(store ledger.Store, checker StreamChecker, bus *events.Bus, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Watcher{
		store:    store,
		checker:  checker,
		bus:      bus,
		interval: interval,
		logger:   logger.Named("liveness"),
	}
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				w.logger.Error("Liveness poll failed", zap.Error(err))
			}
		}
	}
}

// Poll runs a single status sweep over all non-graduated tokens.
func (w *Watcher) Poll(ctx context.Context) error {
	tokens, err := w.store.ListActive(ctx)
	if err != nil {
		return err
	}

	byLogin := make(map[string][]*ledger.TokenCurve)
	logins := make([]string, 0, len(tokens))
	for _, tc := range tokens {
		if tc.TwitchLogin == "" {
			continue
		}
		if _, seen := byLogin[tc.TwitchLogin]; !seen {
			logins = append(logins, tc.TwitchLogin)
		}
		byLogin[tc.TwitchLogin] = append(byLogin[tc.TwitchLogin], tc)
	}
	if len(logins) == 0 {
		return nil
	}

	statuses, err := w.checker.BatchCheckStreams(ctx, logins)
	if err != nil {
		return err
	}

	for login, curves := range byLogin {
		status, ok := statuses[login]
		if !ok {
			continue
		}
		for _, tc := range curves {
			if tc.IsLive == status.IsLive {
				continue
			}
			if err := w.store.SetLiveStatus(ctx, tc.Mint, status.IsLive); err != nil {
				w.logger.Error("Failed to update live status",
					zap.String("mint", tc.Mint), zap.Error(err))
				continue
			}
			w.logger.Info("Stream status changed",
				zap.String("mint", tc.Mint),
				zap.String("login", login),
				zap.Bool("is_live", status.IsLive),
				zap.Int("viewers", status.ViewerCount))
			w.publishFlip(tc.Mint, login, status)
		}
	}
	return nil
}

// ApplyPush records a push-delivered liveness flip for every active
// token bound to the login. Used by the EventSub path.
func (w *Watcher) ApplyPush(ctx context.Context, login string, isLive bool) error {
	tokens, err := w.store.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, tc := range tokens {
		if tc.TwitchLogin != login || tc.IsLive == isLive {
			continue
		}
		if err := w.store.SetLiveStatus(ctx, tc.Mint, isLive); err != nil {
			return err
		}
		w.logger.Info("Stream status changed",
			zap.String("mint", tc.Mint),
			zap.String("login", login),
			zap.Bool("is_live", isLive),
			zap.String("source", "eventsub"))
		w.publishFlip(tc.Mint, login, StreamStatus{Login: login, IsLive: isLive})
	}
	return nil
}

func (w *Watcher) publishFlip(mint, login string, status StreamStatus) {
	if w.bus == nil {
		return
	}
	if err := w.bus.Publish(events.StreamStatusChangedEvent{
		BaseEvent:   events.BaseEvent{EventType: events.StreamStatusChanged, EventTime: time.Now().UTC()},
		TokenMint:   mint,
		TwitchLogin: login,
		IsLive:      status.IsLive,
		ViewerCount: status.ViewerCount,
	}); err != nil {
		w.logger.Warn("Failed to publish stream status event", zap.Error(err))
	}
}
