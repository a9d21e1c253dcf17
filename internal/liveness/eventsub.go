package liveness

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultEventSubURL = "wss://eventsub.wss.twitch.tv/ws"

const (
	msgSessionWelcome   = "session_welcome"
	msgSessionKeepalive = "session_keepalive"
	msgSessionReconnect = "session_reconnect"
	msgNotification     = "notification"

	subStreamOnline  = "stream.online"
	subStreamOffline = "stream.offline"
)

type eventSubMessage struct {
	Metadata struct {
		MessageType string `json:"message_type"`
	} `json:"metadata"`
	Payload struct {
		Session struct {
			ID           string `json:"id"`
			ReconnectURL string `json:"reconnect_url"`
		} `json:"session"`
		Subscription struct {
			Type string `json:"type"`
		} `json:"subscription"`
		Event struct {
			BroadcasterUserLogin string `json:"broadcaster_user_login"`
		} `json:"event"`
	} `json:"payload"`
}

// SessionFunc registers EventSub subscriptions for a new websocket
// session. It receives the session id the subscriptions must bind to.
type SessionFunc func(ctx context.Context, sessionID string) error

// StatusFunc receives push-delivered liveness flips.
type StatusFunc func(ctx context.Context, login string, isLive bool)

// EventSubConn maintains a Twitch EventSub websocket session and
// delivers stream.online/stream.offline notifications. It complements
// the poll watcher with near-instant flips for subscribed channels.
type EventSubConn struct {
	url       string
	onSession SessionFunc
	onStatus  StatusFunc
	logger    *zap.Logger
}

func NewEventSubConn(onSession SessionFunc, onStatus StatusFunc, logger *zap.Logger) *EventSubConn {
	return &EventSubConn{
		url:       defaultEventSubURL,
		onSession: onSession,
		onStatus:  onStatus,
		logger:    logger.Named("eventsub"),
	}
}

// Run keeps the session alive until the context is cancelled,
// reconnecting with exponential backoff after failures.
func (e *EventSubConn) Run(ctx context.Context) error {
	url := e.url
	for {
		next, err := e.runSession(ctx, url)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			e.logger.Warn("EventSub session ended", zap.Error(err))
		}
		if next != "" {
			// Twitch handed us a reconnect URL; use it immediately.
			url = next
			continue
		}
		url = e.url

		if err := e.waitBeforeReconnect(ctx); err != nil {
			return err
		}
	}
}

func (e *EventSubConn) waitBeforeReconnect(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(policy.NextBackOff()):
		return nil
	}
}

// runSession reads one websocket session to completion. A non-empty
// return URL means Twitch requested a reconnect.
func (e *EventSubConn) runSession(ctx context.Context, url string) (string, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to dial eventsub: %w", err)
	}
	defer conn.Close()

	// Close the socket when the context is cancelled to unblock ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("eventsub read failed: %w", err)
		}

		var msg eventSubMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			e.logger.Warn("Dropping malformed eventsub message", zap.Error(err))
			continue
		}

		switch msg.Metadata.MessageType {
		case msgSessionWelcome:
			e.logger.Info("EventSub session established",
				zap.String("session_id", msg.Payload.Session.ID))
			if e.onSession != nil {
				if err := e.onSession(ctx, msg.Payload.Session.ID); err != nil {
					return "", fmt.Errorf("failed to register subscriptions: %w", err)
				}
			}
		case msgSessionKeepalive:
			// Nothing to do; receipt alone keeps the session healthy.
		case msgSessionReconnect:
			return msg.Payload.Session.ReconnectURL, nil
		case msgNotification:
			e.handleNotification(ctx, msg)
		}
	}
}

func (e *EventSubConn) handleNotification(ctx context.Context, msg eventSubMessage) {
	login := msg.Payload.Event.BroadcasterUserLogin
	switch msg.Payload.Subscription.Type {
	case subStreamOnline:
		e.onStatus(ctx, login, true)
	case subStreamOffline:
		e.onStatus(ctx, login, false)
	default:
		e.logger.Debug("Ignoring eventsub notification",
			zap.String("type", msg.Payload.Subscription.Type))
	}
}
