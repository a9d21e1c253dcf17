package liveness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	defaultHelixURL = "https://api.twitch.tv/helix"

	// Helix caps user_login query parameters per request.
	maxLoginsPerRequest = 100
)

var ErrUserNotFound = fmt.Errorf("twitch user not found")

// StreamStatus describes the current broadcast state of one channel.
type StreamStatus struct {
	Login       string
	IsLive      bool
	ViewerCount int
	Title       string
	StartedAt   time.Time
}

// Client talks to the Twitch Helix API with automatic token refresh
// and exponential retry on transient failures.
type Client struct {
	tokens     *TokenSource
	clientID   string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(tokens *TokenSource, clientID string, logger *zap.Logger) *Client {
	return &Client{
		tokens:     tokens,
		clientID:   clientID,
		baseURL:    defaultHelixURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.Named("twitch"),
	}
}

// CheckStream reports whether a single channel is currently live.
func (c *Client) CheckStream(ctx context.Context, login string) (*StreamStatus, error) {
	statuses, err := c.BatchCheckStreams(ctx, []string{login})
	if err != nil {
		return nil, err
	}
	st, ok := statuses[login]
	if !ok {
		// No stream entry means the channel exists but is offline.
		st = StreamStatus{Login: login}
	}
	return &st, nil
}

// BatchCheckStreams checks up to any number of logins, chunked to the
// Helix per-request limit. The result only contains entries for live
// channels plus offline placeholders for every requested login.
func (c *Client) BatchCheckStreams(ctx context.Context, logins []string) (map[string]StreamStatus, error) {
	result := make(map[string]StreamStatus, len(logins))
	for _, login := range logins {
		result[login] = StreamStatus{Login: login}
	}

	for start := 0; start < len(logins); start += maxLoginsPerRequest {
		end := start + maxLoginsPerRequest
		if end > len(logins) {
			end = len(logins)
		}
		if err := c.checkChunk(ctx, logins[start:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (c *Client) checkChunk(ctx context.Context, logins []string, result map[string]StreamStatus) error {
	q := url.Values{}
	for _, login := range logins {
		q.Add("user_login", login)
	}

	var body struct {
		Data []struct {
			UserLogin   string    `json:"user_login"`
			Type        string    `json:"type"`
			Title       string    `json:"title"`
			ViewerCount int       `json:"viewer_count"`
			StartedAt   time.Time `json:"started_at"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/streams", q, &body); err != nil {
		return err
	}

	for _, s := range body.Data {
		result[s.UserLogin] = StreamStatus{
			Login:       s.UserLogin,
			IsLive:      s.Type == "live",
			ViewerCount: s.ViewerCount,
			Title:       s.Title,
			StartedAt:   s.StartedAt,
		}
	}
	return nil
}

// VerifyUsername resolves a login to its Twitch user ID, or
// ErrUserNotFound when no such channel exists.
func (c *Client) VerifyUsername(ctx context.Context, login string) (string, error) {
	var body struct {
		Data []struct {
			ID    string `json:"id"`
			Login string `json:"login"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/users", url.Values{"login": {login}}, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", ErrUserNotFound
	}
	return body.Data[0].ID, nil
}

// SubscribeStreamStatus registers stream.online and stream.offline
// EventSub subscriptions for a broadcaster on a websocket session.
func (c *Client) SubscribeStreamStatus(ctx context.Context, sessionID, broadcasterID string) error {
	for _, subType := range []string{subStreamOnline, subStreamOffline} {
		body := map[string]any{
			"type":    subType,
			"version": "1",
			"condition": map[string]string{
				"broadcaster_user_id": broadcasterID,
			},
			"transport": map[string]string{
				"method":     "websocket",
				"session_id": sessionID,
			},
		}
		if err := c.post(ctx, "/eventsub/subscriptions", body); err != nil {
			return fmt.Errorf("subscribe %s for %s: %w", subType, broadcasterID, err)
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	operation := func() (struct{}, error) {
		err := c.doSend(ctx, http.MethodPost, path, body)
		return struct{}{}, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(4))
	return err
}

func (c *Client) doSend(ctx context.Context, method, path string, body any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return backoff.Permanent(err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("helix request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		c.tokens.Invalidate()
		return fmt.Errorf("helix returned 401")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("helix returned status %d", resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("helix returned status %d", resp.StatusCode))
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	operation := func() (struct{}, error) {
		err := c.doGet(ctx, path, q, out)
		return struct{}{}, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(4),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.logger.Warn("Helix request failed, retrying",
				zap.String("path", path), zap.Duration("retry_in", d), zap.Error(err))
		}))
	return err
}

func (c *Client) doGet(ctx context.Context, path string, q url.Values, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("helix request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusUnauthorized:
		// Expired token; discard it and retry with a fresh one.
		c.tokens.Invalidate()
		return fmt.Errorf("helix returned 401")
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("helix returned status %d", resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("helix returned status %d", resp.StatusCode))
	}
}
