package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/beacon/pkg/observability"
)

// Notifier delivers alert events to an external system
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, ev Event) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// LogNotifier writes every event to a logger
type LogNotifier struct {
	Logger *observability.Logger
}

// Notify logs the event
func (n *LogNotifier) Notify(ctx context.Context, ev Event) error {
	n.Logger.WithFields(map[string]interface{}{
		"event":    string(ev.Kind),
		"alert_id": ev.Alert.ID,
		"type":     ev.Alert.Type,
		"severity": string(ev.Alert.Severity),
	}).Info(ev.Alert.Message)
	return nil
}

// Webhook headers
const (
	HeaderEvent     = "X-Beacon-Event"
	HeaderAlertID   = "X-Beacon-Alert-ID"
	HeaderSignature = "X-Beacon-Signature"
)

// RetryConfig controls webhook redelivery with exponential backoff
type RetryConfig struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns three attempts starting at 500ms
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// delay returns the wait before retry number attempt (1-based)
func (c RetryConfig) delay(attempt int) time.Duration {
	if attempt <= 1 {
		return c.InitialDelay
	}
	d := float64(c.InitialDelay) * math.Pow(c.BackoffMultiplier, float64(attempt-1))
	if d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// WebhookNotifier POSTs events as JSON. When Secret is set the body is
// signed with HMAC-SHA256 in the X-Beacon-Signature header.
type WebhookNotifier struct {
	URL    string
	Secret string
	Client *http.Client
	Retry  RetryConfig
}

// NewWebhookNotifier creates a webhook notifier with the default retry policy
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Secret: secret,
		Client: &http.Client{Timeout: 10 * time.Second},
		Retry:  DefaultRetryConfig(),
	}
}

// Notify delivers the event, retrying failed attempts until the retry
// budget or ctx runs out
func (n *WebhookNotifier) Notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	attempts := n.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = n.send(ctx, ev, payload); lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("webhook delivery cancelled: %w", lastErr)
		case <-time.After(n.Retry.delay(attempt)):
		}
	}
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", attempts, lastErr)
}

func (n *WebhookNotifier) send(ctx context.Context, ev Event, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, string(ev.Kind))
	req.Header.Set(HeaderAlertID, ev.Alert.ID)
	if n.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(payload, n.Secret))
	}

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the "sha256=<hex>" HMAC of payload
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches payload
func VerifySignature(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(signature))
}

// RedisNotifier publishes events as JSON on a Redis channel
type RedisNotifier struct {
	Client  redis.Cmdable
	Channel string
}

// Notify publishes the event
func (n *RedisNotifier) Notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := n.Client.Publish(ctx, n.Channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish alert event: %w", err)
	}
	return nil
}
