package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/beacon/pkg/observability"
)

func testEvent() Event {
	return Event{
		Kind:      EventTriggered,
		Alert:     Alert{ID: "high-cpu-1", Type: "resource", Severity: SeverityHigh, Message: "CPU usage is 91%"},
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookNotifier_SignsPayload(t *testing.T) {
	var (
		gotBody []byte
		gotSig  string
		gotKind string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(HeaderSignature)
		gotKind = r.Header.Get(HeaderEvent)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, "s3cret")
	require.NoError(t, n.Notify(context.Background(), testEvent()))

	assert.Equal(t, string(EventTriggered), gotKind)
	assert.True(t, VerifySignature(gotBody, gotSig, "s3cret"))
	assert.False(t, VerifySignature(gotBody, gotSig, "other"))

	var ev Event
	require.NoError(t, json.Unmarshal(gotBody, &ev))
	assert.Equal(t, "high-cpu-1", ev.Alert.ID)
}

func TestWebhookNotifier_Retries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := &WebhookNotifier{URL: server.URL, Retry: RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiplier: 2}}
	require.NoError(t, n.Notify(context.Background(), testEvent()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, -10)
	err := n.Notify(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryConfig_Delay(t *testing.T) {
	c := RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffMultiplier: 2}
	assert.Equal(t, 100*time.Millisecond, c.delay(1))
	assert.Equal(t, 200*time.Millisecond, c.delay(2))
	assert.Equal(t, 400*time.Millisecond, c.delay(3))
	assert.Equal(t, time.Second, c.delay(10))
}

func TestRedisNotifier_Publishes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "beacon:alerts")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	n := &RedisNotifier{Client: client, Channel: "beacon:alerts"}
	require.NoError(t, n.Notify(ctx, testEvent()))

	select {
	case msg := <-sub.Channel():
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, EventTriggered, ev.Kind)
		assert.Equal(t, SeverityHigh, ev.Alert.Severity)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := &LogNotifier{Logger: observability.NewLogger(observability.InfoLevel, &buf)}
	require.NoError(t, n.Notify(context.Background(), testEvent()))
	assert.Contains(t, buf.String(), "CPU usage is 91%")
	assert.Contains(t, buf.String(), `"alert_id":"high-cpu-1"`)
}
