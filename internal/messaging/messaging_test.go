package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	mqcontracts "shiftdesk/contracts/mq"
	"shiftdesk/pkg/circuitbreaker"
	"shiftdesk/pkg/config"
	"shiftdesk/pkg/outbox"
	"shiftdesk/pkg/trace"
	"shiftdesk/pkg/util"
)

type recordingWriter struct {
	events []*outbox.Event
	err    error
}

func (w *recordingWriter) InsertEvent(_ context.Context, e *outbox.Event) error {
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, e)
	return nil
}

func TestOutboxNotifier_Notify(t *testing.T) {
	w := &recordingWriter{}
	n := NewOutboxNotifier(w, zap.NewNop())
	ctx := trace.WithContext(context.Background(), "trace-1")

	require.NoError(t, n.Notify(ctx, "+15550100", "Hello!"))
	require.NoError(t, n.Notify(ctx, "+15550100", "Hello again!"))
	require.Len(t, w.events, 2)

	e := w.events[0]
	assert.Equal(t, mqcontracts.RoutingKeyMessageSend, e.RoutingKey)
	assert.Equal(t, outbox.StatusPending, e.Status)

	var p mqcontracts.MessageSendPayload
	require.NoError(t, json.Unmarshal(e.Payload, &p))
	assert.Equal(t, "+15550100", p.Recipient)
	assert.Equal(t, "Hello!", p.Message)
	assert.Equal(t, "trace-1", p.TraceID)
	assert.NotEmpty(t, p.MessageID)

	var second mqcontracts.MessageSendPayload
	require.NoError(t, json.Unmarshal(w.events[1].Payload, &second))
	assert.NotEqual(t, p.MessageID, second.MessageID)
}

func TestOutboxNotifier_WriteError(t *testing.T) {
	boom := errors.New("insert failed")
	n := NewOutboxNotifier(&recordingWriter{err: boom}, zap.NewNop())
	assert.ErrorIs(t, n.Notify(context.Background(), "a@b.c", "hi"), boom)
}

func newRelay(t *testing.T, handler http.HandlerFunc) *RelayClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRelayClient(config.RelayConfig{BaseURL: srv.URL + "/", Timeout: time.Second}, zap.NewNop())
}

func TestRelayClient_Send(t *testing.T) {
	var got sendRequest
	var path string
	c := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.Send(context.Background(), "+15550100", "Your shift is filled."))
	assert.Equal(t, "/send_message/", path)
	assert.Equal(t, sendRequest{Recipient: "+15550100", Message: "Your shift is filled."}, got)
}

func TestRelayClient_ErrorsAreClassified(t *testing.T) {
	status := int32(http.StatusBadRequest)
	c := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(atomic.LoadInt32(&status)))
	})

	err := c.Send(context.Background(), "x", "y")
	var re *RelayError
	require.ErrorAs(t, err, &re)
	retry, kind := util.IsRetryableError(err)
	assert.False(t, retry)
	assert.Equal(t, "upstream_rejected", kind)

	atomic.StoreInt32(&status, http.StatusBadGateway)
	err = c.Send(context.Background(), "x", "y")
	retry, kind = util.IsRetryableError(err)
	assert.True(t, retry)
	assert.Equal(t, "upstream_unavailable", kind)
}

func TestRelayClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	c := newRelay(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	threshold := circuitbreaker.DefaultConfig().FailureThreshold
	for i := 0; i < threshold; i++ {
		_ = c.Send(context.Background(), "x", "y")
	}
	err := c.Send(context.Background(), "x", "y")
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitBreakerOpen)
	assert.Equal(t, int32(threshold), atomic.LoadInt32(&calls))
}

func TestRelayClient_NotConfigured(t *testing.T) {
	c := NewRelayClient(config.RelayConfig{}, zap.NewNop())
	assert.ErrorIs(t, c.Send(context.Background(), "x", "y"), ErrRelayNotConfigured)
}
