package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"shiftdesk/pkg/trace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	mu      sync.Mutex
	events  []*Event
	sent    []int64
	failed  []int64
	getErr  error
	resetOK map[int64]bool
}

func (s *fakeStore) GetPendingEvents(_ context.Context, limit int) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	var out []*Event
	for _, e := range s.events {
		if e.Status == StatusPending && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) MarkAsSent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, id)
	for _, e := range s.events {
		if e.ID == id {
			e.Status = StatusSent
		}
	}
	return nil
}

func (s *fakeStore) MarkAsFailed(_ context.Context, id int64, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, id)
	return nil
}

func (s *fakeStore) GetEventByID(_ context.Context, id int64) (*Event, error) {
	for _, e := range s.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, ErrEventNotFound
}

func (s *fakeStore) GetFailedEvents(_ context.Context, _ int) ([]*Event, error) {
	var out []*Event
	for _, e := range s.events {
		if e.Status == StatusFailed {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) ResetEvent(_ context.Context, id int64) error {
	if s.resetOK == nil {
		s.resetOK = map[int64]bool{}
	}
	for _, e := range s.events {
		if e.ID == id {
			e.Status = StatusPending
			s.resetOK[id] = true
			return nil
		}
	}
	return ErrEventNotFound
}

type fakePublisher struct {
	mu       sync.Mutex
	keys     []string
	traceIDs []string
	failKey  string
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, key string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if key == p.failKey {
		return errors.New("channel closed")
	}
	p.keys = append(p.keys, key)
	p.traceIDs = append(p.traceIDs, trace.FromContext(ctx))
	return nil
}

func pendingEvent(id int64, key string, payload any) *Event {
	body, _ := json.Marshal(payload)
	return &Event{ID: id, RoutingKey: key, Payload: body, Status: StatusPending}
}

func TestDispatchOnce_PublishesAndMarks(t *testing.T) {
	store := &fakeStore{events: []*Event{
		pendingEvent(1, "message.send", map[string]string{"trace_id": "t-1"}),
		pendingEvent(2, "broken", map[string]string{}),
		pendingEvent(3, "message.send", map[string]string{}),
	}}
	pub := &fakePublisher{failKey: "broken"}

	d := NewDispatcher(store, pub, zap.NewNop())
	sent := d.DispatchOnce(context.Background())

	assert.Equal(t, 2, sent)
	assert.Equal(t, []int64{1, 3}, store.sent)
	assert.Equal(t, []int64{2}, store.failed)
	assert.Equal(t, []string{"t-1", ""}, pub.traceIDs)
}

func TestDispatchOnce_StoreError(t *testing.T) {
	store := &fakeStore{getErr: errors.New("db down")}
	d := NewDispatcher(store, &fakePublisher{}, zap.NewNop())
	assert.Zero(t, d.DispatchOnce(context.Background()))
}

func TestDispatcher_StartStopsOnCancel(t *testing.T) {
	store := &fakeStore{events: []*Event{pendingEvent(1, "message.send", map[string]string{})}}
	pub := &fakePublisher{}
	d := NewDispatcher(store, pub, zap.NewNop()).WithInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.keys) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestReplayService(t *testing.T) {
	failed := pendingEvent(9, "message.send", map[string]string{})
	failed.Status = StatusFailed
	other := pendingEvent(10, "message.send", map[string]string{})
	other.Status = StatusFailed
	store := &fakeStore{events: []*Event{failed, other}}

	svc := NewReplayService(store, zap.NewNop())
	require.NoError(t, svc.ReplayEvent(context.Background(), 9))
	assert.Equal(t, StatusPending, failed.Status)

	n, err := svc.ReplayFailedEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, StatusPending, other.Status)

	assert.ErrorIs(t, svc.ReplayEvent(context.Background(), 99), ErrEventNotFound)
}

type recordingWriter struct{ got *Event }

func (w *recordingWriter) InsertEvent(_ context.Context, e *Event) error {
	w.got = e
	return nil
}

func TestEnqueue(t *testing.T) {
	w := &recordingWriter{}
	id := int64(4)
	err := Enqueue(context.Background(), w, "shift", &id, "message.send", map[string]string{"recipient": "+1555"})
	require.NoError(t, err)
	assert.Equal(t, "message.send", w.got.RoutingKey)
	assert.Equal(t, StatusPending, w.got.Status)
	assert.JSONEq(t, `{"recipient":"+1555"}`, string(w.got.Payload))
}
