package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Taichi-iskw/audiorefresh/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockPublisher is a testify mock for Publisher
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event Event) error {
	return m.Called(ctx, event).Error(0)
}

func sampleEvent() Event {
	return Event{
		Type:       EventSpontaneouslyUpdated,
		RecordID:   "rec-1",
		Language:   "en",
		JobKind:    "transcription",
		OccurredAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookPublisher_Publish(t *testing.T) {
	var received Event
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "spontaneously_updated", r.Header.Get("X-Event-Type"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	p := NewWebhookPublisher(ts.URL, time.Second)
	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.Equal(t, sampleEvent(), received)
}

func TestWebhookPublisher_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := NewWebhookPublisher(ts.URL, time.Second).Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook returned 500: nope")
}

func TestNewWebhookPublisher_EmptyEndpoint(t *testing.T) {
	p := NewWebhookPublisher("  ", 0)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
}

func TestLogPublisher_Publish(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	require.NoError(t, err)

	ctx := logging.WithCorrelationID(context.Background())
	require.NoError(t, NewLogPublisher(logger).Publish(ctx, sampleEvent()))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "spontaneously_updated", entry[logging.FieldEventType])
	assert.Equal(t, "rec-1", entry[logging.FieldRecordID])
	assert.Equal(t, "notify", entry[logging.FieldComponent])
	assert.NotEmpty(t, entry[logging.FieldCorrelationID])
}

func TestMultiPublisher_DeliversToAll(t *testing.T) {
	first := &mockPublisher{}
	second := &mockPublisher{}
	first.On("Publish", mock.Anything, sampleEvent()).Return(errors.New("first down"))
	second.On("Publish", mock.Anything, sampleEvent()).Return(nil)

	err := NewMultiPublisher(first, nil, second).Publish(context.Background(), sampleEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "first down")
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestHub_BroadcastsToSubscribers(t *testing.T) {
	hub := NewHub(nil)
	ts := httptest.NewServer(hub)
	defer ts.Close()
	defer hub.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	connA, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer connA.Close()
	connB, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer connB.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), sampleEvent()))

	for _, conn := range []*websocket.Conn{connA, connB} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, sampleEvent(), got)
	}
}

func TestHub_RemovesDisconnectedSubscribers(t *testing.T) {
	hub := NewHub(nil)
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, hub.Publish(context.Background(), sampleEvent()))
}
