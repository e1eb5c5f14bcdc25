package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// realtimeServer accepts sockets, records the join topics of each and lets
// the test decide what happens next per connection.
func realtimeServer(t *testing.T, onConn func(ctx context.Context, n int32, conn *websocket.Conn, topics []string)) *httptest.Server {
	t.Helper()
	var conns atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon-key", r.URL.Query().Get("apikey"))

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()
		var topics []string
		for i := 0; i < 2; i++ {
			var join frame
			if err := wsjson.Read(ctx, conn, &join); err != nil {
				return
			}
			assert.Equal(t, eventJoin, join.Event)
			assert.NotEmpty(t, join.Ref)
			topics = append(topics, join.Topic)
		}
		onConn(ctx, conns.Add(1), conn, topics)
	}))
	t.Cleanup(server.Close)
	return server
}

// drain reads until the client goes away.
func drain(ctx context.Context, conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func change(table, eventType string) frame {
	return frame{
		Topic:   topicFor(table),
		Event:   eventChange,
		Payload: []byte(`{"eventType":"` + eventType + `","new":{"id":1}}`),
	}
}

func TestRealtime_DeliversChanges(t *testing.T) {
	server := realtimeServer(t, func(ctx context.Context, n int32, conn *websocket.Conn, topics []string) {
		assert.Equal(t, []string{"realtime:public:version", "realtime:public:paypal"}, topics)
		_ = wsjson.Write(ctx, conn, frame{Topic: "phoenix", Event: "phx_reply", Payload: []byte(`{}`)})
		_ = wsjson.Write(ctx, conn, change("version", "UPDATE"))
		_ = wsjson.Write(ctx, conn, change("paypal", "INSERT"))
		drain(ctx, conn)
	})

	rt := NewRealtime(server.URL, "anon-key")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan ChangeEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- rt.Subscribe(ctx, []string{"version", "paypal"}, func(e ChangeEvent) { events <- e })
	}()

	first := <-events
	assert.Equal(t, "version", first.Table)
	assert.Equal(t, "UPDATE", first.EventType)
	assert.JSONEq(t, `{"id":1}`, string(first.New))

	second := <-events
	assert.Equal(t, "paypal", second.Table)

	cancel()
	require.NoError(t, <-done)
}

func TestRealtime_Reconnects(t *testing.T) {
	server := realtimeServer(t, func(ctx context.Context, n int32, conn *websocket.Conn, topics []string) {
		if n == 1 {
			return // drop the first connection right after the joins
		}
		_ = wsjson.Write(ctx, conn, change("version", "UPDATE"))
		drain(ctx, conn)
	})

	rt := NewRealtime(server.URL, "anon-key")
	rt.reconnectMin = 10 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan ChangeEvent, 1)
	go func() {
		_ = rt.Subscribe(ctx, []string{"version", "paypal"}, func(e ChangeEvent) { events <- e })
	}()

	select {
	case e := <-events:
		assert.Equal(t, "version", e.Table)
	case <-ctx.Done():
		t.Fatal("no event after reconnect")
	}
}

func TestRealtime_NotConfigured(t *testing.T) {
	err := NewRealtime("", "").Subscribe(context.Background(), []string{"version"}, func(ChangeEvent) {})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTableFromTopic(t *testing.T) {
	assert.Equal(t, "version", tableFromTopic("realtime:public:version"))
	assert.Equal(t, "plain", tableFromTopic("plain"))
}
