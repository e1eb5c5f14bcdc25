package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/mrlokans/prayerbook/internal/logger"
)

const (
	defaultHeartbeat    = 30 * time.Second
	defaultReconnectMin = 1 * time.Second
	defaultReconnectMax = 60 * time.Second

	eventJoin      = "phx_join"
	eventHeartbeat = "heartbeat"
	eventChange    = "postgres_changes"
)

// ChangeEvent is one row change pushed by the realtime socket.
type ChangeEvent struct {
	Table     string          `json:"table"`
	EventType string          `json:"eventType"`
	New       json.RawMessage `json:"new,omitempty"`
	Old       json.RawMessage `json:"old,omitempty"`
}

// ChangeHandler receives change events. It is called from the socket's read
// loop and must not block for long.
type ChangeHandler func(ChangeEvent)

type frame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

type joinPayload struct {
	Config joinConfig `json:"config"`
}

type joinConfig struct {
	PostgresChanges []postgresChange `json:"postgres_changes"`
}

type postgresChange struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

// Realtime subscribes to row changes of remote tables over a websocket.
type Realtime struct {
	endpoint     string
	apiKey       string
	heartbeat    time.Duration
	reconnectMin time.Duration
	reconnectMax time.Duration
	log          *log.Logger
}

// NewRealtime creates a realtime subscriber for the given websocket endpoint.
func NewRealtime(endpoint, apiKey string) *Realtime {
	return &Realtime{
		endpoint:     endpoint,
		apiKey:       apiKey,
		heartbeat:    defaultHeartbeat,
		reconnectMin: defaultReconnectMin,
		reconnectMax: defaultReconnectMax,
		log:          logger.With("realtime"),
	}
}

// Subscribe joins one channel per table and delivers their change events to
// handler. It reconnects with exponential backoff when the socket drops and
// returns once ctx is done.
func (r *Realtime) Subscribe(ctx context.Context, tables []string, handler ChangeHandler) error {
	if r.endpoint == "" {
		return ErrNotConfigured
	}
	if len(tables) == 0 {
		return errors.New("realtime: no tables to subscribe to")
	}

	delay := r.reconnectMin
	for {
		connected, err := r.session(ctx, tables, handler)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			delay = r.reconnectMin
		}
		r.log.Warn("realtime connection lost", "err", err, "retry_in", delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > r.reconnectMax {
			delay = r.reconnectMax
		}
	}
}

// session runs one connection until it fails. connected reports whether the
// joins went through, which resets the reconnect backoff.
func (r *Realtime) session(ctx context.Context, tables []string, handler ChangeHandler) (connected bool, err error) {
	endpoint, err := r.dialURL()
	if err != nil {
		return false, err
	}

	header := http.Header{}
	if r.apiKey != "" {
		header.Set("apikey", r.apiKey)
	}
	conn, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return false, fmt.Errorf("dial realtime: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(1 << 20)

	for _, table := range tables {
		payload, _ := json.Marshal(joinPayload{Config: joinConfig{
			PostgresChanges: []postgresChange{{Event: "*", Schema: "public", Table: table}},
		}})
		join := frame{Topic: topicFor(table), Event: eventJoin, Payload: payload, Ref: uuid.NewString()}
		if err := wsjson.Write(ctx, conn, join); err != nil {
			return false, fmt.Errorf("join %s: %w", table, err)
		}
	}
	r.log.Info("realtime subscribed", "tables", strings.Join(tables, ","))

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.keepAlive(sessionCtx, conn)

	for {
		var msg frame
		if err := wsjson.Read(sessionCtx, conn, &msg); err != nil {
			return true, err
		}
		if msg.Event != eventChange {
			continue
		}
		var change ChangeEvent
		if err := json.Unmarshal(msg.Payload, &change); err != nil {
			r.log.Warn("realtime: undecodable change", "topic", msg.Topic, "err", err)
			continue
		}
		if change.Table == "" {
			change.Table = tableFromTopic(msg.Topic)
		}
		handler(change)
	}
}

func (r *Realtime) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			beat := frame{Topic: "phoenix", Event: eventHeartbeat, Payload: json.RawMessage(`{}`), Ref: uuid.NewString()}
			if err := wsjson.Write(ctx, conn, beat); err != nil {
				return
			}
		}
	}
}

func (r *Realtime) dialURL() (string, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse realtime endpoint: %w", err)
	}
	q := u.Query()
	if r.apiKey != "" {
		q.Set("apikey", r.apiKey)
	}
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func topicFor(table string) string {
	return "realtime:public:" + table
}

func tableFromTopic(topic string) string {
	if i := strings.LastIndex(topic, ":"); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
