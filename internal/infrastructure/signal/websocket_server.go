package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"relaycast/internal/core/domain"
	"relaycast/internal/core/ports"
	"relaycast/internal/core/services"
	"relaycast/pkg/tracing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds the delivery channel's transport knobs.
type Config struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	SendBuffer     int
	AllowedOrigins []string

	// MessagesPerSecond <= 0 disables per-connection rate limiting.
	MessagesPerSecond float64
	Burst             int
}

// envelope is the wire frame in both directions: a type tag plus an
// event-specific payload.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outEnvelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// connection pairs a socket with its buffered outbound queue. All
// writes go through the queue so a slow peer never blocks dispatch.
type connection struct {
	id   domain.ConnID
	sock *websocket.Conn
	send chan outEnvelope

	done      chan struct{}
	closeOnce sync.Once
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sock.Close()
	})
}

// WebSocketServer is the bidirectional delivery channel: it assigns
// connection identities, feeds inbound events to the relay and
// dispatches the resulting notifications best-effort.
type WebSocketServer struct {
	relay   ports.Relay
	metrics ports.Metrics
	cfg     Config

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[domain.ConnID]*connection

	logger *zap.SugaredLogger
}

var _ ports.Sender = (*WebSocketServer)(nil)

func NewWebSocketServer(relay ports.Relay, metrics ports.Metrics, cfg Config, logger *zap.SugaredLogger) *WebSocketServer {
	s := &WebSocketServer{
		relay:   relay,
		metrics: metrics,
		cfg:     cfg,
		conns:   make(map[domain.ConnID]*connection),
		logger:  logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *WebSocketServer) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	conn := &connection{
		id:   domain.ConnID(uuid.NewString()),
		sock: sock,
		send: make(chan outEnvelope, s.cfg.SendBuffer),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.conns[conn.id] = conn
	s.mu.Unlock()

	s.metrics.PeerConnected()
	s.logger.Infow("connection established", "conn_id", conn.id, "remote_addr", sock.RemoteAddr())

	go s.writePump(conn)

	s.Send(conn.id, services.EventWelcome, services.WelcomePayload{ConnectionID: string(conn.id)})

	s.readLoop(conn)

	// Abrupt or orderly, teardown is the same: drop the connection,
	// then let the relay compute the cleanup notifications.
	s.mu.Lock()
	delete(s.conns, conn.id)
	s.mu.Unlock()
	conn.close()

	s.metrics.PeerDisconnected()
	outs := s.relay.HandleDisconnect(context.Background(), conn.id)
	s.dispatch(outs)

	s.logger.Infow("connection closed", "conn_id", conn.id)
}

func (s *WebSocketServer) readLoop(conn *connection) {
	sock := conn.sock
	sock.SetReadLimit(s.cfg.MaxMessageSize)
	sock.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
	sock.SetPongHandler(func(string) error {
		sock.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
		return nil
	})

	var limiter *rate.Limiter
	if s.cfg.MessagesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.MessagesPerSecond), s.cfg.Burst)
	}

	for {
		var msg envelope
		if err := sock.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Infow("read failed", "conn_id", conn.id, "error", err)
			}
			return
		}
		sock.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))

		if limiter != nil && !limiter.Allow() {
			s.Send(conn.id, services.EventError, services.ErrorPayload{
				Code:    "RATE_LIMIT_EXCEEDED",
				Message: "too many messages",
			})
			continue
		}

		ctx, span := tracing.TraceSignalEvent(context.Background(), msg.Type, string(conn.id))
		outs := s.relay.HandleEvent(ctx, conn.id, msg.Type, msg.Payload)
		span.End()

		s.dispatch(outs)
	}
}

func (s *WebSocketServer) writePump(conn *connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case env := <-conn.send:
			conn.sock.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.sock.WriteJSON(env); err != nil {
				conn.close()
				return
			}
		case <-ticker.C:
			conn.sock.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.close()
				return
			}
		case <-conn.done:
			return
		}
	}
}

func (s *WebSocketServer) dispatch(outs []ports.Outbound) {
	for _, out := range outs {
		if out.Broadcast {
			s.Broadcast(out.Event, out.Payload)
			continue
		}
		s.Send(out.Target, out.Event, out.Payload)
	}
}

// Send enqueues one event for target. Unknown targets and full queues
// are dropped; a full queue also drops the connection since the peer is
// not draining it.
func (s *WebSocketServer) Send(target domain.ConnID, event string, payload interface{}) {
	s.mu.RLock()
	conn, ok := s.conns[target]
	s.mu.RUnlock()
	if !ok {
		s.metrics.NotificationDropped()
		return
	}

	select {
	case conn.send <- outEnvelope{Type: event, Payload: payload}:
	default:
		s.metrics.NotificationDropped()
		s.logger.Warnw("send queue full, dropping connection", "conn_id", target, "event", event)
		conn.close()
	}
}

// Broadcast enqueues one event for every currently connected identity.
func (s *WebSocketServer) Broadcast(event string, payload interface{}) {
	s.mu.RLock()
	targets := make([]domain.ConnID, 0, len(s.conns))
	for id := range s.conns {
		targets = append(targets, id)
	}
	s.mu.RUnlock()

	for _, id := range targets {
		s.Send(id, event, payload)
	}
}

// ConnectionCount reports the number of live connections.
func (s *WebSocketServer) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Close drops every connection; per-connection cleanup runs in the
// handlers as their read loops fail.
func (s *WebSocketServer) Close() {
	s.mu.RLock()
	conns := make([]*connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		c.close()
	}
}
