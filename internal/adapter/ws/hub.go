// Package ws streams a member's live package projections over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redcloud442/aurora/internal/usecase/claim"
	"github.com/redcloud442/aurora/internal/usecase/dashboard"
	"github.com/redcloud442/aurora/internal/usecase/ticker"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	noticeBuffer   = 16
)

// SessionProvider hands out a member's live dashboard session.
// The session stays open until every holder has called release.
type SessionProvider interface {
	Acquire(ctx context.Context, memberID uuid.UUID) (sess *dashboard.Session, release func(), err error)
}

// Authenticator resolves a bearer token to a member id
type Authenticator interface {
	MemberID(token string) (uuid.UUID, error)
}

// PackagePayload is the wire form of a projection update
type PackagePayload struct {
	PositionID      string `json:"position_id"`
	PercentComplete string `json:"percent_complete"`
	CurrentValue    string `json:"current_value"`
	ReadyToClaim    bool   `json:"ready_to_claim"`
	State           string `json:"state"`
}

// RemovedPayload tells the client to drop a position that was claimed or is no longer listed
type RemovedPayload struct {
	PositionID string `json:"position_id"`
}

// NoticePayload is the wire form of a user-visible notice
type NoticePayload struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type message struct {
	Type    string `json:"type"` // "package", "removed" or "notice"
	Payload any    `json:"payload"`
}

// Hub tracks the open connections of every member
type Hub struct {
	sessions SessionProvider
	auth     Authenticator
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]struct{}
}

// NewHub creates a Hub. allowedOrigins empty accepts any origin.
func NewHub(sessions SessionProvider, auth Authenticator, allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		sessions: sessions,
		auth:     auth,
		logger:   logger.With(zap.String("component", "ws")),
		clients:  make(map[uuid.UUID]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// client holds one connection. Package updates are coalesced per position so
// a slow reader always ends up with the latest projection of each position.
type client struct {
	conn *websocket.Conn

	mu      sync.Mutex
	pending map[uuid.UUID]ticker.Update
	order   []uuid.UUID
	wake    chan struct{}

	notices chan claim.Notice
	done    chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn:    conn,
		pending: make(map[uuid.UUID]ticker.Update),
		wake:    make(chan struct{}, 1),
		notices: make(chan claim.Notice, noticeBuffer),
		done:    make(chan struct{}),
	}
}

// HandleWS authenticates the caller, upgrades the connection and streams
// the member's package projections until the client disconnects.
// GET /ws/packages?token=<jwt>
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
	}
	memberID, err := h.auth.MemberID(token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sess, release, err := h.sessions.Acquire(r.Context(), memberID)
	if err != nil {
		h.logger.Error("failed to load session", zap.String("member_id", memberID.String()), zap.Error(err))
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		release()
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn)
	for _, view := range sess.Packages() {
		c.enqueue(ticker.Update{
			PositionID: view.Position.ID,
			Projection: view.Projection,
			State:      view.State,
		})
	}

	h.register(memberID, c)
	unsubscribe := sess.Subscribe(c.enqueue)

	go func() {
		c.writePump(h.logger)
		unsubscribe()
		h.unregister(memberID, c)
		release()
	}()
	go c.readPump()
}

// Notify pushes a notice to every open connection of the member
func (h *Hub) Notify(memberID uuid.UUID, n claim.Notice) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[memberID] {
		select {
		case c.notices <- n:
		default:
			h.logger.Warn("dropping notice for slow client", zap.String("member_id", memberID.String()))
		}
	}
}

// Connections returns the number of open connections of the member
func (h *Hub) Connections(memberID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[memberID])
}

// Close drops every open connection; their pumps exit and unregister
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.clients {
		for c := range conns {
			_ = c.conn.Close()
		}
	}
}

func (h *Hub) register(memberID uuid.UUID, c *client) {
	h.mu.Lock()
	if h.clients[memberID] == nil {
		h.clients[memberID] = make(map[*client]struct{})
	}
	h.clients[memberID][c] = struct{}{}
	total := len(h.clients[memberID])
	h.mu.Unlock()

	h.logger.Info("client connected", zap.String("member_id", memberID.String()), zap.Int("connections", total))
}

func (h *Hub) unregister(memberID uuid.UUID, c *client) {
	h.mu.Lock()
	delete(h.clients[memberID], c)
	if len(h.clients[memberID]) == 0 {
		delete(h.clients, memberID)
	}
	h.mu.Unlock()

	h.logger.Info("client disconnected", zap.String("member_id", memberID.String()))
}

// enqueue is the ticker observer; it never blocks the ticking goroutine
func (c *client) enqueue(u ticker.Update) {
	c.mu.Lock()
	if _, queued := c.pending[u.PositionID]; !queued {
		c.order = append(c.order, u.PositionID)
	}
	c.pending[u.PositionID] = u
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *client) drain() []ticker.Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ticker.Update, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.pending[id])
	}
	c.pending = make(map[uuid.UUID]ticker.Update)
	c.order = c.order[:0]
	return out
}

func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump(logger *zap.Logger) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	// flush the initial snapshot
	select {
	case c.wake <- struct{}{}:
	default:
	}

	for {
		select {
		case <-c.done:
			return

		case <-c.wake:
			for _, u := range c.drain() {
				m := message{Type: "package", Payload: packagePayload(u)}
				if u.State == ticker.StateRemoved {
					m = message{Type: "removed", Payload: RemovedPayload{PositionID: u.PositionID.String()}}
				}
				if err := c.write(m); err != nil {
					logger.Debug("write failed", zap.Error(err))
					return
				}
			}

		case n := <-c.notices:
			if err := c.write(message{Type: "notice", Payload: NoticePayload{
				Level:   string(n.Level),
				Title:   n.Title,
				Message: n.Message,
			}}); err != nil {
				return
			}

		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(m message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func packagePayload(u ticker.Update) PackagePayload {
	return PackagePayload{
		PositionID:      u.PositionID.String(),
		PercentComplete: u.Projection.PercentComplete.StringFixed(2),
		CurrentValue:    u.Projection.CurrentValue.StringFixed(2),
		ReadyToClaim:    u.Projection.ReadyToClaim,
		State:           string(u.State),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

var _ claim.Notifier = (*Hub)(nil)
