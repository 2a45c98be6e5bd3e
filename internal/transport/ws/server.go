package ws

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwrk-planet/relay-service/internal/domain"
	"github.com/cwrk-planet/relay-service/internal/ratelimit"

	"github.com/gorilla/websocket"
)

type Options struct {
	SendBuffer     int
	WriteWait      time.Duration
	PingEvery      time.Duration
	MaxMessageSize int64

	// frames per second and burst allowed per connection; 0 disables the limit
	FrameRate  int
	FrameBurst int
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PingEvery <= 0 {
		o.PingEvery = 30 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 64 << 10
	}
	if o.FrameRate > 0 && o.FrameBurst <= 0 {
		o.FrameBurst = o.FrameRate
	}
	return o
}

// Server upgrades HTTP requests to websocket sessions and runs one session
// loop per connection.
type Server struct {
	upgrader websocket.Upgrader
	rooms    Rooms
	hub      *Hub
	opts     Options

	mu       sync.Mutex
	sessions map[*wsConn]struct{}
	closing  bool
	wg       sync.WaitGroup
}

func NewServer(rooms Rooms, hub *Hub, opts Options) *Server {
	return &Server{
		rooms: rooms,
		hub:   hub,
		opts:  opts.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[*wsConn]struct{}),
	}
}

// HandleWS: GET /ws
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written an error response
		slog.Warn("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newWsConn(conn, r.RemoteAddr, s.opts.SendBuffer)
	if !s.track(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(s.opts.WriteWait))
		_ = conn.Close()
		return
	}
	defer s.wg.Done()

	slog.Info("ws connected", "conn", c.id, "remote", c.addr)

	go c.writePump(s.opts.PingEvery, s.opts.WriteWait)

	err = s.readLoop(c)
	s.cleanup(c, err)
}

// readLoop runs until the transport closes and returns that close wrapped in
// domain.ErrTransportClosed.
func (s *Server) readLoop(c *wsConn) error {
	var limiter *ratelimit.Bucket
	if s.opts.FrameRate > 0 {
		limiter = ratelimit.NewBucket(s.opts.FrameBurst, time.Duration(float64(time.Second)*float64(s.opts.FrameBurst)/float64(s.opts.FrameRate)))
	}

	pongWait := 2 * s.opts.PingEvery
	c.conn.SetReadLimit(s.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if isUnexpectedReadError(err) {
				logConnError("ws read failed", c, err)
			}
			return fmt.Errorf("%w: %v", domain.ErrTransportClosed, err)
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if limiter != nil && !limiter.Allow() {
			s.reply(c, StatusFailed, msgRateLimited)
			continue
		}

		s.handleFrame(c, data)
	}
}

// handleFrame dispatches one inbound frame. Every error is answered on c
// only; none of them end the session.
func (s *Server) handleFrame(c *wsConn, data []byte) {
	f, err := parseFrame(data)
	if err != nil {
		slog.Debug("ws invalid frame", "conn", c.id, "err", err)
		s.reply(c, StatusFailed, msgInvalidFormat)
		return
	}

	switch f.Type {
	case TypeJoinRoom:
		s.handleJoin(c, f)
	case TypeChat:
		s.handleChat(c, f)
	default:
		// unsupported types are ignored
	}
}

func (s *Server) handleJoin(c *wsConn, f Frame) {
	if err := s.rooms.AddMember(f.RoomName, c); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			s.reply(c, StatusFailed, msgRoomNotFound)
			return
		}
		slog.Debug("ws join failed", "conn", c.id, "room", f.RoomName, "err", err)
		return
	}
	c.setUsername(f.Username)

	// queued before the ack, so the joiner always sees its own notice first
	if _, err := s.hub.Broadcast(f.RoomName, encode(joinNotice(f.Username))); err != nil {
		slog.Warn("ws join notice failed", "conn", c.id, "room", f.RoomName, "err", err)
	}
	s.reply(c, StatusSuccess, msgJoined)

	slog.Info("ws joined room", "conn", c.id, "room", f.RoomName, "username", f.Username)
}

func (s *Server) handleChat(c *wsConn, f Frame) {
	if !s.rooms.Exists(f.RoomName) {
		s.reply(c, StatusFailed, msgRoomNotFound)
		return
	}

	n, err := s.hub.Broadcast(f.RoomName, encode(ChatFrame{
		Type:     TypeChat,
		Username: f.Username,
		Message:  f.Message,
	}))
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			s.reply(c, StatusFailed, msgRoomNotFound)
			return
		}
		slog.Warn("ws chat broadcast failed", "conn", c.id, "room", f.RoomName, "err", err)
		return
	}
	slog.Debug("ws chat relayed", "conn", c.id, "room", f.RoomName, "delivered", n)
}

func (s *Server) reply(c *wsConn, status, message string) {
	if err := c.sendJSON(StatusFrame{Status: status, Message: message}); err != nil {
		slog.Debug("ws reply dropped", "conn", c.id, "err", err)
	}
}

// cleanup runs once per session: the connection is marked closed before it
// leaves the registry, so a concurrent broadcast either skips it or fails
// its Send with ErrConnClosed.
func (s *Server) cleanup(c *wsConn, reason error) {
	c.markClosed()
	s.rooms.RemoveMember(c)
	s.untrack(c)
	<-c.done

	slog.Info("ws disconnected", "conn", c.id, "remote", c.addr, "username", c.Username(), "reason", reason)
}

// track registers a new session. It refuses once Shutdown has started, so
// no session can slip past the shutdown snapshot.
func (s *Server) track(c *wsConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return false
	}
	s.sessions[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *wsConn) {
	s.mu.Lock()
	delete(s.sessions, c)
	s.mu.Unlock()
}

// ActiveSessions reports the number of open websocket sessions.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Shutdown closes every open session and waits until each one has left the
// registry, or until timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.mu.Lock()
	s.closing = true
	conns := make([]*wsConn, 0, len(s.sessions))
	for c := range s.sessions {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		// unblocks ReadMessage; the session loop then runs cleanup
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			logConnError("ws close failed", c, err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("ws sessions closed", "count", len(conns))
		return nil
	case <-time.After(timeout):
		return errors.New("ws shutdown timed out")
	}
}

// isUnexpectedReadError filters out the ordinary ways a peer goes away,
// including dropping the TCP connection without a close frame.
func isUnexpectedReadError(err error) bool {
	if isExpectedCloseError(err) {
		return false
	}
	return websocket.IsUnexpectedCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure,
	)
}

func logConnError(msg string, c *wsConn, err error) {
	slog.Warn(msg, "conn", c.id, "remote", c.addr, "err", err)
}
