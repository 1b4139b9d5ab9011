package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"roomchatgo/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrRateLimited = errors.New("rate limit exceeded, slow down")

const handlerTimeout = 2 * time.Second

// DefaultReadLimit fits a maximum length text even when every character is
// sent as an escaped surrogate pair (\uXXXX\uXXXX, 12 bytes), plus the JSON
// envelope.
const DefaultReadLimit = 32 << 10

// Options tunes the transport side of every session.
type Options struct {
	DefaultRoom    string
	AllowedOrigins []string
	ReadLimit      int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

// ErrorResponse is the JSON body of a refused /ws request.
type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

// ConnectQuery holds the parameters of a /ws request.
type ConnectQuery struct {
	Username string `form:"username" binding:"required,max=64"`
	Room     string `form:"room"     binding:"max=64"`
}

type WsServer struct {
	hub      *Hub
	router   *Router
	limiter  ratelimit.Limiter
	upgrader websocket.Upgrader
	opts     Options

	mu       sync.Mutex // orders sessions.Add before sessions.Wait
	closed   bool
	sessions sync.WaitGroup
}

// NewWsServer wires the session layer to hub. limiter may be nil.
func NewWsServer(h *Hub, limiter ratelimit.Limiter, opts Options) *WsServer {
	if opts.ReadLimit < DefaultReadLimit {
		opts.ReadLimit = DefaultReadLimit
	}
	srv := &WsServer{
		hub:     h,
		router:  NewRouter(),
		limiter: limiter,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     newOriginPolicy(opts.AllowedOrigins).check,
		},
	}
	srv.registerHandlers() // ← all message types configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry‑point
// ---------------------------------------------------------------------------

// Handle admits one websocket client. Query: username (required), room
// (optional, defaults to the lobby).
//
// @Summary		Open a chat session
// @Description	Upgrades to a websocket and joins the room.
// @Tags			Chat
// @Param			username	query	string	true	"Display name"	maxlength(64)
// @Param			room		query	string	false	"Room name"		maxlength(64)	default(lobby)
// @Success		101
// @Failure		400	{object}	ErrorResponse
// @Failure		503	{object}	ErrorResponse
// @Router			/ws [get]
func (s *WsServer) Handle(ginCtx *gin.Context) {
	var q ConnectQuery
	if err := ginCtx.ShouldBindQuery(&q); err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid query parameter: username"})
		return
	}
	room := strings.TrimSpace(q.Room)
	if room == "" {
		room = s.opts.DefaultRoom
	}

	ch := newClientConn(ginCtx.Writer, ginCtx.Request, &s.upgrader, s.opts)
	conn, err := NewConn(ch, strings.TrimSpace(q.Username), room)
	if err != nil {
		ginCtx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if !s.admit() {
		ginCtx.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: ErrHubClosed.Error()})
		return
	}
	if err := s.hub.Connect(conn); err != nil {
		s.sessions.Done()
		switch {
		case ch.accepted():
			_ = ch.Close(websocket.CloseGoingAway, "server shutting down")
		case errors.Is(err, ErrHubClosed):
			ginCtx.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		default:
			// the upgrader has already answered the request
			zap.L().Warn("ws.accept", zap.Error(err))
		}
		return
	}

	// ─────────────────── Client joined ────────────────────────
	s.announce(JoinedMessage(conn.Identity(), conn.Room()))

	stop := make(chan struct{})
	go s.reader(conn, ch, stop)
	go s.pinger(conn, ch, stop)
}

// admit counts a new session unless Shutdown has started.
func (s *WsServer) admit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions.Add(1)
	return true
}

// Shutdown signals every live session to close and waits for them to leave
// the registry, or for ctx to expire.
func (s *WsServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.Shutdown()

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 chat ----------------------------------------------------------------
	Register(
		s.router,
		KindChat,
		func(ctx context.Context, cc *ConnContext, req InMessage) error {
			if !s.allow(ctx, cc.Conn.Identity()) {
				return ErrRateLimited
			}
			s.announce(ChatMessage(cc.Conn.Identity(), cc.Conn.Room(), req.Text))
			return nil
		},
	)
}

// allow fails open: a broken limiter backend must not silence the chat.
func (s *WsServer) allow(ctx context.Context, identity string) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allow(ctx, identity)
	if err != nil {
		zap.L().Warn("ws.rate_limit_unavailable", zap.String("user", identity), zap.Error(err))
		return true
	}
	return ok
}

func (s *WsServer) announce(msg OutMessage) {
	payload, err := msg.Encode()
	if err != nil {
		zap.L().Error("ws.encode", zap.String("room", msg.Room), zap.Error(err))
		return
	}
	s.hub.Broadcast(msg.Room, payload)
}

func (s *WsServer) reader(conn *Conn, ch *clientConn, stop chan struct{}) {
	defer func() {
		close(stop)
		s.hub.Disconnect(conn)
		s.announce(LeftMessage(conn.Identity(), conn.Room()))
		_ = ch.Close(websocket.CloseNormalClosure, "")
		s.sessions.Done()
	}()

	cc := &ConnContext{Conn: conn, Server: s}

	for {
		raw, err := ch.read()
		if errors.Is(err, ErrFrameTooLarge) {
			_ = ch.writeJSON(ErrorBody{Type: KindError, Error: err.Error()})
			continue
		}
		if err != nil {
			logReadError(conn, err)
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		err = s.router.dispatch(ctx, cc, raw)
		cancel()

		// ---- rejected -> {"type":"error","error":"..."} to the sender only ----
		if err != nil {
			zap.L().Debug("ws.rejected",
				zap.String("user", conn.Identity()),
				zap.String("room", conn.Room()),
				zap.Error(err),
			)
			_ = ch.writeJSON(ErrorBody{Type: KindError, Error: describe(err)})
		}
	}
}

func (s *WsServer) pinger(conn *Conn, ch *clientConn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-conn.Dead():
			_ = ch.Close(websocket.CloseGoingAway, "connection dropped")
			return
		case <-ticker.C:
			if err := ch.ping(); err != nil {
				_ = ch.Close(websocket.CloseGoingAway, "ping timeout")
				return
			}
		}
	}
}

func logReadError(conn *Conn, err error) {
	fields := []zap.Field{
		zap.String("user", conn.Identity()),
		zap.String("room", conn.Room()),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		zap.L().Warn("ws.read_limit", fields...)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		zap.L().Warn("ws.read", fields...)
	default:
		zap.L().Info("ws.closed", fields...)
	}
}
