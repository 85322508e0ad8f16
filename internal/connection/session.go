package connection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/walletdesk/bitget-relay/internal/auth"
	"github.com/walletdesk/bitget-relay/internal/model"
	"github.com/walletdesk/bitget-relay/internal/router"
	"github.com/walletdesk/bitget-relay/internal/subs"
	"github.com/walletdesk/bitget-relay/internal/wire"
)

// EmitFunc receives each classified domain event from a session.
type EmitFunc func(model.Event)

// Session is one physical WebSocket connection plus its lifecycle state.
// Owned exclusively by the Manager that created it.
type Session struct {
	kind       Kind
	cfg        SessionConfig
	creds      auth.Credentials // zero for public sessions
	registry   *subs.Registry
	classifier *router.Classifier
	emit       EmitFunc
	logger     *slog.Logger

	// All lifecycle state mutates under mu.
	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	lastErr  error
	attempt  uint
	closed   bool
	loginTmr *time.Timer

	writeMu sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
}

func newSession(
	kind Kind,
	cfg SessionConfig,
	creds auth.Credentials,
	registry *subs.Registry,
	classifier *router.Classifier,
	emit EmitFunc,
	logger *slog.Logger,
) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		kind:       kind,
		cfg:        cfg,
		creds:      creds,
		registry:   registry,
		classifier: classifier,
		emit:       emit,
		logger:     logger,
		state:      StateConnecting,
		done:       make(chan struct{}),
	}
}

// Start launches the session's connect/read/reconnect loop.
func (s *Session) Start() {
	s.wg.Add(1)
	go s.run()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the most recent transport error, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close terminates the session permanently: keepalive and any pending
// reconnect are cancelled atomically with the close. Safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = StateClosing
	if s.loginTmr != nil {
		s.loginTmr.Stop()
		s.loginTmr = nil
	}
	conn := s.conn
	s.mu.Unlock()

	close(s.done)
	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}
	s.logger.Info("session closed", "kind", s.kind)
}

// Subscribe sends an incremental subscribe frame. Returns ErrNotConnected
// when the session is not live; callers treat that as a safe no-op since
// the registry is replayed on the next (re)connect.
func (s *Session) Subscribe(args ...wire.SubscribeArg) error {
	return s.sendOp(wire.SubscribeFrame, args)
}

// Unsubscribe sends an incremental unsubscribe frame.
func (s *Session) Unsubscribe(args ...wire.SubscribeArg) error {
	return s.sendOp(wire.UnsubscribeFrame, args)
}

func (s *Session) sendOp(build func([]wire.SubscribeArg) ([]byte, error), args []wire.SubscribeArg) error {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()

	if conn == nil || state != StateConnected {
		return ErrNotConnected
	}
	frame, err := build(args)
	if err != nil {
		return err
	}
	return s.send(conn, frame)
}

// run is the session's main loop: connect, serve, reconnect after the
// fixed delay, forever, until Close.
func (s *Session) run() {
	defer s.wg.Done()

	for {
		if s.isClosed() {
			s.setState(StateClosed)
			return
		}

		err := s.connectAndServe()

		if s.isClosed() {
			s.setState(StateClosed)
			return
		}
		if err != nil {
			s.logger.Warn("session disconnected",
				"kind", s.kind,
				"error", err,
			)
		}

		s.mu.Lock()
		s.attempt++
		attempt := s.attempt
		s.mu.Unlock()

		s.logger.Info("scheduling reconnect",
			"kind", s.kind,
			"attempt", attempt,
			"delay", s.cfg.ReconnectDelay,
		)

		select {
		case <-s.done:
			s.setState(StateClosed)
			return
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

// connectAndServe dials once and reads frames until the connection dies.
func (s *Session) connectAndServe() error {
	s.setState(StateConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
	conn, _, err := dialer.Dial(s.cfg.URL, nil)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	s.conn = conn
	s.attempt = 0
	s.mu.Unlock()

	defer func() {
		s.disarmLoginTimeout()
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	stopPing := make(chan struct{})
	defer close(stopPing)
	s.wg.Add(1)
	go s.keepaliveLoop(conn, stopPing)

	s.logger.Info("transport open", "kind", s.kind, "url", s.cfg.URL)

	if s.kind == KindPrivate {
		// Fresh login: the next account payload is authoritative again.
		s.classifier.ResetAccountPhase()
		s.setState(StateAuthenticating)
		if err := s.sendLogin(conn); err != nil {
			s.setErr(err)
			return err
		}
		s.armLoginTimeout(conn)
	} else {
		s.setState(StateSubscribing)
		if err := s.subscribeAll(conn, s.registry.PublicArgs()); err != nil {
			s.setErr(err)
			return err
		}
		s.setState(StateConnected)
	}

	for {
		_, data, err := conn.ReadMessage()
		receivedAt := time.Now()
		if err != nil {
			s.setErr(err)
			return err
		}
		s.onFrame(conn, data, receivedAt)
	}
}

// onFrame handles one inbound frame. A bad frame is logged and dropped;
// it never tears the session down.
func (s *Session) onFrame(conn *websocket.Conn, data []byte, receivedAt time.Time) {
	if wire.IsKeepalive(data) {
		return
	}

	f, err := wire.Decode(data)
	if err != nil {
		s.logger.Warn("dropping malformed frame", "kind", s.kind, "error", err)
		return
	}

	if f.IsControl() {
		s.handleControl(conn, f)
		return
	}

	if ev, ok := s.classifier.Classify(f, receivedAt); ok {
		s.emit(ev)
	}
}

func (s *Session) handleControl(conn *websocket.Conn, f wire.Frame) {
	switch f.Event {
	case wire.EventLogin:
		if !f.Code.OK() {
			s.logger.Warn("login rejected, forcing reconnect",
				"code", f.Code.String(),
				"msg", f.Msg,
			)
			conn.Close()
			return
		}
		s.disarmLoginTimeout()
		s.logger.Info("authenticated")
		s.setState(StateSubscribing)
		if err := s.subscribeAll(conn, s.registry.PrivateArgs()); err != nil {
			s.logger.Warn("private subscribe failed", "error", err)
			conn.Close()
			return
		}
		s.setState(StateConnected)

	case wire.EventSubscribe:
		s.logger.Debug("subscribed",
			"channel", f.Arg.Channel,
			"instId", f.Arg.InstID,
			"coin", f.Arg.Coin,
		)

	case wire.EventError:
		s.logger.Warn("venue error",
			"code", f.Code.String(),
			"msg", f.Msg,
		)

	default:
		s.logger.Debug("unhandled event", "event", f.Event)
	}
}

func (s *Session) sendLogin(conn *websocket.Conn) error {
	ts := auth.Timestamp()
	frame, err := wire.LoginFrame(wire.LoginArg{
		APIKey:     s.creds.APIKey,
		Passphrase: s.creds.Passphrase,
		Timestamp:  ts,
		Sign:       auth.LoginSign(s.creds.Secret, ts),
	})
	if err != nil {
		return err
	}
	return s.send(conn, frame)
}

// subscribeAll sends the registry's current set as one subscribe frame.
// An empty set is a no-op.
func (s *Session) subscribeAll(conn *websocket.Conn, args []wire.SubscribeArg) error {
	if len(args) == 0 {
		return nil
	}
	frame, err := wire.SubscribeFrame(args)
	if err != nil {
		return err
	}
	return s.send(conn, frame)
}

// keepaliveLoop writes the venue's literal "ping" text while Connected.
// It stops with its connection; no pong is awaited.
func (s *Session) keepaliveLoop(conn *websocket.Conn, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-s.done:
			return
		case <-ticker.C:
			if s.State() != StateConnected {
				continue
			}
			if err := s.send(conn, []byte("ping")); err != nil {
				s.logger.Debug("keepalive send failed", "error", err)
				return
			}
		}
	}
}

// armLoginTimeout forces a reconnect if login neither succeeds nor fails
// within the configured window.
func (s *Session) armLoginTimeout(conn *websocket.Conn) {
	if s.cfg.LoginTimeout <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginTmr = time.AfterFunc(s.cfg.LoginTimeout, func() {
		if s.State() != StateAuthenticating {
			return
		}
		s.logger.Warn("login timed out, forcing reconnect", "timeout", s.cfg.LoginTimeout)
		conn.Close()
	})
}

func (s *Session) disarmLoginTimeout() {
	s.mu.Lock()
	if s.loginTmr != nil {
		s.loginTmr.Stop()
		s.loginTmr = nil
	}
	s.mu.Unlock()
}

func (s *Session) send(conn *websocket.Conn, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	if !s.closed || state == StateClosed {
		s.state = state
	}
	s.mu.Unlock()
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
