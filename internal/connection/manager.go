package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/walletdesk/bitget-relay/internal/auth"
	"github.com/walletdesk/bitget-relay/internal/dispatch"
	"github.com/walletdesk/bitget-relay/internal/model"
	"github.com/walletdesk/bitget-relay/internal/router"
	"github.com/walletdesk/bitget-relay/internal/subs"
)

// userSessions is the per-user pair of endpoint sessions. Either side may
// be nil when the user's registry has nothing for it.
type userSessions struct {
	registry *subs.Registry
	creds    auth.Credentials
	private  *Session
	public   *Session
}

// Manager owns all live sessions, one private and at most one public per
// user. Concurrent Start calls for the same user collapse into a single
// connection attempt.
type Manager struct {
	cfg        ManagerConfig
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger

	mu    sync.Mutex
	users map[string]*userSessions
	group singleflight.Group
}

// NewManager builds a Manager that emits all classified events into the
// given dispatcher.
func NewManager(cfg ManagerConfig, dispatcher *dispatch.Dispatcher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
		users:      make(map[string]*userSessions),
	}
}

// Start brings up the user's sessions for the given channel specs. A user
// who is already started is left untouched; concurrent calls for the same
// user produce exactly one set of sessions.
func (m *Manager) Start(userID string, creds auth.Credentials, specs []subs.Spec) error {
	_, err, _ := m.group.Do(userID, func() (any, error) {
		return nil, m.startLocked(userID, creds, specs)
	})
	return err
}

func (m *Manager) startLocked(userID string, creds auth.Credentials, specs []subs.Spec) error {
	m.mu.Lock()
	if _, exists := m.users[userID]; exists {
		m.mu.Unlock()
		m.logger.Debug("sessions already running", "user", userID)
		return nil
	}

	registry := subs.NewRegistry(specs)
	us := &userSessions{registry: registry, creds: creds}

	if registry.HasPrivate() {
		us.private = m.newSessionFor(userID, KindPrivate, m.cfg.PrivateURL, creds, registry)
	}
	if registry.HasTickers() {
		us.public = m.newSessionFor(userID, KindPublic, m.cfg.PublicURL, auth.Credentials{}, registry)
	}
	m.users[userID] = us
	m.mu.Unlock()

	if us.private != nil {
		us.private.Start()
	}
	if us.public != nil {
		us.public.Start()
	}

	m.logger.Info("sessions started",
		"user", userID,
		"private", us.private != nil,
		"public", us.public != nil,
	)
	return nil
}

func (m *Manager) newSessionFor(userID string, kind Kind, url string, creds auth.Credentials, registry *subs.Registry) *Session {
	logger := m.logger.With("user", userID, "kind", kind)
	emit := func(ev model.Event) {
		m.dispatcher.Emit(context.Background(), ev)
	}
	return newSession(
		kind,
		m.cfg.sessionConfig(url),
		creds,
		registry,
		router.New(userID, logger),
		emit,
		logger,
	)
}

// SubscribeTicker adds a public ticker for a started user. The public
// session is created lazily if the user had none; a ticker already in the
// registry is a no-op. A send on a not-yet-connected session is fine: the
// registry is replayed on connect.
func (m *Manager) SubscribeTicker(userID, instID string) error {
	m.mu.Lock()
	us, ok := m.users[userID]
	if !ok {
		m.mu.Unlock()
		return ErrNotStarted
	}

	id, added := us.registry.AddTicker(instID)
	if !added {
		m.mu.Unlock()
		return nil
	}

	var started *Session
	if us.public == nil {
		us.public = m.newSessionFor(userID, KindPublic, m.cfg.PublicURL, auth.Credentials{}, us.registry)
		started = us.public
	}
	pub := us.public
	m.mu.Unlock()

	if started != nil {
		started.Start()
		// The new session subscribes from the registry during connect.
		return nil
	}

	if err := pub.Subscribe(subs.TickerArg(id)); err != nil && !errors.Is(err, ErrNotConnected) {
		return err
	}
	return nil
}

// UnsubscribeTicker removes a public ticker. Unknown tickers are a no-op.
func (m *Manager) UnsubscribeTicker(userID, instID string) error {
	m.mu.Lock()
	us, ok := m.users[userID]
	if !ok {
		m.mu.Unlock()
		return ErrNotStarted
	}

	id, removed := us.registry.RemoveTicker(instID)
	pub := us.public
	m.mu.Unlock()

	if !removed || pub == nil {
		return nil
	}
	if err := pub.Unsubscribe(subs.TickerArg(id)); err != nil && !errors.Is(err, ErrNotConnected) {
		return err
	}
	return nil
}

// Tickers returns the user's current public set, sorted.
func (m *Manager) Tickers(userID string) []string {
	m.mu.Lock()
	us, ok := m.users[userID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return us.registry.Tickers()
}

// Close tears down the user's sessions. Idempotent.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	us, ok := m.users[userID]
	delete(m.users, userID)
	m.mu.Unlock()
	if !ok {
		return
	}

	if us.private != nil {
		us.private.Close()
	}
	if us.public != nil {
		us.public.Close()
	}
	m.logger.Info("sessions stopped", "user", userID)
}

// CloseAll tears down every user's sessions.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.users
	m.users = make(map[string]*userSessions)
	m.mu.Unlock()

	for userID, us := range all {
		if us.private != nil {
			us.private.Close()
		}
		if us.public != nil {
			us.public.Close()
		}
		m.logger.Info("sessions stopped", "user", userID)
	}
}

// Users returns the IDs of all started users, for health reporting.
func (m *Manager) Users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	return ids
}
