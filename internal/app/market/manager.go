package market

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"gardentrade/internal/app/session"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
	"gardentrade/internal/pkg/randx"
)

const (
	// DefaultIdleTimeout drops views that saw no request for this long.
	DefaultIdleTimeout = 30 * time.Minute

	cleanupInterval = time.Minute
)

type entry struct {
	view     *View
	lastSeen atomic.Int64
}

// Manager owns every live view, keyed by session id. A signed-out view is
// parked under its username so the next login of that user resumes its
// catalog, draft and chat state.
type Manager struct {
	deps        Deps
	idleTimeout time.Duration
	now         func() time.Time
	newID       func() (string, error)

	mu     sync.RWMutex
	views  map[string]*entry
	parked map[string]*entry

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger zerolog.Logger
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithIdleTimeout sets how long an unused view survives.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.idleTimeout = d
		}
	}
}

// WithManagerClock overrides the clock used for idle tracking.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithSessionIDGenerator overrides session id generation.
func WithSessionIDGenerator(newID func() (string, error)) ManagerOption {
	return func(m *Manager) { m.newID = newID }
}

// NewManager starts a manager and its idle cleanup loop.
func NewManager(deps Deps, opts ...ManagerOption) *Manager {
	m := &Manager{
		deps:        deps,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		newID:       randx.SessionID,
		views:       make(map[string]*entry),
		parked:      make(map[string]*entry),
		stopChan:    make(chan struct{}),
		logger:      logx.Component("market"),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.wg.Add(1)
	go m.runCleanupLoop()

	return m
}

// Login signs a view in and registers it. The view the user last signed out
// of is reused when it is still parked; otherwise a fresh one is created. It
// returns the session id that identifies the view in later calls.
func (m *Manager) Login(ctx context.Context, username, password string) (string, *View, session.Session, error) {
	v, resumed := m.unpark(username)
	if !resumed {
		v = NewView(m.deps)
	}

	s, err := v.Login(ctx, username, password)
	if err != nil {
		if resumed {
			m.park(username, v)
		}
		return "", nil, s, err
	}
	id, err := m.add(v)
	if err != nil {
		return "", nil, session.Session{}, err
	}
	m.logger.Info().Str("session_id", id).Str("username", s.Username).Bool("resumed", resumed).Msg("Session started.")
	return id, v, s, nil
}

// Register creates an account, signs a fresh view in and registers it.
func (m *Manager) Register(ctx context.Context, username, email, password string) (string, *View, session.Session, error) {
	v := NewView(m.deps)
	s, err := v.Register(ctx, username, email, password)
	if err != nil {
		return "", nil, s, err
	}
	id, err := m.add(v)
	if err != nil {
		return "", nil, session.Session{}, err
	}
	m.logger.Info().Str("session_id", id).Str("username", s.Username).Msg("Account registered.")
	return id, v, s, nil
}

func (m *Manager) add(v *View) (string, error) {
	e := &entry{view: v}
	e.lastSeen.Store(m.now().UnixNano())

	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		id, err := m.newID()
		if err != nil {
			return "", errs.Wrap(errs.ErrUnknown, err)
		}
		if m.views[id] == nil {
			m.views[id] = e
			return id, nil
		}
	}
}

// Get returns the view of id and marks it as used.
func (m *Manager) Get(id string) (*View, bool) {
	m.mu.RLock()
	e, ok := m.views[id]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	e.lastSeen.Store(m.now().UnixNano())
	return e.view, true
}

// Logout signs the view of id out and retires the session id. The view is
// parked for the user's next login. It reports whether the session existed.
func (m *Manager) Logout(id string) bool {
	m.mu.Lock()
	e, ok := m.views[id]
	delete(m.views, id)
	m.mu.Unlock()

	if !ok {
		return false
	}

	username := e.view.Session().Username
	e.view.Logout()
	if username != "" {
		m.park(username, e.view)
	}

	m.logger.Info().Str("session_id", id).Msg("Session ended.")
	return true
}

func parkKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// park keeps v for the next login of username, replacing an older parked view.
func (m *Manager) park(username string, v *View) {
	e := &entry{view: v}
	e.lastSeen.Store(m.now().UnixNano())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.parked[parkKey(username)] = e
}

// unpark removes and returns the parked view of username.
func (m *Manager) unpark(username string) (*View, bool) {
	key := parkKey(username)

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.parked[key]
	if !ok {
		return nil, false
	}
	delete(m.parked, key)
	return e.view, true
}

// Len returns the number of live views.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.views)
}

func (m *Manager) runCleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.expire(m.now()); n > 0 {
				m.logger.Info().Int("expired", n).Int("remaining", m.Len()).Msg("Idle sessions expired.")
			}
		case <-m.stopChan:
			return
		}
	}
}

// expire drops live and parked views idle since before now minus the idle
// timeout and returns how many live sessions were dropped.
func (m *Manager) expire(now time.Time) int {
	cutoff := now.Add(-m.idleTimeout).UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.views {
		if e.lastSeen.Load() < cutoff {
			delete(m.views, id)
			n++
		}
	}
	for key, e := range m.parked {
		if e.lastSeen.Load() < cutoff {
			delete(m.parked, key)
		}
	}
	return n
}

// Shutdown stops the cleanup loop. Views stay readable.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stopChan) })
	m.wg.Wait()
}
