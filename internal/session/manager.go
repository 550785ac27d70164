package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushire/campushire/internal/cli/auth"
	"github.com/campushire/campushire/internal/cli/client"
	"github.com/campushire/campushire/internal/identity"
)

// storeTimeout bounds credential store writes made while holding the lock.
const storeTimeout = 5 * time.Second

const (
	msgMissingCredentials = "email and password are required"
	msgMissingForm        = "registration form is required"
	msgNetwork            = "Network error. Please check your connection and try again."
	msgInvalidResponse    = "Invalid response from server"
	msgGeneric            = "Something went wrong. Please try again."
)

// ErrSuperseded is reported when a login or registration resolves after a
// logout that happened while it was in flight. Its result is discarded.
var ErrSuperseded = errors.New("authentication superseded by logout")

// API is the backend the Manager authenticates against. *client.Client
// implements it.
type API interface {
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Register(ctx context.Context, reg *identity.Registration) (*client.RegisterResponse, error)
	Me(ctx context.Context) (*identity.User, error)
	SetToken(token string)
	ClearToken()
}

// unauthorizedNotifier is implemented by transports that report 401s.
type unauthorizedNotifier interface {
	OnUnauthorized(fn func())
}

// Result is what Login and Register return to their caller.
type Result struct {
	Success bool
	Error   string

	// Message is the server's informational message, if any.
	Message string

	// SessionStarted is false when a registration succeeded without the
	// backend issuing a token.
	SessionStarted bool
}

type subscriber struct {
	id int
	fn func(State)
}

// Manager is the single source of truth for who is logged in.
type Manager struct {
	api    API
	store  auth.Store
	key    string
	logger zerolog.Logger

	mu           sync.Mutex
	state        State
	generation   uint64
	bootstrapped bool
	subscribers  []subscriber
	nextSubID    int
	pending      []State
	flushing     bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the Manager's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithStoreKey overrides the key the credential is persisted under.
func WithStoreKey(key string) Option {
	return func(m *Manager) {
		m.key = key
	}
}

// New creates a Manager in the Idle state. If api reports unauthorized
// responses, the Manager subscribes to them and logs out when one arrives.
func New(api API, store auth.Store, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		store:  store,
		key:    auth.TokenKey,
		logger: zerolog.Nop(),
		state:  State{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(m)
	}

	if n, ok := api.(unauthorizedNotifier); ok {
		n.OnUnauthorized(m.HandleUnauthorized)
	}

	return m
}

// State returns a snapshot of the current session.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe registers fn to receive every state after each transition, in
// order. The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subscribers {
			if s.id == id {
				m.subscribers = append(m.subscribers[:i:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Bootstrap restores a persisted session. It runs at most once and does
// nothing if the session has already left Idle. A stored credential the
// backend no longer accepts is discarded silently.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.mu.Lock()
	if m.bootstrapped || m.state.Status != StatusIdle {
		m.mu.Unlock()
		return
	}
	m.bootstrapped = true
	gen := m.generation
	m.mu.Unlock()

	token, err := m.store.Get(ctx, m.key)
	if err != nil && !errors.Is(err, auth.ErrNotFound) {
		m.logger.Warn().Err(err).Msg("Failed to read stored credential")
	}
	if err != nil || token == "" {
		m.mu.Lock()
		m.apply(bootstrapSkipped{})
		m.mu.Unlock()
		m.flush()
		return
	}

	m.mu.Lock()
	if gen != m.generation || m.state.Status != StatusIdle {
		// A login or logout finished while the store was being read
		m.mu.Unlock()
		return
	}
	m.api.SetToken(token)
	m.apply(restoreStarted{token: token})
	m.mu.Unlock()
	m.flush()

	user, err := m.api.Me(ctx)

	m.mu.Lock()
	if gen != m.generation {
		// A logout (possibly triggered by this very 401) already reset everything
		m.mu.Unlock()
		m.flush()
		return
	}
	if err != nil || user == nil {
		m.logger.Debug().Err(err).Msg("Stored session is no longer valid, logging out")
		m.clearPersisted()
		m.api.ClearToken()
		m.apply(restoreFailed{})
	} else {
		m.logger.Debug().Str("user_id", user.ID).Msg("Session restored")
		m.apply(restoreSucceeded{user: user})
	}
	m.mu.Unlock()
	m.flush()
}

// Login authenticates with email and password. Failures are returned, never
// panicked or thrown, and leave any existing session untouched.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	gen := m.begin()

	if email == "" || password == "" {
		return m.fail(gen, msgMissingCredentials)
	}

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.logger.Debug().Err(err).Str("email", email).Msg("Login failed")
		return m.fail(gen, errorMessage(err))
	}

	return m.establish(ctx, gen, resp.Token, resp.User, "")
}

// Register submits a registration. When the backend issues a token the
// session is stored regardless of role; otherwise the session is left as is
// and Result.SessionStarted is false.
func (m *Manager) Register(ctx context.Context, reg *identity.Registration) Result {
	gen := m.begin()

	if reg == nil {
		return m.fail(gen, msgMissingForm)
	}

	resp, err := m.api.Register(ctx, reg)
	if err != nil {
		m.logger.Debug().Err(err).Str("email", reg.Email).Msg("Registration failed")
		return m.fail(gen, errorMessage(err))
	}

	if resp.Token != "" && resp.User != nil {
		return m.establish(ctx, gen, resp.Token, resp.User, resp.Message)
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return Result{Error: ErrSuperseded.Error()}
	}
	m.apply(authSettled{})
	m.mu.Unlock()
	m.flush()

	return Result{Success: true, Message: resp.Message}
}

// Logout clears the persisted credential, the in-memory credential, the
// Authorization header and the identity. It is synchronous, idempotent and
// safe to call while another action is in flight; that action's result is
// then discarded.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.generation++
	m.clearPersisted()
	m.api.ClearToken()
	m.apply(loggedOut{})
	m.mu.Unlock()
	m.flush()
}

// HandleUnauthorized reacts to a 401 from any authenticated request.
func (m *Manager) HandleUnauthorized() {
	m.logger.Info().Msg("Session rejected by server, logging out")
	m.Logout()
}

// ClearError clears LastError.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.apply(errorCleared{})
	m.mu.Unlock()
	m.flush()
}

// begin moves to Authenticating and returns the generation the attempt
// belongs to.
func (m *Manager) begin() uint64 {
	m.mu.Lock()
	if m.state.Status == StatusRestoring {
		// Abandon the restore: its result must not land on top of this attempt
		m.generation++
		m.clearPersisted()
		m.api.ClearToken()
	}
	gen := m.generation
	m.apply(authStarted{})
	m.mu.Unlock()
	m.flush()
	return gen
}

// fail records message as LastError, passes through Failed and settles in Ready.
func (m *Manager) fail(gen uint64, message string) Result {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return Result{Error: ErrSuperseded.Error()}
	}
	m.apply(authFailed{message: message})
	m.apply(authSettled{})
	m.mu.Unlock()
	m.flush()

	return Result{Error: message}
}

// establish persists token and installs the new session. The store write, the
// header and the state change happen under one lock so a concurrent Logout
// either precedes all of them or undoes all of them.
func (m *Manager) establish(ctx context.Context, gen uint64, token string, user *identity.User, message string) Result {
	if token == "" || user == nil {
		return m.fail(gen, msgInvalidResponse)
	}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return Result{Error: ErrSuperseded.Error()}
	}
	setCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	err := m.store.Set(setCtx, m.key, token)
	cancel()
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to persist credential")
		m.mu.Unlock()
		return m.fail(gen, "failed to persist session: "+err.Error())
	}
	m.api.SetToken(token)
	m.apply(authSucceeded{token: token, user: user})
	m.mu.Unlock()
	m.flush()

	m.logger.Debug().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("Session established")

	return Result{Success: true, Message: message, SessionStarted: true}
}

// clearPersisted deletes the stored credential. Must hold m.mu.
func (m *Manager) clearPersisted() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Delete(ctx, m.key); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to delete stored credential")
	}
}

// apply folds a into the state and queues the result for subscribers.
// Must hold m.mu.
func (m *Manager) apply(a action) {
	m.state = reduce(m.state, a)
	if len(m.subscribers) > 0 {
		m.pending = append(m.pending, m.state.clone())
	}
}

// flush delivers queued states outside the lock. Only one goroutine delivers
// at a time, so subscribers see transitions in order and may call back into
// the Manager.
func (m *Manager) flush() {
	m.mu.Lock()
	if m.flushing {
		m.mu.Unlock()
		return
	}
	m.flushing = true
	for len(m.pending) > 0 {
		batch := m.pending
		m.pending = nil
		subs := append([]subscriber(nil), m.subscribers...)
		m.mu.Unlock()

		for _, st := range batch {
			for _, s := range subs {
				s.fn(st)
			}
		}

		m.mu.Lock()
	}
	m.flushing = false
	m.mu.Unlock()
}

// errorMessage maps a transport error to the text shown to the user.
func errorMessage(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, client.ErrNetwork):
		return msgNetwork
	case errors.Is(err, client.ErrInvalidResponse):
		return msgInvalidResponse
	default:
		return msgGeneric
	}
}
