// Package session owns the client's authentication state: the bearer token,
// the identity it resolves to and the lifecycle state machine.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/felixgeelhaar/statekit"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskboard/internal/metrics"
	"github.com/p-blackswan/taskboard/internal/models"
	"github.com/p-blackswan/taskboard/pkg/tokenstore"
)

// Session holds the token and identity of the running client. It is the
// token provider queried by the transport on every call and the
// authenticator consulted by the navigation guard.
type Session struct {
	store   tokenstore.Store
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu       sync.RWMutex
	token    string
	identity *models.User
	fsm      *statekit.Interpreter[machineContext]
}

// Option configures a Session.
type Option func(*Session)

// WithMetrics records state transitions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// New creates an anonymous session backed by store.
func New(store tokenstore.Store, logger zerolog.Logger, opts ...Option) (*Session, error) {
	fsm, err := newMachine()
	if err != nil {
		return nil, err
	}
	s := &Session{
		store:  store,
		fsm:    fsm,
		logger: logger.With().Str("component", "session").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Token returns the in-memory bearer token, or "" when there is none.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns a copy of the current user, or nil.
func (s *Session) Identity() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	u := *s.identity
	return &u
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State(s.fsm.State().Value)
}

// IsAuthenticated reports whether a token is held in memory or in durable
// storage. The durable check covers the window before initialization.
func (s *Session) IsAuthenticated() bool {
	if s.Token() != "" {
		return true
	}
	tok, err := s.store.Get(context.Background())
	if err != nil {
		if !errors.Is(err, tokenstore.ErrTokenNotFound) {
			s.logger.Warn().Err(err).Msg("reading durable token")
		}
		return false
	}
	return tok.Value != ""
}

// persisted returns the durable token, or nil when none is stored.
func (s *Session) persisted(ctx context.Context) (*tokenstore.Token, error) {
	tok, err := s.store.Get(ctx)
	if errors.Is(err, tokenstore.ErrTokenNotFound) {
		return nil, nil
	}
	return tok, err
}

// adopt makes value the in-memory token and starts authenticating.
func (s *Session) adopt(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adoptLocked(value)
}

// adoptPersisted stores value durably and adopts it in one critical section,
// so a concurrent clear cannot leave memory and storage disagreeing.
func (s *Session) adoptPersisted(ctx context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, tokenstore.NewToken(value)); err != nil {
		return err
	}
	s.adoptLocked(value)
	return nil
}

func (s *Session) adoptLocked(value string) {
	s.token = value
	s.identity = nil
	s.fire(evtAuthenticate)
}

// identified records the identity confirmed by the remote.
func (s *Session) identified(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		// Logged out while the identity call was in flight.
		return
	}
	cp := *u
	s.identity = &cp
	s.fire(evtIdentified)
}

// patchIdentity applies fn to the identity if there is one.
func (s *Session) patchIdentity(fn func(u *models.User)) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	fn(s.identity)
	u := *s.identity
	return &u
}

func (s *Session) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fire(evtExpire)
}

// clear drops the token and identity from memory and durable storage and
// returns to anonymous. It never fails; storage errors are logged. The
// delete ignores cancellation of ctx: a cancelled request must still log out.
func (s *Session) clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.identity = nil
	if err := s.store.Delete(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error().Err(err).Msg("deleting durable token")
	}
	s.fire(evtLogout)
	s.fire(evtReset)
}

// fire sends evt to the state machine. Callers hold s.mu.
func (s *Session) fire(evt string) {
	before := s.fsm.State().Value
	s.fsm.Send(statekit.Event{Type: statekit.EventType(evt)})
	after := s.fsm.State().Value
	if before == after {
		return
	}
	s.metrics.RecordTransition(string(before), string(after))
	s.logger.Debug().Str("from", string(before)).Str("to", string(after)).Msg("session transition")
}
