package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
	"github.com/p-blackswan/taskboard/internal/models"
)

// MinPasswordLength is the shortest password accepted for new accounts and
// password changes.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// API is the subset of the transport used by the manager.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Put(ctx context.Context, path string, in, out any) error
}

// Manager runs the session operations against the remote service.
type Manager struct {
	sess   *Session
	api    API
	logger zerolog.Logger

	initOnce sync.Once
	initErr  error
}

// NewManager creates a manager for sess.
func NewManager(sess *Session, api API, logger zerolog.Logger) *Manager {
	return &Manager{
		sess:   sess,
		api:    api,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// Session returns the managed session.
func (m *Manager) Session() *Session { return m.sess }

// IsAuthenticated delegates to the session.
func (m *Manager) IsAuthenticated() bool { return m.sess.IsAuthenticated() }

// Initialize restores a persisted token and resolves its identity. It runs
// at most once; later calls return the first result. Any failure logs the
// session out before the error is returned.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.initErr = m.initialize(ctx)
	})
	return m.initErr
}

func (m *Manager) initialize(ctx context.Context) error {
	tok, err := m.sess.persisted(ctx)
	if err != nil {
		m.Logout(ctx)
		return fmt.Errorf("reading persisted token: %w", err)
	}
	if tok == nil || tok.Value == "" {
		m.logger.Debug().Msg("no persisted token")
		return nil
	}
	if tok.IsExpired() {
		m.logger.Info().Time("expired_at", tok.ExpiresAt).Msg("persisted token expired")
		m.sess.expire()
		m.Logout(ctx)
		return nil
	}

	m.sess.adopt(tok.Value)
	if _, err := m.fetchIdentity(ctx); err != nil {
		m.Logout(ctx)
		return fmt.Errorf("restoring session: %w", err)
	}
	m.logger.Info().Msg("session restored")
	return nil
}

// Login exchanges credentials for a token, persists it and resolves the
// identity. The error is always returned to the caller.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	creds.Identifier = strings.TrimSpace(creds.Identifier)
	if creds.Identifier == "" || creds.Password == "" {
		return nil, perrors.Precondition("identifier and password are required")
	}

	var tok oauth2.Token
	if err := m.api.Post(ctx, "/api/auth/login", creds, &tok); err != nil {
		m.logger.Warn().Err(err).Str("identifier", creds.Identifier).Msg("login failed")
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, &perrors.APIError{
			Kind:    perrors.KindRequestFailed,
			Message: "login response carried no access token",
		}
	}

	if err := m.sess.adoptPersisted(ctx, tok.AccessToken); err != nil {
		return nil, fmt.Errorf("persisting token: %w", err)
	}

	u, err := m.fetchIdentity(ctx)
	if err != nil {
		m.Logout(ctx)
		return nil, err
	}
	m.logger.Info().Int("user_id", u.ID).Str("username", u.Username).Msg("logged in")
	return u, nil
}

// Logout clears the token and identity from memory and durable storage. It
// is idempotent and never fails.
func (m *Manager) Logout(ctx context.Context) {
	if m.sess.Token() != "" {
		m.logger.Info().Msg("logging out")
	}
	m.sess.clear(ctx)
}

// HandleInvalidated is subscribed to the transport's invalidation event.
func (m *Manager) HandleInvalidated(ctx context.Context) {
	m.sess.expire()
	m.Logout(ctx)
}

// Register creates an account. Session state is not affected.
func (m *Manager) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.RegisterKey = strings.TrimSpace(reg.RegisterKey)
	switch {
	case reg.Username == "" || reg.Email == "" || reg.Password == "" || reg.RegisterKey == "":
		return nil, perrors.Precondition("username, email, password and register key are required")
	case !emailPattern.MatchString(reg.Email):
		return nil, perrors.Precondition("email is not a valid address")
	case len(reg.Password) < MinPasswordLength:
		return nil, perrors.Precondition(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case reg.Password != reg.ConfirmPassword:
		return nil, perrors.Precondition("passwords do not match")
	}

	var u models.User
	if err := m.api.Post(ctx, "/api/auth/register", reg, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CurrentUser fetches the identity behind the current token. Without a token
// it returns nil and no error. A failure logs the session out.
func (m *Manager) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.sess.Token() == "" {
		return nil, nil
	}
	u, err := m.fetchIdentity(ctx)
	if err != nil {
		m.Logout(ctx)
		return nil, err
	}
	return u, nil
}

func (m *Manager) fetchIdentity(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := m.api.Get(ctx, "/api/auth/me", &u); err != nil {
		return nil, err
	}
	m.sess.identified(&u)
	return &u, nil
}

// UpdateProfile changes the username and email of the current user and
// applies the confirmed values to the local identity.
func (m *Manager) UpdateProfile(ctx context.Context, fields models.ProfileUpdate) (*models.User, error) {
	if err := m.requireAuthenticated(); err != nil {
		return nil, err
	}
	fields.Username = strings.TrimSpace(fields.Username)
	fields.Email = strings.TrimSpace(fields.Email)
	if fields.Username == "" || fields.Email == "" {
		return nil, perrors.Precondition("username and email are required")
	}

	var res models.ActionResult
	if err := m.api.Put(ctx, "/api/auth/update-profile", fields, &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, rejected(res.Message, "profile update rejected")
	}

	confirmed := fields
	if res.User != nil {
		confirmed.Username, confirmed.Email = res.User.Username, res.User.Email
	}
	u := m.sess.patchIdentity(func(u *models.User) {
		u.Username = confirmed.Username
		u.Email = confirmed.Email
	})
	m.logger.Info().Str("username", confirmed.Username).Msg("profile updated")
	return u, nil
}

// ChangePassword rotates the password of the current user.
func (m *Manager) ChangePassword(ctx context.Context, fields models.PasswordChange) error {
	if err := m.requireAuthenticated(); err != nil {
		return err
	}
	switch {
	case fields.CurrentPassword == "" || fields.NewPassword == "":
		return perrors.Precondition("current and new password are required")
	case len(fields.NewPassword) < MinPasswordLength:
		return perrors.Precondition(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	var res models.ActionResult
	if err := m.api.Put(ctx, "/api/auth/change-password", fields, &res); err != nil {
		return err
	}
	if !res.Success {
		return rejected(res.Message, "password change rejected")
	}
	return nil
}

func (m *Manager) requireAuthenticated() error {
	if m.sess.State() != StateAuthenticated {
		return perrors.Precondition("not logged in")
	}
	return nil
}

func rejected(msg, fallback string) error {
	if msg == "" {
		msg = fallback
	}
	return &perrors.APIError{Kind: perrors.KindRequestFailed, Message: msg}
}
