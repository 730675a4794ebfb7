// Package app wires the client together: token storage, session, transport,
// entity stores, the schedule projection and the navigation router.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskboard/internal/config"
	"github.com/p-blackswan/taskboard/internal/health"
	"github.com/p-blackswan/taskboard/internal/metrics"
	"github.com/p-blackswan/taskboard/internal/navigation"
	"github.com/p-blackswan/taskboard/internal/retry"
	"github.com/p-blackswan/taskboard/internal/schedule"
	"github.com/p-blackswan/taskboard/internal/session"
	"github.com/p-blackswan/taskboard/internal/store"
	"github.com/p-blackswan/taskboard/internal/transport"
	"github.com/p-blackswan/taskboard/pkg/tokenstore"
)

// App is the assembled client.
type App struct {
	Config   *config.Config
	Tokens   tokenstore.Store
	Session  *session.Session
	Auth     *session.Manager
	Client   *transport.Client
	Projects *store.ProjectStore
	Tasks    *store.TaskStore
	Users    *store.UserStore
	Schedule *schedule.Projection
	Router   *navigation.Router
	Health   *health.Checker
	Metrics  *metrics.Metrics

	logger      zerolog.Logger
	unsubscribe []func()
}

type options struct {
	httpClient transport.HTTPClient
	tokens     tokenstore.Store
	metrics    *metrics.Metrics
}

// Option configures New.
type Option func(*options)

// WithHTTPClient replaces the transport's HTTP client.
func WithHTTPClient(hc transport.HTTPClient) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTokenStore uses tokens instead of opening the configured backend.
func WithTokenStore(tokens tokenstore.Store) Option {
	return func(o *options) { o.tokens = tokens }
}

// WithMetrics records client metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New builds the client from cfg. Nothing touches the network until Init.
func New(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	modes := make(map[string]store.UpdateMode, 3)
	for name, raw := range map[string]string{
		"projects": cfg.ProjectUpdateMode,
		"tasks":    cfg.TaskUpdateMode,
		"users":    cfg.UserUpdateMode,
	} {
		mode, err := store.ParseUpdateMode(raw)
		if err != nil {
			return nil, fmt.Errorf("%s update mode: %w", name, err)
		}
		modes[name] = mode
	}

	tokens := o.tokens
	if tokens == nil {
		path, err := cfg.ResolvedTokenPath()
		if err != nil {
			return nil, err
		}
		tokens, err = tokenstore.Open(cfg.TokenBackend, path)
		if err != nil {
			return nil, fmt.Errorf("opening token store: %w", err)
		}
	}

	sess, err := session.New(tokens, logger, session.WithMetrics(o.metrics))
	if err != nil {
		_ = tokens.Close()
		return nil, err
	}

	policy := retry.DefaultPolicy()
	policy.Attempts = cfg.RetryAttempts
	policy.BaseDelay = cfg.RetryBaseDelay
	clientOpts := []transport.Option{
		transport.WithTimeout(cfg.RequestTimeout),
		transport.WithMetrics(o.metrics),
		transport.WithRetry(policy),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, transport.WithHTTPClient(o.httpClient))
	}
	client := transport.New(cfg.APIBaseURL, sess, logger, clientOpts...)

	a := &App{
		Config:   cfg,
		Tokens:   tokens,
		Session:  sess,
		Auth:     session.NewManager(sess, client, logger),
		Client:   client,
		Projects: store.NewProjectStore(client, logger, store.Options{Mode: modes["projects"], Metrics: o.metrics}),
		Tasks:    store.NewTaskStore(client, logger, store.Options{Mode: modes["tasks"], Metrics: o.metrics}),
		Users:    store.NewUserStore(client, logger, store.Options{Mode: modes["users"], Metrics: o.metrics}),
		Schedule: schedule.New(client, logger, o.metrics),
		Router:   navigation.NewRouter(navigation.NewGuard(sess), logger),
		Health:   health.NewChecker(logger),
		Metrics:  o.metrics,
		logger:   logger.With().Str("component", "app").Logger(),
	}

	// Session first so the router observes the logged-out state.
	a.unsubscribe = append(a.unsubscribe,
		client.OnInvalidated(a.Auth.HandleInvalidated),
		client.OnInvalidated(a.Router.HandleInvalidated),
	)

	a.Health.Register("token_store", health.TokenStoreCheck(tokens))
	a.Health.Register("remote", health.RemoteCheck(client, "/"))

	return a, nil
}

// Init restores a persisted session. It runs once; later calls return the
// first result.
func (a *App) Init(ctx context.Context) error {
	if err := a.Auth.Initialize(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("session restore failed")
		return err
	}
	a.logger.Debug().Str("state", string(a.Session.State())).Msg("session initialized")
	return nil
}

// Dispose detaches the invalidation listeners and closes the token store.
// The stored token survives.
func (a *App) Dispose() error {
	for _, unsub := range a.unsubscribe {
		unsub()
	}
	a.unsubscribe = nil
	return a.Tokens.Close()
}
