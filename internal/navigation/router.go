// Package navigation resolves view paths and guards the protected ones.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/taskboard/lru"
)

// resolvedCacheSize bounds the memo of matched paths.
const resolvedCacheSize = 256

// Name identifies a view.
type Name string

const (
	Dashboard Name = "Dashboard"
	Register  Name = "Register"
	Login     Name = "Login"
	Project   Name = "Project"
	Task      Name = "Task"
)

// Route is one entry of the view table.
type Route struct {
	Name      Name
	Pattern   string
	Protected bool
}

// Routes is the view table.
var Routes = []Route{
	{Name: Dashboard, Pattern: "/", Protected: true},
	{Name: Register, Pattern: "/register"},
	{Name: Login, Pattern: "/login"},
	{Name: Project, Pattern: "/projects/{id}", Protected: true},
	{Name: Task, Pattern: "/tasks/{id}", Protected: true},
}

var (
	// ErrRedirected means the requested navigation was aborted and the
	// router moved to the login view instead.
	ErrRedirected = errors.New("navigation redirected to login")
	// ErrUnknownRoute means no view matches the path.
	ErrUnknownRoute = errors.New("unknown route")
)

// Authenticator reports whether the client holds a session.
type Authenticator interface {
	IsAuthenticated() bool
}

// Guard decides whether a route may be entered.
type Guard struct {
	auth Authenticator
}

// NewGuard creates a guard backed by auth.
func NewGuard(auth Authenticator) *Guard {
	return &Guard{auth: auth}
}

// Allow reports whether r may be entered now.
func (g *Guard) Allow(r Route) bool {
	return !r.Protected || g.auth.IsAuthenticated()
}

// Location is a resolved navigation target.
type Location struct {
	Route  Route
	Path   string
	Params map[string]string
}

// Param returns a path parameter, or "".
func (l Location) Param(key string) string {
	return l.Params[key]
}

func (l Location) clone() Location {
	l.Params = maps.Clone(l.Params)
	return l
}

// Router tracks the current view.
type Router struct {
	mux      *chi.Mux
	byPath   map[string]Route
	resolved *lru.Cache[string, Location]
	guard    *Guard
	logger   zerolog.Logger

	mu      sync.RWMutex
	current Location
}

// NewRouter builds a router over Routes.
func NewRouter(guard *Guard, logger zerolog.Logger) *Router {
	r := &Router{
		mux:      chi.NewRouter(),
		byPath:   make(map[string]Route, len(Routes)),
		resolved: lru.New[string, Location](resolvedCacheSize),
		guard:    guard,
		logger:   logger.With().Str("component", "navigation").Logger(),
	}
	// Views are matched, never served.
	noop := func(http.ResponseWriter, *http.Request) {}
	for _, rt := range Routes {
		r.mux.Get(rt.Pattern, noop)
		r.byPath[rt.Pattern] = rt
	}
	return r
}

// Resolve matches path against the view table. Matches are memoized; callers
// get their own copy of Params.
func (r *Router) Resolve(path string) (Location, error) {
	if loc, ok := r.resolved.Get(path); ok {
		return loc.clone(), nil
	}
	rctx := chi.NewRouteContext()
	if !r.mux.Match(rctx, http.MethodGet, path) {
		return Location{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}
	rt, ok := r.byPath[rctx.RoutePattern()]
	if !ok {
		return Location{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}
	loc := Location{Route: rt, Path: path, Params: map[string]string{}}
	for i, k := range rctx.URLParams.Keys {
		loc.Params[k] = rctx.URLParams.Values[i]
	}
	r.resolved.Put(path, loc)
	return loc.clone(), nil
}

// Navigate moves to path. A protected view entered without a session is
// aborted: the router moves to login and returns ErrRedirected. The aborted
// navigation is not queued or retried after login.
func (r *Router) Navigate(path string) (Location, error) {
	loc, err := r.Resolve(path)
	if err != nil {
		return Location{}, err
	}
	if !r.guard.Allow(loc.Route) {
		r.logger.Info().Str("path", path).Msg("protected view requires login")
		return r.toLogin(), ErrRedirected
	}
	r.set(loc)
	return loc, nil
}

// Current returns the current location. It is zero before the first
// navigation.
func (r *Router) Current() Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// HandleInvalidated is subscribed to the transport's invalidation event and
// moves to the login view.
func (r *Router) HandleInvalidated(context.Context) {
	if r.Current().Route.Name == Login {
		return
	}
	r.logger.Info().Msg("session invalidated, redirecting to login")
	r.toLogin()
}

func (r *Router) toLogin() Location {
	loc := Location{Route: r.byPath["/login"], Path: "/login", Params: map[string]string{}}
	r.set(loc)
	return loc
}

func (r *Router) set(loc Location) {
	r.mu.Lock()
	r.current = loc
	r.mu.Unlock()
}
