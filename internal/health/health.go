// Package health checks the client's dependencies: durable token storage and
// the remote service.
package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
	"github.com/p-blackswan/taskboard/pkg/tokenstore"
)

// Status represents the health status of a dependency.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// CheckFunc is a function that checks a dependency's health.
type CheckFunc func(ctx context.Context) Status

// Result is the outcome of one named check.
type Result struct {
	Name   string
	Status Status
}

// Checker manages health checks for all dependencies.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	cache   map[string]Status
	timeout time.Duration
	logger  zerolog.Logger
}

// NewChecker creates a new health checker.
func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		checks:  make(map[string]CheckFunc),
		cache:   make(map[string]Status),
		timeout: 5 * time.Second,
		logger:  logger.With().Str("component", "health").Logger(),
	}
}

// Register adds a named health check.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// RunAll executes all health checks concurrently and caches results.
func (c *Checker) RunAll(ctx context.Context) map[string]Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()

	results := make(map[string]Status, len(checks))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, fn := range checks {
		wg.Add(1)
		go func(n string, f CheckFunc) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			s := f(checkCtx)
			if s != StatusOK {
				c.logger.Warn().Str("check", n).Str("status", string(s)).Msg("health check not ok")
			}
			mu.Lock()
			results[n] = s
			mu.Unlock()
		}(name, fn)
	}

	wg.Wait()

	c.mu.Lock()
	c.cache = results
	c.mu.Unlock()

	return results
}

// Report runs all checks and returns the results sorted by name.
func (c *Checker) Report(ctx context.Context) []Result {
	results := c.RunAll(ctx)
	out := make([]Result, 0, len(results))
	for name, s := range results {
		out = append(out, Result{Name: name, Status: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Last returns the cached results of the previous run.
func (c *Checker) Last() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Status, len(c.cache))
	for k, v := range c.cache {
		out[k] = v
	}
	return out
}

// IsReady returns true if no check is down.
func (c *Checker) IsReady(ctx context.Context) bool {
	results := c.RunAll(ctx)
	for _, s := range results {
		if s == StatusDown {
			return false
		}
	}
	return true
}

// TokenStoreCheck reports the durable token store. An empty store is ok; a
// stored token that has expired is degraded.
func TokenStoreCheck(store tokenstore.Store) CheckFunc {
	return func(ctx context.Context) Status {
		tok, err := store.Get(ctx)
		switch {
		case errors.Is(err, tokenstore.ErrTokenNotFound):
			return StatusOK
		case err != nil:
			return StatusDown
		case tok.IsExpired():
			return StatusDegraded
		default:
			return StatusOK
		}
	}
}

// Getter is the transport call used to probe the remote.
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

// RemoteCheck probes path on the remote. Any HTTP answer means the service
// is reachable; a missing response is down and a server error degraded.
// path must be public: a 401 would invalidate the session.
func RemoteCheck(api Getter, path string) CheckFunc {
	return func(ctx context.Context) Status {
		err := api.Get(ctx, path, nil)
		switch perrors.KindOf(err) {
		case perrors.KindNetworkUnavailable:
			return StatusDown
		case perrors.KindServerError:
			return StatusDegraded
		default:
			return StatusOK
		}
	}
}
