// Package store mirrors remote entity collections in memory. Every store
// shares one discipline: loading is raised and the previous error cleared
// when an operation starts, the error holds the classified message of the
// last failure, and loading is lowered on every exit.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/taskboard/internal/errors"
	"github.com/p-blackswan/taskboard/internal/metrics"
	"github.com/p-blackswan/taskboard/internal/models"
)

// API is the subset of the transport used by the stores.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Put(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// UpdateMode selects how a store reconciles its items after an update.
type UpdateMode int

const (
	// Refetch reloads the whole collection after a write.
	Refetch UpdateMode = iota
	// InPlace replaces the updated element with the response body.
	InPlace
)

func (m UpdateMode) String() string {
	switch m {
	case InPlace:
		return "in_place"
	default:
		return "refetch"
	}
}

// ParseUpdateMode parses "refetch" or "in_place".
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch s {
	case "refetch":
		return Refetch, nil
	case "in_place":
		return InPlace, nil
	default:
		return Refetch, fmt.Errorf("unknown update mode %q", s)
	}
}

// State is a consistent view of a collection.
type State[E models.Entity] struct {
	Items   []E
	Loading bool
	Error   string
}

// Options configures a collection.
type Options struct {
	Mode    UpdateMode
	Metrics *metrics.Metrics
}

// Collection is a remote-backed, in-memory mirror of one entity type.
type Collection[E models.Entity] struct {
	name     string
	listPath string
	api      API
	mode     UpdateMode
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	mu      sync.RWMutex
	items   []E
	loading bool
	err     string

	subMu  sync.Mutex
	subs   []subscriber[E]
	nextID int
}

type subscriber[E models.Entity] struct {
	id int
	fn func(State[E])
}

// NewCollection creates a collection named name whose list endpoint is
// listPath (with a trailing slash); items live at listPath+id.
func NewCollection[E models.Entity](name, listPath string, api API, logger zerolog.Logger, opts Options) *Collection[E] {
	return &Collection[E]{
		name:     name,
		listPath: listPath,
		api:      api,
		mode:     opts.Mode,
		metrics:  opts.Metrics,
		logger:   logger.With().Str("component", "store").Str("store", name).Logger(),
	}
}

// Name returns the store name used in logs and metrics.
func (c *Collection[E]) Name() string { return c.name }

// Mode returns the update discipline of the collection.
func (c *Collection[E]) Mode() UpdateMode { return c.mode }

// Items returns a copy of the mirrored items.
func (c *Collection[E]) Items() []E {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Loading reports whether an operation is in flight.
func (c *Collection[E]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Error returns the message of the last failure, or "".
func (c *Collection[E]) Error() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Snapshot returns items, loading and error read together.
func (c *Collection[E]) Snapshot() State[E] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Collection[E]) snapshotLocked() State[E] {
	return State[E]{Items: slices.Clone(c.items), Loading: c.loading, Error: c.err}
}

// Subscribe registers fn to receive the state after every change and
// returns a function that removes it.
func (c *Collection[E]) Subscribe(fn func(State[E])) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscriber[E]{id: id, fn: fn})
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		c.subs = slices.DeleteFunc(c.subs, func(s subscriber[E]) bool { return s.id == id })
	}
}

func (c *Collection[E]) notify() {
	c.subMu.Lock()
	subs := slices.Clone(c.subs)
	c.subMu.Unlock()
	if len(subs) == 0 {
		return
	}
	st := c.Snapshot()
	for _, s := range subs {
		s.fn(st)
	}
}

// FetchAll replaces the items with the remote list.
func (c *Collection[E]) FetchAll(ctx context.Context) ([]E, error) {
	err := c.track("fetch_all", func() error {
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return c.Items(), nil
}

// FetchByID reads one entity without touching the items.
func (c *Collection[E]) FetchByID(ctx context.Context, id int) (*E, error) {
	var e E
	err := c.track("fetch_by_id", func() error {
		return c.api.Get(ctx, c.itemPath(id), &e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create posts input and then reloads the collection rather than inserting
// the response locally.
func (c *Collection[E]) Create(ctx context.Context, input any) (*E, error) {
	var created E
	err := c.track("create", func() error {
		if err := c.api.Post(ctx, c.listPath, input, &created); err != nil {
			return err
		}
		c.refetch(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update puts patch and reconciles the items according to the update mode.
// In place, only the element with a matching id is replaced and order is
// kept; an id that is not mirrored leaves the items unchanged.
func (c *Collection[E]) Update(ctx context.Context, id int, patch any) (*E, error) {
	var updated E
	err := c.track("update", func() error {
		if err := c.api.Put(ctx, c.itemPath(id), patch, &updated); err != nil {
			return err
		}
		if c.mode == InPlace {
			c.replace(id, updated)
		} else {
			c.refetch(ctx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the entity remotely and reloads the collection.
func (c *Collection[E]) Delete(ctx context.Context, id int) error {
	return c.track("delete", func() error {
		if err := c.api.Delete(ctx, c.itemPath(id), nil); err != nil {
			return err
		}
		c.refetch(ctx)
		return nil
	})
}

func (c *Collection[E]) itemPath(id int) string {
	return fmt.Sprintf("%s%d", c.listPath, id)
}

// track runs fn between begin and end. end runs on every exit.
func (c *Collection[E]) track(op string, fn func() error) (err error) {
	c.begin()
	defer func() { c.end(op, err) }()
	return fn()
}

func (c *Collection[E]) begin() {
	c.mu.Lock()
	c.loading = true
	c.err = ""
	c.mu.Unlock()
	c.notify()
}

func (c *Collection[E]) end(op string, err error) {
	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.err = perrors.Message(err)
	}
	c.mu.Unlock()

	result := "ok"
	if err != nil {
		result = string(perrors.KindOf(err))
		c.logger.Warn().Err(err).Str("op", op).Msg("store operation failed")
	}
	c.metrics.RecordStoreOp(c.name, op, result)
	c.notify()
}

// load replaces the items with the remote list. It leaves the flags alone.
func (c *Collection[E]) load(ctx context.Context) error {
	var items []E
	if err := c.api.Get(ctx, c.listPath, &items); err != nil {
		return err
	}
	if items == nil {
		items = []E{}
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

// refetch reloads after a successful write. A failure is recorded in the
// error but does not fail the write.
func (c *Collection[E]) refetch(ctx context.Context) {
	if err := c.load(ctx); err != nil {
		c.fail(err)
		c.logger.Warn().Err(err).Msg("refetch after write failed")
	}
}

// fail records err without changing loading.
func (c *Collection[E]) fail(err error) {
	c.mu.Lock()
	c.err = perrors.Message(err)
	c.mu.Unlock()
}

func (c *Collection[E]) replace(id int, e E) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.items, func(x E) bool { return x.EntityID() == id })
	if i < 0 {
		return
	}
	items := slices.Clone(c.items)
	items[i] = e
	c.items = items
}
