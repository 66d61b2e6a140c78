// Package store keeps in-memory copies of the backend's collections in sync
// through CRUD calls.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/naveenspark/busdesk/pkg/client"
	"github.com/naveenspark/busdesk/pkg/domain"
)

// Config describes one collection.
type Config[T domain.Entity] struct {
	Name     string // singular, used in op names and logs
	Resource string // API path, e.g. client.CityPath
	// Key extracts the value that must be unique within the collection.
	Key func(T) string
	// Empty returns the unsaved sentinel record.
	Empty func() T
	// Payload builds the create request body. It must leave out the id and
	// timestamps.
	Payload func(T) (any, error)
	// UpdatePayload builds the update request body. When nil the record is
	// sent as is.
	UpdatePayload func(T) (any, error)
}

// Cache is the local copy of one collection plus the two scratch slots used
// by edit forms.
type Cache[T domain.Entity] struct {
	cfg    Config[T]
	api    *client.Client
	log    zerolog.Logger
	track  Tracker
	notify Notifier

	mu      sync.RWMutex
	items   []T
	current T
	draft   T
	version uint64
}

// NewCache creates an empty cache for cfg.
func NewCache[T domain.Entity](api *client.Client, cfg Config[T], log zerolog.Logger) *Cache[T] {
	c := &Cache[T]{
		cfg:     cfg,
		api:     api,
		log:     log.With().Str("component", "store").Str("resource", cfg.Name).Logger(),
		current: cfg.Empty(),
		draft:   cfg.Empty(),
	}
	c.track.Describe = describe
	c.track.OnChange = c.notify.Notify
	return c
}

// Name returns the collection name.
func (c *Cache[T]) Name() string { return c.cfg.Name }

// Empty returns a fresh unsaved record.
func (c *Cache[T]) Empty() T { return c.cfg.Empty() }

// FetchAll replaces the collection with the server's. On failure the previous
// collection is kept.
func (c *Cache[T]) FetchAll(ctx context.Context) error {
	return c.track.Run(func() error {
		items, err := client.List[T](ctx, c.api, c.cfg.Resource)
		if err != nil {
			c.log.Warn().Err(err).Msg("fetch failed")
			return c.fail("fetch", KindNetwork, err)
		}
		if items == nil {
			items = []T{}
		}
		c.mu.Lock()
		c.items = items
		c.version++
		c.mu.Unlock()
		c.log.Debug().Int("count", len(items)).Msg("fetched")
		return nil
	})
}

// Create sends item and appends the stored record. An item whose key is
// already in the collection is rejected without a request.
func (c *Cache[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	key := c.cfg.Key(item)
	if c.hasKey(key) {
		return zero, c.fail("create", KindPrecondition, fmt.Errorf("%w: %q", ErrDuplicate, key))
	}

	payload, err := c.cfg.Payload(item)
	if err != nil {
		return zero, c.fail("create", KindPrecondition, err)
	}

	var created T
	err = c.track.Run(func() error {
		var err error
		created, err = client.Create[T](ctx, c.api, c.cfg.Resource, payload)
		if err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("create failed")
			return c.fail("create", KindNetwork, err)
		}
		c.mu.Lock()
		c.items = append(c.items, created)
		c.version++
		c.mu.Unlock()
		c.log.Info().Int64("id", created.EntityID()).Msg("created")
		return nil
	})
	if err != nil {
		return zero, err
	}
	return created, nil
}

// Update sends item and replaces the matching record in place.
func (c *Cache[T]) Update(ctx context.Context, item T) (T, error) {
	var zero T
	id := item.EntityID()
	if c.indexOf(id) < 0 {
		return zero, c.fail("update", KindPrecondition, fmt.Errorf("%w: id %d", ErrNotFound, id))
	}

	var payload any = item
	if c.cfg.UpdatePayload != nil {
		p, err := c.cfg.UpdatePayload(item)
		if err != nil {
			return zero, c.fail("update", KindPrecondition, err)
		}
		payload = p
	}

	var updated T
	err := c.track.Run(func() error {
		var err error
		updated, err = client.Update[T](ctx, c.api, c.cfg.Resource, id, payload)
		if err != nil {
			c.log.Warn().Err(err).Int64("id", id).Msg("update failed")
			return c.fail("update", KindNetwork, err)
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		// The record may have been deleted while the request was in flight.
		if i := c.indexLocked(id); i >= 0 {
			c.items[i] = updated
			c.version++
		} else {
			c.log.Debug().Int64("id", id).Msg("updated record no longer cached")
		}
		return nil
	})
	if err != nil {
		return zero, err
	}
	return updated, nil
}

// Delete removes item on the server and from the collection.
func (c *Cache[T]) Delete(ctx context.Context, item T) error {
	id := item.EntityID()
	if c.indexOf(id) < 0 {
		return c.fail("delete", KindPrecondition, fmt.Errorf("%w: id %d", ErrNotFound, id))
	}

	return c.track.Run(func() error {
		if err := client.Delete(ctx, c.api, c.cfg.Resource, id); err != nil {
			c.log.Warn().Err(err).Int64("id", id).Msg("delete failed")
			return c.fail("delete", KindNetwork, err)
		}
		c.mu.Lock()
		if i := c.indexLocked(id); i >= 0 {
			c.items = slices.Delete(c.items, i, i+1)
			c.version++
		}
		c.mu.Unlock()
		c.log.Info().Int64("id", id).Msg("deleted")
		return nil
	})
}

// Items returns a copy of the collection in server order.
func (c *Cache[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Get returns the cached record with the given id.
func (c *Cache[T]) Get(id int64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Len returns the number of cached records.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Version increases every time the collection changes.
func (c *Cache[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Subscribe returns a channel signalled on every state change.
func (c *Cache[T]) Subscribe() (<-chan struct{}, func()) { return c.notify.Subscribe() }

// Loading reports whether a request is in flight.
func (c *Cache[T]) Loading() bool { return c.track.Loading() }

// LastError returns the message of the last failed request.
func (c *Cache[T]) LastError() string { return c.track.LastError() }

// SetCurrent opens item in the current slot.
func (c *Cache[T]) SetCurrent(item T) {
	c.mu.Lock()
	c.current = item
	c.mu.Unlock()
	c.notify.Notify()
}

// ResetCurrent puts the sentinel into both the current and draft slots.
func (c *Cache[T]) ResetCurrent() {
	c.mu.Lock()
	c.current = c.cfg.Empty()
	c.draft = c.cfg.Empty()
	c.mu.Unlock()
	c.notify.Notify()
}

// SetDraft stages item in the draft slot.
func (c *Cache[T]) SetDraft(item T) {
	c.mu.Lock()
	c.draft = item
	c.mu.Unlock()
	c.notify.Notify()
}

// DiscardDraft empties the draft slot and leaves current alone.
func (c *Cache[T]) DiscardDraft() {
	c.mu.Lock()
	c.draft = c.cfg.Empty()
	c.mu.Unlock()
	c.notify.Notify()
}

// RestoreFromDraft copies the draft back over current, dropping the edits made
// since the draft was staged.
func (c *Cache[T]) RestoreFromDraft() {
	c.mu.Lock()
	c.current = c.draft
	c.mu.Unlock()
	c.notify.Notify()
}

// Current returns the record in the current slot.
func (c *Cache[T]) Current() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Draft returns the record in the draft slot.
func (c *Cache[T]) Draft() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.draft
}

func (c *Cache[T]) hasKey(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.ContainsFunc(c.items, func(it T) bool { return c.cfg.Key(it) == key })
}

func (c *Cache[T]) indexOf(id int64) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexLocked(id)
}

func (c *Cache[T]) indexLocked(id int64) int {
	return slices.IndexFunc(c.items, func(it T) bool { return it.EntityID() == id })
}

func (c *Cache[T]) fail(op string, kind Kind, err error) *OpError {
	return &OpError{Op: c.cfg.Name + "." + op, Kind: kind, Err: err}
}

// describe keeps the backend's message for the last error when there is one.
func describe(err error) string {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	return err.Error()
}
