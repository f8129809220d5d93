// Package switcher coordinates which translation is live. A switch
// provisions and opens the replacement before the current store is touched,
// so a failed switch leaves the reader exactly where it was. Every
// successful activation mints a new generation tag; callers attach the tag
// to in-flight reads and drop results whose tag no longer matches.
package switcher

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/everhopes/scripture/core/cache"
	"github.com/everhopes/scripture/core/canon"
	"github.com/everhopes/scripture/core/errors"
	"github.com/everhopes/scripture/core/registry"
	"github.com/everhopes/scripture/internal/logging"
	"github.com/everhopes/scripture/internal/provision"
	"github.com/everhopes/scripture/internal/store"
)

// Coordinator owns the active translation store and the reader's position.
type Coordinator struct {
	prov     *provision.Provisioner
	cacheCfg cache.Config

	mu         sync.RWMutex
	active     *store.Store
	books      []canon.Book
	pos        canon.Position
	generation string
}

// New creates a Coordinator with no active translation and the default
// chapter cache. Call Start before any read.
func New(prov *provision.Provisioner) *Coordinator {
	return NewWithCache(prov, cache.DefaultConfig())
}

// NewWithCache is New with an explicit per-store chapter cache
// configuration.
func NewWithCache(prov *provision.Provisioner, cacheCfg cache.Config) *Coordinator {
	return &Coordinator{
		prov:     prov,
		cacheCfg: cacheCfg,
		pos:      canon.Position{BookSerial: 1, Chapter: 1},
	}
}

// Start activates the initial translation. Fails if a translation is
// already active.
func (c *Coordinator) Start(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return errors.NewSwitch(c.active.Key(), key, errors.Wrap(errors.ErrInvalidInput, "already started"))
	}
	next, books, err := c.open(ctx, key)
	if err != nil {
		return err
	}
	c.active = next
	c.books = books
	c.generation = uuid.NewString()
	return nil
}

// SwitchTo replaces the active translation with key. The reading position
// carries across untouched; Position resolves it against the new corpus, so
// a chapter out of range there is clamped for display but restored in full
// on a later switch to a deeper corpus. Switching to the already-active
// translation is a no-op. On failure the previous translation stays active
// and usable.
func (c *Coordinator) SwitchTo(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return errors.NewSwitch("", key, errors.Wrap(errors.ErrInvalidInput, "not started"))
	}
	if c.active.Key() == key {
		return nil
	}

	start := time.Now()
	from := c.active.Key()

	// Open the replacement fully before the current store is disturbed.
	next, books, err := c.open(ctx, key)
	if err != nil {
		return err
	}

	old := c.active
	c.active = next
	c.books = books
	c.generation = uuid.NewString()

	// The old handle is already unreachable for new reads; a close failure
	// is logged, not surfaced.
	if err := old.Close(); err != nil {
		logging.Warn("failed to close previous translation store", "translation", from, "error", err)
	}

	logging.SwitchEvent(from, key, time.Since(start), "generation", c.generation)
	return nil
}

// open provisions key's database and opens it. Caller holds the write lock.
func (c *Coordinator) open(ctx context.Context, key string) (*store.Store, []canon.Book, error) {
	from := ""
	if c.active != nil {
		from = c.active.Key()
	}

	desc, err := registry.Describe(key)
	if err != nil {
		return nil, nil, errors.NewSwitch(from, key, err)
	}
	path, err := c.prov.EnsureReady(ctx, desc)
	if err != nil {
		return nil, nil, errors.NewSwitch(from, key, err)
	}
	next, err := store.OpenWithCache(path, desc, c.cacheCfg)
	if err != nil {
		return nil, nil, errors.NewSwitch(from, key, err)
	}
	books, err := next.ListBooks(ctx)
	if err != nil {
		next.Close()
		return nil, nil, errors.NewSwitch(from, key, err)
	}
	return next, books, nil
}

// Active returns the active translation key, or "" before Start.
func (c *Coordinator) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active == nil {
		return ""
	}
	return c.active.Key()
}

// Generation returns the tag of the current activation. Reads issued under
// an older tag belong to a translation that is no longer live.
func (c *Coordinator) Generation() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Books returns the active corpus's book list with the activation tag it
// was read under. The list is the snapshot taken at activation; no query
// runs here.
func (c *Coordinator) Books() ([]canon.Book, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active == nil {
		return nil, "", errors.Wrap(errors.ErrInvalidInput, "no active translation")
	}
	books := make([]canon.Book, len(c.books))
	copy(books, c.books)
	return books, c.generation, nil
}

// Verses returns one chapter from the active corpus with the activation tag
// it was read under.
func (c *Coordinator) Verses(ctx context.Context, bookSerial, chapter int) ([]canon.Verse, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active == nil {
		return nil, "", errors.Wrap(errors.ErrInvalidInput, "no active translation")
	}
	verses, err := c.active.ListVerses(ctx, bookSerial, chapter)
	if err != nil {
		return nil, "", err
	}
	return verses, c.generation, nil
}

// BookTitle returns the active corpus's title for a book serial, falling
// back to the canonical name when the serial is unknown or nothing is
// active.
func (c *Coordinator) BookTitle(serial int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.books {
		if b.Serial == serial {
			return b.FullName
		}
	}
	if m, ok := canon.BookMeta(serial); ok {
		return m.FullName
	}
	return ""
}

// Position returns the reading position resolved against the active
// corpus. The coordinator stores the position exactly as the reader
// requested it and clamps only here, so a round trip through a translation
// with fewer chapters lands back on the original chapter.
func (c *Coordinator) Position() canon.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.books) == 0 {
		return c.pos
	}
	return c.pos.Clamp(c.books)
}

// SetPosition moves the reading position and returns where it resolves in
// the active corpus. The unclamped position is what gets stored.
func (c *Coordinator) SetPosition(p canon.Position) canon.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = p
	if len(c.books) == 0 {
		return p
	}
	return p.Clamp(c.books)
}

// Close shuts down the active store. The coordinator is unusable after.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	err := c.active.Close()
	c.active = nil
	c.books = nil
	c.generation = ""
	return err
}
