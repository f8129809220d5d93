// Package store opens a provisioned translation database read-only and
// serves the two corpus queries every reading surface is built from: the
// full book list and a single chapter of verses. Schema differences between
// corpora are absorbed by the registry's query templates, so the store
// itself is schema-agnostic.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/everhopes/scripture/core/cache"
	"github.com/everhopes/scripture/core/canon"
	"github.com/everhopes/scripture/core/errors"
	"github.com/everhopes/scripture/core/registry"
	"github.com/everhopes/scripture/core/sqlite"
	"github.com/everhopes/scripture/internal/logging"
)

type chapterKey struct {
	book    int
	chapter int
}

// Store is a live read-only handle to one translation database. Safe for
// concurrent use; Close is idempotent.
type Store struct {
	desc registry.Descriptor
	db   *sqlx.DB

	chapters *cache.LRU[chapterKey, []canon.Verse]

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the translation database at path with the default
// chapter cache. The connection is read-only; corpus databases are never
// written after provisioning.
func Open(path string, desc registry.Descriptor) (*Store, error) {
	return OpenWithCache(path, desc, cache.DefaultConfig())
}

// OpenWithCache is Open with an explicit chapter cache configuration.
func OpenWithCache(path string, desc registry.Descriptor, cacheCfg cache.Config) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewOpen(desc.Key, path, err)
	}
	dbx := sqlx.NewDb(db, sqlite.DriverName())
	if err := dbx.Ping(); err != nil {
		dbx.Close()
		return nil, errors.NewOpen(desc.Key, path, err)
	}
	return &Store{
		desc:     desc,
		db:       dbx,
		chapters: cache.NewLRU[chapterKey, []canon.Verse](cacheCfg),
	}, nil
}

// Key returns the translation key this store serves.
func (s *Store) Key() string {
	return s.desc.Key
}

// DisplayName returns the translation's human-readable title.
func (s *Store) DisplayName() string {
	return s.desc.DisplayName
}

// ListBooks returns all books of the corpus ordered by canonical serial.
func (s *Store) ListBooks(ctx context.Context) ([]canon.Book, error) {
	start := time.Now()
	var books []canon.Book
	if err := s.db.SelectContext(ctx, &books, s.desc.BooksQuery); err != nil {
		return nil, errors.Wrapf(err, "list books for %s", s.desc.Key)
	}
	logging.QueryEvent(s.desc.Key, "list_books", time.Since(start), "books", len(books))
	return books, nil
}

// ListVerses returns one chapter's verses ordered by verse number. Chapter
// reads sit on the hot path of page turns, so results are cached per
// (book, chapter) in a small LRU.
func (s *Store) ListVerses(ctx context.Context, bookSerial, chapter int) ([]canon.Verse, error) {
	if bookSerial < 1 || chapter < 1 {
		return nil, errors.Wrap(errors.ErrInvalidInput, fmt.Sprintf("verses for book %d chapter %d", bookSerial, chapter))
	}

	key := chapterKey{book: bookSerial, chapter: chapter}
	if verses, ok := s.chapters.Get(key); ok {
		return verses, nil
	}

	start := time.Now()
	var verses []canon.Verse
	if err := s.db.SelectContext(ctx, &verses, s.desc.VersesQuery, bookSerial, chapter); err != nil {
		return nil, errors.Wrapf(err, "list verses for %s %d:%d", s.desc.Key, bookSerial, chapter)
	}
	logging.QueryEvent(s.desc.Key, "list_verses", time.Since(start),
		"book", bookSerial, "chapter", chapter, "verses", len(verses))

	s.chapters.Put(key, verses)
	return verses, nil
}

// CacheStats exposes chapter cache counters.
func (s *Store) CacheStats() cache.Stats {
	return s.chapters.Stats()
}

// Close releases the database handle. Safe to call more than once and on a
// nil receiver; repeat calls return the first result.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.chapters.Clear()
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
