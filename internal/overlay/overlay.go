// Package overlay keeps the reader's personal state: verse highlights, the
// recent-visit history, per-post reading progress and the last reading
// position. The overlay lives in its own small database beside the corpus
// files and never writes into them, so a corpus swap cannot touch it and a
// lost overlay costs annotations, not scripture.
//
// All reads are served from memory; mutations update memory first and then
// persist best-effort. A failed write is logged and the session continues,
// because losing a highlight beats blocking a page turn.
package overlay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/everhopes/scripture/core/canon"
	"github.com/everhopes/scripture/core/errors"
	"github.com/everhopes/scripture/core/sqlite"
	"github.com/everhopes/scripture/internal/logging"
)

// HistoryCap bounds the recent-visit list.
const HistoryCap = 20

const (
	keyHighlights        = "highlights"
	keyHistory           = "history"
	keyLastPosition      = "last_position"
	keyActiveTranslation = "active_translation"
	progressPrefix       = "progress:"
)

const schema = `
CREATE TABLE IF NOT EXISTS overlay_kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// HighlightKey addresses one verse independently of any translation, so a
// highlight made in one translation shows up in every other.
type HighlightKey struct {
	BookSerial int `json:"book"`
	Chapter    int `json:"chapter"`
	Verse      int `json:"verse"`
}

// String renders the canonical "book-chapter-verse" form.
func (k HighlightKey) String() string {
	return fmt.Sprintf("%d-%d-%d", k.BookSerial, k.Chapter, k.Verse)
}

// ParseHighlightKey parses the "book-chapter-verse" form.
func ParseHighlightKey(s string) (HighlightKey, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return HighlightKey{}, errors.Wrapf(errors.ErrInvalidInput, "highlight key %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return HighlightKey{}, errors.Wrapf(errors.ErrInvalidInput, "highlight key %q", s)
		}
		nums[i] = n
	}
	return HighlightKey{BookSerial: nums[0], Chapter: nums[1], Verse: nums[2]}, nil
}

// VisitEntry is one reading-history record. DisplayName is the book title
// as shown by the translation that was active at visit time.
type VisitEntry struct {
	BookSerial  int       `json:"book"`
	Chapter     int       `json:"chapter"`
	DisplayName string    `json:"display_name"`
	VisitedAt   time.Time `json:"visited_at"`
}

// Position returns the entry's location in canon coordinates.
func (e VisitEntry) Position() canon.Position {
	return canon.Position{BookSerial: e.BookSerial, Chapter: e.Chapter}
}

// Overlay is the personal reading state store. Safe for concurrent use.
type Overlay struct {
	db *sqlx.DB

	mu         sync.RWMutex
	highlights map[HighlightKey]struct{}
	history    []VisitEntry
	progress   map[string]float64
	lastPos    *canon.Position
	activeKey  string
}

// Open opens (and if needed creates) the overlay database at path and loads
// all state into memory. Unreadable rows degrade to empty state rather than
// failing the open.
func Open(path string) (*Overlay, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewOpen("overlay", path, err)
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewOpen("overlay", path, err)
	}
	dbx := sqlx.NewDb(db, sqlite.DriverName())

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := dbx.Exec(pragma); err != nil {
			dbx.Close()
			return nil, errors.NewOpen("overlay", path, err)
		}
	}
	if _, err := dbx.Exec(schema); err != nil {
		dbx.Close()
		return nil, errors.NewOpen("overlay", path, err)
	}

	o := &Overlay{
		db:         dbx,
		highlights: make(map[HighlightKey]struct{}),
		progress:   make(map[string]float64),
	}
	o.load()
	return o, nil
}

// load pulls every row into memory. Rows that fail to decode are dropped
// with a warning; personal state fails open.
func (o *Overlay) load() {
	rows := []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}{}
	if err := o.db.Select(&rows, `SELECT key, value FROM overlay_kv`); err != nil {
		logging.OverlayError("load", err)
		return
	}

	for _, row := range rows {
		switch {
		case row.Key == keyHighlights:
			var keys []string
			if err := json.Unmarshal([]byte(row.Value), &keys); err != nil {
				logging.OverlayError(keyHighlights, err)
				continue
			}
			for _, s := range keys {
				k, err := ParseHighlightKey(s)
				if err != nil {
					logging.OverlayError(keyHighlights, err, "key", s)
					continue
				}
				o.highlights[k] = struct{}{}
			}
		case row.Key == keyHistory:
			var hist []VisitEntry
			if err := json.Unmarshal([]byte(row.Value), &hist); err != nil {
				logging.OverlayError(keyHistory, err)
				continue
			}
			if len(hist) > HistoryCap {
				hist = hist[:HistoryCap]
			}
			o.history = hist
		case row.Key == keyLastPosition:
			var p canon.Position
			if err := json.Unmarshal([]byte(row.Value), &p); err != nil {
				logging.OverlayError(keyLastPosition, err)
				continue
			}
			o.lastPos = &p
		case row.Key == keyActiveTranslation:
			o.activeKey = row.Value
		case strings.HasPrefix(row.Key, progressPrefix):
			v, err := strconv.ParseFloat(row.Value, 64)
			if err != nil {
				logging.OverlayError("progress", err, "key", row.Key)
				continue
			}
			o.progress[strings.TrimPrefix(row.Key, progressPrefix)] = v
		}
	}
}

// persist upserts one key. Failures are logged, never surfaced; memory
// already holds the new state.
func (o *Overlay) persist(key, value string) {
	_, err := o.db.Exec(
		`INSERT INTO overlay_kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		logging.OverlayError(key, err)
	}
}

func (o *Overlay) persistJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.OverlayError(key, err)
		return
	}
	o.persist(key, string(data))
}

// ToggleHighlight flips the highlight on one verse and returns the new
// state. Toggling twice restores the original state exactly.
func (o *Overlay) ToggleHighlight(k HighlightKey) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, on := o.highlights[k]
	if on {
		delete(o.highlights, k)
	} else {
		o.highlights[k] = struct{}{}
	}
	o.persistJSON(keyHighlights, o.highlightKeysLocked())
	return !on
}

// IsHighlighted reports whether the verse is highlighted.
func (o *Overlay) IsHighlighted(k HighlightKey) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, on := o.highlights[k]
	return on
}

// Highlights returns every highlighted verse in canonical order.
func (o *Overlay) Highlights() []HighlightKey {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]HighlightKey, 0, len(o.highlights))
	for k := range o.highlights {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookSerial != out[j].BookSerial {
			return out[i].BookSerial < out[j].BookSerial
		}
		if out[i].Chapter != out[j].Chapter {
			return out[i].Chapter < out[j].Chapter
		}
		return out[i].Verse < out[j].Verse
	})
	return out
}

func (o *Overlay) highlightKeysLocked() []string {
	keys := make([]string, 0, len(o.highlights))
	for k := range o.highlights {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys
}

// RecordVisit notes a chapter visit under the book title the active
// translation displays. A revisited position moves to the front instead of
// duplicating, and the list never exceeds HistoryCap; the oldest entry
// falls off.
func (o *Overlay) RecordVisit(p canon.Position, displayName string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	next := make([]VisitEntry, 0, len(o.history)+1)
	next = append(next, VisitEntry{
		BookSerial:  p.BookSerial,
		Chapter:     p.Chapter,
		DisplayName: displayName,
		VisitedAt:   time.Now().UTC(),
	})
	for _, h := range o.history {
		if h.BookSerial == p.BookSerial && h.Chapter == p.Chapter {
			continue
		}
		next = append(next, h)
	}
	if len(next) > HistoryCap {
		next = next[:HistoryCap]
	}
	o.history = next
	o.persistJSON(keyHistory, o.history)
}

// History returns recent visits, most recent first.
func (o *Overlay) History() []VisitEntry {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]VisitEntry, len(o.history))
	copy(out, o.history)
	return out
}

// SaveProgress stores a scroll offset for one post or chapter slug.
func (o *Overlay) SaveProgress(slug string, offset float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress[slug] = offset
	o.persist(progressPrefix+slug, strconv.FormatFloat(offset, 'f', -1, 64))
}

// Progress returns the stored offset for slug, zero when none was saved.
func (o *Overlay) Progress(slug string) float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.progress[slug]
}

// SaveLastPosition stores where the reader left off.
func (o *Overlay) SaveLastPosition(p canon.Position) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastPos = &p
	o.persistJSON(keyLastPosition, p)
}

// LastPosition returns the stored position and whether one exists.
func (o *Overlay) LastPosition() (canon.Position, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.lastPos == nil {
		return canon.Position{}, false
	}
	return *o.lastPos, true
}

// SaveActiveTranslation remembers the translation to restore next launch.
func (o *Overlay) SaveActiveTranslation(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeKey = key
	o.persist(keyActiveTranslation, key)
}

// ActiveTranslation returns the remembered translation key, "" when unset.
func (o *Overlay) ActiveTranslation() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.activeKey
}

// Close releases the overlay database.
func (o *Overlay) Close() error {
	if o == nil {
		return nil
	}
	return o.db.Close()
}
