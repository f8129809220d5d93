// Package reader is the session facade the surfaces talk to. It joins the
// corpus side (active translation, books, verses) with the personal side
// (highlights, history, progress) and keeps the two in step: opening a
// chapter records the visit and the last position, switching translations
// persists the choice for the next launch.
package reader

import (
	"context"

	"github.com/everhopes/scripture/core/canon"
	"github.com/everhopes/scripture/internal/overlay"
	"github.com/everhopes/scripture/internal/switcher"
)

// VerseView is one verse decorated with its highlight state.
type VerseView struct {
	canon.Verse
	Highlighted bool
}

// ChapterView is everything a reading surface needs to render one chapter.
type ChapterView struct {
	Position   canon.Position
	Verses     []VerseView
	Generation string
}

// Session is a live reading session over one coordinator and one overlay.
type Session struct {
	coord *switcher.Coordinator
	state *overlay.Overlay
}

// NewSession wires a session over an already-constructed coordinator and
// overlay. The session does not own either; the caller closes them.
func NewSession(coord *switcher.Coordinator, state *overlay.Overlay) *Session {
	return &Session{coord: coord, state: state}
}

// Start activates the translation remembered from the previous session,
// falling back to defaultKey, and restores the last reading position.
func (s *Session) Start(ctx context.Context, defaultKey string) error {
	key := s.state.ActiveTranslation()
	if key == "" {
		key = defaultKey
	}
	if err := s.coord.Start(ctx, key); err != nil {
		if key == defaultKey {
			return err
		}
		// The remembered translation may have gone bad; the default must
		// still get the reader in.
		if err := s.coord.Start(ctx, defaultKey); err != nil {
			return err
		}
		key = defaultKey
	}
	s.state.SaveActiveTranslation(key)

	if pos, ok := s.state.LastPosition(); ok {
		s.coord.SetPosition(pos)
	}
	return nil
}

// Active returns the active translation key.
func (s *Session) Active() string {
	return s.coord.Active()
}

// Books lists the active corpus's books with the activation tag.
func (s *Session) Books() ([]canon.Book, string, error) {
	return s.coord.Books()
}

// OpenChapter moves the session to the given chapter and returns it fully
// decorated. The visit lands in the history and becomes the last position.
func (s *Session) OpenChapter(ctx context.Context, bookSerial, chapter int) (*ChapterView, error) {
	pos := s.coord.SetPosition(canon.Position{BookSerial: bookSerial, Chapter: chapter})

	verses, tag, err := s.coord.Verses(ctx, pos.BookSerial, pos.Chapter)
	if err != nil {
		return nil, err
	}

	views := make([]VerseView, len(verses))
	for i, v := range verses {
		views[i] = VerseView{
			Verse: v,
			Highlighted: s.state.IsHighlighted(overlay.HighlightKey{
				BookSerial: v.BookSerial,
				Chapter:    v.Chapter,
				Verse:      v.VerseNumber,
			}),
		}
	}

	s.state.RecordVisit(pos, s.coord.BookTitle(pos.BookSerial))
	s.state.SaveLastPosition(pos)

	return &ChapterView{Position: pos, Verses: views, Generation: tag}, nil
}

// ToggleHighlight flips one verse's highlight and returns the new state.
func (s *Session) ToggleHighlight(k overlay.HighlightKey) bool {
	return s.state.ToggleHighlight(k)
}

// Highlights returns every highlighted verse in canonical order.
func (s *Session) Highlights() []overlay.HighlightKey {
	return s.state.Highlights()
}

// History returns recent chapter visits, most recent first.
func (s *Session) History() []overlay.VisitEntry {
	return s.state.History()
}

// SwitchTranslation swaps the active translation, persisting the choice and
// the carried (possibly clamped) position.
func (s *Session) SwitchTranslation(ctx context.Context, key string) error {
	if err := s.coord.SwitchTo(ctx, key); err != nil {
		return err
	}
	s.state.SaveActiveTranslation(key)
	s.state.SaveLastPosition(s.coord.Position())
	return nil
}

// Position returns the session's current reading position.
func (s *Session) Position() canon.Position {
	return s.coord.Position()
}

// SaveProgress stores the scroll offset for a post or chapter slug.
func (s *Session) SaveProgress(slug string, offset float64) {
	s.state.SaveProgress(slug, offset)
}

// Progress returns the stored offset for slug, zero when none.
func (s *Session) Progress(slug string) float64 {
	return s.state.Progress(slug)
}
