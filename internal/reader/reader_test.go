package reader

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/everhopes/scripture/core/canon"
	"github.com/everhopes/scripture/core/sqlite"
	"github.com/everhopes/scripture/internal/overlay"
	"github.com/everhopes/scripture/internal/provision"
	"github.com/everhopes/scripture/internal/switcher"
)

type mapSource map[string][]byte

func (m mapSource) Resolve(name string) (io.ReadCloser, error) {
	data, ok := m[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func buildAsset(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sqlite.Open(path)
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE BibleID (SN INTEGER PRIMARY KEY, KindSN INTEGER, ChapterNumber INTEGER, NewOrOld INTEGER, PinYin TEXT, ShortName TEXT, FullName TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE Bible (ID INTEGER PRIMARY KEY, VolumeSN INTEGER, ChapterSN INTEGER, VerseSN INTEGER, Lection TEXT)`)
	require.NoError(t, err)

	for _, m := range canon.Books() {
		_, err = db.Exec(`INSERT INTO BibleID (SN, ChapterNumber, ShortName, FullName) VALUES (?, ?, ?, ?)`,
			m.Serial, m.ChapterCount, m.ShortName, m.FullName)
		require.NoError(t, err)
	}
	for i, text := range []string{
		"起初神创造天地。",
		"地是空虚混沌．渊面黑暗。",
		"神说、要有光、就有了光。",
	} {
		_, err = db.Exec(`INSERT INTO Bible (ID, VolumeSN, ChapterSN, VerseSN, Lection) VALUES (?, 1, 1, ?, ?)`, i+1, i+1, text)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// newSession builds a full stack in a temp directory.
func newSession(t *testing.T) *Session {
	t.Helper()
	asset := buildAsset(t)
	src := mapSource{
		"bible_cuv.db.xz": asset,
		"bible_cnv.db.xz": asset,
	}
	dataDir := t.TempDir()
	coord := switcher.New(provision.New(dataDir, src))
	t.Cleanup(func() { coord.Close() })

	state, err := overlay.Open(filepath.Join(dataDir, "overlay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { state.Close() })

	return NewSession(coord, state)
}

func TestStartDefaultsWhenNothingRemembered(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Start(context.Background(), "cuv"))
	assert.Equal(t, "cuv", s.Active())
	assert.Equal(t, canon.Position{BookSerial: 1, Chapter: 1}, s.Position())
}

func TestStartRestoresRememberedState(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Start(context.Background(), "cuv"))
	require.NoError(t, s.SwitchTranslation(context.Background(), "cnv"))
	_, err := s.OpenChapter(context.Background(), 19, 23)
	require.NoError(t, err)

	// A second session over the same state resumes where this one left off.
	asset := buildAsset(t)
	src := mapSource{"bible_cuv.db.xz": asset, "bible_cnv.db.xz": asset}
	dataDir := t.TempDir()
	coord := switcher.New(provision.New(dataDir, src))
	t.Cleanup(func() { coord.Close() })

	s2 := NewSession(coord, s.state)
	require.NoError(t, s2.Start(context.Background(), "cuv"))
	assert.Equal(t, "cnv", s2.Active())
	assert.Equal(t, canon.Position{BookSerial: 19, Chapter: 23}, s2.Position())
}

func TestOpenChapterDecoratesHighlights(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Start(context.Background(), "cuv"))

	s.ToggleHighlight(overlay.HighlightKey{BookSerial: 1, Chapter: 1, Verse: 2})

	view, err := s.OpenChapter(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, view.Verses, 3)
	assert.False(t, view.Verses[0].Highlighted)
	assert.True(t, view.Verses[1].Highlighted)
	assert.False(t, view.Verses[2].Highlighted)
	assert.Equal(t, "起初神创造天地。", view.Verses[0].Text)
	assert.NotEmpty(t, view.Generation)
}

func TestOpenChapterRecordsVisitAndPosition(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Start(context.Background(), "cuv"))

	_, err := s.OpenChapter(context.Background(), 1, 1)
	require.NoError(t, err)
	_, err = s.OpenChapter(context.Background(), 19, 23)
	require.NoError(t, err)

	hist := s.History()
	require.Len(t, hist, 2)
	assert.Equal(t, canon.Position{BookSerial: 19, Chapter: 23}, hist[0].Position())
	assert.Equal(t, "诗篇", hist[0].DisplayName)
	assert.Equal(t, canon.Position{BookSerial: 1, Chapter: 1}, hist[1].Position())
	assert.Equal(t, "创世记", hist[1].DisplayName)
	assert.Equal(t, canon.Position{BookSerial: 19, Chapter: 23}, s.Position())
}

func TestOpenChapterClampsOutOfRange(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Start(context.Background(), "cuv"))

	view, err := s.OpenChapter(context.Background(), 1, 999)
	require.NoError(t, err)
	assert.Equal(t, canon.Position{BookSerial: 1, Chapter: 50}, view.Position)
}

func TestSwitchTranslationPersistsChoice(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Start(context.Background(), "cuv"))
	require.NoError(t, s.SwitchTranslation(context.Background(), "cnv"))
	assert.Equal(t, "cnv", s.Active())

	// A failed switch leaves both the active translation and the saved
	// choice untouched.
	err := s.SwitchTranslation(context.Background(), "kjv")
	require.Error(t, err)
	assert.Equal(t, "cnv", s.Active())
}

func TestProgressRoundtrip(t *testing.T) {
	s := newSession(t)
	assert.Zero(t, s.Progress("a-post"))
	s.SaveProgress("a-post", 0.6)
	assert.Equal(t, 0.6, s.Progress("a-post"))
}
