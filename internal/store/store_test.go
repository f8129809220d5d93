package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everhopes/scripture/core/canon"
	"github.com/everhopes/scripture/core/errors"
	"github.com/everhopes/scripture/core/registry"
	"github.com/everhopes/scripture/core/sqlite"
)

// buildCUVFixture writes a database in the joined BibleID/Bible layout with
// the full canonical book table and a handful of verses.
func buildCUVFixture(t *testing.T, path string) {
	t.Helper()
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE BibleID (
		SN INTEGER PRIMARY KEY,
		KindSN INTEGER,
		ChapterNumber INTEGER,
		NewOrOld INTEGER,
		PinYin TEXT,
		ShortName TEXT,
		FullName TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE Bible (
		ID INTEGER PRIMARY KEY,
		VolumeSN INTEGER,
		ChapterSN INTEGER,
		VerseSN INTEGER,
		Lection TEXT
	)`)
	require.NoError(t, err)

	for _, m := range canon.Books() {
		newOrOld := 0
		if canon.TestamentOf(m.Serial) == canon.New {
			newOrOld = 1
		}
		_, err = db.Exec(
			`INSERT INTO BibleID (SN, KindSN, ChapterNumber, NewOrOld, ShortName, FullName) VALUES (?, ?, ?, ?, ?, ?)`,
			m.Serial, m.Serial, m.ChapterCount, newOrOld, m.ShortName, m.FullName,
		)
		require.NoError(t, err)
	}

	verses := []struct {
		book, chapter, verse int
		text                 string
	}{
		{1, 1, 1, "起初神创造天地。"},
		{1, 1, 2, "地是空虚混沌．渊面黑暗．神的灵运行在水面上。"},
		{1, 1, 3, "神说、要有光、就有了光。"},
		{43, 3, 16, "神爱世人、甚至将他的独生子赐给他们。"},
	}
	for i, v := range verses {
		_, err = db.Exec(
			`INSERT INTO Bible (ID, VolumeSN, ChapterSN, VerseSN, Lection) VALUES (?, ?, ?, ?, ?)`,
			i+1, v.book, v.chapter, v.verse, v.text,
		)
		require.NoError(t, err)
	}
}

// buildFlatFixture writes a database in the single flat verse table layout.
// One verse per book at the book's last chapter keeps the MAX(chapter)
// aggregation honest, plus real verses in the first chapter of Genesis.
func buildFlatFixture(t *testing.T, path string) {
	t.Helper()
	db, err := sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE verses (
		id INTEGER PRIMARY KEY,
		book_number INTEGER,
		book_name TEXT,
		book_abbr TEXT,
		chapter INTEGER,
		verse INTEGER,
		text TEXT
	)`)
	require.NoError(t, err)

	id := 0
	for _, m := range canon.Books() {
		id++
		_, err = db.Exec(
			`INSERT INTO verses (id, book_number, book_name, book_abbr, chapter, verse, text) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, m.Serial, m.FullName, m.ShortName, m.ChapterCount, 1,
			fmt.Sprintf("closing verse of %s", m.FullName),
		)
		require.NoError(t, err)
	}
	for n, text := range []string{
		"In the beginning God created the heavens and the earth.",
		"And the earth was waste and void.",
	} {
		id++
		_, err = db.Exec(
			`INSERT INTO verses (id, book_number, book_name, book_abbr, chapter, verse, text) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, 1, "创世记", "创", 1, n+1, text,
		)
		require.NoError(t, err)
	}
}

func openCUV(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bible_cuv.db")
	buildCUVFixture(t, path)
	desc, err := registry.Describe("cuv")
	require.NoError(t, err)
	s, err := Open(path, desc)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openASV(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bible_asv.db")
	buildFlatFixture(t, path)
	desc, err := registry.Describe("asv")
	require.NoError(t, err)
	s, err := Open(path, desc)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestListBooksCUVSchema(t *testing.T) {
	s := openCUV(t)

	books, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, canon.BookCount)

	assert.Equal(t, 1, books[0].Serial)
	assert.Equal(t, "创世记", books[0].FullName)
	assert.Equal(t, 50, books[0].ChapterCount)
	assert.Equal(t, "启示录", books[len(books)-1].FullName)

	for i, b := range books {
		assert.Equal(t, i+1, b.Serial, "serials must be contiguous")
	}
}

func TestListBooksFlatSchema(t *testing.T) {
	s := openASV(t)

	books, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, canon.BookCount)
	assert.Equal(t, 1, books[0].Serial)
	assert.Equal(t, 50, books[0].ChapterCount)
	assert.Equal(t, 150, books[18].ChapterCount, "Psalms chapter count")
}

func TestListVerses(t *testing.T) {
	for _, tc := range []struct {
		name string
		open func(*testing.T) *Store
	}{
		{"cuv", openCUV},
		{"asv", openASV},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.open(t)

			verses, err := s.ListVerses(context.Background(), 1, 1)
			require.NoError(t, err)
			require.NotEmpty(t, verses)
			for i, v := range verses {
				assert.Equal(t, 1, v.BookSerial)
				assert.Equal(t, 1, v.Chapter)
				assert.Equal(t, i+1, v.VerseNumber, "verses ordered by number")
				assert.NotEmpty(t, v.Text)
			}
		})
	}
}

func TestListVersesEmptyChapter(t *testing.T) {
	s := openCUV(t)

	verses, err := s.ListVerses(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Empty(t, verses)
}

func TestListVersesInvalidInput(t *testing.T) {
	s := openCUV(t)

	_, err := s.ListVerses(context.Background(), 0, 1)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, err = s.ListVerses(context.Background(), 1, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestChapterCache(t *testing.T) {
	s := openCUV(t)

	first, err := s.ListVerses(context.Background(), 1, 1)
	require.NoError(t, err)
	second, err := s.ListVerses(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), s.CacheStats().Hits)
}

func TestOpenMissingDatabase(t *testing.T) {
	desc, err := registry.Describe("cuv")
	require.NoError(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "absent.db"), desc)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrOpen)

	var oerr *errors.OpenError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "cuv", oerr.Key)
}

func TestCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bible_cuv.db")
	buildCUVFixture(t, path)
	desc, err := registry.Describe("cuv")
	require.NoError(t, err)

	s, err := Open(path, desc)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	var nilStore *Store
	assert.NoError(t, nilStore.Close())
}
