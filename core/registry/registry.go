// Package registry enumerates the translations bundled with the
// application. Each descriptor names the packaged asset, the provisioned
// filename, and the SQL templates for the corpus's own schema. The registry
// is the only place that knows how the source schemas differ: the CUV-family
// databases keep books in a dedicated BibleID table joined against a Bible
// verse table, while the ASV corpus is a single flat verse table. Both
// template sets alias their columns to one uniform projection so a single
// query engine serves every translation.
package registry

import (
	"strings"

	"github.com/everhopes/scripture/core/errors"
)

// Descriptor identifies one scripture corpus. Immutable, defined at build
// time; the set is fixed and enumerable.
type Descriptor struct {
	// Key is the stable translation key (e.g. "cuv").
	Key string

	// Filename is the database filename inside the writable data directory.
	Filename string

	// AssetName is the packaged asset to materialize. A ".xz" suffix marks
	// an xz-compressed asset that is decoded during provisioning.
	AssetName string

	// Checksum is the optional BLAKE3 hex digest of the decoded database.
	// When set, the provisioner verifies it before publishing the file.
	Checksum string

	// DisplayName is the human-readable translation title.
	DisplayName string

	// BooksQuery lists all 66 books. Must project the uniform columns
	// (serial, full_name, short_name, chapter_count) ordered by serial.
	BooksQuery string

	// VersesQuery lists one chapter, bound to (bookSerial, chapter). Must
	// project (id, book_serial, chapter, verse_number, text) ordered by
	// verse_number.
	VersesQuery string
}

// CompressedAsset reports whether the packaged asset is xz-compressed.
func (d Descriptor) CompressedAsset() bool {
	return strings.HasSuffix(d.AssetName, ".xz")
}

const (
	// Query templates for the CUV-family schema (BibleID + Bible tables,
	// see the reference corpus layout).
	cuvBooksQuery = `SELECT SN AS serial, FullName AS full_name, ShortName AS short_name, ChapterNumber AS chapter_count
FROM BibleID ORDER BY SN`
	cuvVersesQuery = `SELECT ID AS id, VolumeSN AS book_serial, ChapterSN AS chapter, VerseSN AS verse_number, Lection AS text
FROM Bible WHERE VolumeSN = ? AND ChapterSN = ? ORDER BY VerseSN`

	// Query templates for the flat single-table schema.
	flatBooksQuery = `SELECT book_number AS serial, book_name AS full_name, book_abbr AS short_name, MAX(chapter) AS chapter_count
FROM verses GROUP BY book_number, book_name, book_abbr ORDER BY book_number`
	flatVersesQuery = `SELECT id, book_number AS book_serial, chapter, verse AS verse_number, text
FROM verses WHERE book_number = ? AND chapter = ? ORDER BY verse`
)

var descriptors = []Descriptor{
	{
		Key:         "cuv",
		Filename:    "bible_cuv.db",
		AssetName:   "bible_cuv.db.xz",
		DisplayName: "和合本",
		BooksQuery:  cuvBooksQuery,
		VersesQuery: cuvVersesQuery,
	},
	{
		Key:         "cnv",
		Filename:    "bible_cnv.db",
		AssetName:   "bible_cnv.db.xz",
		DisplayName: "新译本",
		BooksQuery:  cuvBooksQuery,
		VersesQuery: cuvVersesQuery,
	},
	{
		Key:         "asv",
		Filename:    "bible_asv.db",
		AssetName:   "bible_asv.db.xz",
		DisplayName: "American Standard Version",
		BooksQuery:  flatBooksQuery,
		VersesQuery: flatVersesQuery,
	},
}

var byKey = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Key] = d
	}
	return m
}()

// Describe returns the descriptor for a translation key. Fails with an
// *errors.UnknownTranslationError for keys outside the bundled set.
func Describe(key string) (Descriptor, error) {
	d, ok := byKey[key]
	if !ok {
		return Descriptor{}, errors.NewUnknownTranslation(key)
	}
	return d, nil
}

// Keys enumerates the supported translation keys in registry order.
func Keys() []string {
	keys := make([]string, len(descriptors))
	for i, d := range descriptors {
		keys[i] = d.Key
	}
	return keys
}

// All returns every descriptor in registry order.
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}
