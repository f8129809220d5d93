// Package canon defines the fixed 66-book scripture canon shared by every
// supported translation. The canonical serial number (1..66) is the join key
// that carries positions, highlights and history across translations whose
// internal row ids differ.
package canon

// Testament identifies which testament a book belongs to.
type Testament int

const (
	// Old covers serials 1..39.
	Old Testament = iota
	// New covers serials 40..66.
	New
)

func (t Testament) String() string {
	if t == Old {
		return "old"
	}
	return "new"
}

// BookCount is the size of the canon. Every supported translation exposes
// exactly this many books.
const BookCount = 66

// OldTestamentBooks is the number of books with serials in the Old Testament.
const OldTestamentBooks = 39

// Book is one canonical book as reported by a translation's database.
type Book struct {
	Serial       int    `db:"serial"`
	FullName     string `db:"full_name"`
	ShortName    string `db:"short_name"`
	ChapterCount int    `db:"chapter_count"`
}

// Testament derives the testament from the canonical serial.
func (b Book) Testament() Testament {
	return TestamentOf(b.Serial)
}

// TestamentOf returns the testament for a canonical serial number.
func TestamentOf(serial int) Testament {
	if serial <= OldTestamentBooks {
		return Old
	}
	return New
}

// ValidSerial reports whether serial is inside the canon.
func ValidSerial(serial int) bool {
	return serial >= 1 && serial <= BookCount
}

// Verse is a single verse row from a translation's database. ID is unique
// only within its source table, never across translations.
type Verse struct {
	ID          int    `db:"id"`
	BookSerial  int    `db:"book_serial"`
	Chapter     int    `db:"chapter"`
	VerseNumber int    `db:"verse_number"`
	Text        string `db:"text"`
}

// Position is a reader location expressed in canon coordinates, which makes
// it meaningful in any translation.
type Position struct {
	BookSerial int
	Chapter    int
}

// Clamp resolves the position against a concrete translation's book list.
// The same serial is re-selected with the chapter clamped to that book's
// chapter count. If the serial does not resolve (a malformed corpus), the
// position falls back to the first book, chapter 1.
func (p Position) Clamp(books []Book) Position {
	for _, b := range books {
		if b.Serial != p.BookSerial {
			continue
		}
		ch := p.Chapter
		if ch < 1 {
			ch = 1
		}
		if ch > b.ChapterCount {
			ch = b.ChapterCount
		}
		return Position{BookSerial: b.Serial, Chapter: ch}
	}
	if len(books) > 0 {
		return Position{BookSerial: books[0].Serial, Chapter: 1}
	}
	return Position{BookSerial: 1, Chapter: 1}
}

// Meta is the build-time canonical metadata for one book. Names follow the
// Chinese Union Version reference corpus; chapter counts are canon-wide.
type Meta struct {
	Serial       int
	FullName     string
	ShortName    string
	ChapterCount int
}

// Books returns the canonical metadata table, ordered by serial. Used as a
// display fallback and by test fixture builders; the authoritative list for
// a given translation is always its own database.
func Books() []Meta {
	out := make([]Meta, len(books))
	copy(out, books)
	return out
}

// BookMeta returns the canonical metadata for a serial, ok=false when the
// serial is outside the canon.
func BookMeta(serial int) (Meta, bool) {
	if !ValidSerial(serial) {
		return Meta{}, false
	}
	return books[serial-1], true
}

var books = []Meta{
	{1, "创世记", "创", 50},
	{2, "出埃及记", "出", 40},
	{3, "利未记", "利", 27},
	{4, "民数记", "民", 36},
	{5, "申命记", "申", 34},
	{6, "约书亚记", "书", 24},
	{7, "士师记", "士", 21},
	{8, "路得记", "得", 4},
	{9, "撒母耳记上", "撒上", 31},
	{10, "撒母耳记下", "撒下", 24},
	{11, "列王纪上", "王上", 22},
	{12, "列王纪下", "王下", 25},
	{13, "历代志上", "代上", 29},
	{14, "历代志下", "代下", 36},
	{15, "以斯拉记", "拉", 10},
	{16, "尼希米记", "尼", 13},
	{17, "以斯帖记", "斯", 10},
	{18, "约伯记", "伯", 42},
	{19, "诗篇", "诗", 150},
	{20, "箴言", "箴", 31},
	{21, "传道书", "传", 12},
	{22, "雅歌", "歌", 8},
	{23, "以赛亚书", "赛", 66},
	{24, "耶利米书", "耶", 52},
	{25, "耶利米哀歌", "哀", 5},
	{26, "以西结书", "结", 48},
	{27, "但以理书", "但", 12},
	{28, "何西阿书", "何", 14},
	{29, "约珥书", "珥", 3},
	{30, "阿摩司书", "摩", 9},
	{31, "俄巴底亚书", "俄", 1},
	{32, "约拿书", "拿", 4},
	{33, "弥迦书", "弥", 7},
	{34, "那鸿书", "鸿", 3},
	{35, "哈巴谷书", "哈", 3},
	{36, "西番雅书", "番", 3},
	{37, "哈该书", "该", 2},
	{38, "撒迦利亚书", "亚", 14},
	{39, "玛拉基书", "玛", 4},
	{40, "马太福音", "太", 28},
	{41, "马可福音", "可", 16},
	{42, "路加福音", "路", 24},
	{43, "约翰福音", "约", 21},
	{44, "使徒行传", "徒", 28},
	{45, "罗马书", "罗", 16},
	{46, "哥林多前书", "林前", 16},
	{47, "哥林多后书", "林后", 13},
	{48, "加拉太书", "加", 6},
	{49, "以弗所书", "弗", 6},
	{50, "腓立比书", "腓", 4},
	{51, "歌罗西书", "西", 4},
	{52, "帖撒罗尼迦前书", "帖前", 5},
	{53, "帖撒罗尼迦后书", "帖后", 3},
	{54, "提摩太前书", "提前", 6},
	{55, "提摩太后书", "提后", 4},
	{56, "提多书", "多", 3},
	{57, "腓利门书", "门", 1},
	{58, "希伯来书", "来", 13},
	{59, "雅各书", "雅", 5},
	{60, "彼得前书", "彼前", 5},
	{61, "彼得后书", "彼后", 3},
	{62, "约翰壹书", "约壹", 5},
	{63, "约翰贰书", "约贰", 1},
	{64, "约翰叁书", "约叁", 1},
	{65, "犹大书", "犹", 1},
	{66, "启示录", "启", 22},
}
