package search

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatstat/internal/index"
)

const chat = "1/1/24, 09:00 - Alice: Pizza tonight?\n" +
	"1/1/24, 09:05 - Bob: pizza again, really\n" +
	"3/2/24, 18:00 - Alice: 我们去吃饭吧\n" +
	"31/2/24, 18:01 - Bob: pizza with a broken date\n"

func setup(t *testing.T) (*index.DB, string) {
	t.Helper()
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	key, err := index.NewIndexer(db, zerolog.Nop()).ImportReader(strings.NewReader(chat), "friends")
	require.NoError(t, err)
	return db, key
}

func TestSearch_FTS(t *testing.T) {
	db, key := setup(t)

	results, err := Search(db, Options{Query: "pizza"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, key, r.TranscriptKey)
		assert.Equal(t, "friends", r.Title)
		assert.Contains(t, strings.ToLower(r.Snippet), ">>>pizza<<<")
	}
}

func TestSearch_Filters(t *testing.T) {
	db, key := setup(t)

	results, err := Search(db, Options{Query: "pizza", Sender: "Alice"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].MsgID)
	assert.Equal(t, 1, results[0].LineNumber)

	results, err = Search(db, Options{Query: "pizza", Since: "2024-01-01T09:01"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Bob", results[0].Sender)

	results, err = Search(db, Options{Query: "pizza", Transcript: "other"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = Search(db, Options{Query: "pizza", Transcript: key, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_PunctuationFallsBackToQuotedTerms(t *testing.T) {
	db, _ := setup(t)

	results, err := Search(db, Options{Query: "tonight?"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Alice", results[0].Sender)
}

func TestSearch_CJKUsesLike(t *testing.T) {
	db, _ := setup(t)

	results, err := Search(db, Options{Query: "吃饭"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "我们去>>>吃饭<<<吧", results[0].Snippet)
}

func TestListRecent(t *testing.T) {
	db, _ := setup(t)

	results, err := ListRecent(db, Options{Limit: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].MsgID, "newest timestamp first")
	assert.NotContains(t, results[0].Snippet, ">>>")
}

func TestMakeSnippet(t *testing.T) {
	assert.Equal(t, "...bc>>>DE<<<fg...", makeSnippet("abcDEfghij", "de", 2))
	assert.Equal(t, "short", makeSnippet("short\n", "zzz", 10))
	assert.Equal(t, "abcd...", makeSnippet("abcdefgh", "", 2))
}

func TestQuoteTerms(t *testing.T) {
	assert.Equal(t, `"tonight?" "say" """hi"""`, quoteTerms(`tonight? say "hi"`))
}
