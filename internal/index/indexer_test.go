package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

const family = "Messages are end-to-end encrypted.\n" +
	"1/1/24, 09:00 - Alice created group \"Family\"\n" +
	"1/1/24, 09:05 - Alice: Good morning\n" +
	"31/2/24, 09:06 - Bob: broken date\n" +
	"2/1/24, 10:00 - Bob: pizza tonight?\nor pasta\n"

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "sub", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeExport(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestImportFile_StoresAndLoads(t *testing.T) {
	db := openTestDB(t)
	ix := NewIndexer(db, zerolog.Nop())
	path := writeExport(t, t.TempDir(), "WhatsApp Chat with Family.txt", family)

	key, updated, err := ix.ImportFile(path)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.True(t, strings.HasPrefix(key, "family-"), key)

	row, err := db.GetTranscript(key)
	require.NoError(t, err)
	assert.Equal(t, SourceFile, row.Source)
	assert.Equal(t, "Family", row.Title)
	assert.Equal(t, 4, row.Messages)
	assert.Equal(t, 1, row.Unparsable)
	assert.Equal(t, "2024-01-01T09:00:00Z", row.FirstAt)
	assert.Equal(t, "2024-01-02T10:00:00Z", row.LastAt)

	table, _, err := LoadTable(db, key)
	require.NoError(t, err)
	direct := transcript.Preprocess(family)
	assert.Equal(t, direct.Records(), table.Records())
	assert.Equal(t, []string{"Alice", "Bob", parse.GroupNotification}, table.Senders())

	records := table.Records()
	assert.Nil(t, records[2].Timestamp)
	assert.Equal(t, "pizza tonight?\nor pasta\n", records[3].Body)
	assert.Equal(t, 5, records[3].LineNumber)
}

func TestImportFile_SkipsUnchanged(t *testing.T) {
	db := openTestDB(t)
	ix := NewIndexer(db, zerolog.Nop())
	path := writeExport(t, t.TempDir(), "chat.txt", family)

	_, updated, err := ix.ImportFile(path)
	require.NoError(t, err)
	require.True(t, updated)

	_, updated, err = ix.ImportFile(path)
	require.NoError(t, err)
	assert.False(t, updated)

	// a changed file is re-imported in place
	require.NoError(t, os.WriteFile(path, []byte(family+"3/1/24, 08:00 - Alice: more\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	key, updated, err := ix.ImportFile(path)
	require.NoError(t, err)
	assert.True(t, updated)

	n, err := db.TranscriptCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	msgs, err := db.GetMessages(key)
	require.NoError(t, err)
	assert.Len(t, msgs, 5)
}

func TestImportAll_ScansAndPrunes(t *testing.T) {
	db := openTestDB(t)
	ix := NewIndexer(db, zerolog.Nop())
	root := t.TempDir()
	a := writeExport(t, root, "WhatsApp Chat with A.txt", family)
	writeExport(t, root, "WhatsApp Chat with B.txt", "1/1/24, 09:00 - B: hi\n")
	writeExport(t, root, "readme.txt", "nothing here\n")

	stats, err := ix.ImportAll(root)
	require.NoError(t, err)
	assert.Equal(t, Stats{Scanned: 2, Updated: 2}, stats)

	stats, err = ix.ImportAll(root)
	require.NoError(t, err)
	assert.Equal(t, Stats{Scanned: 2, Skipped: 2}, stats)

	stdinKey, err := ix.ImportReader(strings.NewReader("1/1/24, 09:00 - C: piped\n"), "")
	require.NoError(t, err)

	require.NoError(t, os.Remove(a))
	stats, err = ix.ImportAll(root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pruned)

	rows, err := db.ListTranscripts(0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	_, err = db.GetTranscript(stdinKey)
	assert.NoError(t, err, "stdin imports survive pruning")
}

func TestImportReader(t *testing.T) {
	db := openTestDB(t)
	ix := NewIndexer(db, zerolog.Nop())

	key, err := ix.ImportReader(strings.NewReader("\ufeff"+strings.ReplaceAll(family, "\n", "\r\n")), "piped")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "stdin:"))

	row, err := db.GetTranscript(key)
	require.NoError(t, err)
	assert.Equal(t, SourceStdin, row.Source)
	assert.Equal(t, "piped", row.Title)
	assert.Empty(t, row.FilePath)

	table, _, err := LoadTable(db, key)
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, "pizza tonight?\nor pasta\n", table.Records()[3].Body)
}

func TestLoadTable_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, _, err := LoadTable(db, "missing")
	assert.ErrorIs(t, err, ErrTranscriptNotFound)
}

func TestGetMessagesWindow(t *testing.T) {
	db := openTestDB(t)
	ix := NewIndexer(db, zerolog.Nop())
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("1/1/24, 09:0" + string(rune('0'+i)) + " - A: m\n")
	}
	key, err := ix.ImportReader(strings.NewReader(b.String()), "")
	require.NoError(t, err)

	msgs, hit, start, total, err := db.GetMessagesWindow(key, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	assert.Equal(t, 3, start)
	assert.Len(t, msgs, 5)
	assert.Equal(t, 2, hit)
	assert.Equal(t, 5, msgs[hit].MsgID)

	msgs, hit, start, _, err = db.GetMessagesWindow(key, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, start)
	assert.Len(t, msgs, 3)
	assert.Equal(t, 0, hit)

	msgs, hit, _, _, err = db.GetMessagesWindow(key, -1, 2)
	require.NoError(t, err)
	assert.Len(t, msgs, 10)
	assert.Equal(t, -1, hit)
}

func TestFTSInSync(t *testing.T) {
	db := openTestDB(t)
	ix := NewIndexer(db, zerolog.Nop())
	path := writeExport(t, t.TempDir(), "chat.txt", family)
	_, _, err := ix.ImportFile(path)
	require.NoError(t, err)

	msgs, err := db.MessageCount()
	require.NoError(t, err)
	fts, err := db.FTSCount()
	require.NoError(t, err)
	assert.Equal(t, msgs, fts)

	var hits int
	require.NoError(t, db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts WHERE messages_fts MATCH 'pizza'").Scan(&hits))
	assert.Equal(t, 1, hits)
}

func TestFileKey(t *testing.T) {
	k1 := FileKey("/a/WhatsApp Chat with Team Rocket.txt")
	k2 := FileKey("/b/WhatsApp Chat with Team Rocket.txt")
	assert.True(t, strings.HasPrefix(k1, "team-rocket-"), k1)
	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, FileKey("/a/WhatsApp Chat with Team Rocket.txt"))
	assert.True(t, strings.HasPrefix(FileKey("/x/!!!.txt"), "chat-"))
}

func TestStore_FailedReimportKeepsPreviousCopy(t *testing.T) {
	db := openTestDB(t)
	ix := NewIndexer(db, zerolog.Nop())
	path := writeExport(t, t.TempDir(), "WhatsApp Chat with Family.txt", family)

	key, _, err := ix.ImportFile(path)
	require.NoError(t, err)

	// duplicate msg_id violates the messages primary key mid-insert
	broken := &parse.Result{Records: []parse.Record{
		parse.NewRecord(0, nil, "Alice", "one\n"),
		parse.NewRecord(0, nil, "Bob", "two\n"),
	}}
	require.Error(t, ix.store(key, SourceFile, broken))

	row, err := db.GetTranscript(key)
	require.NoError(t, err)
	assert.Equal(t, "Family", row.Title)
	assert.Equal(t, 4, row.Messages)

	msgs, err := db.GetMessages(key)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)

	fts, err := db.FTSCount()
	require.NoError(t, err)
	assert.Equal(t, 4, fts)
}
