package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrTranscriptNotFound is returned when a transcript key is not in the store.
var ErrTranscriptNotFound = errors.New("transcript not found")

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS transcripts (
    transcript_key TEXT PRIMARY KEY,
    source         TEXT NOT NULL,
    file_path      TEXT NOT NULL DEFAULT '',
    title          TEXT NOT NULL DEFAULT '',
    first_at       TEXT NOT NULL DEFAULT '',
    last_at        TEXT NOT NULL DEFAULT '',
    messages       INTEGER NOT NULL DEFAULT 0,
    unparsable     INTEGER NOT NULL DEFAULT 0,
    mtime          INTEGER NOT NULL DEFAULT 0,
    size           INTEGER NOT NULL DEFAULT 0,
    imported_at    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS messages (
    transcript_key TEXT NOT NULL,
    msg_id         INTEGER NOT NULL,
    ts             TEXT NOT NULL DEFAULT '',
    header         TEXT NOT NULL DEFAULT '',
    sender         TEXT NOT NULL,
    body           TEXT NOT NULL,
    line_number    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (transcript_key, msg_id)
);

CREATE INDEX IF NOT EXISTS messages_sender ON messages(transcript_key, sender);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    body,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, body) VALUES (new.rowid, new.body);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, body) VALUES('delete', old.rowid, old.body);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, body) VALUES('delete', old.rowid, old.body);
    INSERT INTO messages_fts(rowid, body) VALUES (new.rowid, new.body);
END;
`

const (
	SourceFile  = "file"
	SourceStdin = "stdin"
)

// timeLayout is how timestamps are stored; empty means no parsed timestamp.
const timeLayout = "2006-01-02T15:04:05Z"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	// schema version tracking for forced re-import
	db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)")
	d := &DB{db: db}
	d.migrateSchemaVersion()

	return d, nil
}

// schemaVersion should be bumped whenever parsing changes so that every
// file-backed transcript is re-imported.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		d.db.Exec("UPDATE transcripts SET mtime = 0, size = 0")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type FileState struct {
	Mtime int64
	Size  int64
}

// GetFileState returns nil when the transcript has never been imported.
func (d *DB) GetFileState(key string) (*FileState, error) {
	var st FileState
	err := d.db.QueryRow(
		"SELECT mtime, size FROM transcripts WHERE transcript_key = ?",
		key,
	).Scan(&st.Mtime, &st.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (d *DB) DeleteTranscript(key string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteTranscript(tx, key); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteTranscript removes key's rows inside an open transaction.
func deleteTranscript(tx *sql.Tx, key string) error {
	if _, err := tx.Exec("DELETE FROM messages WHERE transcript_key = ?", key); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM transcripts WHERE transcript_key = ?", key)
	return err
}

func (d *DB) TranscriptCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM transcripts").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

// FTSCount is the number of rows in the full-text index; it should match
// MessageCount.
func (d *DB) FTSCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&n)
	return n, err
}

type TranscriptRow struct {
	Key        string
	Source     string
	FilePath   string
	Title      string
	FirstAt    string
	LastAt     string
	Messages   int
	Unparsable int
	ImportedAt string
}

const transcriptColumns = "transcript_key, source, file_path, title, first_at, last_at, messages, unparsable, imported_at"

func scanTranscript(row interface{ Scan(...any) error }) (TranscriptRow, error) {
	var t TranscriptRow
	err := row.Scan(&t.Key, &t.Source, &t.FilePath, &t.Title, &t.FirstAt, &t.LastAt, &t.Messages, &t.Unparsable, &t.ImportedAt)
	return t, err
}

func (d *DB) GetTranscript(key string) (*TranscriptRow, error) {
	t, err := scanTranscript(d.db.QueryRow(
		"SELECT "+transcriptColumns+" FROM transcripts WHERE transcript_key = ?", key,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTranscripts returns transcripts newest activity first.
func (d *DB) ListTranscripts(limit int) ([]TranscriptRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.Query(
		"SELECT "+transcriptColumns+" FROM transcripts ORDER BY last_at DESC, transcript_key LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TranscriptRow
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type MessageRow struct {
	TranscriptKey string
	MsgID         int
	Ts            string
	Header        string
	Sender        string
	Body          string
	LineNumber    int
}

const messageColumns = "transcript_key, msg_id, ts, header, sender, body, line_number"

func scanMessages(rows *sql.Rows) ([]MessageRow, error) {
	var out []MessageRow
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.TranscriptKey, &m.MsgID, &m.Ts, &m.Header, &m.Sender, &m.Body, &m.LineNumber); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (d *DB) GetMessages(key string) ([]MessageRow, error) {
	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE transcript_key = ? ORDER BY msg_id",
		key,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (d *DB) GetMessage(key string, msgID int) (*MessageRow, error) {
	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE transcript_key = ? AND msg_id = ?",
		key, msgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: %s message %d", ErrTranscriptNotFound, key, msgID)
	}
	return &msgs[0], nil
}

// GetMessagesWindow returns the messages around hitMsgID. startPos is the
// number of messages before the returned window and totalCount the size of
// the transcript.
func (d *DB) GetMessagesWindow(key string, hitMsgID, context int) (msgs []MessageRow, hitIdx int, startPos int, totalCount int, err error) {
	err = d.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE transcript_key = ?", key,
	).Scan(&totalCount)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	// msg_id is dense from 0, so it doubles as the row position
	hitPos := -1
	if hitMsgID >= 0 && hitMsgID < totalCount {
		hitPos = hitMsgID
	}

	startPos = 0
	limit := totalCount
	if hitPos >= 0 {
		startPos = max(hitPos-context, 0)
		endPos := min(hitPos+context+1, totalCount)
		limit = endPos - startPos
	}

	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE transcript_key = ? ORDER BY msg_id LIMIT ? OFFSET ?",
		key, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	msgs, err = scanMessages(rows)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	hitIdx = -1
	for i, m := range msgs {
		if m.MsgID == hitMsgID {
			hitIdx = i
		}
	}
	return msgs, hitIdx, startPos, totalCount, nil
}
