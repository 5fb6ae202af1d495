package index

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Zuo-Peng/chatstat/internal/parse"
	"github.com/Zuo-Peng/chatstat/internal/scan"
	"github.com/Zuo-Peng/chatstat/internal/transcript"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

type Indexer struct {
	db  *DB
	log zerolog.Logger
	now func() time.Time
}

func NewIndexer(db *DB, log zerolog.Logger) *Indexer {
	return &Indexer{db: db, log: log, now: time.Now}
}

// ImportAll imports every export under root, skipping files whose mtime and
// size are unchanged, then prunes file-backed transcripts whose file is gone.
func (ix *Indexer) ImportAll(root string) (Stats, error) {
	var stats Stats

	files, err := scan.ScanRoot(root)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	for _, fi := range files {
		_, updated, err := ix.ImportFile(fi.Path)
		if err != nil {
			stats.Errors++
			ix.log.Warn().Err(err).Str("path", fi.Path).Msg("import failed")
			continue
		}
		if updated {
			stats.Updated++
		} else {
			stats.Skipped++
		}
	}

	pruned, err := ix.Prune()
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

// ImportFile imports one export file. updated is false when the stored copy
// is already current.
func (ix *Indexer) ImportFile(path string) (key string, updated bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", false, err
	}

	key = FileKey(abs)
	st, err := ix.db.GetFileState(key)
	if err != nil {
		return key, false, err
	}
	if st != nil && st.Mtime == info.ModTime().Unix() && st.Size == info.Size() {
		ix.log.Debug().Str("transcript", key).Msg("unchanged, skipped")
		return key, false, nil
	}

	result, err := parse.ParseFile(abs)
	if err != nil {
		return key, false, fmt.Errorf("parse %s: %w", abs, err)
	}
	if err := ix.store(key, SourceFile, result); err != nil {
		return key, false, fmt.Errorf("store %s: %w", abs, err)
	}
	return key, true, nil
}

// ImportReader stores a transcript read from r under a fresh stdin:<uuid> key.
func (ix *Indexer) ImportReader(r io.Reader, title string) (string, error) {
	result, err := parse.ParseReader(r)
	if err != nil {
		return "", fmt.Errorf("parse stdin: %w", err)
	}
	if title == "" {
		title = "stdin"
	}
	result.Meta.Title = title

	key := SourceStdin + ":" + uuid.NewString()
	if err := ix.store(key, SourceStdin, result); err != nil {
		return "", fmt.Errorf("store stdin: %w", err)
	}
	return key, nil
}

func (ix *Indexer) store(key, source string, result *parse.Result) error {
	ix.log.Info().
		Str("transcript", key).
		Int("records", len(result.Records)).
		Int("unparsable", result.Unparsable).
		Int("notifications", result.Notifications).
		Int("preamble_bytes", result.PreambleBytes).
		Msg("parsed transcript")
	if len(result.Records) == 0 {
		ix.log.Warn().Str("transcript", key).Msg("no timestamp headers found")
	}

	// replace the previous copy atomically; a failed insert keeps it
	tx, err := ix.db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteTranscript(tx, key); err != nil {
		return err
	}

	var mtime int64
	if !result.Meta.Mtime.IsZero() {
		mtime = result.Meta.Mtime.Unix()
	}
	_, err = tx.Exec(
		`INSERT INTO transcripts (transcript_key, source, file_path, title, first_at, last_at, messages, unparsable, mtime, size, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key,
		source,
		result.Meta.FilePath,
		result.Meta.Title,
		formatTime(result.Meta.FirstAt),
		formatTime(result.Meta.LastAt),
		len(result.Records),
		result.Unparsable,
		mtime,
		result.Meta.Size,
		ix.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (transcript_key, msg_id, ts, header, sender, body, line_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range result.Records {
		var ts string
		if r.Timestamp != nil {
			ts = formatTime(*r.Timestamp)
		}
		if _, err := stmt.Exec(key, r.Index, ts, r.Header, r.Sender, r.Body, r.LineNumber); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Prune deletes file-backed transcripts whose source file no longer exists.
// Stdin imports are never pruned.
func (ix *Indexer) Prune() (int, error) {
	rows, err := ix.db.ListTranscripts(0)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, t := range rows {
		if t.Source != SourceFile {
			continue
		}
		if _, err := os.Stat(t.FilePath); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := ix.db.DeleteTranscript(t.Key); err != nil {
			return pruned, err
		}
		ix.log.Info().Str("transcript", t.Key).Str("path", t.FilePath).Msg("pruned")
		pruned++
	}
	return pruned, nil
}

// LoadTable rebuilds the in-memory table of a stored transcript.
func LoadTable(db *DB, key string) (*transcript.Table, *TranscriptRow, error) {
	row, err := db.GetTranscript(key)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := db.GetMessages(key)
	if err != nil {
		return nil, nil, fmt.Errorf("get messages: %w", err)
	}

	records := make([]parse.Record, 0, len(msgs))
	for _, m := range msgs {
		var tsp *time.Time
		if m.Ts != "" {
			if ts, err := time.Parse(timeLayout, m.Ts); err == nil {
				tsp = &ts
			}
		}
		rec := parse.NewRecord(m.MsgID, tsp, m.Sender, m.Body)
		rec.Header = m.Header
		rec.LineNumber = m.LineNumber
		records = append(records, rec)
	}
	return transcript.New(records), row, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// FileKey derives a stable key from an absolute path: a slug of the chat
// title plus a short name-based UUID of the path.
func FileKey(absPath string) string {
	slug := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(parse.TitleFromPath(absPath)), "-"), "-")
	if slug == "" {
		slug = "chat"
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+absPath))
	return slug + "-" + id.String()[:8]
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
