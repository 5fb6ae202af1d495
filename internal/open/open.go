package open

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/chatstat/internal/index"
)

// ErrNoFile is returned for transcripts that were imported from stdin.
var ErrNoFile = errors.New("transcript has no file")

// OpenTranscript opens the export file behind key in $EDITOR, positioned at
// the header line of message msgID (or the top when msgID < 0).
func OpenTranscript(db *index.DB, key string, msgID int) error {
	t, err := db.GetTranscript(key)
	if err != nil {
		return err
	}
	if t.Source != index.SourceFile || t.FilePath == "" {
		return fmt.Errorf("%w: %s was imported from %s", ErrNoFile, key, t.Source)
	}

	filePath := t.FilePath
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}

	lineNum := 1
	if msgID >= 0 {
		if m, err := db.GetMessage(key, msgID); err == nil && m.LineNumber > 0 {
			lineNum = m.LineNumber
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	return editorCommand(editor, filePath, lineNum).Run()
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	var cmd *exec.Cmd

	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		cmd = exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		cmd = exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		cmd = exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		cmd = exec.Command(editor, filePath)
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}
