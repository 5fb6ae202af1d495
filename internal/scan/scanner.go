package scan

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zuo-Peng/chatstat/internal/parse"
)

// sniffBytes is how much of a .txt file is read to decide whether it is an export.
const sniffBytes = 4096

type FileInfo struct {
	Path  string
	Mtime int64
	Size  int64
}

// ScanRoot walks root for exported chat transcripts: .txt files named like
// "WhatsApp Chat with X.txt", or any .txt whose head holds a timestamp
// header. Hidden directories are skipped.
func ScanRoot(root string) ([]FileInfo, error) {
	if root == "" {
		return nil, nil
	}
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".txt") {
			return nil
		}
		if !IsExport(path) {
			return nil
		}
		files = append(files, FileInfo{
			Path:  path,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	return files, err
}

// IsExport reports whether the file at path looks like a chat export.
func IsExport(path string) bool {
	if strings.HasPrefix(filepath.Base(path), "WhatsApp Chat") {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, sniffBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	return parse.LooksLikeTranscript(string(buf[:n]))
}
