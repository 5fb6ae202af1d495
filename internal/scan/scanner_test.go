package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestScanRoot(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "WhatsApp Chat with Family.txt"), "")
	write(t, filepath.Join(root, "nested", "export.TXT"), "note\n1/1/24, 09:00 - A: hi\n")
	write(t, filepath.Join(root, "notes.txt"), "just some notes\n")
	write(t, filepath.Join(root, "chat.json"), "1/1/24, 09:00 - A: hi\n")
	write(t, filepath.Join(root, ".cache", "WhatsApp Chat with Hidden.txt"), "1/1/24, 09:00 - A: hi\n")

	files, err := ScanRoot(root)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f.Path))
		assert.NotZero(t, f.Mtime)
	}
	assert.ElementsMatch(t, []string{"WhatsApp Chat with Family.txt", "export.TXT"}, names)
}

func TestScanRoot_MissingOrEmptyRoot(t *testing.T) {
	files, err := ScanRoot(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = ScanRoot("")
	require.NoError(t, err)
	assert.Empty(t, files)
}
