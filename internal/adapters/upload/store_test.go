package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), maxBytes, time.Hour, 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

func TestStore_SaveValidFile(t *testing.T) {
	s := newTestStore(t, 1024)

	path, err := s.Save("message.eml", strings.NewReader("From: a@b.c\r\n\r\nhi\r\n"))
	require.NoError(t, err)

	assert.Equal(t, ".eml", filepath.Ext(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "From: a@b.c")

	// Stored name is generated, not the client's
	assert.NotContains(t, path, "message")
}

func TestStore_SaveRejectsWrongExtension(t *testing.T) {
	s := newTestStore(t, 1024)

	for _, name := range []string{"message.txt", "message", "message.eml.exe", ""} {
		_, err := s.Save(name, strings.NewReader("content"))
		assert.ErrorIs(t, err, ErrInvalidExtension, "filename %q", name)
	}
}

func TestStore_SaveRejectsOversizedFile(t *testing.T) {
	s := newTestStore(t, 8)

	_, err := s.Save("big.eml", strings.NewReader("this is more than eight bytes"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestStore_SaveRejectsEmptyFile(t *testing.T) {
	s := newTestStore(t, 1024)

	_, err := s.Save("empty.eml", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestStore_RejectedFilesLeaveNothingBehind(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, 8, time.Hour, 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	_, err = s.Save("big.eml", strings.NewReader("way past the size ceiling"))
	require.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t, 1024)

	path, err := s.Save("message.eml", strings.NewReader("From: a@b.c\r\n\r\nhi\r\n"))
	require.NoError(t, err)

	s.Remove(path)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing twice is harmless
	s.Remove(path)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"message.eml", "message.eml"},
		{"../../etc/passwd", "passwd"},
		{"with spaces.eml", "with spaces.eml"},
		{`bad<>:"|?*chars.eml`, "badchars.eml"},
		{"..", ""},
		{"héllo.eml", "hllo.eml"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestStore_CleanupRemovesAgedFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, 1024, time.Minute, 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	oldPath, err := s.Save("old.eml", strings.NewReader("From: a@b.c\r\n\r\nold\r\n"))
	require.NoError(t, err)
	freshPath, err := s.Save("fresh.eml", strings.NewReader("From: a@b.c\r\n\r\nfresh\r\n"))
	require.NoError(t, err)

	aged := time.Now().Add(-2 * time.Minute)
	require.NoError(t, os.Chtimes(oldPath, aged, aged))

	s.cleanupOldFiles()

	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshPath)
	assert.NoError(t, err)
}
