package upload

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
	"go.uber.org/zap"
)

var (
	// ErrInvalidExtension is returned for uploads that are not .eml files
	ErrInvalidExtension = errors.New("invalid file format, only .eml files are accepted")
	// ErrFileTooLarge is returned when an upload exceeds the size ceiling
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
	// ErrEmptyFile is returned for zero-byte uploads
	ErrEmptyFile = errors.New("file is empty")
)

var unsafeFilenameChars = regexp.MustCompile(`[^\x20-\x7E]|[/\\<>:"|?*]`)

// Store saves uploaded .eml files under random names and removes them
// again once they age out.
type Store struct {
	dir         string
	maxBytes    int64
	maxAge      time.Duration
	cleanupFreq time.Duration
	logger      *zap.Logger
	stopCh      chan struct{}
}

// NewStore creates an upload store rooted at dir and starts its
// cleanup task
func NewStore(dir string, maxBytes int64, maxAge, cleanupFreq time.Duration, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	s := &Store{
		dir:         dir,
		maxBytes:    maxBytes,
		maxAge:      maxAge,
		cleanupFreq: cleanupFreq,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}

	go s.startCleanupTask()

	return s, nil
}

// Save validates and stores one upload, returning the path of the
// stored file. The client filename is only used for validation; the
// stored name is a fresh UUID.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return "", ErrInvalidExtension
	}
	if strings.ToLower(filepath.Ext(name)) != ".eml" {
		return "", ErrInvalidExtension
	}

	dest := filepath.Join(s.dir, uuid.NewString()+".eml")
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	// Read one byte past the ceiling so oversize is detectable
	written, err := io.Copy(out, io.LimitReader(r, s.maxBytes+1))
	closeErr := out.Close()
	if err != nil || closeErr != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to store upload: %w", errors.Join(err, closeErr))
	}
	if written > s.maxBytes {
		os.Remove(dest)
		return "", ErrFileTooLarge
	}
	if written == 0 {
		os.Remove(dest)
		return "", ErrEmptyFile
	}

	return dest, nil
}

// Remove deletes a stored upload, typically after analysis completes
func (s *Store) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove upload", zap.String("path", path), zap.Error(err))
	}
}

// Stop stops the background cleanup task
func (s *Store) Stop() {
	close(s.stopCh)
}

// SanitizeFilename strips path components and unsafe characters from a
// client-supplied filename
func SanitizeFilename(filename string) string {
	name := filepath.Base(filename)
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}

func (s *Store) startCleanupTask() {
	if s.cleanupFreq <= 0 {
		return
	}

	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupOldFiles()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) cleanupOldFiles() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("Failed to read upload directory", zap.Error(err))
		return
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		s.logger.Debug("Removed stale uploads", zap.Int("removed_count", removed))
	}
}
