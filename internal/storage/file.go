package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSink appends lines to a shared append-only file.
// Each Append opens the file, writes once, and closes it again.
type FileSink struct {
	path string
	sync bool
	mu   sync.Mutex
}

// NewFileSink returns a sink for path. With syncWrites set every append is fsynced.
func NewFileSink(path string, syncWrites bool) *FileSink {
	return &FileSink{path: path, sync: syncWrites}
}

// Path returns the destination file.
func (s *FileSink) Path() string { return s.path }

// EnsureFile creates an empty file (and its parent directories) if path does not exist.
func EnsureFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	return f.Close()
}

// Append writes line followed by '\n' as a single write.
func (s *FileSink) Append(line string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", s.path, cerr)
		}
	}()

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err = f.Write(buf); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if s.sync {
		if err = f.Sync(); err != nil {
			return fmt.Errorf("sync %s: %w", s.path, err)
		}
	}
	return nil
}
