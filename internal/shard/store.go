package shard

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPrefix is the file name prefix shared by all shard files.
const DefaultPrefix = "SHARD_"

// IOError reports a failed shard file operation.
type IOError struct {
	Op   string // "open", "read", "write", "close", "remove", "scan"
	Key  string // Shard Key (empty for the single shard)
	Path string // Shard file path
	Err  error  // Underlying error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("shard %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsIOError reports whether err wraps an IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// Store is a directory of append-only shard files.
//
// Store holds no open handles between calls: every operation acquires and
// releases its own file. Callers must serialize Contains/Append pairs for the
// same key when producers run concurrently.
type Store struct {
	dir    string
	prefix string
}

// NewStore creates a store rooted at dir. An empty prefix selects
// DefaultPrefix.
func NewStore(dir, prefix string) *Store {
	if dir == "" {
		dir = "."
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{dir: dir, prefix: prefix}
}

// Dir returns the directory holding the shard files.
func (s *Store) Dir() string {
	return s.dir
}

// Prefix returns the shard file name prefix.
func (s *Store) Prefix() string {
	return s.prefix
}

// Path returns the file path for a Shard Key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, s.prefix+SafeName(key))
}

// Contains reports whether the shard for key already holds arrangement.
// A shard file that does not exist holds nothing.
func (s *Store) Contains(key, arrangement string) (bool, error) {
	path := s.Path(key)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &IOError{Op: "open", Key: key, Path: path, Err: err}
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 && strings.TrimSuffix(line, "\n") == arrangement {
			return true, nil
		}
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, &IOError{Op: "read", Key: key, Path: path, Err: err}
		}
	}
}

// Append writes arrangement as a new line at the end of the shard for key,
// creating the file first when needed. It reports whether the file was
// created by this call.
func (s *Store) Append(key, arrangement string) (created bool, err error) {
	path := s.Path(key)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE|os.O_EXCL, 0o644)
	switch {
	case err == nil:
		created = true
	case errors.Is(err, fs.ErrExist):
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return false, &IOError{Op: "open", Key: key, Path: path, Err: err}
		}
	default:
		return false, &IOError{Op: "open", Key: key, Path: path, Err: err}
	}

	if _, err := f.WriteString(arrangement + "\n"); err != nil {
		f.Close()
		return created, &IOError{Op: "write", Key: key, Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return created, &IOError{Op: "close", Key: key, Path: path, Err: err}
	}
	return created, nil
}

// Open opens the shard for key for reading.
// Callers are responsible for closing the returned file.
func (s *Store) Open(key string) (*os.File, error) {
	path := s.Path(key)
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Key: key, Path: path, Err: err}
	}
	return f, nil
}

// Remove deletes the shard file for key.
func (s *Store) Remove(key string) error {
	path := s.Path(key)
	if err := os.Remove(path); err != nil {
		return &IOError{Op: "remove", Key: key, Path: path, Err: err}
	}
	return nil
}

// Scan lists the keys of the shard files currently present in the
// directory. Used to rebuild a registry when resuming an aborted run.
func (s *Store) Scan() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &IOError{Op: "scan", Path: s.dir, Err: err}
	}

	var keys []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		suffix, ok := strings.CutPrefix(entry.Name(), s.prefix)
		if !ok {
			continue
		}
		key, err := ParseSafeName(suffix)
		if err != nil {
			// Not one of ours; a sibling file that happens to share the prefix.
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}
