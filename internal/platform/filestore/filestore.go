// Package filestore keeps uploaded documents and result artifacts on the
// local filesystem, one flat directory per kind of file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidKey is returned for keys that are empty or would escape the root directory.
	ErrInvalidKey = errors.New("invalid file key")

	// ErrTooLarge is returned when content exceeds the size limit passed to Save.
	ErrTooLarge = errors.New("file too large")
)

// Store reads and writes files below a single root directory. Writes go to a
// temporary file first and are renamed into place, so readers never observe
// a partially written file.
type Store struct {
	root string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("filestore root directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// Root returns the directory the store writes to.
func (s *Store) Root() string {
	return s.root
}

// Path returns the filesystem path of key.
func (s *Store) Path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, key), nil
}

// Save copies r into the file named key. When maxBytes is positive and r
// holds more than maxBytes bytes nothing is stored and ErrTooLarge is returned.
func (s *Store) Save(ctx context.Context, key string, r io.Reader, maxBytes int64) (int64, error) {
	path, err := s.Path(key)
	if err != nil {
		return 0, err
	}

	var written int64
	err = s.writeAtomic(path, func(w io.Writer) error {
		src := r
		if maxBytes > 0 {
			src = io.LimitReader(r, maxBytes+1)
		}
		n, err := io.Copy(w, readerWithContext(ctx, src))
		if err != nil {
			return err
		}
		if maxBytes > 0 && n > maxBytes {
			return fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
		}
		written = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// WriteJSON stores v as indented JSON under key.
func (s *Store) WriteJSON(key string, v any) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	return s.writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// ReadJSON decodes the JSON file stored under key into v.
func (s *Store) ReadJSON(key string, v any) error {
	f, err := s.Open(key)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Open opens the file stored under key. A missing file yields an error
// matching fs.ErrNotExist.
func (s *Store) Open(key string) (*os.File, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Remove deletes the file stored under key. Removing a missing file is not an error.
func (s *Store) Remove(key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *Store) writeAtomic(path string, write func(w io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".tmp-") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
