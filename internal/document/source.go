package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileOpener opens stored documents by key. Opening a missing key must
// return an error matching fs.ErrNotExist.
type FileOpener interface {
	Open(key string) (*os.File, error)
}

// Source loads stored presentations.
type Source struct {
	files FileOpener
}

// NewSource creates a Source reading documents from files.
func NewSource(files FileOpener) *Source {
	return &Source{files: files}
}

// Load opens and parses the document stored under key. It returns
// ErrDocumentNotFound when nothing is stored there and ErrDocumentParse
// when the stored bytes are not a presentation.
func (s *Source) Load(ctx context.Context, key string) (*Presentation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.files.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, key)
		}
		return nil, fmt.Errorf("failed to open document %s: %w", key, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat document %s: %w", key, err)
	}

	return ParsePPTX(f, info.Size())
}
