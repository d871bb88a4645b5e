package document

import "errors"

var (
	// ErrDocumentNotFound is returned when the document to load does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentParse is returned when the document exists but is not a
	// readable presentation.
	ErrDocumentParse = errors.New("document parse error")
)
