package deckerrors

import "errors"

// Deck ingestion and catalog sentinel errors. Shared by deck, storage, catalog, api and ws
// to avoid circular imports.
var (
	ErrDeckNotFound      = errors.New("deck not found")
	ErrUnsupportedFormat = errors.New("unsupported deck file format")
	ErrNoPairs           = errors.New("file contains no valid, unique word pairs in the first two columns")
	ErrUploadTooLarge    = errors.New("uploaded file is too large")
)
