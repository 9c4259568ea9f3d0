package domain

import "errors"

// Sentinel errors used throughout the application.
// The API handlers translate these to HTTP status codes via a single
// mapError function; the queue consumer maps them to ack/nack decisions.
var (
	ErrNotFound          = errors.New("not found")
	ErrNoValidCategories = errors.New("no valid categories in preferences")
	ErrNoContent         = errors.New("no content available for any requested category")
	ErrNoArticle         = errors.New("upstream returned no usable article")
	ErrDuplicateEmail    = errors.New("account with this email already exists")
	ErrDecodeFailure     = errors.New("malformed message payload")
)
