package types

import "errors"

// Domain errors shared across components
var (
	// Analysis errors
	ErrUnreadable  = errors.New("file unreadable")
	ErrSyntax      = errors.New("syntax error")
	ErrUnsupported = errors.New("unsupported file type")

	// Search result errors
	ErrInvalidResultID   = errors.New("invalid result ID")
	ErrInvalidSimilarity = errors.New("similarity must be between -1 and 1")
)
