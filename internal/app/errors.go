package app

import "errors"

var (
	ErrMalformedDocument = errors.New("document is not valid JSON")
	ErrEmptyDocument     = errors.New("document contains no valid workspaces")
)
