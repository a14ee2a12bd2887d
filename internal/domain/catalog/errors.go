package catalog

import "errors"

var (
	ErrAppNotFound = errors.New("app not found")
	ErrInvalidApp  = errors.New("invalid app")
	ErrNameMissing = errors.New("app name is required")
)
