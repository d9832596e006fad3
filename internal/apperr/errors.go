package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("checksum mismatch")
	ErrAlreadyExists        = errors.New("already exists")
	ErrNoCatalogMatch       = errors.New("no catalog match")
	ErrMalformedHeader      = errors.New("malformed frontmatter header")
	ErrConflictingOwnership = errors.New("conflicting field ownership")
	ErrUpToDate             = errors.New("already up to date")
)
