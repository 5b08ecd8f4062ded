package store

import "errors"

// Sentinel errors shared by every backend. Callers wrap them with context and
// the sync layer maps them onto wire codes.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)
