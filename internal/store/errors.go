package store

import "errors"

// ErrNotFound indicates that a requested record does not exist.
var ErrNotFound = errors.New("resource not found")
