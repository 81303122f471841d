package store

import "errors"

// ErrNotFound is returned when a row does not exist or does not belong to
// the requesting user. Handlers map it to a 404.
var ErrNotFound = errors.New("not found")
