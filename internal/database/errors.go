package database

import "errors"

// ErrDuplicate is returned by writers when a unique key already exists.
var ErrDuplicate = errors.New("duplicate key")
