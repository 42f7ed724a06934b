package storage

import "errors"

// Storage error constants
var (
	// ErrUnsupportedDatabaseURL is returned when DATABASE_URL names a scheme with no registered driver
	ErrUnsupportedDatabaseURL = errors.New("unsupported database url scheme")

	// ErrInvalidCacheURL is returned when REDIS_URL cannot be parsed
	ErrInvalidCacheURL = errors.New("invalid cache url")

	// ErrNotConnected is returned when a disconnected store or cache is used
	ErrNotConnected = errors.New("not connected")
)
