package httpserver

import "errors"

// Run wraps the underlying cause with one of these.
var (
	ErrStart    = errors.New("httpserver: listen failed")
	ErrShutdown = errors.New("httpserver: graceful shutdown failed")
)
