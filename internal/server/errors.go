package server

import "errors"

var (
	ErrMissingRunner = errors.New("server: runner is required")
	ErrBadParameter  = errors.New("bad parameter")
	ErrNoHistory     = errors.New("history is empty")
)
