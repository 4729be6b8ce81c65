package model

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrMismatchedPassword = errors.New("password does not match")
)
