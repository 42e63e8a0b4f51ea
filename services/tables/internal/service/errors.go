package service

import "errors"

var (
	ErrValidation   = errors.New("validation")    // 400
	ErrNotFound     = errors.New("not found")     // 404
	ErrConflict     = errors.New("conflict")      // 409
	ErrInvalidState = errors.New("invalid state") // 422
	ErrUpstream     = errors.New("upstream unavailable") // 502
)
