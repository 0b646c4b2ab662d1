package domain

import "errors"

// ErrNotFound and related errors describe why a board operation did not apply.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidTitle      = errors.New("invalid title")
	ErrInvalidLevel      = errors.New("invalid level")
	ErrInvalidDate       = errors.New("invalid date")
	ErrParentNotSelected = errors.New("parent not selected")
	ErrNotSiblings       = errors.New("items are not siblings")
	ErrInvalidDocument   = errors.New("invalid document")
)
