package service

import (
	"errors"

	"field-data-be/internal/repository/contract"
)

var (
	// ErrMissingLocation blocks saving a record before the first position
	// reading arrives.
	ErrMissingLocation   = errors.New("location not available yet, wait for a GPS fix before saving")
	ErrEmptyNote         = errors.New("note content is empty")
	ErrBlankProjectName  = errors.New("project name is blank")
	ErrClearNotConfirmed = errors.New("clearing all records requires confirm=true")

	ErrNotFound        = contract.ErrRecordNotFound
	ErrProjectNotFound = contract.ErrProjectNotFound
)
