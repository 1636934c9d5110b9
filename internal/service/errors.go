package service

import (
	"errors"

	"shiftdesk/internal/model"
	"shiftdesk/internal/repository"
)

var (
	ErrNotFound     = repository.ErrNotFound
	ErrDuplicate    = errors.New("duplicate record")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("invalid email or password")
	// ErrGeocodeFailed means the geocoder could not be reached or rejected the call.
	ErrGeocodeFailed = errors.New("geocoding failed")
	// ErrLocationIncomplete means a facility has no coordinates yet.
	ErrLocationIncomplete = errors.New("facility location incomplete")
)

// DuplicateNurseError carries the nurse whose email or phone is already taken.
type DuplicateNurseError struct {
	Nurse *model.Nurse
}

func (e *DuplicateNurseError) Error() string {
	return "nurse with this email or phone number already exists"
}

func (e *DuplicateNurseError) Unwrap() error { return ErrDuplicate }
