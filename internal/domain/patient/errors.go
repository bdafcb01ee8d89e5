package patient

import "errors"

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrPatientAlreadyExists = errors.New("patient with this email or phone already exists")
	ErrPatientInactive      = errors.New("patient is inactive")
	ErrInvalidGender        = errors.New("invalid gender value")
)
