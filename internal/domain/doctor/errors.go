package doctor

import "errors"

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorAlreadyExists = errors.New("doctor with this email or license number already exists")
	ErrInvalidWorkingHours = errors.New("invalid working hours")
)
