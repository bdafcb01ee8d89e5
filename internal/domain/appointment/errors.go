package appointment

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotUnavailable     = errors.New("requested time slot is not available")
	ErrInvalidTransition   = errors.New("invalid appointment status transition")
	ErrInvalidDuration     = errors.New("appointment duration must be greater than zero")
	ErrInvalidStatus       = errors.New("invalid appointment status")
)
